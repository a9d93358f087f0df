package trim

import (
	"errors"
	"testing"
)

func Test_ParseByte_Accepts_Hex_When_Input_Is_Valid(t *testing.T) {
	cases := map[string]byte{
		"0":    0x00,
		"00":   0x00,
		"f":    0x0f,
		"ff":   0xff,
		"FF":   0xff,
		"0x1a": 0x1a,
		"0XA":  0x0a,
		"7f":   0x7f,
	}

	for in, want := range cases {
		got, err := ParseByte(in)
		if err != nil {
			t.Fatalf("ParseByte(%q): %v", in, err)
		}

		if got != want {
			t.Fatalf("ParseByte(%q)=%#x, want=%#x", in, got, want)
		}
	}
}

func Test_ParseByte_Returns_ErrInvalidByte_When_Input_Is_Not_One_Hex_Byte(t *testing.T) {
	for _, in := range []string{"", "0x", "zz", "100", "-1", "+1", "1 ", "g0", "0x100"} {
		if _, err := ParseByte(in); !errors.Is(err, ErrInvalidByte) {
			t.Fatalf("ParseByte(%q) err=%v, want ErrInvalidByte", in, err)
		}
	}
}

func Test_FormatByte_Round_Trips_When_Parsed_Back(t *testing.T) {
	for i := range 256 {
		b := byte(i)

		got, err := ParseByte(FormatByte(b))
		if err != nil {
			t.Fatalf("ParseByte(FormatByte(%#x)): %v", b, err)
		}

		if got != b {
			t.Fatalf("round trip=%#x, want=%#x", got, b)
		}
	}
}
