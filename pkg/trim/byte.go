package trim

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseByte parses a byte value written in hex, such as "0", "00", "ff" or
// "0xFF". Case is ignored. Anything else wraps [ErrInvalidByte].
func ParseByte(s string) (byte, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	if digits == "" || len(digits) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidByte, s)
	}

	v, err := strconv.ParseUint(digits, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidByte, s)
	}

	return byte(v), nil
}

// FormatByte renders b the way [ParseByte] accepts it, as two lowercase hex
// digits.
func FormatByte(b byte) string {
	return fmt.Sprintf("%02x", b)
}
