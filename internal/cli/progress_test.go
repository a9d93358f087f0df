package cli

import (
	"bytes"
	"strings"
	"testing"
)

func Test_ShowProgress_Follows_Mode_When_Stderr_Is_Not_A_Terminal(t *testing.T) {
	t.Parallel()

	never := func(any) bool { return false }
	always := func(any) bool { return true }

	cases := []struct {
		mode       string
		isTerminal func(any) bool
		want       bool
	}{
		{mode: "always", isTerminal: never, want: true},
		{mode: "never", isTerminal: always, want: false},
		{mode: "auto", isTerminal: never, want: false},
		{mode: "auto", isTerminal: always, want: true},
		{mode: "auto", isTerminal: nil, want: false},
	}

	for _, tc := range cases {
		if got := showProgress(tc.mode, &bytes.Buffer{}, tc.isTerminal); got != tc.want {
			t.Fatalf("showProgress(%q)=%v, want=%v", tc.mode, got, tc.want)
		}
	}
}

func Test_ProgressObserver_Renders_Description_When_Scan_Starts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	p := newProgressObserver(&buf, "disk.img")
	p.ScanStarted(8192)
	p.BlockScanned(4096)
	p.ScanFinished(4)
	p.Close()
	p.Close()

	if !strings.Contains(buf.String(), "scanning disk.img") {
		t.Fatalf("output missing description: %q", buf.String())
	}
}

func Test_ProgressObserver_Ignores_Blocks_When_Not_Started(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	p := newProgressObserver(&buf, "disk.img")
	p.BlockScanned(10)
	p.ScanFinished(0)
	p.Close()

	var nilObserver *progressObserver
	nilObserver.Close()

	if got := buf.String(); got != "" {
		t.Fatalf("output=%q, want empty", got)
	}
}
