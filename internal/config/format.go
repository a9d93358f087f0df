package config

import (
	"fmt"
	"strconv"

	"github.com/tailscale/hujson"
)

// Format renders cfg as a commented JSONC config file, the shape
// init-config writes and Load reads back.
func Format(cfg Config) ([]byte, error) {
	src := fmt.Sprintf(`{
// Byte value to cut from the end of files, in hex (00-ff).
"cut_byte": %s,
// Progress bar on stderr: "auto" (only on a terminal), "always" or "never".
"progress": %s,
// Ask before truncating.
"confirm": %t,
}
`, strconv.Quote(cfg.CutByte), strconv.Quote(cfg.Progress), cfg.Confirm)

	out, err := hujson.Format([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("format config: %w", err)
	}

	return out, nil
}
