package cli

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// logEnvVar sets the log level regardless of --verbose, e.g. "trace".
const logEnvVar = "CUT_TRAILING_BYTES_LOG"

// newLogger returns a stderr logger at the level asked for by --verbose or
// the environment, or a null logger when neither asks for one.
func newLogger(w io.Writer, env map[string]string, verbose bool) hclog.Logger {
	level := hclog.NoLevel

	if verbose {
		level = hclog.Debug
	}

	if v := env[logEnvVar]; v != "" {
		if l := hclog.LevelFromString(v); l != hclog.NoLevel {
			level = l
		}
	}

	if level == hclog.NoLevel {
		return hclog.NewNullLogger()
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   programName,
		Level:  level,
		Output: w,
	})
}
