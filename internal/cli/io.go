package cli

import (
	"fmt"
	"io"
)

// IO handles command output. Results go to stdout; errors, prompts, progress
// and logs go to stderr so stdout stays parseable.
type IO struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewIO creates a new IO instance. in may be nil when there is no input.
func NewIO(in io.Reader, out, errOut io.Writer) *IO {
	return &IO{in: in, out: out, errOut: errOut}
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// ErrPrintf writes formatted output to stderr.
func (o *IO) ErrPrintf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.errOut, format, a...)
}

// In returns the input reader, or nil.
func (o *IO) In() io.Reader { return o.in }

// ErrWriter returns the stderr writer for progress bars and loggers.
func (o *IO) ErrWriter() io.Writer { return o.errOut }

// stderrOnly returns an IO whose stdout is this IO's stderr, for help text
// printed alongside an error.
func (o *IO) stderrOnly() *IO {
	return &IO{in: o.in, out: o.errOut, errOut: o.errOut}
}
