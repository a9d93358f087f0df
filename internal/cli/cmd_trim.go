package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cut-trailing-bytes/internal/config"
	"github.com/calvinalkan/cut-trailing-bytes/pkg/trim"
)

var (
	errFileRequired = errors.New("file is required")
	errTooManyArgs  = errors.New("too many arguments")
)

// TrimCmd returns the trim command, which also runs when no command is named.
func TrimCmd(cfg *config.Config, env map[string]string, d deps) *Command {
	flags := flag.NewFlagSet("trim", flag.ContinueOnError)
	flags.StringP("cut-byte", "c", cfg.CutByte, "Byte value to cut, in hex (e.g. 00, ff, 0x1a)")
	flags.BoolP("dry-run", "d", false, "Check the file but don't change it")
	flags.String("progress", cfg.Progress, "Show a progress bar on stderr: auto, always or never")
	flags.BoolP("confirm", "i", cfg.Confirm, "Ask before truncating")
	flags.BoolP("verbose", "v", false, "Log debug output to stderr")

	return &Command{
		Flags: flags,
		Usage: "trim [flags] <file>",
		Short: "Cut trailing bytes from a file (default command)",
		Long: `Remove the run of bytes at the end of <file> that all equal the cut byte
(default 00), then print the old and new size.

The file is scanned backwards in 4 KiB blocks and truncated once. With
--dry-run the sizes are printed but the file is not changed.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execTrim(ctx, o, cfg, env, d, flags, args)
		},
	}
}

func execTrim(ctx context.Context, o *IO, cfg *config.Config, env map[string]string, d deps, flags *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errFileRequired
	}

	if len(args) > 1 {
		return fmt.Errorf("%w: expected 1 file, got %d", errTooManyArgs, len(args))
	}

	cutByte, _ := flags.GetString("cut-byte")
	dryRun, _ := flags.GetBool("dry-run")
	progress, _ := flags.GetString("progress")
	confirm, _ := flags.GetBool("confirm")
	verbose, _ := flags.GetBool("verbose")

	// Flags are the last config layer.
	eff := *cfg
	eff.CutByte = cutByte
	eff.Progress = progress
	eff.Confirm = confirm

	if err := eff.Validate(); err != nil {
		return err
	}

	target, err := eff.Target()
	if err != nil {
		return err
	}

	path := args[0]

	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(eff.EffectiveCwd, absPath)
	}

	logger := newLogger(o.ErrWriter(), env, verbose)

	opts := trim.Options{
		Target: target,
		DryRun: dryRun,
		Logger: logger,
	}

	var bar *progressObserver

	if showProgress(eff.Progress, o.ErrWriter(), d.isTerminal) {
		bar = newProgressObserver(o.ErrWriter(), filepath.Base(path))
		opts.Observer = bar
	}

	if eff.Confirm {
		opts.Confirm = func(res trim.Result) (bool, error) {
			bar.Close()

			return d.confirm(ctx, o, fmt.Sprintf("cut %s from %s to %s? [y/N] ",
				path, humanize.IBytes(uint64(res.OriginalLen)), humanize.IBytes(uint64(res.NewLen))))
		}
	}

	logger.Debug("trimming", "path", absPath, "cut_byte", trim.FormatByte(target), "dry_run", dryRun)

	res, err := trim.File(ctx, d.fs, absPath, opts)

	bar.Close()

	if err != nil {
		return err
	}

	from := humanize.IBytes(uint64(res.OriginalLen))
	to := humanize.IBytes(uint64(res.NewLen))

	switch {
	case dryRun:
		o.Printf("would cut %s from %s to %s\n", path, from, to)
	case res.Truncated || res.Trimmed() == 0:
		o.Printf("cut %s from %s to %s\n", path, from, to)
	default:
		o.Printf("left %s unchanged\n", path)
	}

	return nil
}
