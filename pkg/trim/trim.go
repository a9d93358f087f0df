package trim

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/calvinalkan/cut-trailing-bytes/pkg/fs"
)

// Result describes one trim of one file.
type Result struct {
	// Path is the file that was scanned.
	Path string

	// OriginalLen is the file size when the scan started.
	OriginalLen int64

	// NewLen is the computed boundary: the size the file has (or would have)
	// after trimming.
	NewLen int64

	// Truncated reports whether the file length was actually changed.
	// False for dry runs, declined confirmations and files with nothing to
	// trim.
	Truncated bool
}

// Trimmed returns the number of trailing bytes that match the target.
func (r Result) Trimmed() int64 {
	return r.OriginalLen - r.NewLen
}

// Options configures [File].
type Options struct {
	// Target is the byte value to cut from the end of the file.
	Target byte

	// DryRun computes the boundary without changing the file.
	DryRun bool

	// BlockSize overrides [BlockSize]. Values <= 0 mean the default.
	BlockSize int

	// Observer is notified as the scan progresses. Nil means no observer.
	Observer Observer

	// Logger receives debug logs. Nil means no logging.
	Logger hclog.Logger

	// Confirm, if set, is asked before the file is truncated. Returning false
	// leaves the file untouched; an error aborts the trim.
	Confirm func(Result) (bool, error)
}

// File scans path for trailing opts.Target bytes and, unless opts.DryRun is
// set, truncates it to the computed boundary.
//
// The file is opened read-only for the scan and only reopened for writing
// when there is something to cut, so a file without trailing matches is
// never written. Any I/O error during the scan aborts before truncation. A
// sync or close failure after truncation is returned with Result.Truncated
// set, see [ErrAlreadyTruncated].
func File(ctx context.Context, fsys fs.FS, path string, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	scanner := Scanner{
		BlockSize: opts.BlockSize,
		Observer:  opts.Observer,
		Logger:    logger.Named("scan"),
	}

	res, err := scanner.Scan(ctx, fsys, path, opts.Target)
	if err != nil {
		return res, err
	}

	if opts.DryRun || res.NewLen == res.OriginalLen {
		logger.Debug("leaving file unchanged", "path", path, "dry_run", opts.DryRun, "trimmed", res.Trimmed())

		return res, nil
	}

	if opts.Confirm != nil {
		ok, err := opts.Confirm(res)
		if err != nil {
			return res, fmt.Errorf("confirm: %w", err)
		}

		if !ok {
			logger.Debug("truncation declined", "path", path)

			return res, nil
		}
	}

	if err := Truncate(fsys, path, res.NewLen); err != nil {
		res.Truncated = errors.Is(err, ErrAlreadyTruncated)

		return res, err
	}

	res.Truncated = true

	logger.Debug("truncated", "path", path, "from", res.OriginalLen, "to", res.NewLen)

	return res, nil
}

// Scan opens path read-only and computes its trim boundary for target. The
// file is not modified.
func (s *Scanner) Scan(ctx context.Context, fsys fs.FS, path string, target byte) (res Result, err error) {
	res.Path = path

	f, err := fsys.Open(path)
	if err != nil {
		return res, fmt.Errorf("open: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("close: %w", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return res, fmt.Errorf("stat: %w", err)
	}

	if info.IsDir() {
		return res, fmt.Errorf("%s: %w", path, errIsDir)
	}

	res.OriginalLen = info.Size()

	validLen, err := s.Boundary(ctx, f, target)
	if err != nil {
		return res, err
	}

	if validLen > res.OriginalLen {
		return res, fmt.Errorf("%w: size changed from %d to at least %d during scan", ErrShortRead, res.OriginalLen, validLen)
	}

	res.NewLen = validLen

	return res, nil
}

// Scan is a shorthand for a zero [Scanner]'s Scan.
func Scan(ctx context.Context, fsys fs.FS, path string, target byte) (Result, error) {
	var s Scanner

	return s.Scan(ctx, fsys, path, target)
}

var errIsDir = errors.New("is a directory")

// Truncate sets the length of the file at path to length with a single
// truncate call and syncs it. Bytes before length are untouched.
//
// An error from the sync or the final close does not mean the length was left
// alone: such errors wrap [ErrAlreadyTruncated].
func Truncate(fsys fs.FS, path string, length int64) (err error) {
	f, err := fsys.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open for writing: %w", err)
	}

	truncated := false

	defer func() {
		closeErr := f.Close()
		if closeErr == nil || err != nil {
			return
		}

		if truncated {
			err = fmt.Errorf("%w to %d: close: %w", ErrAlreadyTruncated, length, closeErr)
		} else {
			err = fmt.Errorf("close: %w", closeErr)
		}
	}()

	if err := f.Truncate(length); err != nil {
		return fmt.Errorf("truncate to %d: %w", length, err)
	}

	truncated = true

	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w to %d: sync: %w", ErrAlreadyTruncated, length, err)
	}

	return nil
}
