// Package trim finds and removes a run of trailing bytes that all equal one
// target value, such as the zero padding at the end of a disk image or a
// firmware dump.
//
// The scan reads fixed-size blocks from the end of the file towards its
// start, so memory use does not depend on file size. It stops at the first
// block that contains a byte different from the target. The resulting
// boundary is applied with a single truncate call.
//
//	res, err := trim.File(ctx, fs.NewReal(), "disk.img", trim.Options{Target: 0x00})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.OriginalLen, "->", res.NewLen)
package trim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
)

// BlockSize is the default number of bytes read per step.
const BlockSize = 4096

// Scanner computes trim boundaries.
//
// The zero value is ready to use: it reads [BlockSize] blocks, reports to no
// observer and logs nothing.
type Scanner struct {
	// BlockSize is the read size per step. Values <= 0 mean [BlockSize].
	BlockSize int

	// Observer is notified as the scan progresses. Nil means no observer.
	Observer Observer

	// Logger receives per-block trace logs. Nil means no logging.
	Logger hclog.Logger
}

// Boundary returns the length src should have so that it no longer ends in
// target. Bytes [boundary, size) all equal target, and byte boundary-1 does
// not (or boundary is 0 when every byte matches).
//
// Boundary never writes to src. It leaves the read offset at an unspecified
// position. The context is checked before each block, so a cancelled scan
// stops between reads with ctx.Err().
func (s *Scanner) Boundary(ctx context.Context, src io.ReadSeeker, target byte) (int64, error) {
	blockSize := s.BlockSize
	if blockSize <= 0 {
		blockSize = BlockSize
	}

	obs := s.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	logger := s.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	total, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek to end: %w", err)
	}

	obs.ScanStarted(total)

	var (
		validLen = total
		runLen   int64 // confirmed trailing matches, always total - validLen
		cursor   = total
		buf      = make([]byte, blockSize)
	)

	for cursor > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n := int64(blockSize)
		if n > cursor {
			n = cursor
		}

		start := cursor - n

		if _, err := src.Seek(start, io.SeekStart); err != nil {
			return 0, fmt.Errorf("seek to %d: %w", start, err)
		}

		got, err := io.ReadFull(src, buf[:n])
		if got == 0 && errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, fmt.Errorf("%w: read %d of %d bytes at %d", ErrShortRead, got, n, start)
			}

			return 0, fmt.Errorf("read %d bytes at %d: %w", n, start, err)
		}

		// Fold runs forward: every non-matching byte pulls the block's
		// boundary up to just past itself, discarding the run before it.
		blockValid := start
		blockRun := int64(0)

		for _, b := range buf[:n] {
			if b == target {
				blockRun++

				continue
			}

			blockValid += blockRun + 1
			blockRun = 0
		}

		obs.BlockScanned(int(n))

		if blockValid > start {
			runLen += start + n - blockValid
			validLen = blockValid

			logger.Trace("block has content", "start", start, "size", n, "valid_len", validLen)

			break
		}

		runLen += n
		validLen = start
		cursor = start

		logger.Trace("block fully matched", "start", start, "size", n, "run_len", runLen)
	}

	obs.ScanFinished(validLen)

	logger.Debug("scan finished", "total", total, "valid_len", validLen, "trimmed", runLen)

	return validLen, nil
}

// Boundary is a shorthand for a zero [Scanner]'s Boundary.
func Boundary(ctx context.Context, src io.ReadSeeker, target byte) (int64, error) {
	var s Scanner

	return s.Boundary(ctx, src, target)
}
