package cli

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/calvinalkan/cut-trailing-bytes/internal/config"
	"github.com/calvinalkan/cut-trailing-bytes/pkg/trim"
)

// showProgress decides whether to draw a bar on w for the given mode.
func showProgress(mode string, w io.Writer, isTerminal func(any) bool) bool {
	switch mode {
	case config.ProgressAlways:
		return true
	case config.ProgressNever:
		return false
	default:
		return isTerminal != nil && isTerminal(w)
	}
}

// progressObserver draws scanned bytes as a progress bar. The bar is created
// lazily once the total size is known.
type progressObserver struct {
	w    io.Writer
	desc string
	bar  *progressbar.ProgressBar
}

var _ trim.Observer = (*progressObserver)(nil)

func newProgressObserver(w io.Writer, desc string) *progressObserver {
	return &progressObserver{w: w, desc: desc}
}

func (p *progressObserver) ScanStarted(total int64) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("scanning "+p.desc),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) BlockScanned(n int) {
	if p.bar != nil {
		_ = p.bar.Add(n)
	}
}

// ScanFinished completes the bar. The scan usually stops well before the
// start of the file, so the remaining bytes count as done.
func (p *progressObserver) ScanFinished(int64) {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Close removes the bar from the terminal. Safe on nil and when called twice.
func (p *progressObserver) Close() {
	if p == nil || p.bar == nil {
		return
	}

	_ = p.bar.Exit()
	p.bar = nil
}
