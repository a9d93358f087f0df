package trim

// Observer is notified as a scan progresses. It is how callers drive a
// progress display without the scanner depending on one.
//
// Calls happen on the scanning goroutine, in order: one ScanStarted, zero or
// more BlockScanned, then ScanFinished if the scan did not fail.
type Observer interface {
	// ScanStarted reports the total size of the source.
	ScanStarted(total int64)

	// BlockScanned reports that n more bytes were examined.
	BlockScanned(n int)

	// ScanFinished reports the computed boundary.
	ScanFinished(validLen int64)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) ScanStarted(int64)  {}
func (NopObserver) BlockScanned(int)   {}
func (NopObserver) ScanFinished(int64) {}

var _ Observer = NopObserver{}
