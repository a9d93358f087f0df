package trim

import "errors"

var (
	// ErrInvalidByte is returned by [ParseByte] for anything that is not a
	// single hex byte.
	ErrInvalidByte = errors.New("invalid byte value (want hex 00-ff)")

	// ErrShortRead is returned when the source ends before a block that lies
	// inside its measured size, which means it shrank during the scan.
	ErrShortRead = errors.New("short read")

	// ErrAlreadyTruncated wraps a sync or close error from [Truncate] that
	// happened after the new length was set. The file has its new length even
	// though an error is returned.
	ErrAlreadyTruncated = errors.New("file already truncated")
)
