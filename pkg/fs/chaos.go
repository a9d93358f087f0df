package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection. Unset fields default to 0.0.
type ChaosConfig struct {
	// OpenFailRate controls how often FS.Open and FS.OpenFile fail.
	// For read-only opens: EACCES, EIO, EMFILE, ENFILE.
	// For write opens: adds EROFS and ETXTBSY.
	OpenFailRate float64

	// StatFailRate controls how often FS.Stat and FS.Exists fail on a path.
	// Returns EACCES or EIO.
	StatFailRate float64

	// WriteFileFailRate controls how often FS.WriteFileAtomic and FS.MkdirAll
	// fail. Returns EIO, ENOSPC, EDQUOT or EROFS. The target is left untouched.
	WriteFileFailRate float64

	// ReadFailRate controls how often File.Read and FS.ReadFile fail entirely,
	// returning zero bytes and EIO.
	ReadFailRate float64

	// PartialReadRate controls how often File.Read returns a short read
	// (n < len(buf), err == nil) by limiting the underlying read size. This is
	// valid io.Reader behavior and tests that callers loop until they have
	// what they asked for.
	PartialReadRate float64

	// SeekFailRate controls how often File.Seek fails, returning position 0
	// and EIO.
	SeekFailRate float64

	// FileStatFailRate controls how often File.Stat fails on an open handle,
	// returning EIO.
	FileStatFailRate float64

	// TruncateFailRate controls how often File.Truncate fails. The file size
	// is never changed when a failure is injected. Returns EIO, EFBIG, EPERM
	// or EROFS.
	TruncateFailRate float64

	// SyncFailRate controls how often File.Sync fails. Returns EIO, ENOSPC,
	// EDQUOT or EROFS.
	SyncFailRate float64

	// CloseFailRate controls how often File.Close reports an error. The
	// underlying file is always closed. Returns EIO.
	CloseFailRate float64

	// TraceCapacity is the max number of operations to keep in the trace log.
	// Set to 0 (default) to disable tracing.
	TraceCapacity int
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection.
	// This is the default mode for a new [Chaos].
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation directly to the underlying FS.
	ChaosModeNoOp
)

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	OpenFails      int64
	StatFails      int64
	WriteFileFails int64
	ReadFails      int64
	PartialReads   int64
	SeekFails      int64
	FileStatFails  int64
	TruncateFails  int64
	SyncFails      int64
	CloseFails     int64
}

// Total returns the sum of all injected faults.
func (s ChaosStats) Total() int64 {
	return s.OpenFails + s.StatFails + s.WriteFileFails + s.ReadFails + s.PartialReads +
		s.SeekFails + s.FileStatFails + s.TruncateFails + s.SyncFails + s.CloseFails
}

// chaosError marks an error as intentionally injected by [Chaos].
//
// It wraps an [*fs.PathError] carrying a real [syscall.Errno], so errors.Is,
// errors.As and helpers like os.IsPermission keep working, while
// [IsChaosErr] can still tell injected from real OS errors.
type chaosError struct {
	Err error
}

func (e *chaosError) Error() string {
	return "chaos: " + e.Err.Error()
}

func (e *chaosError) Unwrap() error {
	return e.Err
}

// IsChaosErr reports whether err (or any wrapped error) was injected by [Chaos].
// Returns false if err is nil.
func IsChaosErr(err error) bool {
	var injected *chaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects random failures for testing.
//
// It is a "real filesystem + fault injection" wrapper, not a simulator.
// Each call independently decides whether to inject.
//
// Error model:
//   - Injected errors are [*fs.PathError] values with a real [syscall.Errno].
//   - Chaos never injects ENOENT; missing paths come from the wrapped FS.
//   - File.Read failures return n == 0; File.Seek failures return pos == 0.
//   - File.Truncate failures never change the file size.
//   - File.Close failures still close the underlying file.
//
// Use [Chaos.SetMode] to switch injection off and [Chaos.Stats] to inspect
// how many faults were injected.
type Chaos struct {
	fs     FS
	rng    *rand.Rand
	config ChaosConfig
	mode   atomic.Uint32
	trace  *chaosTrace

	rngMu sync.Mutex

	openFails      atomic.Int64
	statFails      atomic.Int64
	writeFileFails atomic.Int64
	readFails      atomic.Int64
	partialReads   atomic.Int64
	seekFails      atomic.Int64
	fileStatFails  atomic.Int64
	truncateFails  atomic.Int64
	syncFails      atomic.Int64
	closeFails     atomic.Int64
}

// NewChaos creates a new [Chaos] filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
// Panics if underlying is nil.
func NewChaos(underlying FS, seed int64, config ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	return &Chaos{
		fs:     underlying,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
		config: config,
		trace:  newChaosTrace(config.TraceCapacity),
	}
}

// SetMode updates [Chaos] behavior. Safe to call concurrently with
// filesystem operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// Trace returns a formatted string of recent FS operations.
// Returns an empty string if tracing is disabled.
func (c *Chaos) Trace() string {
	return c.trace.String()
}

// TraceEvents returns a snapshot of the trace buffer.
// Returns nil if tracing is disabled.
func (c *Chaos) TraceEvents() []TraceEvent {
	return c.trace.snapshot()
}

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		OpenFails:      c.openFails.Load(),
		StatFails:      c.statFails.Load(),
		WriteFileFails: c.writeFileFails.Load(),
		ReadFails:      c.readFails.Load(),
		PartialReads:   c.partialReads.Load(),
		SeekFails:      c.seekFails.Load(),
		FileStatFails:  c.fileStatFails.Load(),
		TruncateFails:  c.truncateFails.Load(),
		SyncFails:      c.syncFails.Load(),
		CloseFails:     c.closeFails.Load(),
	}
}

// Open opens a file for reading with fault injection.
func (c *Chaos) Open(path string) (File, error) {
	return c.OpenFile(path, os.O_RDONLY, 0)
}

// OpenFile opens a file with fault injection. Write opens draw from a wider
// errno set than read-only opens.
func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	kind := faultOpen
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		kind = faultOpenWrite
	}

	if err := c.inject(path, kind); err != nil {
		return nil, err
	}

	file, err := c.fs.OpenFile(path, flag, perm)

	c.trace.add(string(kind), path, boolKind(err == nil), err, false,
		TraceAttr{"flag", fmt.Sprintf("%#x", flag)})

	if err != nil {
		return nil, err
	}

	return &chaosFile{f: file, chaos: c, path: path}, nil
}

// ReadFile reads a file's contents with fault injection.
func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if err := c.inject(path, faultRead); err != nil {
		return nil, err
	}

	data, err := c.fs.ReadFile(path)

	c.trace.add("readfile", path, boolKind(err == nil), err, false,
		TraceAttr{"n", strconv.Itoa(len(data))})

	return data, err
}

// WriteFileAtomic writes a file atomically with fault injection. An
// injected failure happens before the underlying write, so the target keeps
// its old content.
func (c *Chaos) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := c.inject(path, faultWriteFile); err != nil {
		return err
	}

	err := c.fs.WriteFileAtomic(path, data, perm)

	c.trace.add("writefile", path, boolKind(err == nil), err, false,
		TraceAttr{"n", strconv.Itoa(len(data))})

	return err
}

// MkdirAll creates a directory and parents with fault injection.
func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if err := c.inject(path, faultWriteFile); err != nil {
		return err
	}

	err := c.fs.MkdirAll(path, perm)

	c.trace.add("mkdirall", path, boolKind(err == nil), err, false,
		TraceAttr{"perm", fmt.Sprintf("%#o", perm)})

	return err
}

// Stat returns file info with fault injection.
func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if err := c.inject(path, faultStat); err != nil {
		return nil, err
	}

	info, err := c.fs.Stat(path)

	c.trace.add("stat", path, boolKind(err == nil), err, false)

	if err != nil {
		return nil, err
	}

	return info, nil
}

// Exists checks file existence with fault injection.
func (c *Chaos) Exists(path string) (bool, error) {
	if err := c.inject(path, faultStat); err != nil {
		return false, err
	}

	exists, err := c.fs.Exists(path)

	c.trace.add("exists", path, boolKind(err == nil), err, false,
		TraceAttr{"exists", strconv.FormatBool(exists)})

	return exists, err
}

// faultKind identifies a type of fault that can be injected.
// The string value is used as the operation name in error messages.
type faultKind string

const (
	faultOpen      faultKind = "open"
	faultOpenWrite faultKind = "openwrite"
	faultStat      faultKind = "stat"
	faultWriteFile faultKind = "write"
	faultRead      faultKind = "read"
	faultSeek      faultKind = "seek"
	faultFileStat  faultKind = "fstat"
	faultTruncate  faultKind = "truncate"
	faultSync      faultKind = "sync"
	faultClose     faultKind = "close"
)

// inject decides whether a fault of the given kind is injected and returns
// it. Returns nil when no fault is injected.
//
// Chaos never injects ENOENT or EINTR:
//   - ENOENT should come from the wrapped FS so Chaos doesn't manufacture
//     "missing" results the real filesystem wouldn't have produced.
//   - EINTR is retried internally by the Go stdlib.
func (c *Chaos) inject(path string, kind faultKind) error {
	if c.getMode() != ChaosModeActive {
		return nil
	}

	var (
		rate    float64
		counter *atomic.Int64
		errnos  []syscall.Errno
		op      = string(kind)
	)

	switch kind {
	case faultOpen:
		rate, counter = c.config.OpenFailRate, &c.openFails
		errnos = []syscall.Errno{syscall.EACCES, syscall.EIO, syscall.EMFILE, syscall.ENFILE}

	case faultOpenWrite:
		// ETXTBSY: file is an executable that is currently running.
		rate, counter, op = c.config.OpenFailRate, &c.openFails, "open"
		errnos = []syscall.Errno{syscall.EACCES, syscall.EIO, syscall.EMFILE, syscall.ENFILE, syscall.EROFS, syscall.ETXTBSY}

	case faultStat:
		rate, counter = c.config.StatFailRate, &c.statFails
		errnos = []syscall.Errno{syscall.EACCES, syscall.EIO}

	case faultWriteFile:
		rate, counter = c.config.WriteFileFailRate, &c.writeFileFails
		errnos = []syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS}

	case faultRead:
		rate, counter = c.config.ReadFailRate, &c.readFails
		errnos = []syscall.Errno{syscall.EIO}

	case faultSeek:
		rate, counter = c.config.SeekFailRate, &c.seekFails
		errnos = []syscall.Errno{syscall.EIO}

	case faultFileStat:
		rate, counter, op = c.config.FileStatFailRate, &c.fileStatFails, "stat"
		errnos = []syscall.Errno{syscall.EIO}

	case faultTruncate:
		// EFBIG: length exceeds the maximum file size.
		// EPERM: file is append-only or immutable.
		rate, counter = c.config.TruncateFailRate, &c.truncateFails
		errnos = []syscall.Errno{syscall.EIO, syscall.EFBIG, syscall.EPERM, syscall.EROFS}

	case faultSync:
		// fsync can surface delayed write failures.
		rate, counter = c.config.SyncFailRate, &c.syncFails
		errnos = []syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS}

	case faultClose:
		rate, counter = c.config.CloseFailRate, &c.closeFails
		errnos = []syscall.Errno{syscall.EIO}

	default:
		panic("unknown fault kind: " + string(kind))
	}

	if !c.should(rate) {
		return nil
	}

	counter.Add(1)

	errno := errnos[c.randIntn(len(errnos))]
	err := pathError(op, path, errno)

	c.trace.add(string(kind), path, "fail", err, true, TraceAttr{"errno", errno.Error()})

	return err
}

// getMode returns the current ChaosMode safely.
func (c *Chaos) getMode() ChaosMode {
	v := c.mode.Load()
	if v > uint32(ChaosModeNoOp) {
		return ChaosModeActive
	}

	return ChaosMode(v)
}

// should returns true with the given probability when chaos is injecting.
func (c *Chaos) should(rate float64) bool {
	if c.getMode() != ChaosModeActive || rate <= 0 {
		return false
	}

	return c.randFloat() < rate
}

// randFloat returns a random float64 in [0.0, 1.0) (thread-safe).
func (c *Chaos) randFloat() float64 {
	c.rngMu.Lock()
	result := c.rng.Float64()
	c.rngMu.Unlock()

	return result
}

// randIntn returns a random int in [0, n) (thread-safe).
func (c *Chaos) randIntn(n int) int {
	c.rngMu.Lock()
	result := c.rng.IntN(n)
	c.rngMu.Unlock()

	return result
}

// pathError creates an injected [*fs.PathError] with the given operation,
// path and errno, marked so [IsChaosErr] can identify it.
func pathError(op, path string, errno syscall.Errno) error {
	return &chaosError{Err: &iofs.PathError{Op: op, Path: path, Err: errno}}
}

// chaosFile wraps a [File] and injects faults on its handle operations.
type chaosFile struct {
	f     File
	chaos *Chaos
	path  string
}

var _ File = (*chaosFile)(nil)

func (cf *chaosFile) Read(buf []byte) (int, error) {
	if err := cf.chaos.inject(cf.path, faultRead); err != nil {
		return 0, err
	}

	// Partial read: limit the underlying read instead of shrinking the
	// returned count, otherwise the offset advances past bytes the caller
	// never saw.
	if len(buf) > 1 && cf.chaos.should(cf.chaos.config.PartialReadRate) {
		cf.chaos.partialReads.Add(1)
		cutoff := cf.chaos.randIntn(len(buf)-1) + 1

		n, err := cf.f.Read(buf[:cutoff])

		cf.chaos.trace.add("file.read", cf.path, "short_read", err, true,
			TraceAttr{"n", strconv.Itoa(n)},
			TraceAttr{"requested", strconv.Itoa(len(buf))})

		return n, err
	}

	n, err := cf.f.Read(buf)

	cf.chaos.trace.add("file.read", cf.path, boolKind(err == nil), err, false,
		TraceAttr{"n", strconv.Itoa(n)})

	return n, err
}

func (cf *chaosFile) Write(data []byte) (int, error) {
	n, err := cf.f.Write(data)

	cf.chaos.trace.add("file.write", cf.path, boolKind(err == nil), err, false,
		TraceAttr{"n", strconv.Itoa(n)})

	return n, err
}

func (cf *chaosFile) Seek(offset int64, whence int) (int64, error) {
	if err := cf.chaos.inject(cf.path, faultSeek); err != nil {
		return 0, err
	}

	pos, err := cf.f.Seek(offset, whence)

	cf.chaos.trace.add("file.seek", cf.path, boolKind(err == nil), err, false,
		TraceAttr{"offset", strconv.FormatInt(offset, 10)},
		TraceAttr{"whence", strconv.Itoa(whence)},
		TraceAttr{"pos", strconv.FormatInt(pos, 10)})

	return pos, err
}

func (cf *chaosFile) Stat() (os.FileInfo, error) {
	if err := cf.chaos.inject(cf.path, faultFileStat); err != nil {
		return nil, err
	}

	info, err := cf.f.Stat()

	cf.chaos.trace.add("file.stat", cf.path, boolKind(err == nil), err, false)

	if err != nil {
		return nil, err
	}

	return info, nil
}

func (cf *chaosFile) Truncate(size int64) error {
	if err := cf.chaos.inject(cf.path, faultTruncate); err != nil {
		return err
	}

	err := cf.f.Truncate(size)

	cf.chaos.trace.add("file.truncate", cf.path, boolKind(err == nil), err, false,
		TraceAttr{"size", strconv.FormatInt(size, 10)})

	return err
}

func (cf *chaosFile) Sync() error {
	if err := cf.chaos.inject(cf.path, faultSync); err != nil {
		return err
	}

	err := cf.f.Sync()

	cf.chaos.trace.add("file.sync", cf.path, boolKind(err == nil), err, false)

	return err
}

func (cf *chaosFile) Close() error {
	injected := cf.chaos.inject(cf.path, faultClose)

	// Always close the underlying file to avoid descriptor leaks, even when
	// returning an injected error.
	err := cf.f.Close()
	if err != nil {
		cf.chaos.trace.add("file.close", cf.path, "fail", err, false)

		return err
	}

	if injected != nil {
		return injected
	}

	cf.chaos.trace.add("file.close", cf.path, "ok", nil, false)

	return nil
}

var _ FS = (*Chaos)(nil)

// TraceEvent records a single Chaos operation with injection details.
type TraceEvent struct {
	// Seq is the monotonically increasing sequence number.
	Seq uint64
	// Op is the operation name (e.g., "open", "file.read", "file.truncate").
	Op string
	// Path is the filesystem path involved.
	Path string
	// Err is the error returned by the operation (nil for success).
	Err error
	// Injected is true if Chaos modified the operation's behavior,
	// including short reads that returned err == nil.
	Injected bool
	// Kind is a short label for what happened: "ok", "fail", "short_read".
	Kind string
	// Attrs contains additional key-value details.
	Attrs []TraceAttr
}

// TraceAttr is a key-value pair for trace event context.
type TraceAttr struct {
	Key   string
	Value string
}

func (e TraceEvent) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#%d", e.Seq)

	if e.Injected {
		fmt.Fprintf(&sb, " [CHAOS:%s]", e.Kind)
	}

	fmt.Fprintf(&sb, " %s", e.Op)

	if e.Path != "" {
		fmt.Fprintf(&sb, " path=%q", e.Path)
	}

	for _, a := range e.Attrs {
		fmt.Fprintf(&sb, " %s=%s", a.Key, a.Value)
	}

	if !e.Injected {
		sb.WriteString(" ")
		sb.WriteString(e.Kind)
	}

	if e.Err != nil {
		fmt.Fprintf(&sb, " err=%v", e.Err)
	}

	return sb.String()
}

// chaosTrace is a bounded circular buffer of [TraceEvent].
type chaosTrace struct {
	mu       sync.Mutex
	capacity int
	events   []TraceEvent
	next     int
	full     bool
	seq      uint64
}

func newChaosTrace(capacity int) *chaosTrace {
	if capacity <= 0 {
		return nil
	}

	return &chaosTrace{
		capacity: capacity,
		events:   make([]TraceEvent, 0, capacity),
	}
}

func (t *chaosTrace) String() string {
	events := t.snapshot()

	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, e.String())
	}

	return strings.Join(lines, "\n")
}

func (t *chaosTrace) add(op, path, kind string, err error, injected bool, attrs ...TraceAttr) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++

	event := TraceEvent{
		Seq:      t.seq,
		Op:       op,
		Path:     path,
		Err:      err,
		Injected: injected,
		Kind:     kind,
		Attrs:    attrs,
	}

	if len(t.events) < t.capacity {
		t.events = append(t.events, event)

		return
	}

	t.events[t.next] = event
	t.next = (t.next + 1) % t.capacity
	t.full = true
}

func (t *chaosTrace) snapshot() []TraceEvent {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.full {
		return append([]TraceEvent(nil), t.events...)
	}

	out := make([]TraceEvent, 0, len(t.events))
	out = append(out, t.events[t.next:]...)
	out = append(out, t.events[:t.next]...)

	return out
}

func boolKind(ok bool) string {
	if ok {
		return "ok"
	}

	return "fail"
}
