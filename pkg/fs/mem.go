package fs

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
)

// Mem implements [FS] on top of a go-billy filesystem, by default an
// in-memory one from [memfs].
//
// Mem is used by tests that should not touch the disk and by callers that
// want to trim data they already hold in memory. Unlike memfs itself, Mem
// enforces the open mode: Write and Truncate on a handle opened read-only
// fail with EBADF, like [os.File].
type Mem struct {
	fs billy.Filesystem
}

// NewMem returns an empty in-memory filesystem.
func NewMem() *Mem {
	return &Mem{fs: memfs.New()}
}

// Open opens path for reading.
func (m *Mem) Open(path string) (File, error) {
	return m.OpenFile(path, os.O_RDONLY, 0)
}

// OpenFile opens path with the given flags. Only the access mode is tracked
// by Mem; all other flags are passed to the billy filesystem.
func (m *Mem) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	f, err := m.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, memPathError("open", path, err)
	}

	access := flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)

	return &memFile{
		f:        f,
		fs:       m.fs,
		path:     path,
		readable: access == os.O_RDONLY || access == os.O_RDWR,
		writable: access == os.O_WRONLY || access == os.O_RDWR,
	}, nil
}

// ReadFile reads the whole file at path.
func (m *Mem) ReadFile(path string) ([]byte, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return nil, memPathError("open", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, memPathError("read", path, err)
	}

	return data, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func (m *Mem) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := m.fs.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err != nil {
		return memPathError("open", path, err)
	}

	_, err = tmp.Write(data)
	closeErr := tmp.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = m.fs.Remove(tmp.Name())

		return memPathError("write", path, err)
	}

	if chmodFS, ok := m.fs.(billy.Change); ok {
		if err := chmodFS.Chmod(tmp.Name(), perm); err != nil {
			_ = m.fs.Remove(tmp.Name())

			return memPathError("chmod", path, err)
		}
	}

	if err := m.fs.Rename(tmp.Name(), path); err != nil {
		_ = m.fs.Remove(tmp.Name())

		return &os.LinkError{Op: "rename", Old: tmp.Name(), New: path, Err: err}
	}

	return nil
}

// MkdirAll creates path and all parents.
func (m *Mem) MkdirAll(path string, perm os.FileMode) error {
	if err := m.fs.MkdirAll(path, perm); err != nil {
		return memPathError("mkdir", path, err)
	}

	return nil
}

// Stat returns file info for path.
func (m *Mem) Stat(path string) (os.FileInfo, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return nil, memPathError("stat", path, err)
	}

	return info, nil
}

// Exists reports whether path exists.
func (m *Mem) Exists(path string) (bool, error) {
	_, err := m.fs.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, memPathError("stat", path, err)
}

// memPathError wraps a billy error in an [*fs.PathError] so callers see the
// same error shape as from [Real]. Errors that already are path errors are
// returned unchanged.
func memPathError(op, path string, err error) error {
	var pathErr *iofs.PathError
	if errors.As(err, &pathErr) {
		return err
	}

	return &iofs.PathError{Op: op, Path: path, Err: err}
}

// memFile adapts a billy.File to [File].
type memFile struct {
	f        billy.File
	fs       billy.Filesystem
	path     string
	readable bool
	writable bool
}

var _ File = (*memFile)(nil)

func (mf *memFile) Read(buf []byte) (int, error) {
	if !mf.readable {
		return 0, &iofs.PathError{Op: "read", Path: mf.path, Err: syscall.EBADF}
	}

	n, err := mf.f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, memPathError("read", mf.path, err)
	}

	return n, err
}

func (mf *memFile) Write(data []byte) (int, error) {
	if !mf.writable {
		return 0, &iofs.PathError{Op: "write", Path: mf.path, Err: syscall.EBADF}
	}

	n, err := mf.f.Write(data)
	if err != nil {
		return n, memPathError("write", mf.path, err)
	}

	return n, nil
}

func (mf *memFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := mf.f.Seek(offset, whence)
	if err != nil {
		return pos, memPathError("seek", mf.path, err)
	}

	return pos, nil
}

func (mf *memFile) Close() error {
	if err := mf.f.Close(); err != nil {
		return memPathError("close", mf.path, err)
	}

	return nil
}

func (mf *memFile) Stat() (os.FileInfo, error) {
	info, err := mf.fs.Stat(mf.path)
	if err != nil {
		return nil, memPathError("stat", mf.path, err)
	}

	return info, nil
}

// Sync is a no-op: memory is the stable storage.
func (mf *memFile) Sync() error {
	return nil
}

func (mf *memFile) Truncate(size int64) error {
	if !mf.writable {
		return &iofs.PathError{Op: "truncate", Path: mf.path, Err: syscall.EBADF}
	}

	if size < 0 {
		return &iofs.PathError{Op: "truncate", Path: mf.path, Err: syscall.EINVAL}
	}

	if err := mf.f.Truncate(size); err != nil {
		return memPathError("truncate", mf.path, fmt.Errorf("size=%d: %w", size, err))
	}

	return nil
}

// Compile-time interface check.
var _ FS = (*Mem)(nil)
