// Package fs abstracts filesystem access for the storage engine.
//
// The engine opens two very different kinds of path through this interface:
// EEPROM character devices (pkg/lockmgr, pkg/replica) and an ordinary
// regular file (pkg/eepconf's plain-text pool config). Routing both through
// [FS] lets tests substitute an in-memory implementation for either without
// touching real hardware. The CLI's own JSONC settings file does not go
// through [FS]; cmd/eepman reads and writes it with os and
// github.com/natefinch/atomic directly.
//
//	fsys := fs.NewReal()
//	f, err := fsys.OpenFile("/dev/eeprom0", os.O_RDWR, 0)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
package fs

import (
	"io"
	"os"
)

// File represents an open file or device handle.
//
// Satisfied by [os.File]. Implementations must behave like [os.File]: in
// particular [File.Fd] must return a descriptor usable with syscalls (the
// lock manager calls [syscall.Flock] on it) for as long as the file remains
// open, and [File.Read]/[File.Write] must exhibit normal short-transfer and
// EINTR semantics rather than silently completing in one call.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor, used by pkg/lockmgr for syscall.Flock.
	Fd() uintptr

	// Stat returns file metadata.
	Stat() (os.FileInfo, error)

	// Sync commits the file's content to stable storage. pkg/blockio calls
	// this after every write as the durability barrier spec.md §4.1 requires.
	Sync() error

	// Chmod changes the file's permission bits.
	Chmod(mode os.FileMode) error
}

// FS defines the filesystem operations this module needs.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// Open opens a file for reading.
	Open(path string) (File, error)

	// OpenFile opens path with the given flags and permissions. Replica
	// devices are opened os.O_RDWR with no O_CREATE: the device node is
	// expected to already exist.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Create creates or truncates a regular file for writing.
	Create(path string) (File, error)

	// ReadFile reads an entire regular file into memory.
	ReadFile(path string) ([]byte, error)

	// Stat returns file info. Returns an error satisfying os.IsNotExist
	// if the path does not exist.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a path exists.
	// Returns (false, nil) if not found, (false, err) on any other error.
	Exists(path string) (bool, error)

	// MkdirAll creates a directory and all missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// Remove deletes a single regular file.
	Remove(path string) error

	// Rename renames oldpath to newpath, atomic on the same filesystem.
	// Meaningful only for regular files on a regular filesystem; never
	// used on a replica device path (see SPEC_FULL.md §12.1).
	Rename(oldpath, newpath string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
