// Package blockio implements exact-transfer reads and writes against an
// already-positioned device handle, with bounded retry on short I/O.
//
// Every other package that touches a replica device (pkg/footer,
// pkg/replica) goes through ReadExact/WriteExact rather than calling
// Read/Write on the handle directly, so the retry and durability behavior
// lives in exactly one place.
package blockio

import (
	"errors"
	"fmt"
	"io"

	"github.com/eepman/eepman/pkg/fs"
)

// ErrShortIO means a read or write could not transfer the requested number
// of bytes even after exhausting the retry budget.
var ErrShortIO = errors.New("short i/o")

// ErrInvalidInput means the caller asked for an impossible transfer (a nil
// or empty buffer).
var ErrInvalidInput = errors.New("invalid block i/o parameters")

// ErrSyncFailed means the transfer completed but the post-write durability
// barrier (fsync) failed.
var ErrSyncFailed = errors.New("sync failed")

// maxAttempts bounds how many Read/Write calls ReadExact/WriteExact will
// issue while chasing a short transfer, per spec.md §4.1.
const maxAttempts = 100

// ReadExact reads exactly len(buf) bytes from f at its current offset,
// accumulating progress across short reads and retrying until the buffer is
// full or the retry budget is exhausted. Positioning the handle is the
// caller's responsibility.
func ReadExact(f fs.File, buf []byte) error {
	if len(buf) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidInput)
	}

	total := 0
	for attempt := 0; total < len(buf); attempt++ {
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: retry budget exhausted after %d attempts (%d/%d bytes)",
				ErrShortIO, maxAttempts, total, len(buf))
		}

		n, err := f.Read(buf[total:])
		total += n

		if err != nil {
			if errors.Is(err, io.EOF) && total == len(buf) {
				break
			}
			return fmt.Errorf("%w: %w", ErrShortIO, err)
		}
	}

	return nil
}

// WriteExact writes exactly len(buf) bytes to f at its current offset,
// accumulating progress across short writes and retrying until the whole
// buffer is transferred or the retry budget is exhausted. On success it
// calls f.Sync as the durability barrier spec.md §4.1 requires. Positioning
// the handle is the caller's responsibility.
func WriteExact(f fs.File, buf []byte) error {
	if len(buf) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidInput)
	}

	total := 0
	for attempt := 0; total < len(buf); attempt++ {
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: retry budget exhausted after %d attempts (%d/%d bytes)",
				ErrShortIO, maxAttempts, total, len(buf))
		}

		n, err := f.Write(buf[total:])
		total += n

		if err != nil {
			return fmt.Errorf("%w: %w", ErrShortIO, err)
		}
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	return nil
}
