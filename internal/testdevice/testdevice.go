// Package testdevice provides fake character devices for exercising the
// replicated storage engine without a real EEPROM: an in-memory,
// []byte-backed fs.File for fast unit tests, plus a thin crash-injection
// wrapper used to test P6 (torn-write recovery).
//
// This is a small, purpose-built adaptation of the *idea* in the teacher's
// internal/fs/chaos.go and crash.go (delay durability, let a test commit a
// write "up to but not including" a barrier, then simulate a crash) rewritten
// against this package's block/footer model instead of slotcache's mmap
// model: porting chaos.go/crash.go verbatim would carry roughly 2,500 lines
// of mmap-page bookkeeping with no referent in a block-device world
// (SPEC_FULL.md §11.4).
package testdevice

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/eepman/eepman/pkg/fs"
)

// ErrCrashed is returned by Write/Sync once a Device has been crashed via
// CrashBeforeFooter or Crash.
var ErrCrashed = errors.New("testdevice: device has crashed")

// Device is an in-memory fixed-size character device. Its zero value is not
// usable; construct with New.
type Device struct {
	data []byte
	pos  int64

	crashed bool

	// crashAtFooterBlock, when set, makes the second Write that targets the
	// final blockSize bytes of data fail with ErrCrashed instead of
	// completing — modelling a crash between the document writes and the
	// footer write of spec.md §4.3/P6. The first such write is
	// footer.ZeroBlock's pre-write zeroing (replica.WriteDocument always
	// zeros the footer block before writing the document, per spec.md
	// §4.3), which happens before any document bytes are written and must
	// be allowed to complete; only the second hit — footer.Write's actual
	// commit, issued after every document block — is the crash point P6
	// describes.
	crashAtFooterBlock bool
	blockSize          int
	footerBlockHits    int
}

// New returns a blank Device of exactly size bytes, as if freshly
// provisioned and never written (spec.md §8 scenario 1's "all zeros").
func New(size int) *Device {
	return &Device{data: make([]byte, size)}
}

// NewFrom returns a Device pre-populated with the contents of data
// (len(data) bytes, used exactly as given; callers size this to the
// intended (blockSize, blockCount) pair themselves).
func NewFrom(data []byte) *Device {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Device{data: cp}
}

// Bytes returns a copy of the device's current raw contents, for test
// assertions against on-disk layout.
func (d *Device) Bytes() []byte {
	cp := make([]byte, len(d.data))
	copy(cp, d.data)
	return cp
}

// CrashBeforeFooter arms the device so that the second write targeting its
// final blockSize bytes (the footer block, per spec.md §4.2/§4.3) fails
// with ErrCrashed instead of completing, and the device thereafter refuses
// all further I/O — modelling a power loss after the document blocks have
// been written but before the footer update commits (spec.md P6). The
// first such write is the pre-write zeroing WriteDocument always performs
// before touching the document blocks, which must be allowed to succeed
// for the crash to land where P6 intends.
func (d *Device) CrashBeforeFooter(blockSize int) {
	d.crashAtFooterBlock = true
	d.blockSize = blockSize
}

// Crash immediately marks the device as crashed; all subsequent Read/Write
// calls fail with ErrCrashed.
func (d *Device) Crash() {
	d.crashed = true
}

// Reboot clears a device's crashed state while leaving its stored bytes
// untouched, modelling the next process opening a fresh handle onto the
// same physical EEPROM after a simulated power loss: the medium survives a
// crash, only the in-flight write and the process holding the old handle
// don't.
func (d *Device) Reboot() {
	d.crashed = false
	d.crashAtFooterBlock = false
	d.footerBlockHits = 0
	d.pos = 0
}

func (d *Device) Read(p []byte) (int, error) {
	if d.crashed {
		return 0, ErrCrashed
	}
	if d.pos >= int64(len(d.data)) {
		return 0, io.EOF
	}
	n := copy(p, d.data[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *Device) Write(p []byte) (int, error) {
	if d.crashed {
		return 0, ErrCrashed
	}

	if d.crashAtFooterBlock && d.blockSize > 0 {
		footerStart := int64(len(d.data)) - int64(d.blockSize)
		if d.pos == footerStart {
			d.footerBlockHits++
			if d.footerBlockHits >= 2 {
				d.crashed = true
				return 0, ErrCrashed
			}
		}
	}

	if d.pos+int64(len(p)) > int64(len(d.data)) {
		return 0, bytes.ErrTooLarge
	}

	n := copy(d.data[d.pos:], p)
	d.pos += int64(n)
	return n, nil
}

func (d *Device) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = d.pos
	case io.SeekEnd:
		base = int64(len(d.data))
	}
	d.pos = base + offset
	return d.pos, nil
}

func (d *Device) Close() error { return nil }

func (d *Device) Fd() uintptr { return 0 }

func (d *Device) Stat() (os.FileInfo, error) { return nil, nil }

func (d *Device) Sync() error {
	if d.crashed {
		return ErrCrashed
	}
	return nil
}

func (d *Device) Chmod(os.FileMode) error { return nil }

var _ fs.File = (*Device)(nil)
