// Package replica implements the on-device document layout: a whole-document
// read/write path built on pkg/blockio and pkg/footer, plus the Descriptor
// type that represents one physical EEPROM device throughout the engine.
package replica

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/eepman/eepman/pkg/blockio"
	"github.com/eepman/eepman/pkg/eepdigest"
	"github.com/eepman/eepman/pkg/footer"
	"github.com/eepman/eepman/pkg/fs"
)

// ErrNoHandle means an operation was attempted on a Descriptor that has no
// open device handle (see SetHandle / pkg/lockmgr).
var ErrNoHandle = errors.New("replica: no open handle")

// ErrNoBuffer means WriteDocument was called before the caller set the
// descriptor's cached buffer via SetBuf, per spec.md §4.3 ("requires the
// replica's cached buffer to hold the bytes").
var ErrNoBuffer = errors.New("replica: no cached document buffer")

// ErrCounterExhausted means the next write would push the write counter past
// its 10-digit decimal range. spec.md §9 leaves overflow behavior
// unspecified; this implementation refuses to advance rather than truncate
// or wrap (SPEC_FULL.md §14.2).
var ErrCounterExhausted = errors.New("replica: write counter exhausted")

// ErrDocumentTooLarge means the cached buffer exceeds this replica's own
// document capacity. The store façade is expected to enforce the
// pool-wide capacity C (spec.md I5) before calling WriteDocument; this is
// a defensive second check against the individual replica's bound.
var ErrDocumentTooLarge = errors.New("replica: document exceeds replica capacity")

// Descriptor represents one physical replica device: its configured
// geometry (Path, BlockSize, BlockCount), the last-known on-device state
// (Digest, Counter), and — only while an operation holds it — an open
// handle and a cached document buffer.
//
// Digest and Counter are exported because pkg/quorum and pkg/repair read
// and set them directly as part of selecting and repairing replicas; handle
// and buf stay unexported because they are resources with ownership rules
// (spec.md §5) that must go through the accessor methods below.
type Descriptor struct {
	Path       string
	BlockSize  int
	BlockCount int
	Digest     string
	Counter    uint64

	handle fs.File
	buf    []byte
}

// Capacity returns the maximum document length (bytes) this replica alone
// can hold: BlockSize * (BlockCount-1), the document region (blocks
// 0..BlockCount-2); block BlockCount-1 is reserved entirely for the footer.
//
// spec.md §3 also gives a capacity formula, C = B·N − footer_len, for the
// pool-wide figure, which is inconsistent with the block-layout prose two
// sentences earlier ("blocks 0..N-2 carry the document... block N-1 is the
// footer block") and with §4.3's explicit "a fully-packed replica yields
// B·(N−1)". This implementation takes the block-layout invariant and the
// §4.3 statement as authoritative (footer_len is used only as the minimum
// block-size validity check, per §3's next sentence) and computes capacity
// as B·(N−1); DESIGN.md records this resolution.
func (d *Descriptor) Capacity() int {
	return d.BlockSize * (d.BlockCount - 1)
}

// SetHandle attaches an open device handle, valid for the duration of one
// store-façade operation (pkg/lockmgr opens and attaches it).
func (d *Descriptor) SetHandle(f fs.File) { d.handle = f }

// Handle returns the currently attached device handle, or nil if none.
func (d *Descriptor) Handle() fs.File { return d.handle }

// ClearHandle detaches the device handle without closing it (the caller,
// typically pkg/lockmgr, owns closing).
func (d *Descriptor) ClearHandle() { d.handle = nil }

// Buf returns the cached document buffer, or nil if none is held.
func (d *Descriptor) Buf() []byte { return d.buf }

// SetBuf sets the cached document buffer. WriteDocument requires this to be
// set before it is called.
func (d *Descriptor) SetBuf(b []byte) { d.buf = b }

// ClearBuf drops the cached document buffer without writing it anywhere.
// Used for non-winning quorum candidates and after a clone borrows the
// authoritative buffer (spec.md §4.6).
func (d *Descriptor) ClearBuf() { d.buf = nil }

// ReadDocument reads the document region of d's device, scanning for the
// first NUL byte to determine the logical document length, per spec.md
// §4.3. It does not read or interpret the footer; callers needing the
// footer call pkg/footer.Read separately (pkg/quorum does both).
func ReadDocument(d *Descriptor) ([]byte, error) {
	f := d.handle
	if f == nil {
		return nil, ErrNoHandle
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("replica: seek: %w", err)
	}

	capacity := d.Capacity()
	buf := make([]byte, 0, capacity)
	chunk := make([]byte, d.BlockSize)

	foundNUL := false
	docLen := 0

	for i := 0; i < d.BlockCount-1; i++ {
		if err := blockio.ReadExact(f, chunk); err != nil {
			return nil, fmt.Errorf("replica: read block %d: %w", i, err)
		}

		if !foundNUL {
			if idx := bytes.IndexByte(chunk, 0); idx >= 0 {
				foundNUL = true
				docLen = len(buf) + idx
				// Scanning rule (spec.md §4.3): clear bytes after the
				// first NUL within this block so stale tail bytes never
				// leak into a later digest computation.
				for j := idx; j < len(chunk); j++ {
					chunk[j] = 0
				}

				buf = append(buf, chunk...)
				// "As soon as a NUL is seen... the read terminates"
				// (spec.md §4.3): don't read blocks the document no
				// longer logically contains.
				break
			}
		}

		buf = append(buf, chunk...)
	}

	if !foundNUL {
		docLen = capacity
	}

	return buf[:docLen], nil
}

// WriteDocument writes d's cached buffer (set via SetBuf) to d's device:
// zero the footer block, write the document in BlockSize-sized chunks up to
// and including the block containing the terminating NUL, then write the
// footer with the freshly computed digest and an incremented counter.
//
// If the new digest equals d.Digest, this is a no-op and the counter is not
// advanced (spec.md §4.3, P4).
func WriteDocument(d *Descriptor) error {
	f := d.handle
	if f == nil {
		return ErrNoHandle
	}

	if d.buf == nil {
		return ErrNoBuffer
	}

	if len(d.buf) > d.Capacity() {
		return fmt.Errorf("%w: %d bytes exceeds replica capacity %d", ErrDocumentTooLarge, len(d.buf), d.Capacity())
	}

	newDigest := eepdigest.SHA256Hex(d.buf)
	if d.Digest != "" && newDigest == d.Digest {
		return nil
	}

	newCounter := d.Counter + 1
	if newCounter > footer.MaxCounter {
		return fmt.Errorf("%w: next counter %d", ErrCounterExhausted, newCounter)
	}

	if err := footer.ZeroBlock(f, d.BlockSize); err != nil {
		return fmt.Errorf("replica: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("replica: seek: %w", err)
	}

	chunk := make([]byte, d.BlockSize)
	pos := 0

	for i := 0; i < d.BlockCount-1; i++ {
		n := copy(chunk, d.buf[pos:])
		for j := n; j < len(chunk); j++ {
			chunk[j] = 0
		}

		if err := blockio.WriteExact(f, chunk); err != nil {
			return fmt.Errorf("replica: write block %d: %w", i, err)
		}

		pos += n

		if n < len(chunk) {
			// This block's zero padding contains the document's
			// terminating NUL; nothing past it needs writing.
			break
		}
	}

	if err := footer.Write(f, newDigest, newCounter, d.BlockSize); err != nil {
		return fmt.Errorf("replica: %w", err)
	}

	d.Digest = newDigest
	d.Counter = newCounter

	return nil
}
