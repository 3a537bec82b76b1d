// Package footer encodes and decodes the fixed-layout trailing metadata
// block every replica device carries in its last block: a magic tag, the
// SHA-256 digest of the document, and a monotonic write counter.
//
// spec.md §6 documents the footer's on-device byte layout as magic (5
// bytes) + digest hex (64 bytes) + counter (10 bytes) = 79 bytes, while its
// prose elsewhere (§3, I4) calls the magic value "eepman" — six ASCII
// characters. The two cannot both be literally true; DESIGN.md records the
// resolution this package implements: the wire layout (79-byte footer,
// 5-byte magic field) is authoritative, since other invariants (block-size
// validation, capacity arithmetic) are load-bearing on it, and the 5-byte
// magic constant below is the first five bytes of the word "eepman".
package footer

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/eepman/eepman/pkg/blockio"
	"github.com/eepman/eepman/pkg/fs"
)

const (
	// Magic is the fixed 5-byte tag that opens a valid footer block.
	Magic = "eepma"

	magicLen       = len(Magic)
	digestHexLen   = 64
	counterDigits  = 10

	// Len is the total size in bytes of the footer's used region
	// (magic + digest + counter). A replica's block size must be at
	// least this large to hold a footer.
	Len = magicLen + digestHexLen + counterDigits

	// MaxCounter is the largest value the 10-digit decimal counter field
	// can represent. spec.md §9 leaves overflow behavior unspecified;
	// this package refuses to advance the counter past it rather than
	// truncate or wrap (see pkg/replica.ErrCounterExhausted).
	MaxCounter = 9_999_999_999
)

// Kind classifies a footer read off a device.
type Kind int

const (
	// KindBadMagic means the first magicLen bytes did not match Magic;
	// the replica is treated as uninitialised.
	KindBadMagic Kind = iota

	// KindValid means the magic matched and DigestHex/Counter were parsed.
	KindValid
)

// Footer is the parsed content of a replica's footer block.
type Footer struct {
	Kind      Kind
	DigestHex string
	Counter   uint64
}

// ErrCorruptCounter means the magic matched but the counter field did not
// parse as a 10-digit decimal number.
var ErrCorruptCounter = errors.New("footer: corrupt counter field")

// ErrInvalidDigest means Write was asked to encode a digest that is not
// exactly digestHexLen hex characters.
var ErrInvalidDigest = errors.New("footer: invalid digest length")

// ErrCounterTooLarge means Write was asked to encode a counter value past
// MaxCounter.
var ErrCounterTooLarge = errors.New("footer: counter exceeds 10-digit range")

// Read seeks to -blockSize from the end of f and parses the footer block.
// A mismatched magic is reported as Kind: KindBadMagic with a nil error,
// not as an error — it is the normal state of an uninitialised replica.
func Read(f fs.File, blockSize int) (Footer, error) {
	if _, err := f.Seek(-int64(blockSize), io.SeekEnd); err != nil {
		return Footer{}, fmt.Errorf("footer: seek: %w", err)
	}

	magic := make([]byte, magicLen)
	if err := blockio.ReadExact(f, magic); err != nil {
		return Footer{}, fmt.Errorf("footer: read magic: %w", err)
	}

	if string(magic) != Magic {
		return Footer{Kind: KindBadMagic}, nil
	}

	digest := make([]byte, digestHexLen)
	if err := blockio.ReadExact(f, digest); err != nil {
		return Footer{}, fmt.Errorf("footer: read digest: %w", err)
	}

	counterBuf := make([]byte, counterDigits)
	if err := blockio.ReadExact(f, counterBuf); err != nil {
		return Footer{}, fmt.Errorf("footer: read counter: %w", err)
	}

	counter, err := strconv.ParseUint(string(counterBuf), 10, 64)
	if err != nil {
		return Footer{}, fmt.Errorf("%w: %w", ErrCorruptCounter, err)
	}

	return Footer{Kind: KindValid, DigestHex: string(digest), Counter: counter}, nil
}

// Write seeks to -blockSize from the end of f and writes magic, digestHex,
// and the zero-padded decimal counter consecutively. Callers must zero the
// footer block first (see ZeroBlock) before calling Write, per spec.md
// §4.2/§4.3.
func Write(f fs.File, digestHex string, counter uint64, blockSize int) error {
	if len(digestHex) != digestHexLen {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidDigest, len(digestHex), digestHexLen)
	}

	if counter > MaxCounter {
		return fmt.Errorf("%w: %d", ErrCounterTooLarge, counter)
	}

	if _, err := f.Seek(-int64(blockSize), io.SeekEnd); err != nil {
		return fmt.Errorf("footer: seek: %w", err)
	}

	payload := make([]byte, 0, Len)
	payload = append(payload, Magic...)
	payload = append(payload, digestHex...)
	payload = append(payload, fmt.Sprintf("%0*d", counterDigits, counter)...)

	if err := blockio.WriteExact(f, payload); err != nil {
		return fmt.Errorf("footer: write: %w", err)
	}

	return nil
}

// ZeroBlock writes a full block of zero bytes at offset -blockSize from the
// end of f. spec.md §4.3 requires this before every footer write so that a
// crash between the zero-write and the real footer write always leaves a
// BadMagic footer, never a footer whose digest/counter fields are a mix of
// old and new content.
func ZeroBlock(f fs.File, blockSize int) error {
	if _, err := f.Seek(-int64(blockSize), io.SeekEnd); err != nil {
		return fmt.Errorf("footer: seek: %w", err)
	}

	if err := blockio.WriteExact(f, make([]byte, blockSize)); err != nil {
		return fmt.Errorf("footer: zero block: %w", err)
	}

	return nil
}
