// Package quorum implements replica-selection: choosing an authoritative
// replica from a pool of open, locked replica devices by digest-verified
// highest write counter, per spec.md §4.5.
package quorum

import (
	"errors"
	"fmt"

	"github.com/eepman/eepman/pkg/eepdigest"
	"github.com/eepman/eepman/pkg/footer"
	"github.com/eepman/eepman/pkg/replica"
)

// ErrNoGoodDevices means no replica in the pool could be trusted: either
// none carried a valid footer, or none among those with the highest write
// counter had a digest matching its content.
var ErrNoGoodDevices = errors.New("quorum: no good devices")

// Select runs the quorum-selection algorithm over pool, whose replicas must
// already have open, locked handles (see pkg/lockmgr.AcquireAll):
//
//  1. Read every replica's footer; BadMagic replicas are ignored (treated
//     as uninitialised), any other footer-read error aborts the whole
//     operation.
//  2. Among replicas with a valid footer, find the maximum write counter
//     and keep the subset at that counter.
//  3. Walk that subset in pool order; the first whose content digest
//     matches its footer digest becomes authoritative. Its document is
//     cached on the descriptor (Digest, Counter, buf); every other
//     replica's buffer is left unset.
//
// Returns ErrNoGoodDevices if no candidate verifies.
func Select(pool []*replica.Descriptor) (*replica.Descriptor, error) {
	type candidate struct {
		d *replica.Descriptor
		f footer.Footer
	}

	var valid []candidate

	for _, d := range pool {
		f := d.Handle()
		if f == nil {
			return nil, fmt.Errorf("quorum: %s: %w", d.Path, replica.ErrNoHandle)
		}

		ft, err := footer.Read(f, d.BlockSize)
		if err != nil {
			return nil, fmt.Errorf("quorum: read footer %s: %w", d.Path, err)
		}

		if ft.Kind == footer.KindBadMagic {
			continue
		}

		valid = append(valid, candidate{d: d, f: ft})
	}

	if len(valid) == 0 {
		return nil, ErrNoGoodDevices
	}

	var maxCounter uint64
	for _, c := range valid {
		if c.f.Counter > maxCounter {
			maxCounter = c.f.Counter
		}
	}

	for _, c := range valid {
		if c.f.Counter != maxCounter {
			continue
		}

		doc, err := replica.ReadDocument(c.d)
		if err != nil {
			return nil, fmt.Errorf("quorum: read document %s: %w", c.d.Path, err)
		}

		if eepdigest.SHA256Hex(doc) != c.f.DigestHex {
			continue
		}

		c.d.Digest = c.f.DigestHex
		c.d.Counter = c.f.Counter
		c.d.SetBuf(doc)

		return c.d, nil
	}

	return nil, ErrNoGoodDevices
}
