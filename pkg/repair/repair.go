// Package repair implements the clone protocol that brings divergent
// replicas back into agreement with the authoritative replica, per
// spec.md §4.6.
package repair

import (
	"fmt"

	"github.com/eepman/eepman/pkg/footer"
	"github.com/eepman/eepman/pkg/replica"
)

// Run brings every non-authoritative replica in pool into agreement with
// authoritative: for each other replica, if its footer counter is less
// than authoritative's, or its digest differs, it is cloned. After Run
// succeeds, every replica in pool satisfies spec.md I3.
func Run(pool []*replica.Descriptor, authoritative *replica.Descriptor) error {
	for _, d := range pool {
		if d == authoritative {
			continue
		}

		ft, err := footer.Read(d.Handle(), d.BlockSize)
		if err != nil {
			return fmt.Errorf("repair: read footer %s: %w", d.Path, err)
		}

		needsRepair := ft.Kind != footer.KindValid ||
			ft.Counter < authoritative.Counter ||
			ft.DigestHex != authoritative.Digest

		if !needsRepair {
			continue
		}

		if err := Clone(d, authoritative); err != nil {
			return fmt.Errorf("repair: clone into %s: %w", d.Path, err)
		}
	}

	return nil
}

// Clone copies authoritative's document into dst and advances dst's
// counter to match authoritative's, per spec.md §4.6:
//
//   - dst borrows authoritative's cached buffer (never owns it)
//   - dst's digest is cleared so replica.WriteDocument's no-op check
//     cannot short-circuit the write
//   - dst's counter is set to authoritative's counter minus one, so the
//     single increment WriteDocument performs lands it exactly on
//     authoritative's counter
//   - dst's buffer is cleared again once the write completes, since dst
//     never owned it
func Clone(dst, authoritative *replica.Descriptor) error {
	dst.SetBuf(authoritative.Buf())
	dst.Digest = ""
	dst.Counter = authoritative.Counter - 1

	err := replica.WriteDocument(dst)
	dst.ClearBuf()

	return err
}
