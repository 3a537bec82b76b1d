package main

import (
	"fmt"

	"github.com/eepman/eepman/pkg/eepman"
)

// cmdInfo implements `eepman info` (spec.md §6): one line per replica in
// configuration order, marking the authoritative one (SPEC_FULL.md §13's
// additive ReplicaInfo.Authoritative field).
func cmdInfo(io *IO, s *eepman.Store) int {
	for _, r := range s.Info() {
		mark := ""
		if r.Authoritative {
			mark = " (authoritative)"
		}
		io.Println(fmt.Sprintf("%s block_size=%d block_count=%d total_bytes=%d%s",
			r.Path, r.BlockSize, r.BlockCount, r.TotalBytes, mark))
	}
	return 0
}
