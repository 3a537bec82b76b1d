package main

import (
	"sort"

	"github.com/eepman/eepman/pkg/eepman"
)

// cmdAll implements `eepman all` (spec.md §6): lists every key/value pair
// in the authoritative document. Keys is order-undefined (pkg/eepman.Keys'
// doc comment), so this sorts them for stable, scriptable output.
func cmdAll(io *IO, s *eepman.Store) int {
	keys, err := s.Keys()
	if err != nil {
		io.ErrPrintln("error:", err)
		return engineExitCode(err)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value, err := s.Get(key, -1)
		if err != nil {
			io.ErrPrintln("error:", err)
			return engineExitCode(err)
		}
		io.Println(io.field(key, value))
	}

	return 0
}
