package main

import "github.com/eepman/eepman/pkg/eepman"

// cmdClear implements `eepman clear` (spec.md §6/§8 scenario 1): resets
// every replica to the empty document. This is also how a pool of blank,
// never-initialised devices is brought up for the first time.
func cmdClear(io *IO, s *eepman.Store) int {
	if err := s.Clear(); err != nil {
		io.ErrPrintln("error:", err)
		return engineExitCode(err)
	}

	io.Println("ok")
	return 0
}
