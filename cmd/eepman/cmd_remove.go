package main

import "github.com/eepman/eepman/pkg/eepman"

// cmdRemove implements `eepman remove KEY` (spec.md §6).
func cmdRemove(io *IO, s *eepman.Store, args []string) int {
	if len(args) != 1 {
		io.ErrPrintln("error: remove requires exactly one KEY")
		return 1
	}

	key := args[0]
	if err := s.Remove(key); err != nil {
		io.ErrPrintln("error:", err)
		return engineExitCode(err)
	}

	io.Println(key)
	return 0
}
