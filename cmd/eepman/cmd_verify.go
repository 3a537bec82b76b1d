package main

import "github.com/eepman/eepman/pkg/eepman"

// cmdVerify implements `eepman verify` (spec.md §6): checks every
// non-authoritative replica's digest, repairing any mismatch.
func cmdVerify(io *IO, s *eepman.Store) int {
	outcome, err := s.Verify()
	if err != nil {
		io.ErrPrintln("error:", err)
		return engineExitCode(err)
	}

	switch outcome {
	case eepman.VerifyRepaired:
		io.Println("repaired")
	default:
		io.Println("all_passed")
	}

	return 0
}
