package main

import "github.com/eepman/eepman/pkg/eepman"

// cmdRead implements `eepman read KEY...` (spec.md §6). Each key is fetched
// in turn and printed in argument order; the first failure (e.g. a missing
// key) aborts and its Kind becomes the exit code, matching how set/remove
// abort on the first engine error rather than reporting a partial result.
func cmdRead(io *IO, s *eepman.Store, keys []string) int {
	if len(keys) == 0 {
		io.ErrPrintln("error: read requires at least one KEY")
		return 1
	}

	for _, key := range keys {
		value, err := s.Get(key, -1)
		if err != nil {
			io.ErrPrintln("error:", err)
			return engineExitCode(err)
		}

		if io.brief {
			io.Println(io.field(key, value))
		} else {
			io.Println(value)
		}
	}

	return 0
}
