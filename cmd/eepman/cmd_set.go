package main

import "github.com/eepman/eepman/pkg/eepman"

// cmdSet implements `eepman set KEY VALUE...` (spec.md §6): one or more
// KEY VALUE pairs, applied in order. -n (NoCreate) is forwarded to every
// pair. The first failure aborts the remaining pairs.
func cmdSet(io *IO, s *eepman.Store, args []string, noCreate bool) int {
	if len(args) == 0 || len(args)%2 != 0 {
		io.ErrPrintln("error: set requires one or more KEY VALUE pairs")
		return 1
	}

	var flags eepman.SetFlags
	if noCreate {
		flags |= eepman.NoCreate
	}

	for i := 0; i < len(args); i += 2 {
		key, value := args[i], args[i+1]

		if err := s.Set(key, value, flags); err != nil {
			io.ErrPrintln("error:", err)
			return engineExitCode(err)
		}

		io.Println(io.field(key, value))
	}

	return 0
}
