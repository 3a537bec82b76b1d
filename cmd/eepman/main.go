// Command eepman is the CLI front end for the replicated EEPROM
// configuration store (spec.md §6). It opens the replica pool named by the
// effective eepconf.DefaultPath (or an override), dispatches one of
// read/set/remove/all/clear/verify/info to the pkg/eepman.Store façade, and
// maps the result onto the process exit code spec.md §6/§7 specifies: 0 on
// success, the engine's stable negative Kind code on a classified failure,
// 1 on a CLI usage error.
//
// SPEC_FULL.md §13 adds two commands beyond spec.md's CLI surface: `shell`,
// an interactive REPL over an open Store, and `config`, which manages the
// CLI's own settings file — unrelated to the replica pool's own
// configuration format (pkg/eepconf), which the engine itself reads.
//
// Grounded on the teacher's cmd/tk/main.go + internal/cli split (flag
// "github.com/spf13/pflag", a Command table, per-command help strings), but
// collapsed into this package since §10's layout has no internal/cli
// analogue for this module.
package main

import "os"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr, os.Environ()))
}
