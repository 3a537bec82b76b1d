package main

import (
	"fmt"
	"io"
)

// IO wraps the command's stdout/stderr, honouring the global -q flag
// (spec.md §6). Adapted from internal/cli.IO in the teacher repo, trimmed
// to this CLI's needs: no warning-buffering (this engine's only structural
// warnings are eepconf's, printed up front by run() before any command
// runs, per SPEC_FULL.md §13).
type IO struct {
	out   io.Writer
	err   io.Writer
	quiet bool
	brief bool
}

func newIO(out, errOut io.Writer, quiet, brief bool) *IO {
	return &IO{out: out, err: errOut, quiet: quiet, brief: brief}
}

// Println writes a line to stdout unless -q was given.
func (o *IO) Println(a ...any) {
	if o.quiet {
		return
	}
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout unless -q was given.
func (o *IO) Printf(format string, a ...any) {
	if o.quiet {
		return
	}
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln always writes to stderr, regardless of -q (spec.md's -q
// silences normal output, not diagnostics).
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.err, a...)
}

// field renders one key/value pair for `read`/`all`/`set` output. With -b
// it is `key="value"` (spec.md §6's brief form); otherwise it is
// `key=value` unquoted.
func (o *IO) field(key, value string) string {
	if o.brief {
		return fmt.Sprintf("%s=%q", key, value)
	}
	return fmt.Sprintf("%s=%s", key, value)
}
