package main

import (
	"bytes"
	"testing"
)

// testCLI runs the CLI in-process with a fresh temp directory, mirroring
// the teacher's internal/cli.CLI test harness.
type testCLI struct {
	t   *testing.T
	dir string
	env map[string]string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	return &testCLI{t: t, dir: t.TempDir(), env: map[string]string{}}
}

func (c *testCLI) run(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var outBuf, errBuf bytes.Buffer
	fullArgs := append([]string{"eepman", "--cwd", c.dir}, args...)
	code := run(fullArgs, &outBuf, &errBuf, envSlice(c.env))

	return outBuf.String(), errBuf.String(), code
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
