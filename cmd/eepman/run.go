package main

import (
	"errors"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/eepman/eepman/pkg/eepconf"
	"github.com/eepman/eepman/pkg/eepman"
	eepfs "github.com/eepman/eepman/pkg/fs"
)

// run parses global flags, opens the replica pool, dispatches to one of
// spec.md §6's commands (plus SPEC_FULL.md §13's shell/config), and returns
// the process exit code.
func run(args []string, out, errOut io.Writer, environ []string) int {
	env := envMap(environ)

	globalFlags := flag.NewFlagSet("eepman", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "show help")
	flagQuiet := globalFlags.BoolP("quiet", "q", false, "suppress non-error stdout output")
	flagBrief := globalFlags.BoolP("brief", "b", false, `emit key="value" rather than the bare value`)
	flagNoCreate := globalFlags.BoolP("no-create", "n", false, "set: fail rather than create a new key")
	flagConfig := globalFlags.StringP("eepconf", "c", "", "replica pool configuration file (default "+eepconf.DefaultPath+")")
	flagCwd := globalFlags.StringP("cwd", "C", "", "run as if started in `dir` (test/scripting hook)")

	if parseErr := globalFlags.Parse(args[1:]); parseErr != nil {
		_, _ = io.WriteString(errOut, "error: "+parseErr.Error()+"\n")
		return 1
	}

	workDir := *flagCwd
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			_, _ = io.WriteString(errOut, "error: "+err.Error()+"\n")
			return 1
		}
		workDir = wd
	}

	cliSettings, _, err := loadSettings(workDir, env)
	if err != nil {
		_, _ = io.WriteString(errOut, "error: "+err.Error()+"\n")
		return 1
	}

	quiet, brief, configPath := *flagQuiet, *flagBrief, *flagConfig
	if !globalFlags.Changed("quiet") {
		quiet = cliSettings.Quiet
	}
	if !globalFlags.Changed("brief") {
		brief = cliSettings.Brief
	}
	if !globalFlags.Changed("eepconf") {
		configPath = cliSettings.ConfigPath
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || len(commandAndArgs) == 0 {
		printUsage(out)
		if len(commandAndArgs) == 0 && !*flagHelp {
			return 1
		}
		return 0
	}

	cmdName, cmdArgs := commandAndArgs[0], commandAndArgs[1:]
	cio := newIO(out, errOut, quiet, brief)

	// config manages the CLI's own settings file; it never touches the
	// replica pool, so it is dispatched before Open (SPEC_FULL.md §11.3).
	if cmdName == "config" {
		return cmdConfig(cio, workDir, env, cliSettings, cmdArgs)
	}

	fsys := eepfs.NewReal()

	effectiveConfigPath := configPath
	if effectiveConfigPath == "" {
		effectiveConfigPath = eepconf.DefaultPath
	}

	// Structural config warnings are surfaced here even though Open
	// itself discards them, per SPEC_FULL.md §13: callers that want them
	// can always read pkg/eepconf directly, the way this CLI does.
	if _, warnings, loadErr := eepconf.Load(fsys, effectiveConfigPath); loadErr == nil {
		for _, w := range warnings {
			cio.ErrPrintln("warning:", w.String())
		}
	}

	openOpts := []eepman.Option{eepman.WithFS(fsys)}
	if configPath != "" {
		openOpts = append(openOpts, eepman.WithConfigPath(configPath))
	}

	store, openErr := eepman.Open(openOpts...)

	// clear can bring up a blank pool even when Open failed quorum
	// selection (spec.md §8 scenario 1), so it runs regardless of openErr.
	if cmdName != "clear" && openErr != nil {
		cio.ErrPrintln("error:", openErr)
		return engineExitCode(openErr)
	}

	switch cmdName {
	case "read":
		return cmdRead(cio, store, cmdArgs)
	case "set":
		return cmdSet(cio, store, cmdArgs, *flagNoCreate)
	case "remove":
		return cmdRemove(cio, store, cmdArgs)
	case "all":
		return cmdAll(cio, store)
	case "clear":
		return cmdClear(cio, store)
	case "verify":
		return cmdVerify(cio, store)
	case "info":
		return cmdInfo(cio, store)
	case "shell":
		return cmdShell(cio, store)
	default:
		cio.ErrPrintln("error: unknown command:", cmdName)
		printUsage(errOut)
		return 1
	}
}

// engineExitCode maps err onto spec.md §6's exit-code contract: a
// classified *eepman.Error surfaces its stable Code(); anything else
// (a CLI usage error, for instance) is a generic failure, exit 1.
func engineExitCode(err error) int {
	var ee *eepman.Error
	if errors.As(err, &ee) {
		return ee.Code()
	}
	return 1
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}
	return env
}

const usageText = `eepman - replicated EEPROM configuration store

Usage: eepman [flags] <command> [args]

Commands:
  read KEY...          print the value of one or more keys
  set KEY VALUE...      set one or more key/value pairs
  remove KEY            delete a key
  all                    list every key/value pair
  clear                  reset the store to {} on every replica
  verify                 check replica digests, repairing any mismatch
  info                   show the replica pool's configuration
  shell                  interactive REPL over the store
  config <get|set|path>  manage the CLI's own settings file

Flags:
  -q, --quiet            suppress non-error stdout output
  -b, --brief            emit key="value" rather than the bare value
  -n, --no-create        set: fail rather than create a new key
  -c, --eepconf <file>   replica pool configuration file
  -C, --cwd <dir>        run as if started in <dir>
  -h, --help             show this help

Exit codes: 0 success, -1 OS error, other negative codes per engine
error kind (see pkg/eepman.Kind).`

func printUsage(w io.Writer) {
	_, _ = io.WriteString(w, usageText+"\n")
}
