package main

import (
	"path/filepath"
	"strconv"
)

// cmdConfig implements SPEC_FULL.md §13's supplemented `config` command:
// get/set/path over the CLI's own settings file. This is unrelated to the
// replica pool configuration pkg/eepconf reads (SPEC_FULL.md §11.3) — it
// never touches a Store.
func cmdConfig(io *IO, workDir string, env map[string]string, current settings, args []string) int {
	if len(args) == 0 {
		io.ErrPrintln("error: config requires a subcommand: get|set|path")
		return 1
	}

	switch args[0] {
	case "path":
		io.Println("global=" + globalSettingsPath(env))
		io.Println("project=" + filepath.Join(workDir, settingsFileName))
		return 0

	case "get":
		if len(args) != 2 {
			io.ErrPrintln("error: config get requires a KEY")
			return 1
		}
		return cmdConfigGet(io, current, args[1])

	case "set":
		if len(args) != 3 {
			io.ErrPrintln("error: config set requires a KEY and a VALUE")
			return 1
		}
		if err := writeProjectSetting(workDir, args[1], args[2]); err != nil {
			io.ErrPrintln("error:", err)
			return 1
		}
		io.Println("ok")
		return 0

	default:
		io.ErrPrintln("error: unknown config subcommand:", args[0])
		return 1
	}
}

func cmdConfigGet(io *IO, s settings, key string) int {
	switch key {
	case "config_path":
		io.Println(s.ConfigPath)
	case "quiet":
		io.Println(strconv.FormatBool(s.Quiet))
	case "brief":
		io.Println(strconv.FormatBool(s.Brief))
	default:
		io.ErrPrintln("error: unknown config key:", key)
		return 1
	}
	return 0
}
