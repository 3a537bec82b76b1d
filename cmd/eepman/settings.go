package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// settings holds the CLI's own preferences — which is a different
// configuration surface than the replica pool's eepconf file the engine
// itself reads (SPEC_FULL.md §11.3). A zero value is the CLI's built-in
// default.
type settings struct {
	ConfigPath string `json:"config_path,omitempty"`
	Quiet      bool   `json:"quiet,omitempty"`
	Brief      bool   `json:"brief,omitempty"`
}

// settingsFileName is the project-local settings file, checked in the
// current working directory.
const settingsFileName = ".eepman.jsonc"

// settingsSources records which files contributed to the effective
// settings. `eepman config path` does not use it: it prints the two
// candidate paths whether or not those files exist.
type settingsSources struct {
	Global  string
	Project string
}

// globalSettingsPath returns $XDG_CONFIG_HOME/eepman/config.jsonc, falling
// back to ~/.config/eepman/config.jsonc, matching the teacher's
// getGlobalConfigPath.
func globalSettingsPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "eepman", "config.jsonc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "eepman", "config.jsonc")
}

// loadSettings reads the global then project-local settings files
// (JSONC via hujson), each overlaying the last non-zero field over the
// previous, per SPEC_FULL.md §11.3's precedence (defaults, global,
// project, then CLI flags — flags are applied by the caller after this
// returns). Missing files are not an error; a malformed file is.
func loadSettings(workDir string, env map[string]string) (settings, settingsSources, error) {
	var (
		s       settings
		sources settingsSources
	)

	if path := globalSettingsPath(env); path != "" {
		loaded, ok, err := readSettingsFile(path)
		if err != nil {
			return settings{}, settingsSources{}, err
		}
		if ok {
			sources.Global = path
			s = mergeSettings(s, loaded)
		}
	}

	projectPath := filepath.Join(workDir, settingsFileName)
	loaded, ok, err := readSettingsFile(projectPath)
	if err != nil {
		return settings{}, settingsSources{}, err
	}
	if ok {
		sources.Project = projectPath
		s = mergeSettings(s, loaded)
	}

	return s, sources, nil
}

func readSettingsFile(path string) (settings, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-controlled path
	if err != nil {
		if os.IsNotExist(err) {
			return settings{}, false, nil
		}
		return settings{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return settings{}, false, fmt.Errorf("%s: invalid JSONC: %w", path, err)
	}

	var s settings
	if err := json.Unmarshal(standardized, &s); err != nil {
		return settings{}, false, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}

	return s, true, nil
}

// mergeSettings overlays overlay's non-zero fields onto base. Unlike the
// teacher's Config (which tracks "explicitly empty" string fields to
// distinguish "unset" from "set to the zero value"), this settings struct
// has no field where the zero value is itself a meaningful override, so a
// plain non-zero overlay is sufficient.
func mergeSettings(base, overlay settings) settings {
	if overlay.ConfigPath != "" {
		base.ConfigPath = overlay.ConfigPath
	}
	if overlay.Quiet {
		base.Quiet = true
	}
	if overlay.Brief {
		base.Brief = true
	}
	return base
}

// writeProjectSetting persists a single key=value pair into the
// project-local settings file, preserving any other keys already there,
// via github.com/natefinch/atomic — safe here because this settings file
// is a regular file on a normal filesystem, unlike the replica devices
// (SPEC_FULL.md §12.1).
func writeProjectSetting(workDir, key, value string) error {
	path := filepath.Join(workDir, settingsFileName)

	current, _, err := readSettingsFile(path)
	if err != nil {
		return err
	}

	switch key {
	case "config_path":
		current.ConfigPath = value
	case "quiet":
		current.Quiet = value == "true"
	case "brief":
		current.Brief = value == "true"
	default:
		return fmt.Errorf("eepman config set: unknown key %q", key)
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')

	return atomic.WriteFile(path, bytes.NewReader(data))
}
