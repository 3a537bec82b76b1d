package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_LoadSettings_Returns_Zero_Value_When_No_Files_Exist(t *testing.T) {
	dir := t.TempDir()
	s, sources, err := loadSettings(dir, map[string]string{"XDG_CONFIG_HOME": filepath.Join(dir, "xdg")})

	require.NoError(t, err)
	require.Equal(t, settings{}, s)
	require.Empty(t, sources.Global)
	require.Empty(t, sources.Project)
}

func Test_LoadSettings_Project_File_Overlays_Global_File(t *testing.T) {
	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")

	globalPath := filepath.Join(xdg, "eepman", "config.jsonc")
	require.NoError(t, os.MkdirAll(filepath.Dir(globalPath), 0o755))
	require.NoError(t, os.WriteFile(globalPath, []byte(`{"quiet": true, "config_path": "/global.conf"}`), 0o644))

	projectPath := filepath.Join(dir, settingsFileName)
	require.NoError(t, os.WriteFile(projectPath, []byte(`{"config_path": "/project.conf"}`), 0o644))

	s, sources, err := loadSettings(dir, map[string]string{"XDG_CONFIG_HOME": xdg})
	require.NoError(t, err)
	require.Equal(t, globalPath, sources.Global)
	require.Equal(t, projectPath, sources.Project)

	require.True(t, s.Quiet, "project file left quiet untouched, global's true should survive")
	require.Equal(t, "/project.conf", s.ConfigPath, "project file's config_path should win")
}

func Test_WriteProjectSetting_Then_LoadSettings_Roundtrips(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeProjectSetting(dir, "brief", "true"))
	require.NoError(t, writeProjectSetting(dir, "config_path", "/dev/eeprom0.conf"))

	s, _, err := loadSettings(dir, nil)
	require.NoError(t, err)
	require.True(t, s.Brief)
	require.Equal(t, "/dev/eeprom0.conf", s.ConfigPath)
}

func Test_WriteProjectSetting_Rejects_Unknown_Key(t *testing.T) {
	dir := t.TempDir()
	err := writeProjectSetting(dir, "bogus", "x")
	require.Error(t, err)
}
