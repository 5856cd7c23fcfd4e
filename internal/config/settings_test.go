package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/remind-day/internal/config"
)

func TestLoadSettings_FirstRunCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := config.LoadSettings(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, config.DefaultLanguage, cfg.Language)
	assert.Equal(t, config.DefaultRefreshMin, cfg.RefreshMinutes)

	// The default file must exist with owner-only permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())
}

func TestLoadSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	in := &config.Settings{
		DBPath:          "/tmp/birthdays.db",
		Port:            "19090",
		Language:        "fr",
		RefreshMinutes:  15,
		ReminderTrigger: "-P1D",
		ExportDir:       "/tmp/exports",
	}
	in.VCard.URL = "https://contacts.example.org/book.vcf"
	in.VCard.Username = "alice"

	require.NoError(t, config.SaveSettings(path, in))

	out, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, in.DBPath, out.DBPath)
	assert.Equal(t, in.Port, out.Port)
	assert.Equal(t, in.Language, out.Language)
	assert.Equal(t, in.RefreshMinutes, out.RefreshMinutes)
	assert.Equal(t, in.ReminderTrigger, out.ReminderTrigger)
	assert.Equal(t, in.VCard.URL, out.VCard.URL)
	assert.Equal(t, in.VCard.Username, out.VCard.Username)
}

func TestSettings_NormalizeFillsDefaults(t *testing.T) {
	s := &config.Settings{}
	s.Normalize()

	assert.Equal(t, config.DefaultPort, s.Port)
	assert.Equal(t, config.DefaultLanguage, s.Language)
	assert.Equal(t, config.DefaultRefreshMin, s.RefreshMinutes)
}

func TestLoadSettings_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- not yaml"), 0600))

	_, err := config.LoadSettings(path)
	assert.Error(t, err)
}

func TestSettings_ResolvePassword_Explicit(t *testing.T) {
	s := &config.Settings{}
	s.VCard.Password = "hunter2"
	assert.Equal(t, "hunter2", s.ResolvePassword())
}

func TestSettings_ResolvePassword_NoUsername(t *testing.T) {
	// Without a username there is nothing to look up in the keyring.
	s := &config.Settings{}
	assert.Empty(t, s.ResolvePassword())
}
