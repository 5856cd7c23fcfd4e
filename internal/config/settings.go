package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// VCardSource describes an optional remote vCard endpoint used for imports.
type VCardSource struct {
	// URL is the CardDAV/WebDAV address of a .vcf export.
	URL string `yaml:"url"`
	// Username for HTTP Basic Auth.
	Username string `yaml:"username"`
	// Password for HTTP Basic Auth. Leave empty to resolve it from the
	// OS keyring under the app service name.
	Password string `yaml:"password,omitempty"`
}

// Settings is the top-level on-disk configuration.
type Settings struct {
	// DBPath is the SQLite database file. Empty means the default path
	// inside the user config directory.
	DBPath string `yaml:"db_path"`

	// Port is the localhost HTTP port serving the calendar feed.
	Port string `yaml:"port"`

	// Language selects the message language (ISO 639-1).
	Language string `yaml:"language"`

	// RefreshMinutes controls how often the served feed is rebuilt.
	RefreshMinutes int `yaml:"refresh_minutes"`

	// ReminderTrigger is an optional ISO8601 VALARM trigger (e.g. "-P1D")
	// attached to feed events. Empty disables alarms in the feed.
	ReminderTrigger string `yaml:"reminder_trigger"`

	// ExportDir is where CSV exports are written. Empty means the
	// current working directory.
	ExportDir string `yaml:"export_dir"`

	// VCard configures the optional remote import source.
	VCard VCardSource `yaml:"vcard"`
}

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Port:           DefaultPort,
		Language:       DefaultLanguage,
		RefreshMinutes: DefaultRefreshMin,
	}
}

// Normalize fills in missing/zero values so partially-filled files from
// older versions keep working.
func (s *Settings) Normalize() {
	if s.Port == "" {
		s.Port = DefaultPort
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.RefreshMinutes <= 0 {
		s.RefreshMinutes = DefaultRefreshMin
	}
}

// ResolvePassword returns the vCard source password, consulting the OS
// keyring when the settings file omits it. A keyring miss is not an error;
// it simply yields an empty password.
func (s *Settings) ResolvePassword() string {
	if s.VCard.Password != "" {
		return s.VCard.Password
	}
	if s.VCard.Username == "" {
		return ""
	}
	pass, err := keyring.Get(KeyringService, s.VCard.Username)
	if err != nil {
		slog.Debug(MsgKeyringMiss,
			LogKeyComponent, CompSettings,
			LogKeyUser, s.VCard.Username,
			LogKeyError, err,
		)
		return ""
	}
	return pass
}

// LoadSettings reads the YAML settings file.
// If the file does not exist, a default file is created (0600) and the
// defaults are returned.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrSettingsPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultSettings()
			if err := SaveSettings(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// SaveSettings writes the configuration atomically (temp file + rename)
// with owner-only permissions.
func SaveSettings(path string, cfg *Settings) error {
	if path == "" {
		return errors.New(ErrSettingsPath)
	}
	if cfg == nil {
		return errors.New(ErrSettingsNil)
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".remindday-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// DefaultSettingsPath returns the platform settings file location inside
// the user config directory.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New(ErrDataDir)
	}
	return filepath.Join(dir, AppID, SettingsFileName), nil
}

// DefaultDBPath returns the platform database file location inside the
// user config directory, creating the app directory when needed.
func DefaultDBPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New(ErrDataDir)
	}
	appDir := filepath.Join(dir, AppID)
	if err := os.MkdirAll(appDir, DirPermUserRWX); err != nil {
		return "", errors.New(ErrCreateDir)
	}
	return filepath.Join(appDir, DBFileName), nil
}
