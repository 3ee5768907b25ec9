package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

func (r *Repo) configPath() string {
	return filepath.Join(r.PlumbDir, "config")
}

func (r *Repo) loadConfig() (*ini.File, error) {
	path := r.configPath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ini.Empty(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// ConfigGet returns the value for a "section.key" style key from
// .plumb/config. A missing file or key yields an empty string, not an
// error.
func (r *Repo) ConfigGet(key string) (string, error) {
	section, name, err := splitConfigKey(key)
	if err != nil {
		return "", err
	}
	cfg, err := r.loadConfig()
	if err != nil {
		return "", err
	}
	sec := cfg.Section(section)
	if !sec.HasKey(name) {
		return "", nil
	}
	return sec.Key(name).String(), nil
}

// ConfigSet stores a "section.key" value in .plumb/config, creating the
// file on first use.
func (r *Repo) ConfigSet(key, value string) error {
	section, name, err := splitConfigKey(key)
	if err != nil {
		return err
	}
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	cfg.Section(section).Key(name).SetValue(value)
	if err := cfg.SaveTo(r.configPath()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func splitConfigKey(key string) (string, string, error) {
	section, name, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || section == "" || name == "" {
		return "", "", fmt.Errorf("config key %q: want section.key", key)
	}
	return section, name, nil
}

// UserIdentity returns the configured user.name and user.email, falling
// back to $USER and a localhost address when unset.
func (r *Repo) UserIdentity() (name, email string, err error) {
	name, err = r.ConfigGet("user.name")
	if err != nil {
		return "", "", err
	}
	email, err = r.ConfigGet("user.email")
	if err != nil {
		return "", "", err
	}
	if name == "" {
		name = os.Getenv("USER")
		if name == "" {
			name = "unknown"
		}
	}
	if email == "" {
		email = name + "@localhost"
	}
	return name, email, nil
}
