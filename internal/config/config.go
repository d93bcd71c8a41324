package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDBPath   = "~/.local/share/annotator/annotations.db"
	DefaultUser     = "root"
	DefaultLogLevel = "info"
	// DefaultConfigPath is read when ANNOTATOR_CONFIG is unset; a missing file is not an error
	DefaultConfigPath = "~/.config/annotator/config.yaml"
)

// Config holds the settings shared by all binaries
type Config struct {
	DBPath   string `yaml:"db"`
	User     string `yaml:"user"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	// ExcludedNamespaces extends the built-in namespace denylist
	ExcludedNamespaces []string `yaml:"excluded_namespaces"`
	// ReadOnly disables linking new annotations
	ReadOnly bool `yaml:"read_only"`
	// AttachmentDir is where relative attachment names are resolved
	AttachmentDir string `yaml:"attachment_dir"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		DBPath:   DefaultDBPath,
		User:     DefaultUser,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads the YAML file named by ANNOTATOR_CONFIG (or DefaultConfigPath),
// then applies the ANNOTATOR_DB, ANNOTATOR_USER and ANNOTATOR_LOG_LEVEL overrides.
func Load() (Config, error) {
	path := os.Getenv("ANNOTATOR_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg, err := LoadFile(path)
	if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return Config{}, err
	}
	if err != nil {
		cfg = Default()
	}

	if env := os.Getenv("ANNOTATOR_DB"); env != "" {
		cfg.DBPath = env
	}
	if env := os.Getenv("ANNOTATOR_USER"); env != "" {
		cfg.User = env
	}
	if env := os.Getenv("ANNOTATOR_LOG_LEVEL"); env != "" {
		cfg.LogLevel = env
	}

	cfg.DBPath = ExpandHome(cfg.DBPath)
	cfg.LogFile = ExpandHome(cfg.LogFile)
	cfg.AttachmentDir = ExpandHome(cfg.AttachmentDir)
	return cfg, nil
}

// LoadFile parses a YAML config file over the defaults
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.User = strings.TrimSpace(cfg.User)
	if cfg.User == "" {
		cfg.User = DefaultUser
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the home directory
func ExpandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
