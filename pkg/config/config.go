// Package config loads sufi2 settings from INI files with embedded defaults.
//
// Settings are read from three places, later ones winning per key:
// the embedded defaults/config, the global ~/.config/sufi2/config and
// the project-local <project>/.sufi2/config.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed defaults/config
var defaultsFS embed.FS

// LocalDirName is the per-project config directory under the project root.
const LocalDirName = ".sufi2"

// ColorConfig holds output colors as "r,g,b" strings, ready for color.RGB.
type ColorConfig struct {
	Prepare     string
	Execute     string
	PostProcess string
	Warn        string
	Error       string
	Timestamp   string
	Info        string
}

// Config is the merged configuration.
type Config struct {
	Values
	Colors ColorConfig

	configDir string // global config directory
	localDir  string // project-local config directory, empty if the project has none
}

// DefaultsFS exposes the embedded defaults.
func DefaultsFS() embed.FS { return defaultsFS }

// DefaultConfigDir returns ~/.config/sufi2.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "sufi2")
	}
	return filepath.Join(home, ".config", "sufi2")
}

// Load reads the global configuration only. empty configDir uses DefaultConfigDir.
func Load(configDir string) (*Config, error) {
	return loadWithLocal(configDir, "")
}

// LoadForProject reads the global configuration and the project-local overrides
// from <projectRoot>/.sufi2, if that directory exists.
func LoadForProject(configDir, projectRoot string) (*Config, error) {
	localDir := ""
	if projectRoot != "" {
		candidate := filepath.Join(projectRoot, LocalDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			localDir = candidate
		}
	}
	return loadWithLocal(configDir, localDir)
}

func loadWithLocal(configDir, localDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := newDefaultsInstaller(defaultsFS).Install(configDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	globalPath := filepath.Join(configDir, "config")
	localPath := ""
	if localDir != "" {
		localPath = filepath.Join(localDir, "config")
	}

	values, err := newValuesLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	colors, err := newColorLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	return &Config{Values: values, Colors: colors, configDir: configDir, localDir: localDir}, nil
}

// ConfigDir returns the global config directory.
func (c *Config) ConfigDir() string { return c.configDir }

// LocalDir returns the project-local config directory, empty if none was found.
func (c *Config) LocalDir() string { return c.localDir }
