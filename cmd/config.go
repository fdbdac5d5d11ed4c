package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config mirrors the download command flags. File values act as
// defaults and lose against any flag explicitly set on the command
// line.
type Config struct {
	Output            string   `yaml:"output"`
	PathTemplate      string   `yaml:"path-template"`
	Format            string   `yaml:"format"`
	Bitrate           int      `yaml:"bitrate"`
	Quality           string   `yaml:"quality"`
	Overwrite         string   `yaml:"overwrite"`
	Providers         []string `yaml:"providers"`
	DurationTolerance int      `yaml:"duration-tolerance"`
	Workers           int      `yaml:"workers"`
	Archive           string   `yaml:"archive"`
	Lyrics            bool     `yaml:"lyrics"`
	GeniusToken       string   `yaml:"genius-token"`
	ClientID          string   `yaml:"client-id"`
	ClientSecret      string   `yaml:"client-secret"`
}

func configPath() string {
	return filepath.Join(xdg.ConfigHome, "spotdl", "config.yml")
}

// loadConfig reads the YAML configuration at the given path, or at
// the default location when empty. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	fallback := path == ""
	if fallback {
		path = configPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if fallback && errors.Is(err, fs.ErrNotExist) {
			return new(Config), nil
		}
		return nil, err
	}

	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}
