package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".queuewatch"

// Published view of the PNCC dynamic queue sheet.
const defaultQueueURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vQJeJcd-fLAZbLxn0wZ9OFhUA9NTCJnNisHqBAlGnW85F4OGoNe5yYVT0RRjFA7-BIpMVOhH5DsUrWQ/pubhtml?gid=580698807&single=true&widget=false&headers=false&range=A1:W100"

// Settings represents the YAML configuration structure
type Settings struct {
	QueueURL           string `yaml:"queue_url"`
	StateDir           string `yaml:"state_dir"`
	HeaderRow          int    `yaml:"header_row"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
	Channel            string `yaml:"channel"`
}

func defaultSettings() *Settings {
	return &Settings{
		QueueURL:           defaultQueueURL,
		HeaderRow:          2,
		HTTPTimeoutSeconds: 30,
	}
}

// loadSettings loads settings from a YAML file with fallback to defaults
// when the file doesn't exist.
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
	}

	settings := defaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}

	if settings.HeaderRow < 0 {
		return nil, fmt.Errorf("header_row must be >= 0, got %d", settings.HeaderRow)
	}
	if settings.HTTPTimeoutSeconds <= 0 {
		settings.HTTPTimeoutSeconds = 30
	}

	return settings, nil
}

// defaultSettingsPath returns the path to the settings file in the
// .queuewatch directory.
func defaultSettingsPath() string {
	return filepath.Join(defaultConfigDir, "settings.yaml")
}
