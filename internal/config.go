package internal

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/vidar-app/vidar/internal/api"
	"github.com/vidar-app/vidar/internal/download"
	"github.com/vidar-app/vidar/internal/ytdlp"
)

// VidarConfig is the user-supplied configuration, read from a YAML file with
// environment variable overrides. Every field carries a usable default so a
// missing config file is not an error.
type VidarConfig struct {
	API       api.RestConfig  `yaml:"api"`
	Downloads download.Config `yaml:"downloads"`
	Fetcher   ytdlp.Config    `yaml:"fetcher"`
}

// Load populates the config from the YAML file at configPath, then from the
// environment. A missing file falls back to environment-only loading.
func (config *VidarConfig) Load(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if envErr := cleanenv.ReadEnv(config); envErr != nil {
				return fmt.Errorf("failed to load configuration from environment: %w", envErr)
			}

			return nil
		}

		return fmt.Errorf("failed to load configuration from '%s': %w", configPath, err)
	}

	return nil
}
