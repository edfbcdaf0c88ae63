package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize seeds the configuration directory with the default config.yaml,
// leaving an existing file alone, and returns the loaded result.
func Initialize(fsys afero.Fs, path string, logger *log.Logger) (*Configuration, error) {
	if err := fsys.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(path, ConfigurationName)
	switch _, err := fsys.Stat(configPath); {
	case err == nil:
		logger.Printf("%s already exists, leaving it untouched", configPath)

	case os.IsNotExist(err):
		logger.Printf("creating %s", configPath)
		if err := afero.WriteFile(fsys, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}

	default:
		return nil, err
	}

	return LoadFs(fsys, path)
}
