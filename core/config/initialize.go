package config

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration into dir, creating it if needed.
// An existing configuration is left alone.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return InitializeFs(afero.NewBasePathFs(afero.NewOsFs(), dir), logger)
}

// InitializeFs writes the default configuration into the root of configFs.
func InitializeFs(configFs afero.Fs, logger *log.Logger) (*Configuration, error) {
	_, err := configFs.Stat(ConfigurationName)
	switch {
	case err == nil:
		logger.Printf("%s already exists, skipping\n", ConfigurationName)
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("writing %s\n", ConfigurationName)
		if err := afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return LoadFs(configFs)
}
