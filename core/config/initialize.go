package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration files to dir, leaving any
// existing files in place.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return InitializeFs(afero.NewOsFs(), dir, logger)
}

// InitializeFs is Initialize on the given filesystem.
func InitializeFs(fs afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name string
		data []byte
	}{
		{ConfigurationName, defaultConfigData},
		{AliasFileName, defaultAliasData},
	} {
		path := filepath.Join(dir, f.name)
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, err
		}
		if exists {
			logger.Printf("%s already exists, skipping", path)
			continue
		}

		logger.Printf("writing %s", path)
		if err := afero.WriteFile(fs, path, f.data, 0600); err != nil {
			return nil, err
		}
	}

	return LoadFs(fs, dir)
}
