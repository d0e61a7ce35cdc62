package config

import (
	"path/filepath"

	"github.com/josephlewis42/civa/core/shell"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs loads and validates the configuration in the directory on fs.
func LoadFs(fs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fs, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, shell.WrapError(shell.ConfigError, err, "couldn't read %s", ConfigurationName)
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, shell.WrapError(shell.ConfigError, err, "couldn't parse %s", ConfigurationName)
	}
	if err := out.Validate(); err != nil {
		return nil, shell.WrapError(shell.ConfigError, err, "invalid %s", ConfigurationName)
	}

	out.configFs = fs
	out.configurationDir = path
	return &out, nil
}
