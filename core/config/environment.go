package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/josephlewis42/civa/core/pathindex"
)

// Environment holds the environment variables read at startup.
type Environment struct {
	// Path must be present, though it may be empty.
	Path string `env:"PATH,required"`
	Home string `env:"HOME"`
	User string `env:"USER"`

	// ConfigDir overrides the default configuration directory.
	ConfigDir string `env:"CIVA_CONFIG_DIR"`
	// LogLevel overrides the configured log level.
	LogLevel string `env:"CIVA_LOG_LEVEL"`
}

// LoadEnvironment reads the process environment. It returns
// pathindex.ErrNoPath if PATH is absent.
func LoadEnvironment() (*Environment, error) {
	out, err := env.ParseAs[Environment]()
	if errors.Is(err, env.VarIsNotSetError{}) {
		return nil, pathindex.ErrNoPath
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't read environment: %w", err)
	}
	return &out, nil
}

// DefaultDir returns the configuration directory to use when none is given
// on the command line.
func (e *Environment) DefaultDir() (string, error) {
	if e.ConfigDir != "" {
		return e.ConfigDir, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "civa"), nil
}
