package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte

	//go:embed default/civa.alias.txt
	defaultAliasData []byte
)

const (
	ConfigurationName = "config.yaml"
	AliasFileName     = "civa.alias.txt"
	HistoryFileName   = "civa.history.txt"
	AppLogName        = "civa.log"
)

type Configuration struct {
	configFs         afero.Fs
	configurationDir string

	// AliasFile, HistoryFile and LogFile are relative to the configuration
	// directory unless absolute.
	AliasFile   string `json:"alias_file" validate:"required"`
	HistoryFile string `json:"history_file"`
	LogFile     string `json:"log_file" validate:"required"`

	// HistoryLimit is the number of lines kept, -1 disables history.
	HistoryLimit int    `json:"history_limit" validate:"gte=-1"`
	LogLevel     string `json:"log_level" validate:"oneof=debug info warn error"`

	MaxAliasDepth  int `json:"max_alias_depth" validate:"gte=1,lte=1024"`
	MaxSymlinkHops int `json:"max_symlink_hops" validate:"gte=1,lte=1024"`

	Prompt Prompt `json:"prompt"`
}

// Prompt configures the status bar shown before each line.
type Prompt struct {
	Components []Component `json:"components" validate:"dive"`
	Symbol     Symbol      `json:"symbol"`
}

// Component is one segment of the status bar.
type Component struct {
	Type     string   `json:"type" validate:"oneof=cwd vcs user status"`
	Color    string   `json:"color" validate:"omitempty,oneof=black red green yellow blue magenta cyan white"`
	Style    string   `json:"style" validate:"omitempty,oneof=normal bold italic underline"`
	Surround Surround `json:"surround"`
}

// Surround is printed around a component's text.
type Surround struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Symbol is the prompt character printed after the components.
type Symbol struct {
	Text  string `json:"text" validate:"required"`
	Color string `json:"color" validate:"omitempty,oneof=black red green yellow blue magenta cyan white"`
	Style string `json:"style" validate:"omitempty,oneof=normal bold italic underline"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewOsFs()
	}
	return c.configFs
}

// Fs returns the filesystem the configuration was loaded from.
func (c *Configuration) Fs() afero.Fs {
	return c.fs()
}

// Dir returns the configuration directory.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

func (c *Configuration) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.configurationDir, name)
}

// AliasPath is the absolute path to the alias file.
func (c *Configuration) AliasPath() string {
	return c.path(c.AliasFile)
}

// HistoryPath is the path to the history file, empty if history isn't
// persisted.
func (c *Configuration) HistoryPath() string {
	if c.HistoryLimit < 0 {
		return ""
	}
	return c.path(c.HistoryFile)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	if err := c.fs().MkdirAll(c.configurationDir, 0700); err != nil {
		return nil, err
	}
	return c.fs().OpenFile(c.path(c.LogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the event log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().Open(c.path(c.LogFile))
}

// Default returns the built-in configuration rooted at dir.
func Default(fs afero.Fs, dir string) *Configuration {
	out := defaultConfig()
	out.configFs = fs
	out.configurationDir = dir
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
