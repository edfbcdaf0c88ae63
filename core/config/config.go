// Package config loads and validates the interpreter's configuration
// directory.
package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
)

type Configuration struct {
	configFs afero.Fs

	// Prompt printed before every line of input.
	Prompt string `json:"prompt" validate:"required"`

	// HistorySize is the capacity of the command log; the oldest entry is
	// evicted once it fills up.
	HistorySize int `json:"history_size" validate:"gte=1,lte=1000"`

	// MaxArgs bounds the number of words parsed from one line.
	MaxArgs int `json:"max_args" validate:"gte=10"`

	// MaxLineLength bounds one line of input, in bytes.
	MaxLineLength int `json:"max_line_length" validate:"gte=1"`

	// LogName is the audit log file, relative to the configuration
	// directory.
	LogName string `json:"log_name" validate:"required"`
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
		c.configFs = afero.NewBasePathFs(afero.NewOsFs(), ".")
	}
	return c.configFs
}

// OpenAppLog opens the audit log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.LogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the audit log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.LogName, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built-in configuration, used when no config directory
// has been initialized.
func Default() *Configuration {
	return defaultConfig()
}
