package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/mnemo-chat/mnemo/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// AppConfig holds the path of the tuning file
type AppConfig struct {
	path string
}

// Flags returns CLI flags for the tuning file
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML tuning file; built-in defaults are used when unset",
			Sources:     cli.EnvVars("MNEMO_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Path returns the configured tuning file path
func (a *AppConfig) Path() string {
	return a.path
}

// Configure returns the tuning in effect: the defaults, overridden by the
// file when one is configured
func (a *AppConfig) Configure() (*domainConfig.Tuning, error) {
	if a.path == "" {
		return domainConfig.DefaultTuning(), nil
	}
	return LoadTuning(a.path)
}

// LoadTuning reads a TOML tuning file over the defaults and validates the
// result. Unknown keys are rejected.
func LoadTuning(path string) (*domainConfig.Tuning, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "failed to read config file", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	tuning := domainConfig.DefaultTuning()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(tuning); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()),
		)
	}

	if err := tuning.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "config validation failed",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()),
		)
	}

	return tuning, nil
}
