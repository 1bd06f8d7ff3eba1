package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrInvalidLogLevel = goerr.New("invalid log level")
	ErrInvalidBackend  = goerr.New("invalid repository backend")
	ErrInvalidProvider = goerr.New("invalid LLM provider")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	ProviderKey   = "provider"
)
