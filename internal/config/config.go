package config

import (
	"time"

	"github.com/jrsteele09/vinylogger/oauth1"
)

type Config interface {
	EnvConfig
	DiscogsConfig
	SessionConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsProduction() bool
	GetLogLevel() string
}

type DiscogsConfig interface {
	GetConsumer() oauth1.ConsumerCredential
	GetAppURL() string
	GetCallbackURL() string
	GetDiscogsAPIURL() string
	GetDiscogsWebURL() string
}

type SessionConfig interface {
	GetSessionSecrets() []string
	GetSessionMaxAge() time.Duration
	GetFlashMaxAge() time.Duration
	GetSecureCookies() bool
}

type StoreConfig interface {
	GetRedisURL() string
}

type mainConfig struct {
	EnvVars
}

var _ Config = mainConfig{}

// Load reads the configuration from the process environment and validates it.
func Load() (Config, error) {
	vars, err := parseEnvVars(nil)
	if err != nil {
		return nil, err
	}
	return mainConfig{EnvVars: vars}, nil
}

// LoadFrom is Load over an explicit environment instead of the process one.
func LoadFrom(environment map[string]string) (Config, error) {
	vars, err := parseEnvVars(environment)
	if err != nil {
		return nil, err
	}
	return mainConfig{EnvVars: vars}, nil
}
