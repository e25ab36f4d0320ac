package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jrsteele09/vinylogger/oauth1"
	"github.com/jrsteele09/vinylogger/sessions"
)

const (
	EnvDev        = "DEV"
	EnvProduction = "PRODUCTION"

	defaultCallbackPath = "/login/callback"
)

// EnvVars is the raw environment. Field getters implement the Config interfaces.
type EnvVars struct {
	Env            string        `env:"ENV" envDefault:"DEV"`
	Port           string        `env:"PORT" envDefault:"3000"`
	AppName        string        `env:"APP_NAME" envDefault:"Vinylogger"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	ConsumerKey    string        `env:"DISCOGS_API_CONSUMER_KEY"`
	ConsumerSecret string        `env:"DISCOGS_API_CONSUMER_SECRET"`
	ProductionURL  string        `env:"APP_PRODUCTION_URL"`
	LocalURL       string        `env:"APP_LOCAL_URL"`
	CallbackPath   string        `env:"CALLBACK_PATH" envDefault:"/login/callback"`
	DiscogsAPIURL  string        `env:"DISCOGS_API_URL" envDefault:"https://api.discogs.com"`
	DiscogsWebURL  string        `env:"DISCOGS_WEB_URL" envDefault:"https://www.discogs.com"`
	SessionSecrets []string      `env:"SESSION_SECRETS" envSeparator:","`
	SessionMaxAge  time.Duration `env:"SESSION_MAX_AGE" envDefault:"8760h"`
	FlashMaxAge    time.Duration `env:"FLASH_MAX_AGE" envDefault:"15m"`
	SecureCookies  bool          `env:"SECURE_COOKIES"`
	RedisURL       string        `env:"REDIS_URL"`
}

var (
	_ EnvConfig     = EnvVars{}
	_ DiscogsConfig = EnvVars{}
	_ SessionConfig = EnvVars{}
	_ StoreConfig   = EnvVars{}
)

func parseEnvVars(environment map[string]string) (EnvVars, error) {
	var vars EnvVars
	if err := env.ParseWithOptions(&vars, env.Options{Environment: environment}); err != nil {
		return EnvVars{}, &ConfigurationError{Problems: []string{fmt.Sprintf("parse env: %v", err)}}
	}
	vars.Env = strings.ToUpper(strings.TrimSpace(vars.Env))
	if err := vars.validate(); err != nil {
		return EnvVars{}, err
	}
	return vars, nil
}

func (e EnvVars) validate() error {
	var problems []string
	if e.ConsumerKey == "" {
		problems = append(problems, "DISCOGS_API_CONSUMER_KEY is required")
	}
	if e.ConsumerSecret == "" {
		problems = append(problems, "DISCOGS_API_CONSUMER_SECRET is required")
	}
	if e.IsProduction() && e.ProductionURL == "" && !isAbsoluteURL(e.CallbackPath) {
		problems = append(problems, "APP_PRODUCTION_URL is required when ENV=PRODUCTION")
	}
	if e.Env != EnvDev && e.Env != EnvProduction {
		problems = append(problems, fmt.Sprintf("ENV must be %s or %s, got %q", EnvDev, EnvProduction, e.Env))
	}
	if len(e.GetSessionSecrets()) == 0 {
		problems = append(problems, "SESSION_SECRETS is required")
	}
	for i, secret := range e.GetSessionSecrets() {
		if len(secret) < sessions.MinSecretLength {
			problems = append(problems, fmt.Sprintf("SESSION_SECRETS entry %d is shorter than %d characters", i, sessions.MinSecretLength))
		}
	}
	for _, raw := range []string{e.ProductionURL, e.LocalURL} {
		if raw != "" && !isAbsoluteURL(raw) {
			problems = append(problems, fmt.Sprintf("%q is not an absolute http(s) URL", raw))
		}
	}
	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "3000"
	}
	if port[0] != ':' {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) IsProduction() bool {
	return e.Env == EnvProduction
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetConsumer() oauth1.ConsumerCredential {
	return oauth1.ConsumerCredential{Key: e.ConsumerKey, Secret: e.ConsumerSecret}
}

// GetAppURL is the public base URL for the current environment. Empty in DEV when APP_LOCAL_URL is
// unset, meaning the request origin is used.
func (e EnvVars) GetAppURL() string {
	if e.IsProduction() {
		return strings.TrimSuffix(e.ProductionURL, "/")
	}
	return strings.TrimSuffix(e.LocalURL, "/")
}

// GetCallbackURL is the oauth_callback sent to Discogs. It is absolute when CALLBACK_PATH is absolute
// or an app URL is configured, otherwise a path to resolve against the request origin.
func (e EnvVars) GetCallbackURL() string {
	path := e.CallbackPath
	if path == "" {
		path = defaultCallbackPath
	}
	if isAbsoluteURL(path) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return e.GetAppURL() + path
}

func (e EnvVars) GetDiscogsAPIURL() string {
	return e.DiscogsAPIURL
}

func (e EnvVars) GetDiscogsWebURL() string {
	return e.DiscogsWebURL
}

func (e EnvVars) GetSessionSecrets() []string {
	var secrets []string
	for _, s := range e.SessionSecrets {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

func (e EnvVars) GetSessionMaxAge() time.Duration {
	return e.SessionMaxAge
}

func (e EnvVars) GetFlashMaxAge() time.Duration {
	return e.FlashMaxAge
}

// GetSecureCookies forces the Secure attribute. Production always sets it.
func (e EnvVars) GetSecureCookies() bool {
	return e.SecureCookies || e.IsProduction()
}

func (e EnvVars) GetRedisURL() string {
	return e.RedisURL
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
