package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/vinylogger/internal/config"
	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("s", 32)

func devEnvironment() map[string]string {
	return map[string]string{
		"DISCOGS_API_CONSUMER_KEY":    "consumer-key",
		"DISCOGS_API_CONSUMER_SECRET": "consumer-secret",
		"SESSION_SECRETS":             testSecret,
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	c, err := config.LoadFrom(devEnvironment())
	require.NoError(t, err)

	require.Equal(t, config.EnvDev, c.GetEnv())
	require.False(t, c.IsProduction())
	require.Equal(t, ":3000", c.GetPort())
	require.Equal(t, "Vinylogger", c.GetAppName())
	require.Equal(t, "consumer-key", c.GetConsumer().Key)
	require.Equal(t, "consumer-secret", c.GetConsumer().Secret)
	require.Equal(t, "/login/callback", c.GetCallbackURL())
	require.Equal(t, "https://api.discogs.com", c.GetDiscogsAPIURL())
	require.Equal(t, []string{testSecret}, c.GetSessionSecrets())
	require.Equal(t, 365*24*time.Hour, c.GetSessionMaxAge())
	require.Equal(t, 15*time.Minute, c.GetFlashMaxAge())
	require.False(t, c.GetSecureCookies())
	require.Empty(t, c.GetRedisURL())
}

func TestLoadFrom_LocalCallback(t *testing.T) {
	environment := devEnvironment()
	environment["APP_LOCAL_URL"] = "http://localhost:3000/"

	c, err := config.LoadFrom(environment)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000/login/callback", c.GetCallbackURL())
}

func TestLoadFrom_ProductionCallback(t *testing.T) {
	environment := devEnvironment()
	environment["ENV"] = "production"
	environment["APP_LOCAL_URL"] = "http://localhost:3000"
	environment["APP_PRODUCTION_URL"] = "https://vinylogger.example.com"

	c, err := config.LoadFrom(environment)
	require.NoError(t, err)
	require.True(t, c.IsProduction())
	require.True(t, c.GetSecureCookies())
	require.Equal(t, "https://vinylogger.example.com/login/callback", c.GetCallbackURL())
}

func TestLoadFrom_AbsoluteCallbackPath(t *testing.T) {
	environment := devEnvironment()
	environment["CALLBACK_PATH"] = "https://tunnel.example.com/auth"

	c, err := config.LoadFrom(environment)
	require.NoError(t, err)
	require.Equal(t, "https://tunnel.example.com/auth", c.GetCallbackURL())
}

func TestLoadFrom_RotatedSecrets(t *testing.T) {
	environment := devEnvironment()
	environment["SESSION_SECRETS"] = testSecret + ", " + strings.Repeat("o", 32) + ","

	c, err := config.LoadFrom(environment)
	require.NoError(t, err)
	require.Len(t, c.GetSessionSecrets(), 2)
}

func TestLoadFrom_MissingConsumer(t *testing.T) {
	_, err := config.LoadFrom(map[string]string{"SESSION_SECRETS": testSecret})
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	var configErr *config.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	require.Len(t, configErr.Problems, 2)
	require.Contains(t, err.Error(), "DISCOGS_API_CONSUMER_KEY")
	require.Contains(t, err.Error(), "DISCOGS_API_CONSUMER_SECRET")
}

func TestLoadFrom_ProductionRequiresURL(t *testing.T) {
	environment := devEnvironment()
	environment["ENV"] = "PRODUCTION"

	_, err := config.LoadFrom(environment)
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
	require.Contains(t, err.Error(), "APP_PRODUCTION_URL")
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown env", "ENV", "STAGING"},
		{"no secrets", "SESSION_SECRETS", " , "},
		{"short secret", "SESSION_SECRETS", "short"},
		{"short rotated secret", "SESSION_SECRETS", testSecret + ",short"},
		{"relative local url", "APP_LOCAL_URL", "localhost"},
		{"bad duration", "SESSION_MAX_AGE", "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environment := devEnvironment()
			environment[tt.key] = tt.value
			_, err := config.LoadFrom(environment)
			require.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}

func TestLoadFrom_ShortSecretNamesTheEntry(t *testing.T) {
	environment := devEnvironment()
	environment["SESSION_SECRETS"] = testSecret + ",short"

	_, err := config.LoadFrom(environment)
	var configErr *config.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	require.Equal(t, []string{"SESSION_SECRETS entry 1 is shorter than 32 characters"}, configErr.Problems)
}
