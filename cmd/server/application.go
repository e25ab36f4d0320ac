package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/vinylogger/auth"
	"github.com/jrsteele09/vinylogger/discogs"
	"github.com/jrsteele09/vinylogger/internal/config"
	"github.com/jrsteele09/vinylogger/server"
	"github.com/jrsteele09/vinylogger/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// application is the wired handler plus whatever must be released on shutdown.
type application struct {
	handler http.Handler
	closers []func() error
}

func newApplication(ctx context.Context, c config.Config) (*application, error) {
	app := &application{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	endpoints := discogs.EndpointsFor(c.GetDiscogsAPIURL(), c.GetDiscogsWebURL())
	client, err := discogs.NewClient(c.GetConsumer(),
		discogs.WithEndpoints(endpoints),
		discogs.WithMetrics(discogs.NewMetrics(registry)),
	)
	if err != nil {
		return nil, fmt.Errorf("[newApplication] %w", err)
	}

	codec, err := sessions.NewCodec(c.GetSessionSecrets())
	if err != nil {
		return nil, fmt.Errorf("[newApplication] %w", err)
	}
	cookieOptions := sessions.CookieOptions{Secure: c.GetSecureCookies()}

	checks := map[string]server.HealthCheck{}
	guard, err := app.replayGuard(ctx, c, checks)
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.NewAuthenticator(
		auth.Config{Consumer: c.GetConsumer(), CallbackURL: c.GetCallbackURL()},
		auth.Repos{
			Exchanger:  client,
			Identities: client,
			Sessions: sessions.NewCookieStore(codec,
				sessions.WithSessionAge(c.GetSessionMaxAge()),
				sessions.WithCookieOptions(cookieOptions),
			),
			Flashes: sessions.NewFlashStore(codec, guard,
				sessions.WithFlashAge(c.GetFlashMaxAge()),
				sessions.WithFlashCookieOptions(cookieOptions),
			),
		},
		auth.WithMetrics(auth.NewMetrics(registry)),
	)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("[newApplication] %w", err)
	}

	srv, err := server.New(c, server.Deps{
		Auth:         authenticator,
		Catalog:      client,
		Gatherer:     registry,
		HealthChecks: checks,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("[newApplication] %w", err)
	}
	app.handler = srv

	log.Info().
		Str("env", c.GetEnv()).
		Str("callback", c.GetCallbackURL()).
		Str("discogs", endpoints.APIBaseURL).
		Bool("redis", c.GetRedisURL() != "").
		Msg("application initialised")
	return app, nil
}

// replayGuard shares consumed flash IDs through Redis when REDIS_URL is set and keeps them in
// memory otherwise.
func (app *application) replayGuard(ctx context.Context, c config.StoreConfig, checks map[string]server.HealthCheck) (sessions.ReplayGuard, error) {
	if c.GetRedisURL() == "" {
		return sessions.NewMemoryReplayGuard(), nil
	}

	client, err := sessions.NewRedisClient(ctx, c.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("[newApplication] %w", err)
	}
	app.closers = append(app.closers, client.Close)
	checks["redis"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	return sessions.NewRedisReplayGuard(client), nil
}

func (app *application) close() {
	for _, closer := range app.closers {
		if err := closer(); err != nil {
			log.Err(err).Msg("failed to close resource")
		}
	}
	app.closers = nil
}
