package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/vinylogger/internal/config"
	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/jrsteele09/vinylogger/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := config.Load()
	if err != nil {
		logging.Setup(config.EnvDev, "info", os.Stderr)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel(), os.Stderr)

	for {
		if err := run(c); err != nil {
			if apperrors.Is(err, apperrors.ErrConfiguration) {
				log.Fatal().Err(err).Msg("invalid configuration")
			}
			log.Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	ctx := context.Background()
	app, err := newApplication(ctx, c)
	if err != nil {
		return err
	}
	defer app.close()

	displayAppname(c.GetAppName())
	server := &http.Server{
		Addr:              c.GetPort(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() { serverErr <- listenAndServe(server) }()

	if err := waitForStopSignal(serverErr); err != nil {
		return err
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStopSignal blocks until SIGINT/SIGTERM or until the listener fails.
func waitForStopSignal(serverErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		return nil
	case err := <-serverErr:
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
