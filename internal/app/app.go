// Package app wires the gateway's core and transport layers together.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/avetrov/channelgate/internal/auth"
	"github.com/avetrov/channelgate/internal/channel"
	"github.com/avetrov/channelgate/internal/config"
	"github.com/avetrov/channelgate/internal/core"
	"github.com/avetrov/channelgate/internal/hook"
	"github.com/avetrov/channelgate/internal/metrics"
	"github.com/avetrov/channelgate/internal/store"
	"github.com/avetrov/channelgate/internal/store/sqlite"
	transporthttp "github.com/avetrov/channelgate/internal/transport/http"
	"github.com/avetrov/channelgate/internal/transport/ws"
)

// App owns the running gateway.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	journal         store.Journal
	hooks           *hook.Dispatcher
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	journal, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("journal initialized")

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	classifier := channel.NewClassifier(cfg.PrivateChannels, cfg.PresenceChannels)
	hub := ws.NewHub(logger, m)

	authenticator := auth.New(
		&stdhttp.Client{Timeout: cfg.AuthTimeout},
		cfg.AuthHost, cfg.AuthEndpoint,
		logger,
	)

	dispatcher := hook.New(hook.Options{
		Client:   &stdhttp.Client{Timeout: cfg.HookTimeout},
		Channels: channel.NewMatcher(cfg.HookChannels),
		Host:     cfg.ResolvedHookHost(),
		Endpoint: cfg.HookEndpoint,
		Signer:   hook.NewSigner(cfg.GatewaySecret, "channelgate"),
		Journal:  journal,
		Metrics:  m,
		Logger:   logger,
	})

	router := core.NewRouter(core.RouterOptions{
		Transport:     hub,
		Classifier:    classifier,
		Authenticator: authenticator,
		Presence:      core.NewPresence(hub, logger),
		Hooks:         dispatcher,
		ClientEvents:  channel.NewMatcher(cfg.ClientEvents),
		Journal:       journal,
		Metrics:       m,
		Logger:        logger,
	})

	server := transporthttp.NewServer(ws.NewHandler(hub, router, logger), journal, reg, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		journal:         journal,
		hooks:           dispatcher,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup drains in-flight webhook deliveries and closes the journal.
func (a *App) cleanup() {
	a.hooks.Wait()
	if err := a.journal.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close journal")
	} else {
		a.log.Info().Msg("journal closed")
	}
}
