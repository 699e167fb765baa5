package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/owlchat/owlchat-server/internal/config"
	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/metrics"
	transporthttp "github.com/owlchat/owlchat-server/internal/transport/http"
	"github.com/owlchat/owlchat-server/internal/utils"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	coord           *core.Coordinator
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	m := metrics.New()

	store := core.NewChannelStore(func() int64 { return time.Now().UnixMilli() })
	coord := core.NewCoordinator(store, core.Options{
		DefaultChannel: cfg.DefaultChannel,
		MaxUsers:       cfg.MaxUsers,
		NewID:          utils.NewID,
	})
	m.ObserveChannels(store.Len)

	hub := transporthttp.NewHub(cfg.SendBuffer, logger, m)
	server := transporthttp.NewServer(coord, hub, m, cfg, logger)

	logger.Info().
		Str("default_channel", cfg.DefaultChannel).
		Int("max_users", cfg.MaxUsers).
		Msg("channel coordinator initialized")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		coord:           coord,
		log:             logger,
	}
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
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return <-serverErr
	}
}
