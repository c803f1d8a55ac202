package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/bingosync/go/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("engine exited")
	}
}

func run() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg.Server.Port, services)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return services.Dispatcher.Run(gctx) })
	g.Go(func() error { return services.Gateway.Run(gctx) })
	g.Go(func() error { return services.Lobby.Run(gctx) })
	if services.Notifier != nil {
		g.Go(func() error { return services.Notifier.Run(gctx) })
	}
	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Str("source", string(cfg.Source.Kind)).
			Bool("nats", cfg.NATS.Enabled).
			Bool("archive", cfg.Archive.Enabled).
			Msg("engine listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
