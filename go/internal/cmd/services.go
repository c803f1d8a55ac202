package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bingosync/go/clients"
	"github.com/mcdev12/bingosync/go/clients/funding_client"
	"github.com/mcdev12/bingosync/go/clients/round_api_client"
	"github.com/mcdev12/bingosync/go/internal/api"
	"github.com/mcdev12/bingosync/go/internal/bingo/poller"
	"github.com/mcdev12/bingosync/go/internal/bingo/purchase"
	"github.com/mcdev12/bingosync/go/internal/bingo/round"
	"github.com/mcdev12/bingosync/go/internal/config"
	"github.com/mcdev12/bingosync/go/internal/dbconfig"
	"github.com/mcdev12/bingosync/go/internal/events"
	"github.com/mcdev12/bingosync/go/internal/gateway"
	"github.com/mcdev12/bingosync/go/internal/lobby"
	"github.com/mcdev12/bingosync/go/internal/roundstore"
	"github.com/mcdev12/bingosync/go/internal/wallet"
	"github.com/rs/zerolog/log"
)

// Services is everything main runs or serves.
type Services struct {
	Engine     *round.Engine
	Poller     *poller.Poller
	Lobby      *lobby.Poller
	Dispatcher *events.Dispatcher
	Gateway    *gateway.Service
	API        *api.Service

	// Notifier is nil unless the postgres source is selected.
	Notifier *roundstore.Notifier

	closers []func()
}

// Close releases resources in reverse order of creation.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func setupServices(ctx context.Context, cfg *config.Config) (_ *Services, err error) {
	// Wire up dependency injection chain
	// Clients → stores → engine → outer surfaces
	s := &Services{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()
	clock := clockwork.NewRealClock()

	roundAPI := round_api_client.NewRoundAPIClient(cfg.API.BaseURL, cfg.API.Player, cfg.API.Timeout)
	funding := funding_client.NewFundingClient(cfg.Funding.BaseURL, cfg.API.Player, cfg.Funding.RequiresAllowance, cfg.Funding.Timeout)

	var source interface {
		round.RoundSource
		poller.Source
	} = roundAPI
	if cfg.Source.Kind == clients.RoundSourcePostgres {
		db, err := setupDatabase(ctx, dbconfig.NewConfigFromEnv())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { closeDatabase(db) })
		source = roundstore.NewPostgresSource(db, cfg.API.Player)
	}

	balance := wallet.NewStore(roundAPI, clock)
	lobbyStore := lobby.NewStore()
	s.Lobby = lobby.NewPoller(roundAPI, lobbyStore, clock, cfg.Polling.RoomList, cfg.Polling.Discovery)
	s.Poller = poller.New(source, clock, cfg.Polling.Snapshot)
	s.closers = append(s.closers, s.Poller.Close)

	// The gateway renders the engine view, and the engine publishes through
	// the gateway, so the view is bound once the engine exists.
	s.Gateway = gateway.NewService(gateway.DefaultConfig(),
		gateway.ViewFunc(func() round.View { return s.Engine.View() }),
		lobbyStore, balance)

	sinks := events.MultiSink{s.Gateway.Sink()}
	if cfg.NATS.Enabled {
		publisher, err := events.NewJetStreamPublisher(ctx, cfg.NATS.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		s.closers = append(s.closers, func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close event publisher")
			}
		})
		sinks = append(sinks, publisher)
	}
	s.Dispatcher = events.NewDispatcher(sinks, 0)

	var archive *roundstore.Archive
	engineCfg := round.Config{
		Source:       source,
		Purchaser:    purchase.NewOrchestrator(funding),
		Wallet:       balance,
		Watcher:      s.Poller,
		Lobby:        s.Lobby,
		Events:       s.Dispatcher,
		Clock:        clock,
		Timing:       cfg.Timing.Timing,
		TickInterval: cfg.Timing.Tick,
	}
	if cfg.Archive.Enabled {
		archive, err = roundstore.NewArchive(ctx, dbconfig.NewConfigFromEnv().PoolDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open round archive: %w", err)
		}
		s.closers = append(s.closers, archive.Close)
		engineCfg.Archive = archive
	}
	s.Engine = round.NewEngine(engineCfg)
	s.closers = append(s.closers, s.Engine.Close)

	var history api.History
	if archive != nil {
		history = archive
	}
	s.API = api.NewService(s.Engine, lobbyStore, balance, history)

	if cfg.SourceNotifies() {
		notifierCfg := roundstore.DefaultNotifierConfig()
		notifierCfg.DatabaseURL = dbconfig.NewConfigFromEnv().DSN()
		s.Notifier, err = roundstore.NewNotifier(notifierCfg, clock,
			roundstore.WakeFunc(s.Poller.Wake),
			roundstore.WakeFunc(s.Lobby.RequestRefresh))
		if err != nil {
			return nil, fmt.Errorf("failed to create round notifier: %w", err)
		}
	}

	balance.RefreshAsync()
	return s, nil
}

func closeDatabase(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}
