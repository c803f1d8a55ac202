package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service bundles the websocket stream and the HTTP state endpoints.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

func DefaultConfig() Config {
	return Config{ConnectionConfig: DefaultConnectionConfig()}
}

func NewService(config Config, views ViewProvider, rooms RoomsProvider, balance BalanceProvider) *Service {
	cm := NewConnectionManager(config.ConnectionConfig, views)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		stateHandler:      NewStateHandler(views, rooms, balance),
	}
}

// Sink is the events.Sink that pushes to websocket clients.
func (s *Service) Sink() *ConnectionManager {
	return s.connectionManager
}

// Run serves broadcasts until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	log.Info().Msg("starting engine gateway")
	return s.connectionManager.Start(ctx)
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterRoutes(mux)
}
