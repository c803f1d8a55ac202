package round_api_client

import (
	"errors"
	"net/http"
	"time"

	"github.com/mcdev12/bingosync/go/clients"
	"github.com/mcdev12/bingosync/go/internal/models"
)

// RoundAPIClient reads rounds, cards, rooms and balances from the round API.
type RoundAPIClient struct {
	*clients.BaseClient
	player string
}

func NewRoundAPIClient(baseURL, player string, timeout time.Duration) *RoundAPIClient {
	client := &RoundAPIClient{
		BaseClient: clients.NewBaseClient(baseURL),
		player:     player,
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if player != "" {
		client.SetHeader(PlayerHeader, player)
	}
	return client
}

// notFound maps a 404 onto models.ErrRoundNotFound.
func notFound(err error) error {
	var se *clients.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return models.ErrRoundNotFound
	}
	return err
}
