package round_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mcdev12/bingosync/go/internal/models"
)

type roundResponse struct {
	RoundID                 int64              `json:"round_id"`
	RoomID                  string             `json:"room_id"`
	Status                  models.RoundStatus `json:"status"`
	ScheduledCloseAt        time.Time          `json:"scheduled_close_at"`
	DrawStartedAt           *time.Time         `json:"draw_started_at"`
	Seed                    json.RawMessage    `json:"seed"`
	BallSequence            []int              `json:"ball_sequence"`
	LineWinnerBallPosition  int                `json:"line_winner_ball_position"`
	BingoWinnerBallPosition int                `json:"bingo_winner_ball_position"`
	LineWinners             models.IDList      `json:"line_winners"`
	BingoWinners            models.IDList      `json:"bingo_winners"`
	ServerTime              *time.Time         `json:"server_time"`
}

type cardResponse struct {
	CardID  string `json:"card_id"`
	RoundID int64  `json:"round_id"`
	Numbers []int  `json:"numbers"`
}

type cardsResponse struct {
	Cards []cardResponse `json:"cards"`
}

// FetchSnapshot reads the current facts of roundID.
func (c *RoundAPIClient) FetchSnapshot(ctx context.Context, roundID int64) (models.RoundSnapshot, error) {
	var resp roundResponse
	if err := c.GetJSON(ctx, fmt.Sprintf(RoundEndpoint, roundID), &resp); err != nil {
		return models.RoundSnapshot{}, fmt.Errorf("fetch round %d: %w", roundID, notFound(err))
	}
	return models.RoundSnapshot{
		Round: models.Round{
			RoundID:                 resp.RoundID,
			RoomID:                  resp.RoomID,
			Status:                  resp.Status,
			ScheduledCloseAt:        resp.ScheduledCloseAt,
			DrawStartedAt:           resp.DrawStartedAt,
			Seed:                    seedString(resp.Seed),
			BallSequence:            resp.BallSequence,
			LineWinnerBallPosition:  resp.LineWinnerBallPosition,
			BingoWinnerBallPosition: resp.BingoWinnerBallPosition,
			LineWinners:             resp.LineWinners,
			BingoWinners:            resp.BingoWinners,
		},
		ServerTime: resp.ServerTime,
	}, nil
}

// FetchCards reads the cards the configured player owns in roundID.
func (c *RoundAPIClient) FetchCards(ctx context.Context, roundID int64) ([]models.Card, error) {
	endpoint := fmt.Sprintf(RoundCardsEndpoint, roundID)
	if c.player != "" {
		endpoint += "?player=" + url.QueryEscape(c.player)
	}
	var resp cardsResponse
	if err := c.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch cards for round %d: %w", roundID, notFound(err))
	}

	cards := make([]models.Card, 0, len(resp.Cards))
	for _, cr := range resp.Cards {
		rid := cr.RoundID
		if rid == 0 {
			rid = roundID
		}
		card, err := models.CardFromFlat(cr.CardID, rid, cr.Numbers)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", cr.CardID, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// seedString accepts the seed as a JSON number or string. VRF outputs exceed
// 64 bits, so numbers are kept as their literal text.
func seedString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	return s
}
