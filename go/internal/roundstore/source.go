// Package roundstore reads rounds straight from the indexer database, wakes
// pollers on LISTEN/NOTIFY and archives resolved rounds.
package roundstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/bingosync/go/internal/models"
	"github.com/mcdev12/bingosync/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

const selectRound = `
SELECT round_id, room_id, status, scheduled_close_at, draw_started_at,
       seed::text, ball_sequence,
       line_winner_ball_position, bingo_winner_ball_position,
       line_winners, bingo_winners, now()
FROM rounds
WHERE round_id = $1`

const selectCards = `
SELECT card_id, round_id, numbers
FROM cards
WHERE round_id = $1 AND owner = $2
ORDER BY card_id`

// PostgresSource implements the round source over database/sql and lib/pq.
type PostgresSource struct {
	db    *sql.DB
	owner string
}

func NewPostgresSource(db *sql.DB, owner string) *PostgresSource {
	return &PostgresSource{db: db, owner: owner}
}

// roundRow mirrors one rounds row; nullable jsonb columns use pqtype.
type roundRow struct {
	RoundID          int64
	RoomID           sql.NullString
	Status           string
	ScheduledCloseAt time.Time
	DrawStartedAt    sql.NullTime
	Seed             sql.NullString
	BallSequence     pqtype.NullRawMessage
	LinePos          sql.NullInt32
	BingoPos         sql.NullInt32
	LineWinners      pqtype.NullRawMessage
	BingoWinners     pqtype.NullRawMessage
	ServerTime       time.Time
}

func (s *PostgresSource) FetchSnapshot(ctx context.Context, roundID int64) (models.RoundSnapshot, error) {
	var row roundRow
	err := sqlutil.ReadOnly(ctx, s.db, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, selectRound, roundID).Scan(
			&row.RoundID, &row.RoomID, &row.Status, &row.ScheduledCloseAt, &row.DrawStartedAt,
			&row.Seed, &row.BallSequence,
			&row.LinePos, &row.BingoPos,
			&row.LineWinners, &row.BingoWinners, &row.ServerTime,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoundSnapshot{}, fmt.Errorf("round %d: %w", roundID, models.ErrRoundNotFound)
	}
	if err != nil {
		return models.RoundSnapshot{}, fmt.Errorf("failed to get round %d: %w", roundID, err)
	}
	return row.toModel()
}

func (r roundRow) toModel() (models.RoundSnapshot, error) {
	snap := models.RoundSnapshot{
		Round: models.Round{
			RoundID:                 r.RoundID,
			RoomID:                  sqlutil.FromSqlString(r.RoomID, ""),
			Status:                  models.RoundStatus(r.Status),
			ScheduledCloseAt:        r.ScheduledCloseAt,
			DrawStartedAt:           sqlutil.FromSqlTime(r.DrawStartedAt),
			Seed:                    sqlutil.FromSqlString(r.Seed, ""),
			LineWinnerBallPosition:  sqlutil.FromSqlInt32(r.LinePos, 0),
			BingoWinnerBallPosition: sqlutil.FromSqlInt32(r.BingoPos, 0),
		},
	}
	if !r.ServerTime.IsZero() {
		t := r.ServerTime
		snap.ServerTime = &t
	}

	if r.BallSequence.Valid {
		if err := json.Unmarshal(r.BallSequence.RawMessage, &snap.BallSequence); err != nil {
			return models.RoundSnapshot{}, fmt.Errorf("round %d ball_sequence: %w", r.RoundID, err)
		}
	}
	var err error
	if snap.LineWinners, err = winners(r.LineWinners); err != nil {
		return models.RoundSnapshot{}, fmt.Errorf("round %d line_winners: %w", r.RoundID, err)
	}
	if snap.BingoWinners, err = winners(r.BingoWinners); err != nil {
		return models.RoundSnapshot{}, fmt.Errorf("round %d bingo_winners: %w", r.RoundID, err)
	}
	return snap, nil
}

func winners(raw pqtype.NullRawMessage) (models.IDList, error) {
	if !raw.Valid {
		return models.IDList{}, nil
	}
	return models.ParseIDList(raw.RawMessage)
}

func (s *PostgresSource) FetchCards(ctx context.Context, roundID int64) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx, selectCards, roundID, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var (
			cardID  string
			rid     int64
			numbers json.RawMessage
		)
		if err := rows.Scan(&cardID, &rid, &numbers); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		card, err := cardFromJSON(cardID, rid, numbers)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, nil
}

func cardFromJSON(cardID string, roundID int64, raw json.RawMessage) (models.Card, error) {
	var flat []int
	if err := json.Unmarshal(raw, &flat); err != nil {
		return models.Card{}, fmt.Errorf("card %s numbers: %w", cardID, err)
	}
	card, err := models.CardFromFlat(cardID, roundID, flat)
	if err != nil {
		return models.Card{}, fmt.Errorf("card %s: %w", cardID, err)
	}
	return card, nil
}
