package roundstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/bingosync/go/internal/bingo/round"
	"github.com/rs/zerolog/log"
)

const createArchive = `
CREATE TABLE IF NOT EXISTS bingo_resolved_rounds (
    round_id                   BIGINT PRIMARY KEY,
    room_id                    TEXT NOT NULL DEFAULT '',
    seed                       TEXT NOT NULL DEFAULT '',
    ball_sequence              JSONB NOT NULL,
    line_winner_ball_position  INT NOT NULL DEFAULT 0,
    bingo_winner_ball_position INT NOT NULL DEFAULT 0,
    line_winners               JSONB NOT NULL,
    bingo_winners              JSONB NOT NULL,
    card_ids                   JSONB NOT NULL,
    verified                   BOOLEAN,
    animated                   BOOLEAN NOT NULL DEFAULT FALSE,
    resolved_at                TIMESTAMPTZ NOT NULL
)`

const upsertArchive = `
INSERT INTO bingo_resolved_rounds (
  round_id, room_id, seed, ball_sequence,
  line_winner_ball_position, bingo_winner_ball_position,
  line_winners, bingo_winners, card_ids, verified, animated, resolved_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (round_id) DO UPDATE SET
  line_winners = EXCLUDED.line_winners,
  bingo_winners = EXCLUDED.bingo_winners,
  card_ids = EXCLUDED.card_ids,
  verified = EXCLUDED.verified,
  resolved_at = EXCLUDED.resolved_at`

const selectRecent = `
SELECT round_id, room_id, line_winners, bingo_winners, card_ids, verified, animated, resolved_at
FROM bingo_resolved_rounds
ORDER BY resolved_at DESC
LIMIT $1`

// ArchivedRound is one row of the local history.
type ArchivedRound struct {
	RoundID      int64     `json:"round_id"`
	RoomID       string    `json:"room_id"`
	LineWinners  []string  `json:"line_winners"`
	BingoWinners []string  `json:"bingo_winners"`
	CardIDs      []string  `json:"card_ids"`
	Verified     *bool     `json:"verified,omitempty"`
	Animated     bool      `json:"animated"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// Archive keeps the history of rounds this client saw resolve.
type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(ctx context.Context, dsn string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	a := &Archive{pool: pool}
	if err := a.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) ensureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, createArchive); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

func (a *Archive) Close() {
	a.pool.Close()
}

// archiveArgs flattens a resolved round into the upsert parameters.
func archiveArgs(r round.ResolvedRound) ([]any, error) {
	seq, err := jsonArray(r.Round.BallSequence)
	if err != nil {
		return nil, err
	}
	lineWinners, err := jsonArray([]string(r.Round.LineWinners))
	if err != nil {
		return nil, err
	}
	bingoWinners, err := jsonArray([]string(r.Round.BingoWinners))
	if err != nil {
		return nil, err
	}
	cardIDs, err := jsonArray(r.CardIDs)
	if err != nil {
		return nil, err
	}
	return []any{
		r.Round.RoundID, r.Round.RoomID, r.Round.Seed, seq,
		r.Round.LineWinnerBallPosition, r.Round.BingoWinnerBallPosition,
		lineWinners, bingoWinners, cardIDs, r.Verified, r.Animated, r.ResolvedAt,
	}, nil
}

// jsonArray encodes v, writing an empty array for nil slices.
func jsonArray[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal archive column: %w", err)
	}
	return data, nil
}

// RecordResolved upserts the round.
func (a *Archive) RecordResolved(ctx context.Context, r round.ResolvedRound) error {
	args, err := archiveArgs(r)
	if err != nil {
		return err
	}
	if _, err := a.pool.Exec(ctx, upsertArchive, args...); err != nil {
		return fmt.Errorf("failed to archive round %d: %w", r.Round.RoundID, err)
	}
	log.Debug().Int64("round_id", r.Round.RoundID).Msg("round archived")
	return nil
}

// Recent returns the latest archived rounds, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]ArchivedRound, error) {
	rows, err := a.pool.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived rounds: %w", err)
	}
	defer rows.Close()

	var out []ArchivedRound
	for rows.Next() {
		var (
			ar                       ArchivedRound
			lineRaw, bingoRaw, cards []byte
		)
		if err := rows.Scan(&ar.RoundID, &ar.RoomID, &lineRaw, &bingoRaw, &cards, &ar.Verified, &ar.Animated, &ar.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived round: %w", err)
		}
		if err := unmarshalAll(
			column{lineRaw, &ar.LineWinners},
			column{bingoRaw, &ar.BingoWinners},
			column{cards, &ar.CardIDs},
		); err != nil {
			return nil, fmt.Errorf("archived round %d: %w", ar.RoundID, err)
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

type column struct {
	raw []byte
	dst any
}

func unmarshalAll(cols ...column) error {
	for _, c := range cols {
		if len(c.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return err
		}
	}
	return nil
}
