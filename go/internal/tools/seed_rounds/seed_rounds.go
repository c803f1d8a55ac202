package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/bingosync/go/internal/bingo/shuffle"
	"github.com/mcdev12/bingosync/go/internal/dbconfig"
)

// Round mirrors one entry of the fixture file. The ball sequence is derived
// from the seed when it is omitted.
type Round struct {
	RoundID          int64     `json:"round_id"`
	RoomID           string    `json:"room_id"`
	Status           string    `json:"status"`
	ScheduledCloseAt time.Time `json:"scheduled_close_at"`
	DrawDelaySeconds *int      `json:"draw_delay_seconds,omitempty"`
	Seed             string    `json:"seed,omitempty"`
	BallSequence     []int     `json:"ball_sequence,omitempty"`
	LinePosition     int       `json:"line_winner_ball_position"`
	BingoPosition    int       `json:"bingo_winner_ball_position"`
	LineWinners      []string  `json:"line_winners"`
	BingoWinners     []string  `json:"bingo_winners"`
	Cards            []Card    `json:"cards"`
}

type Card struct {
	CardID  string `json:"card_id"`
	Owner   string `json:"owner"`
	Numbers []int  `json:"numbers"`
}

func main() {
	path := "go/internal/assets/rounds.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the fixtures
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var rounds []Round
	if err := json.Unmarshal(data, &rounds); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert rounds and their cards
	var (
		total = len(rounds)
		cards int
		errs  int
	)
	now := time.Now().UTC()
	for _, r := range rounds {
		n, err := upsertRound(ctx, pool, r, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error seeding round %d: %v\n", r.RoundID, err)
			errs++
			continue
		}
		cards += n
	}

	// 4) Print summary
	fmt.Printf(
		"Rounds seed complete: %d rounds, %d cards, %d errors\n",
		total, cards, errs,
	)
}

func upsertRound(ctx context.Context, pool *pgxpool.Pool, r Round, now time.Time) (int, error) {
	sequence := r.BallSequence
	if len(sequence) == 0 && r.Seed != "" {
		var err error
		if sequence, err = shuffle.GenerateFromString(r.Seed); err != nil {
			return 0, err
		}
	}
	var drawStartedAt *time.Time
	if r.DrawDelaySeconds != nil {
		t := now.Add(time.Duration(*r.DrawDelaySeconds) * time.Second)
		drawStartedAt = &t
	}
	var seed *string
	if r.Seed != "" {
		seed = &r.Seed
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
            INSERT INTO rounds (
              round_id, room_id, status, scheduled_close_at, draw_started_at,
              seed, ball_sequence, line_winner_ball_position, bingo_winner_ball_position,
              line_winners, bingo_winners
            ) VALUES (
              $1,$2,$3,$4,$5,$6::numeric,$7,$8,$9,$10,$11
            )
            ON CONFLICT (round_id) DO UPDATE SET
              status = EXCLUDED.status,
              draw_started_at = EXCLUDED.draw_started_at,
              seed = EXCLUDED.seed,
              ball_sequence = EXCLUDED.ball_sequence,
              line_winner_ball_position = EXCLUDED.line_winner_ball_position,
              bingo_winner_ball_position = EXCLUDED.bingo_winner_ball_position,
              line_winners = EXCLUDED.line_winners,
              bingo_winners = EXCLUDED.bingo_winners
        `,
		r.RoundID, r.RoomID, r.Status, r.ScheduledCloseAt, drawStartedAt,
		seed, jsonOrNull(sequence), nullIfZero(r.LinePosition), nullIfZero(r.BingoPosition),
		jsonOrNull(r.LineWinners), jsonOrNull(r.BingoWinners),
	)
	if err != nil {
		return 0, fmt.Errorf("insert round: %w", err)
	}

	for _, c := range r.Cards {
		numbers, err := json.Marshal(c.Numbers)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO cards (card_id, round_id, owner, numbers)
            VALUES ($1,$2,$3,$4)
            ON CONFLICT (card_id) DO NOTHING
        `, c.CardID, r.RoundID, c.Owner, numbers); err != nil {
			return 0, fmt.Errorf("insert card %s: %w", c.CardID, err)
		}
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify('round_updates', $1)`, fmt.Sprint(r.RoundID)); err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(r.Cards), nil
}

func jsonOrNull[T any](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	data, _ := json.Marshal(v)
	return data
}

func nullIfZero(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
