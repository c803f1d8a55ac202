package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/bingosync/go/internal/api"
)

const usage = `usage: bingoctl <command> [arg]

commands:
  view               print the engine view
  rooms              list lobby rooms
  balance            print the wallet balance
  select <round_id>  select a round
  buy <count>        buy cards for the selected round
  cancel             cancel the purchase in progress
  automark           toggle auto-marking
  mark <number>      toggle a manual mark
  skip               skip the draw animation
  reset              return to browsing
  history [limit]    list archived rounds
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	baseURL := os.Getenv("BINGO_ENGINE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client := api.NewClient(&http.Client{Timeout: 3 * time.Minute}, baseURL)

	out, err := dispatch(context.Background(), client, os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, c *api.Client, cmd string, args []string) (any, error) {
	switch cmd {
	case "view":
		return c.GetView(ctx)
	case "rooms":
		return c.ListRooms(ctx)
	case "balance":
		return c.GetBalance(ctx)
	case "select":
		id, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		return c.SelectRound(ctx, int64(id))
	case "buy":
		n, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		return c.BuyCards(ctx, n)
	case "cancel":
		return c.CancelPurchase(ctx)
	case "automark":
		return c.ToggleAutoMark(ctx)
	case "mark":
		n, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		return c.ToggleMark(ctx, n)
	case "skip":
		return c.SkipToResults(ctx)
	case "reset":
		return c.Reset(ctx)
	case "history":
		limit, _ := intArg(args, 0)
		return c.History(ctx, limit)
	default:
		return nil, fmt.Errorf("unknown command\n\n%s", usage)
	}
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing argument")
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[i])
	}
	return v, nil
}
