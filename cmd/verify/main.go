package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"etf-arb-bot/internal/config"
	"etf-arb-bot/internal/state"
	"etf-arb-bot/internal/state/sqlite"
)

// verify checks a config file offline and inspects the local sqlite
// state: the last PnL snapshot and the tail of the order journal.

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	events := flag.Int("events", 20, "number of recent order events to print")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("config ok: venue=%s composites=%d pairs=%d\n",
		cfg.Venue.URL, len(cfg.Instruments.Composites), len(cfg.Pairs))

	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	snapshot, ok, err := state.LoadPnLSnapshot(ctx, store)
	if err != nil {
		fatal(err)
	}
	if !ok {
		fmt.Println("no pnl snapshot recorded")
	} else {
		pretty, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			fatal(err)
		}
		fmt.Printf("last pnl snapshot:\n%s\n", string(pretty))
	}

	recent, err := store.RecentOrderEvents(ctx, *events)
	if err != nil {
		fatal(err)
	}
	if len(recent) == 0 {
		fmt.Println("no order events recorded")
		return
	}
	fmt.Printf("last %d order events:\n", len(recent))
	for _, ev := range recent {
		fmt.Printf("  %d %-9s %s %s %s %d@%d %s\n",
			ev.TimeMS, ev.Event, ev.OrderID, ev.Symbol, ev.Side, ev.Qty, ev.Price, ev.Reason)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
