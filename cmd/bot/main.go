package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tronprofit/internal/interfaces"
	"tronprofit/internal/logger"
	"tronprofit/internal/trace"
)

func main() {
	_ = godotenv.Load()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}

	brk := initializeBroker(cfg)
	led, err := initializeLedger(ctx, cfg)
	if err != nil {
		os.Exit(1)
	}
	tn, sink := initializeNotifier(ctx, cfg)
	eng := initializeEngine(cfg, brk, led, sink)

	// The notifier command loop runs as a sibling of the trading loop. They
	// share nothing mutable: the trading loop is the ledger's only writer,
	// the command handler only reads.
	pollDone := make(chan struct{})
	if tn != nil {
		go func() {
			defer close(pollDone)
			tn.StartPolling(ctx, commandHandler(cfg, led, brk))
		}()
	} else {
		close(pollDone)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Bot started", "symbols", cfg.Symbols, "poll_seconds", cfg.PollSeconds)
	runCycle(ctx, eng, cfg.Symbols)

	for {
		select {
		case <-tick.C:
			runCycle(ctx, eng, cfg.Symbols)
		case <-sigc:
			logger.Info(ctx, "Shutting down...")
			cancel()
			shutdown(pollDone)
			return
		case <-ctx.Done():
			shutdown(pollDone)
			return
		}
	}
}

// shutdown joins the polling goroutine, which unblocks as soon as the
// cancelled context aborts its in-flight long poll, then flushes traces.
func shutdown(pollDone <-chan struct{}) {
	select {
	case <-pollDone:
	case <-time.After(5 * time.Second):
		logger.Warn(context.Background(), "Telegram polling did not stop in time")
	}
	_ = trace.Shutdown(context.Background())
}

// runCycle processes every configured symbol once. A failed step is logged
// and skipped so one symbol's outage cannot starve the rest of the cycle.
func runCycle(ctx context.Context, eng interfaces.Engine, symbols []string) {
	for _, sym := range symbols {
		st, err := eng.Step(ctx, sym)
		if err != nil {
			logger.ErrorWithErr(ctx, "Step failed", err, "symbol", sym)
			continue
		}
		if st != nil {
			b, _ := json.Marshal(st)
			fmt.Println(string(b))
		}
	}
}
