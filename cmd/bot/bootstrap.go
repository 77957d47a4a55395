package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"tronprofit/internal/broker/binance"
	"tronprofit/internal/broker/brokerobs"
	"tronprofit/internal/engine"
	"tronprofit/internal/engine/engineobs"
	"tronprofit/internal/interfaces"
	"tronprofit/internal/ledger"
	"tronprofit/internal/logger"
	"tronprofit/internal/notifier"
	"tronprofit/internal/store"
	"tronprofit/internal/strategy"
	"tronprofit/internal/trace"
)

// initializeSystem initializes the logger and the tracer.
func initializeSystem() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeBroker builds the Binance client and wraps it with
// observability middleware.
func initializeBroker(cfg *store.Config) interfaces.Broker {
	brk := binance.New(binance.Params{
		BaseURL:    cfg.Exchange.BaseURL,
		APIKey:     cfg.Exchange.APIKey,
		APISecret:  cfg.Exchange.APISecret,
		Interval:   cfg.Exchange.Interval,
		Timeout:    time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Exchange.MaxRetries,
	})
	return brokerobs.Wrap(brk)
}

func initializeLedger(ctx context.Context, cfg *store.Config) (*ledger.Ledger, error) {
	led, err := ledger.Open(cfg.Ledger.Path, cfg.Ledger.FeeRate)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open trade ledger", err, "path", cfg.Ledger.Path)
		return nil, err
	}
	return led, nil
}

// initializeNotifier returns the Telegram notifier (nil when no token is
// configured) and the sink the engine reports through.
func initializeNotifier(ctx context.Context, cfg *store.Config) (*notifier.TelegramNotifier, interfaces.Notifier) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		logger.Warn(ctx, "No Telegram credentials configured - notifications disabled")
		return nil, notifier.NewNoop()
	}
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	return tn, tn
}

// initializeEngine builds the trading engine with the conjunctive-rule
// decider and wraps it with observability middleware.
func initializeEngine(cfg *store.Config, brk interfaces.Broker, led *ledger.Ledger, sink interfaces.Notifier) interfaces.Engine {
	eng := engine.New(cfg, brk, strategy.New(), led, sink)
	return engineobs.Wrap(eng)
}

// commandHandler answers operator commands from the Telegram polling loop.
func commandHandler(cfg *store.Config, led *ledger.Ledger, brk interfaces.Broker) notifier.CommandHandler {
	return func(ctx context.Context, command string) string {
		switch command {
		case "/status":
			return notifier.FormatStatus(cfg.Symbols, cfg.PollSeconds)
		case "/last":
			records, err := led.LastN(10)
			if err != nil {
				return fmt.Sprintf("Failed to read ledger: %v", err)
			}
			return notifier.FormatTrades(records)
		case "/profit":
			return profitReport(ctx, cfg, led, brk)
		default:
			return "Commands:\n/status - symbols and cycle interval\n/profit - unrealized profit per symbol\n/last - recent trades"
		}
	}
}

func profitReport(ctx context.Context, cfg *store.Config, led *ledger.Ledger, brk interfaces.Broker) string {
	var b strings.Builder
	for _, sym := range cfg.Symbols {
		candles, err := brk.Klines(ctx, sym, 1)
		if err != nil || len(candles) == 0 {
			fmt.Fprintf(&b, "%s: price unavailable\n", sym)
			continue
		}
		price := candles[len(candles)-1].Close
		profit, fee := led.ProfitAndFee(sym, price, cfg.Quantity(sym))
		fmt.Fprintf(&b, "%s @ %.2f: profit %.4f, fee %.4f\n", sym, price, profit, fee)
	}
	return strings.TrimRight(b.String(), "\n")
}
