package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantfold/pead-engine/internal/broker"
	"github.com/quantfold/pead-engine/internal/config"
	"github.com/quantfold/pead-engine/internal/earnings"
	"github.com/quantfold/pead-engine/internal/engine"
	"github.com/quantfold/pead-engine/internal/eventbus"
	"github.com/quantfold/pead-engine/internal/lifecycle"
	"github.com/quantfold/pead-engine/internal/storage"
	"github.com/quantfold/pead-engine/internal/types"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	log.Info().Msg("Starting PEAD Strategy Engine...")

	// Load config
	cfg := config.Load()

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	params, err := config.LoadParams(cfg.ParamsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy parameters")
	}

	// Setup storage
	store, err := storage.NewPostgres(cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	// Setup event bus
	bus, err := eventbus.NewRedisEventBus(cfg.RedisHost, cfg.RedisPort)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup broker gateway and position lifecycle
	gateway := broker.NewGateway(cfg.GatewayURL, cfg.DryRun)

	manager := lifecycle.NewManager(gateway, store, params.ManagedSymbolsSize, params.SlotWeight())
	manager.OnOrder = func(event types.OrderEvent) {
		if err := bus.Publish(ctx, cfg.OrderStream, event); err != nil {
			log.Error().Err(err).Str("type", event.Type).Msg("Failed to publish order event")
		}
	}

	feedURL := cfg.FeedURL
	if cfg.LiveMode {
		feedURL = cfg.LiveFeedURL
	}
	fetcher := earnings.NewHTTPFetcher(feedURL)

	// Create engine
	eng := engine.NewEngine(params, gateway, fetcher, manager, cfg.LiveMode)

	if err := manager.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore managed positions")
	}

	// A failed startup load leaves an empty calendar; the weekly refresh
	// (live mode) gets another chance.
	_ = eng.RefreshEarnings(ctx)

	go func() {
		if err := bus.Subscribe(ctx, cfg.BarStream, func(day types.MarketDay) error {
			return eng.OnMarketDay(ctx, day)
		}); err != nil && err != context.Canceled {
			log.Fatal().Err(err).Msg("Engine failed")
		}
	}()

	log.Info().Msg("PEAD Strategy Engine started")

	// Wait for interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down...")
	cancel()
	time.Sleep(2 * time.Second)
}
