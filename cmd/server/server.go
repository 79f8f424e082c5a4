package main

import (
	"context"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"vidar/internal/api"
	"vidar/internal/config"
	"vidar/internal/feed"
	"vidar/internal/log"
	"vidar/internal/metrics"
	"vidar/internal/pubsub"
	"vidar/internal/sim"

	tomb "gopkg.in/tomb.v2"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg := config.Load()
	logger := log.NewLogger(cfg)
	registry := metrics.Init(logger)

	service, err := feed.NewService(feed.Options{
		SMAWindow:    cfg.Feed.SMAWindow,
		HistoryDepth: cfg.Feed.HistoryDepth,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid feed configuration")
	}

	process := sim.New(sim.Params{
		InitialPrice: cfg.Market.InitialPrice,
		Drift:        cfg.Market.Drift,
		Volatility:   cfg.Market.Volatility,
		Interval:     cfg.TickInterval(),
		JumpProb:     cfg.Market.JumpProb,
		JumpMin:      cfg.Market.JumpMin,
		JumpMax:      cfg.Market.JumpMax,
		Floor:        cfg.Market.PriceFloor,
		Ceiling:      cfg.Market.PriceCeiling,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))

	publisher := pubsub.New(logger)
	pipeline := feed.NewPipeline(process, service, publisher, logger)
	server := api.New(cfg, service, publisher, pipeline, registry, logger)

	t, ctx := tomb.WithContext(ctx)
	t.Go(func() error { return pipeline.Run(ctx) })
	t.Go(func() error { return server.Run(ctx) })

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Dur("tick", cfg.TickInterval()).
		Msg("market simulator running")

	if err := t.Wait(); err != nil {
		logger.Error().Err(err).Msg("exited with error")
	}
}
