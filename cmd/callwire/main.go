package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"callwire/internal/alerts"
	"callwire/internal/api"
	"callwire/internal/config"
	"callwire/internal/engine"
	"callwire/internal/ingest"
	"callwire/internal/logging"
	"callwire/internal/metrics"
	"callwire/internal/model"
	"callwire/internal/rules"
	"callwire/internal/storage"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to config file (JSON or YAML)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "callwire:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var mgr *config.Manager
	if configPath != "" {
		m, err := config.NewManager(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		mgr = m
	} else {
		mgr = config.NewStatic(config.DefaultConfig())
	}
	cfg := mgr.Get()

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting callwire", "version", version, "config", configPath)

	set, err := rules.LoadFile(config.ResolvePath(cfg.Rules.Path))
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	lib := rules.Compile(set, cfg.Rules.IncludeOptional)
	for ruleID, patterns := range lib.SkippedPatterns() {
		for _, p := range patterns {
			logger.Warn("skipping invalid regex pattern", "rule", ruleID, "pattern", p)
		}
	}
	logger.Info("rule library loaded",
		"version", lib.Version(),
		"rules", len(lib.Rules()),
		"enabled", len(lib.Enabled()))

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if store != nil {
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer store.Close()
		logger.Info("storage enabled", "driver", cfg.Storage.Driver)
	}

	alertsStore := alerts.NewStore(cfg.Alerts.StoreLimit)
	statsStore := metrics.NewStore(cfg.Stats.StoreLimit)
	eng := engine.NewEngine(cfg, lib, logger, statsStore, alertsStore, store)

	segments := make(chan model.Segment, cfg.Ingest.ChannelBuffer)
	parser := ingest.NewParser()

	if cfg.Ingest.REST.Enabled {
		ingest.StartREST(ctx, mgr, eng, segments, logger)
	}
	if cfg.Ingest.TCPStream.Enabled {
		ingest.StartTCPStream(ctx, mgr, parser, segments, logger)
	}
	if cfg.Ingest.FileTail.Enabled {
		ingest.StartFileTail(ctx, mgr, parser, segments, logger)
	}
	if cfg.Ingest.Kafka.Enabled {
		ingest.StartKafka(ctx, mgr, parser, segments, logger)
	}

	api.Start(ctx, mgr, statsStore, alertsStore, store, lib, eng, logger, version)

	if configPath != "" {
		go mgr.Watch(0,
			func(updated *config.Config) {
				logger.Info("config reloaded", "path", configPath)
				eng.UpdateConfig(updated)
			},
			func(err error) {
				logger.Error("config reload failed", "err", err)
			},
			ctx.Done())
	}

	eng.Start(ctx, segments)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
