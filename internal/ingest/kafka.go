package ingest

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"callwire/internal/config"
	"callwire/internal/model"
	"callwire/internal/normalize"
)

// StartKafka consumes transcript segments from a topic, one JSON segment per
// message. Speech-to-text pipelines that already publish to Kafka plug in
// here without touching the REST surface.
func StartKafka(ctx context.Context, cfg *config.Manager, parser *Parser, out chan<- model.Segment, logger *slog.Logger) {
	current := cfg.Get().Ingest.Kafka
	if !current.Enabled {
		if logger != nil {
			logger.Info("kafka ingest disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("kafka ingest enabled", "brokers", current.Brokers, "topic", current.Topic, "group_id", current.GroupID)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  current.Brokers,
		Topic:    current.Topic,
		GroupID:  current.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	go func() {
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if logger != nil {
					logger.Warn("kafka read error", "err", err)
				}
				continue
			}
			fields, err := parser.ParseLine(string(m.Value))
			if err != nil || fields == nil {
				continue
			}
			seg, err := normalize.Normalize(*fields, cfg.Get())
			if err != nil {
				if logger != nil {
					logger.Warn("kafka normalize error", "err", err)
				}
				continue
			}
			seg.Source = "kafka"
			SendNonBlocking(ctx, out, seg, logger)
		}
	}()
}
