// Package app assembles the studio service shared by the web API and the
// Telegram bot binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"archviz-studio/internal/config"
	"archviz-studio/internal/gateway"
	"archviz-studio/internal/history"
	"archviz-studio/internal/httpclient"
	"archviz-studio/internal/metrics"
	"archviz-studio/internal/studio"
	"archviz-studio/internal/watermark"

	"github.com/redis/go-redis/v9"
)

type Studio struct {
	Service  *studio.Service
	Recorder *history.Recorder
	redis    *redis.Client
}

// NewStudio wires the gateway client, watermarking and the history backend
// selected by cfg.History.Backend.
func NewStudio(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*Studio, error) {
	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.HTTPClient.PreferIPv4,
		Timeout:    cfg.Endpoint.Timeout,
	})

	sender := gateway.New(gateway.Options{
		URL:        cfg.Endpoint.URL,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	out := &Studio{}
	store, err := out.historyStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	out.Recorder = history.NewRecorder(history.RecorderOptions{
		Store:        store,
		QueueSize:    cfg.History.QueueSize,
		WriteTimeout: cfg.History.WriteTimeout,
		Logger:       logger,
		Metrics:      m,
	})

	out.Service = studio.New(studio.Options{
		Sender: sender,
		Finalizer: watermark.New(watermark.Options{
			Text:    cfg.Studio.WatermarkText,
			Logger:  logger,
			Metrics: m,
		}),
		History:      store,
		Recorder:     out.Recorder,
		Logger:       logger,
		Metrics:      m,
		MaxDimension: cfg.Studio.MaxDimension,
		JPEGQuality:  cfg.Studio.JPEGQuality,
	})
	return out, nil
}

func (s *Studio) historyStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (history.Store, error) {
	if cfg.History.Backend != "redis" {
		logger.Info("history backend", "backend", "memory", "max_records", cfg.History.MaxRecords)
		return history.NewMemoryStore(cfg.History.MaxRecords), nil
	}

	s.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.History.RedisAddr,
		Password: cfg.History.RedisPassword,
		DB:       cfg.History.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.redis.Ping(pingCtx).Err(); err != nil {
		_ = s.redis.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.History.RedisAddr, err)
	}
	logger.Info("history backend", "backend", "redis", "addr", cfg.History.RedisAddr)

	return history.NewRedisStore(history.RedisOptions{
		Client:     s.redis,
		Prefix:     cfg.History.RedisPrefix,
		MaxRecords: cfg.History.MaxRecords,
		TTL:        cfg.History.TTL,
		Logger:     logger,
	}), nil
}

// Close drains queued history writes, then releases the redis connection.
func (s *Studio) Close(ctx context.Context) error {
	err := s.Recorder.Close(ctx)
	if s.redis != nil {
		err = errors.Join(err, s.redis.Close())
	}
	return err
}
