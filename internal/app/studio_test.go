package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"archviz-studio/internal/config"
	"archviz-studio/internal/history"
	"archviz-studio/internal/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Endpoint.URL = "http://127.0.0.1:1/v1/generate"
	cfg.History.Backend = "memory"
	cfg.History.MaxRecords = 5
	cfg.History.QueueSize = 4
	cfg.Studio.MaxDimension = 512
	cfg.Studio.JPEGQuality = 80
	return cfg
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewStudioMemory(t *testing.T) {
	s, err := NewStudio(context.Background(), testConfig(), discard(), metrics.New(nil))
	require.NoError(t, err)
	require.NotNil(t, s.Service)

	recs, err := s.Service.History(context.Background(), "u", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
	require.NoError(t, s.Close(context.Background()))
}

func TestNewStudioRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.History.Backend = "redis"
	cfg.History.RedisAddr = mr.Addr()

	s, err := NewStudio(context.Background(), cfg, discard(), metrics.New(nil))
	require.NoError(t, err)

	require.True(t, s.Recorder.Enqueue(history.Record{ID: "r1", UserID: "u"}))
	require.NoError(t, s.Close(context.Background()))
	assert.True(t, mr.Exists("archviz:history:list:u"), "queued records are flushed on close")
}

func TestNewStudioRedisUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.History.Backend = "redis"
	cfg.History.RedisAddr = "127.0.0.1:1"

	_, err := NewStudio(context.Background(), cfg, discard(), metrics.New(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}
