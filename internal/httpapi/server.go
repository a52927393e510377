// Package httpapi is the studio's HTTP surface: multipart generation,
// prompt previews, history and catalogs.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"archviz-studio/internal/history"
	"archviz-studio/internal/metrics"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/watermark"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	headerUserID = "X-User-ID"
	headerTier   = "X-User-Tier"

	defaultMaxUploadBytes = 25 << 20
	defaultTimeout        = 240 * time.Second
)

type Studio interface {
	Generate(ctx context.Context, userID string, tier watermark.Tier, req prompt.Request) (history.Record, error)
	Preview(req prompt.Request) (prompt.Compiled, error)
	History(ctx context.Context, userID string, limit int) ([]history.Record, error)
	Record(ctx context.Context, userID, id string) (history.Record, error)
	Restore(ctx context.Context, userID, id string) (prompt.Request, error)
}

type Options struct {
	Studio         Studio
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	AllowedOrigins []string
	MaxUploadBytes int64
	DefaultTier    watermark.Tier
	Timeout        time.Duration
}

type Server struct {
	studio      Studio
	logger      *slog.Logger
	maxUpload   int64
	defaultTier watermark.Tier
	timeout     time.Duration
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		studio:      opts.Studio,
		logger:      logger,
		maxUpload:   opts.MaxUploadBytes,
		defaultTier: opts.DefaultTier,
		timeout:     opts.Timeout,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUploadBytes
	}
	if s.defaultTier == "" {
		s.defaultTier = watermark.TierFree
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), corsMiddleware(opts.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	api := r.Group("/api")
	api.GET("/catalog", s.handleCatalog)
	api.POST("/prompt", s.handlePrompt)

	user := api.Group("", requireUser())
	user.POST("/generations", s.handleGenerate)
	user.GET("/history", s.handleHistory)
	user.GET("/history/:id", s.handleRecord)
	user.GET("/history/:id/restore", s.handleRestore)
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", headerUserID, headerTier}
	return cors.New(cfg)
}
