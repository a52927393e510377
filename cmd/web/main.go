package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"archviz-studio/internal/app"
	"archviz-studio/internal/config"
	"archviz-studio/internal/httpapi"
	"archviz-studio/internal/logging"
	"archviz-studio/internal/metrics"
	"archviz-studio/internal/watermark"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.NewStudio(ctx, cfg, logger, m)
	if err != nil {
		logger.Error("studio init failed", "err", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(httpapi.Options{
		Studio:         st.Service,
		Gatherer:       reg,
		Logger:         logger,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		DefaultTier:    watermark.ParseTier(cfg.Studio.DefaultTier),
		Timeout:        cfg.Endpoint.Timeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.Endpoint.Timeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		logger.Info("web started", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "err", err)
	}
	if err := st.Close(shutdownCtx); err != nil {
		logger.Error("studio shutdown failed", "err", err)
	}
}
