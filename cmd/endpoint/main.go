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

	"archviz-studio/internal/config"
	"archviz-studio/internal/endpoint"
	"archviz-studio/internal/gemini"
	"archviz-studio/internal/httpclient"
	"archviz-studio/internal/logging"
	"archviz-studio/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireGemini(); err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.HTTPClient.PreferIPv4,
		Timeout:    cfg.HTTPClient.Timeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.Gemini.APIKey,
		BaseURL:    cfg.Gemini.BaseURL,
		APIVersion: cfg.Gemini.APIVersion,
		Model:      cfg.Gemini.Model,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	endpoint.New(endpoint.Options{
		Generator:    gem,
		Logger:       logger,
		Metrics:      m,
		MaxBodyBytes: cfg.Endpoint.MaxBodyBytes,
		Timeout:      cfg.HTTPClient.Timeout,
	}).Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTP.EndpointAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.HTTPClient.Timeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("endpoint started", "addr", cfg.HTTP.EndpointAddr, "model", cfg.Gemini.Model)
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
}
