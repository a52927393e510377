package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"archviz-studio/internal/app"
	"archviz-studio/internal/config"
	"archviz-studio/internal/handlers"
	"archviz-studio/internal/httpclient"
	"archviz-studio/internal/logging"
	"archviz-studio/internal/mediagroup"
	"archviz-studio/internal/metrics"
	"archviz-studio/internal/session"
	"archviz-studio/internal/telegram"
	"archviz-studio/internal/watermark"
)

// Idle settings panels are dropped after a day.
const sessionTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.HTTPClient.PreferIPv4,
		Timeout:    cfg.HTTPClient.Timeout,
	})

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.Telegram.Token,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Telegram.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.NewStudio(ctx, cfg, logger, metrics.New(prometheus.NewRegistry()))
	if err != nil {
		logger.Error("studio init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error("studio shutdown failed", "err", err)
		}
	}()

	sessions := session.NewStore()

	handler := handlers.New(handlers.Options{
		Telegram:        tg,
		Studio:          st.Service,
		Sessions:        sessions,
		Logger:          logger,
		Tier:            watermark.ParseTier(cfg.Studio.DefaultTier),
		HistoryPageSize: cfg.Telegram.HistoryPageSize,
	})

	sem := make(chan struct{}, cfg.Telegram.MaxConcurrent)
	onGroupFlush := func(group mediagroup.Group) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, cfg.Telegram.RequestTimeout)
			defer cancel()

			handler.HandleMediaGroup(reqCtx, group)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{
		Debounce: cfg.Telegram.MediaGroupDebounce,
		OnFlush:  onGroupFlush,
	})
	defer aggregator.Close()
	handler.SetMediaGroupAggregator(aggregator)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Prune(sessionTTL); n > 0 {
					logger.Debug("sessions pruned", "count", n)
				}
			}
		}
	}()

	logger.Info("bot started", "username", tg.Username())

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.Telegram.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err)
				}
			}(update)
		}
	}
}
