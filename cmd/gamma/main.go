package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/gammaosu/gamma/internal/config"
	"github.com/gammaosu/gamma/internal/db"
	"github.com/gammaosu/gamma/internal/server"
	"github.com/gammaosu/gamma/internal/session"
)

const configPath = "gamma.toml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := configPath
	if p := os.Getenv("APP_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: cfg.SlogLevel(),
	})))

	slog.Info("theta! Gamma server starting", "addr", cfg.Addr(), "log_level", cfg.LogLevel)
	if cfg.Telem.Endpoint != "" {
		slog.Info("telemetry endpoint configured", "endpoint", cfg.Telem.Endpoint)
	}

	retry := func() *backoff.ExponentialBackOff {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = 30 * time.Second
		return b
	}

	var database *db.DB
	err = backoff.Retry(func() error {
		d, err := db.New(ctx, cfg.DB.MySQLURL)
		if err != nil {
			slog.Warn("mysql not ready", "err", err)
			return err
		}
		database = d
		return nil
	}, backoff.WithContext(retry(), ctx))
	if err != nil {
		return fmt.Errorf("connecting to mysql: %w", err)
	}
	defer database.Close()
	slog.Info("mysql connected")

	store, err := session.NewRedisStore(cfg.DB.RedisURL)
	if err != nil {
		return fmt.Errorf("creating redis store: %w", err)
	}
	defer store.Close()

	err = backoff.Retry(func() error {
		if err := store.Ping(ctx); err != nil {
			slog.Warn("redis not ready", "err", err)
			return err
		}
		return nil
	}, backoff.WithContext(retry(), ctx))
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	slog.Info("redis connected")

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.New(store, database).Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
