package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"link_shortener/auth"
	"link_shortener/cache"
	"link_shortener/config"
	"link_shortener/database"
	"link_shortener/handlers"
	"link_shortener/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	checkDB := flag.Bool("check-db", false, "connect to the database, report and exit")
	flag.Parse()

	if err := run(*checkDB); err != nil {
		slog.Error("shortener stopped", "error", err)
		os.Exit(1)
	}
}

func run(checkDB bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if checkDB {
		fmt.Println("Database connection successful!")
		return nil
	}

	backend, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	svc := services.NewShortener(db, services.Options{
		LinkLifetime:     cfg.LinkLifetime,
		RenewalWindow:    cfg.RenewalWindow,
		GenerateAttempts: cfg.GenerateAttempts,
	})
	h := handlers.New(svc, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), handlers.Options{
		BaseURL:  cfg.BaseURL,
		Cache:    backend,
		CacheTTL: cfg.CacheTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("URL shortener starting", "addr", srv.Addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache picks Redis when REDIS_ADDR is set and an in-process cache
// otherwise.
func newCache(ctx context.Context, cfg config.Config) (cache.Backend, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("using in-memory response cache", "ttl", cfg.CacheTTL)
		return cache.NewMemory(cfg.CacheTTL, 2*cfg.CacheTTL+time.Minute), func() {}, nil
	}

	r, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using redis response cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	return r, func() {
		if err := r.Close(); err != nil {
			slog.Warn("close redis", "error", err)
		}
	}, nil
}
