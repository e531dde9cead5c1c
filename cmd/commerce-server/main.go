// commerce-server runs the commerce HTTP API on an in-memory store.
//
// Usage:
//
//	commerce-server -config server.yaml -seed catalog.yaml
//
// The PORT environment variable overrides the configured port.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/api"
	audithook "github.com/xraph/commerce/audit_hook"
	"github.com/xraph/commerce/internal/config"
	"github.com/xraph/commerce/store/memory"
)

func main() {
	configPath := flag.String("config", "", "path to server config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	seedFile := flag.String("seed", "", "path to catalog seed file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *seedFile != "" {
		cfg.SeedFile = *seedFile
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	audit := audithook.New(audithook.RecorderFunc(func(_ context.Context, ev *audithook.AuditEvent) error {
		logger.Debug("audit",
			"action", ev.Action,
			"resource", ev.Resource,
			"resource_id", ev.ResourceID,
			"outcome", ev.Outcome,
			"reason", ev.Reason,
		)
		return nil
	}), audithook.WithLogger(logger))

	eng := commerce.New(memory.New(),
		commerce.WithLogger(logger),
		commerce.WithPlugin(audit),
	)

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		log.Fatalf("start engine: %v", err)
	}

	if cfg.SeedFile != "" {
		seed, err := config.LoadSeed(cfg.SeedFile)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		stats, err := seed.Apply(ctx, eng)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		logger.Info("loaded seed data",
			"file", cfg.SeedFile,
			"products", stats.Products,
			"services", stats.Services,
			"combos", stats.Combos,
			"coupons", stats.Coupons,
		)
	}

	handler := api.NewHandler(eng, api.WithLogger(logger))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "error", err)
		}
		if err := eng.Stop(); err != nil {
			logger.Error("engine stop", "error", err)
		}
		close(idleConnsClosed)
	}()

	logger.Info("commerce-server ready", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("listen: %v", err)
	}

	<-idleConnsClosed
	logger.Info("server stopped")
}
