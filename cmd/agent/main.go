package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/printbridge/agent/internal/agent"
	"github.com/printbridge/agent/internal/api"
	"github.com/printbridge/agent/internal/api/middleware"
	"github.com/printbridge/agent/internal/config"
	"github.com/printbridge/agent/internal/db"
	"github.com/printbridge/agent/internal/logging"
	"github.com/printbridge/agent/internal/printer"
	"github.com/printbridge/agent/internal/raster"
	"github.com/printbridge/agent/internal/webhook"
)

func main() {
	configPath := flag.String("config", "agent.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	purgeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	purged, err := db.Jobs.PurgeOlderThan(purgeCtx, cfg.Database.RetentionDays)
	cancel()
	if err != nil {
		log.Warn("failed to purge old job history", zap.Error(err))
	} else if purged > 0 {
		log.Info("purged old job history", zap.Int64("rows", purged))
	}

	hooks := webhook.NewSender(cfg.Webhook, log)
	defer hooks.Flush()

	platform := printer.DetectPlatform()
	backend := raster.NewPopplerBackend(cfg.Raster.BackendPath)
	if platform == printer.PlatformWindows && !backend.Available() {
		log.Warn("rasterization backend not found; device-context printing will use the fallback chain")
	}

	dispatcher := printer.NewDispatcher(
		platform,
		&printer.DeviceBackend{
			NewDevice:    printer.NewPlatformDevice,
			Raster:       backend,
			TargetWidth:  cfg.Raster.TargetWidth,
			TargetHeight: cfg.Raster.TargetHeight,
			Log:          log,
		},
		&printer.Chain{
			Candidates: fallbackCandidates(cfg.Fallback.Candidates),
			Log:        log,
		},
		log,
	)

	svc := agent.New(
		dispatcher,
		db.Jobs,
		hooks,
		func(ctx context.Context) ([]string, error) { return printer.List(ctx, platform) },
		log,
	)

	auth, err := middleware.NewAuthMiddleware(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to set up auth: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(svc, auth, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("agent listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("platform", string(platform)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func fallbackCandidates(cands []config.FallbackCandidate) []printer.Candidate {
	out := make([]printer.Candidate, len(cands))
	for i, c := range cands {
		out[i] = printer.Candidate{
			Path:         c.Path,
			Args:         c.Args,
			WaitForSpool: c.WaitForSpool,
		}
	}
	return out
}
