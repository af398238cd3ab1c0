package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token_radar/api"
	"token_radar/config"
	"token_radar/dashboard"
	"token_radar/metrics"
	"token_radar/models"
	"token_radar/monitoring"
	"token_radar/scheduler"
	"token_radar/utils"
	"token_radar/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := utils.InitLogger(cfg.App.LogDir, cfg.App.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.App.Mode {
	case config.ModeWatch:
		err = runWatch(ctx, cfg, os.Stdout)
	default:
		err = runServer(ctx, cfg)
	}
	if err != nil {
		utils.Error(err, "Exited with error", "mode", cfg.App.Mode)
		utils.Logger.Sync()
		os.Exit(1)
	}
}

func loadSeed(cfg *config.Config) ([]models.Token, error) {
	if cfg.Simulation.SeedFile == "" {
		return models.SeedTokens(), nil
	}
	return models.LoadSeedFile(cfg.Simulation.SeedFile)
}

// newDashboard builds the application state from config. A duplicate id in
// the seed aborts startup.
func newDashboard(cfg *config.Config) (*dashboard.Dashboard, error) {
	seed, err := loadSeed(cfg)
	if err != nil {
		return nil, err
	}

	var opts []scheduler.Option
	if cfg.Simulation.RandomSeed != 0 {
		opts = append(opts, scheduler.WithSource(rand.NewSource(cfg.Simulation.RandomSeed)))
	}

	d, err := dashboard.New(seed, cfg.Simulation.TickInterval, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build token store: %w", err)
	}
	return d, nil
}

func newHealth(d *dashboard.Dashboard) *monitoring.Health {
	health := monitoring.NewHealth()
	health.RegisterHealthCheck("store", func() bool { return len(d.Tokens()) > 0 })
	health.RegisterHealthCheck("price_simulation", d.Running)
	return health
}

func runServer(ctx context.Context, cfg *config.Config) error {
	d, err := newDashboard(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		monitoring.StartMetricsCollection(ctx, cfg.Metrics.CollectInterval, func() (int, float64, int) {
			s := d.Stats()
			return s.TotalTokens, s.TotalMarketCap, s.TrendingCount
		})
	}

	hub := ws.NewHub(d, cfg.HTTP.HeartbeatInterval)
	defer hub.Close()

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewHandler(d, hub, newHealth(d), cfg.Metrics.Enabled),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.Infow("HTTP server listening",
			"addr", cfg.HTTP.Addr,
			"tokens", len(d.Tokens()),
			"tick_interval", cfg.Simulation.TickInterval.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		ticks, tickErrors, _, uptime := metrics.GetStats()
		utils.Logger.Infow("Shutting down",
			"ticks_applied", ticks,
			"tick_errors", tickErrors,
			"uptime", uptime.Round(time.Second).String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Error(err, "HTTP server shutdown")
	}
	return nil
}
