package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/efreitasn/papertrader/internal/config"
	"github.com/efreitasn/papertrader/internal/domain"
	"github.com/efreitasn/papertrader/internal/engine"
	"github.com/efreitasn/papertrader/internal/feed"
	"github.com/efreitasn/papertrader/internal/handler"
	"github.com/efreitasn/papertrader/internal/service"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	dataFile := flag.String("data", "", "CSV bar file (overrides DATA_FILE)")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Default bar source: the configured CSV file, else the synthetic series.
	bars, err := loadBars(cfg)
	if err != nil {
		logger.Error("failed to load bars", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(bars) < engine.MinBars {
		logger.Error("not enough bars",
			slog.Int("bars", len(bars)),
			slog.Int("min", engine.MinBars),
		)
		os.Exit(1)
	}
	logger.Info("bars loaded", slog.Int("bars", len(bars)), slog.String("source", barSource(cfg)))

	sessionSvc := service.NewSessionService(service.Defaults{
		StartingCash: cfg.StartingCash,
		Costs: engine.CostModel{
			FeeRate:     cfg.FeeRate,
			SlippageBps: cfg.SlippageBps,
		},
		Step:    1,
		MaxStep: cfg.MaxStep,
		Bars:    bars,
	}, logger)

	// Player drives running sessions on the frame interval.
	player := engine.NewPlayer(cfg.TickInterval, cfg.MaxTicksPerFrame, sessionSvc)

	// Router.
	router := handler.NewRouter(sessionSvc, logger)

	// Start the player with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	player.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the player).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped", slog.Int64("frames", player.Frames()))
}

func loadBars(cfg *config.Config) ([]domain.Bar, error) {
	if cfg.DataFile != "" {
		return feed.LoadCSV(cfg.DataFile)
	}
	return feed.Synthetic{
		N:          cfg.SyntheticBars,
		StartPrice: cfg.SyntheticStartPrice,
		Seed:       cfg.SyntheticSeed,
	}.Load(), nil
}

func barSource(cfg *config.Config) string {
	if cfg.DataFile != "" {
		return cfg.DataFile
	}
	return "synthetic"
}
