package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/forecast-analytics/internal/api/http"
	"github.com/i474232898/forecast-analytics/internal/chart"
	"github.com/i474232898/forecast-analytics/internal/config"
	"github.com/i474232898/forecast-analytics/internal/logging"
	"github.com/i474232898/forecast-analytics/internal/scheduler"
	"github.com/i474232898/forecast-analytics/internal/store"
	"github.com/i474232898/forecast-analytics/internal/weather"
	"github.com/i474232898/forecast-analytics/internal/weather/providers"
)

// runTimeout bounds a single scheduled pipeline run.
const runTimeout = 2 * time.Minute

const usage = `Usage: forecast-analytics [serve | show <record.json>]

  (no command)  run the pipeline once and print the summary
  serve         run the pipeline on a schedule and serve the HTTP API
  show <path>   print a persisted record`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger := logging.New(cfg)
	slog.SetDefault(logger)

	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "":
		err = runOnce(cfg, logger, out)
	case "serve":
		err = serve(cfg, logger)
	case "show":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		err = show(args[1], out)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	if err != nil {
		var stageErr *weather.StageError
		if errors.As(err, &stageErr) {
			logger.Error("pipeline failed", "stage", stageErr.Stage, "error", stageErr.Err)
		} else {
			logger.Error("command failed", "command", cmd, "error", err)
		}
		return 1
	}
	return 0
}

func runOnce(cfg *config.AppConfig, logger *slog.Logger, out io.Writer) error {
	service, cleanup, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := service.Run(ctx)
	if err != nil {
		return err
	}

	if err := displayRecord(out, res.Record); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nRecord: %s\n", cfg.RecordPath)
	if cfg.ChartEnabled {
		fmt.Fprintf(out, "Chart:  %s\n", cfg.ChartPath)
	}
	return nil
}

func show(path string, out io.Writer) error {
	rec, err := store.ReadRecord(path)
	if err != nil {
		return err
	}
	return displayRecord(out, rec)
}

func serve(cfg *config.AppConfig, logger *slog.Logger) error {
	service, cleanup, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// Scheduler that periodically runs the pipeline.
	sched := scheduler.New(service, cfg.ScheduleInterval, runTimeout, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "forecast-analytics",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          runTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, service)

	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildService wires the pipeline collaborators from configuration. The returned
// cleanup releases the history backend.
func buildService(cfg *config.AppConfig, logger *slog.Logger) (*weather.Service, func(), error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var provider weather.ForecastProvider
	switch cfg.Provider {
	case "weatherapi":
		provider = providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, cfg.WeatherAPIURL)
	default:
		provider = providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoURL)
	}

	var renderer weather.ChartRenderer
	if cfg.ChartEnabled {
		renderer = chart.NewRenderer(cfg.Location.Name)
	}

	opts := []weather.Option{weather.WithLogger(logger)}
	cleanup := func() {}

	switch cfg.HistoryBackend {
	case "memory":
		opts = append(opts, weather.WithHistory(store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)))
	case "sqlite":
		db, err := store.OpenSQLite(cfg.HistoryDBPath)
		if err != nil {
			return nil, nil, err
		}
		sqliteStore, err := store.NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		opts = append(opts, weather.WithHistory(sqliteStore))
		cleanup = func() {
			if err := sqliteStore.Close(); err != nil {
				logger.Warn("close history db", "error", err)
			}
		}
	}

	service := weather.NewService(cfg.Pipeline(), provider, store.NewFileWriter(), renderer, opts...)
	return service, cleanup, nil
}
