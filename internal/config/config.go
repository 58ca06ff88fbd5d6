package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

// MaxForecastDays is the longest window Open-Meteo serves.
const MaxForecastDays = 16

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level

	// Location and window the pipeline forecasts for.
	Location weather.Location
	Days     int

	// Provider selects the fetch collaborator: "openmeteo" or "weatherapi".
	Provider      string
	OpenMeteoURL  string
	WeatherAPIKey string
	WeatherAPIURL string
	HTTPTimeout   time.Duration

	RecordPath   string
	ChartPath    string
	ChartEnabled bool

	// ScheduleInterval controls how often serve mode runs the pipeline.
	ScheduleInterval time.Duration

	// History backend: "memory", "sqlite" or "none".
	HistoryBackend string
	HistoryDBPath  string

	// In-memory store retention.
	StoreMaxHistory int           // max number of records per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of records (0 = unlimited)

	Port string
}

// Load reads an optional .env file, then the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnv()
}

// LoadFromEnv reads configuration from environment with sensible defaults.
func LoadFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	loc, err := loadLocation()
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	days, err := getenvInt("FORECAST_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if days < 1 || days > MaxForecastDays {
		return nil, fmt.Errorf("FORECAST_DAYS must be between 1 and %d, got %d", MaxForecastDays, days)
	}
	cfg.Days = days

	cfg.Provider = strings.ToLower(getenvDefault("FORECAST_PROVIDER", "openmeteo"))
	cfg.OpenMeteoURL = getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.WeatherAPIURL = getenvDefault("WEATHERAPI_BASE_URL", "https://api.weatherapi.com/v1/forecast.json")
	switch cfg.Provider {
	case "openmeteo":
	case "weatherapi":
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("WEATHERAPI_API_KEY is required when FORECAST_PROVIDER=weatherapi")
		}
	default:
		return nil, fmt.Errorf("invalid FORECAST_PROVIDER %q (allowed: openmeteo, weatherapi)", cfg.Provider)
	}

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.RecordPath = getenvDefault("RECORD_PATH", "meteo_record.json")
	cfg.ChartPath = getenvDefault("CHART_PATH", "meteo_chart.png")
	if cfg.ChartEnabled, err = getenvBool("CHART_ENABLED", true); err != nil {
		return nil, err
	}

	// Serve-mode interval: default one hour.
	if cfg.ScheduleInterval, err = getenvDuration("SCHEDULE_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.ScheduleInterval < time.Minute {
		return nil, fmt.Errorf("SCHEDULE_INTERVAL must be at least 1m, got %v", cfg.ScheduleInterval)
	}

	cfg.HistoryBackend = strings.ToLower(getenvDefault("HISTORY_BACKEND", "memory"))
	switch cfg.HistoryBackend {
	case "memory", "sqlite", "none":
	default:
		return nil, fmt.Errorf("invalid HISTORY_BACKEND %q (allowed: memory, sqlite, none)", cfg.HistoryBackend)
	}
	cfg.HistoryDBPath = getenvDefault("HISTORY_DB_PATH", "data/history.db")

	// Store retention.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 168); err != nil { // a week of hourly runs
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "168h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// Pipeline returns the pipeline's view of the configuration.
func (c *AppConfig) Pipeline() weather.PipelineConfig {
	return weather.PipelineConfig{
		Location:   c.Location,
		Days:       c.Days,
		RecordPath: c.RecordPath,
		ChartPath:  c.ChartPath,
	}
}

func loadLocation() (weather.Location, error) {
	lat, err := getenvFloat("FORECAST_LATITUDE", 48.85)
	if err != nil {
		return weather.Location{}, err
	}
	lon, err := getenvFloat("FORECAST_LONGITUDE", 2.35)
	if err != nil {
		return weather.Location{}, err
	}

	return weather.Location{
		Name:      getenvDefault("FORECAST_LOCATION", "Paris"),
		Latitude:  lat,
		Longitude: lon,
		Timezone:  getenvDefault("FORECAST_TIMEZONE", "Europe/Paris"),
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
