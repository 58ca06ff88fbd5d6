package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/forecast-analytics/internal/chart"
	"github.com/i474232898/forecast-analytics/internal/store"
	"github.com/i474232898/forecast-analytics/internal/weather"
)

var generatedAt = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type stubProvider struct {
	err error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchForecast(_ context.Context, _ weather.Location, days int) (weather.ForecastSeries, error) {
	if p.err != nil {
		return nil, p.err
	}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := make(weather.ForecastSeries, days)
	for i := range series {
		series[i] = weather.DailyObservation{
			Date:           start.AddDate(0, 0, i),
			TemperatureMax: 20 + float64(i),
			TemperatureMin: 12 + float64(i)/2,
			Precipitation:  0.5,
		}
	}
	return series, nil
}

func newTestApp(t *testing.T, provider weather.ForecastProvider, history weather.RecordStore) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	cfg := weather.PipelineConfig{
		Location:   weather.Location{Name: "Paris", Latitude: 48.85, Longitude: 2.35, Timezone: "Europe/Paris"},
		Days:       7,
		RecordPath: filepath.Join(dir, "meteo_record.json"),
		ChartPath:  filepath.Join(dir, "meteo_chart.png"),
	}

	opts := []weather.Option{
		weather.WithClock(func() time.Time { return generatedAt }),
		weather.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if history != nil {
		opts = append(opts, weather.WithHistory(history))
	}
	svc := weather.NewService(cfg, provider, store.NewFileWriter(), chart.NewRenderer("Paris"), opts...)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, store.NewMemoryStore(0, 0))

	resp, body := do(t, app, http.MethodGet, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" || got["location"] != "Paris" {
		t.Errorf("unexpected body %s", body)
	}
}

func TestRunThenQuery(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, store.NewMemoryStore(0, 0))

	resp, _ := do(t, app, http.MethodGet, "/api/v1/forecast/latest")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("latest before run: expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
	resp, _ = do(t, app, http.MethodGet, "/api/v1/forecast/chart")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("chart before run: expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	resp, body := do(t, app, http.MethodPost, "/api/v1/forecast/run")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run: expected %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}
	var run struct {
		RunID  string         `json:"run_id"`
		State  weather.State  `json:"state"`
		Record weather.Record `json:"record"`
	}
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.RunID == "" || run.State != weather.StateRendered {
		t.Errorf("run = %+v", run)
	}
	if run.Record.Summary.Trend != weather.TrendRising {
		t.Errorf("trend = %q, want rising", run.Record.Summary.Trend)
	}

	resp, body = do(t, app, http.MethodGet, "/api/v1/forecast/latest?location=Paris")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("latest: expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var latest weather.Record
	if err := json.Unmarshal(body, &latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if !latest.GeneratedAt.Equal(generatedAt) || latest.Summary != run.Record.Summary {
		t.Errorf("latest = %+v", latest)
	}

	resp, _ = do(t, app, http.MethodGet, "/api/v1/forecast/latest?location=Lyon")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown location: expected %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	resp, body = do(t, app, http.MethodGet, "/api/v1/forecast/chart")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chart: expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("chart content type = %q", ct)
	}
	if len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Errorf("chart body is not a PNG")
	}
}

func TestHistory(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, store.NewMemoryStore(0, 0))
	if resp, body := do(t, app, http.MethodPost, "/api/v1/forecast/run"); resp.StatusCode != http.StatusOK {
		t.Fatalf("run: %d %s", resp.StatusCode, body)
	}

	from := generatedAt.Add(-time.Hour).Format(time.RFC3339)
	to := strconv.FormatInt(generatedAt.Add(time.Hour).Unix(), 10)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "rfc3339 and unix", query: "?from=" + from + "&to=" + to, wantStatus: http.StatusOK, wantCount: 1},
		{name: "missing to", query: "?from=" + from, wantStatus: http.StatusBadRequest},
		{name: "bad time", query: "?from=yesterday&to=" + to, wantStatus: http.StatusBadRequest},
		{name: "to before from", query: "?from=" + to + "&to=" + strconv.FormatInt(generatedAt.Add(-2*time.Hour).Unix(), 10), wantStatus: http.StatusBadRequest},
		{name: "empty range", query: "?from=0&to=1", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, app, http.MethodGet, "/api/v1/forecast/history"+tt.query)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, resp.StatusCode, body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got struct {
				Location string           `json:"location"`
				Records  []weather.Record `json:"records"`
			}
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Location != "Paris" || len(got.Records) != tt.wantCount {
				t.Errorf("got location %q with %d records", got.Location, len(got.Records))
			}
		})
	}
}

func TestRunFailureReportsStage(t *testing.T) {
	app := newTestApp(t, &stubProvider{err: errors.New("connection refused")}, store.NewMemoryStore(0, 0))

	resp, body := do(t, app, http.MethodPost, "/api/v1/forecast/run")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["stage"] != string(weather.StageFetch) || got["state"] != string(weather.StateFailed) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHistoryDisabled(t *testing.T) {
	app := newTestApp(t, &stubProvider{}, nil)

	resp, body := do(t, app, http.MethodGet, "/api/v1/forecast/latest")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["message"] != "history is disabled" {
		t.Errorf("message = %v", got["message"])
	}
}
