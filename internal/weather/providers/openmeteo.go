package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

// DefaultOpenMeteoURL is the public Open-Meteo forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

const openMeteoDailyFields = "temperature_2m_max,temperature_2m_min,precipitation_sum"

// OpenMeteoProvider implements weather.ForecastProvider for Open-Meteo daily forecasts.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider returns a provider for baseURL; an empty baseURL uses DefaultOpenMeteoURL.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("openmeteo"),
	}
}

// WithBackoff overrides the retry policy.
func (p *OpenMeteoProvider) WithBackoff(b BackoffConfig) *OpenMeteoProvider {
	p.httpCfg.Backoff = b
	return p
}

// Name returns "openmeteo".
func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// openMeteoResponse keeps numbers as pointers so JSON nulls can be told apart from zeros.
type openMeteoResponse struct {
	Daily *struct {
		Time           []string   `json:"time"`
		TemperatureMax []*float64 `json:"temperature_2m_max"`
		TemperatureMin []*float64 `json:"temperature_2m_min"`
		Precipitation  []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// FetchForecast requests days of daily max/min temperature and precipitation for loc.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) (weather.ForecastSeries, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be greater than zero", weather.ErrFetch)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("daily", openMeteoDailyFields)
		values.Set("forecast_days", strconv.Itoa(days))
		if loc.Timezone != "" {
			values.Set("timezone", loc.Timezone)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode openmeteo response: %v", weather.ErrInvalidObservation, err)
	}
	if payload.Daily == nil {
		return nil, fmt.Errorf("%w: openmeteo response has no daily block", weather.ErrInvalidObservation)
	}

	cols := weather.DailyColumns{Time: payload.Daily.Time}
	fields := []struct {
		name string
		in   []*float64
		out  *[]float64
	}{
		{name: "temperature_2m_max", in: payload.Daily.TemperatureMax, out: &cols.TemperatureMax},
		{name: "temperature_2m_min", in: payload.Daily.TemperatureMin, out: &cols.TemperatureMin},
		{name: "precipitation_sum", in: payload.Daily.Precipitation, out: &cols.Precipitation},
	}
	var nulls []string
	for _, f := range fields {
		vals, ok := derefAll(f.in)
		if !ok {
			nulls = append(nulls, f.name)
		}
		*f.out = vals
	}
	if len(nulls) > 0 {
		return nil, fmt.Errorf("%w: openmeteo returned null values in %s", weather.ErrInvalidObservation, strings.Join(nulls, ", "))
	}

	return weather.SeriesFromColumns(cols, days)
}

// derefAll copies vals, reporting false if any entry is nil. A nil slice stays nil.
func derefAll(vals []*float64) ([]float64, bool) {
	if vals == nil {
		return nil, true
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		if v == nil {
			return nil, false
		}
		out[i] = *v
	}
	return out, true
}
