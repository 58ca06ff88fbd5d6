package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

// DefaultWeatherAPIURL is the WeatherAPI.com forecast endpoint.
const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1/forecast.json"

// WeatherAPIProvider implements weather.ForecastProvider for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewWeatherAPIProvider returns a provider for baseURL; an empty baseURL uses DefaultWeatherAPIURL.
func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("weatherapi"),
	}
}

// WithBackoff overrides the retry policy.
func (p *WeatherAPIProvider) WithBackoff(b BackoffConfig) *WeatherAPIProvider {
	p.httpCfg.Backoff = b
	return p
}

// Name returns "weatherapi".
func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// FetchForecast reads days daily values from forecast.json for loc's coordinates.
func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) (weather.ForecastSeries, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrFetch)
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be greater than zero", weather.ErrFetch)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%s,%s",
			strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
			strconv.FormatFloat(loc.Longitude, 'f', -1, 64)))
		values.Set("days", strconv.Itoa(days))
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast *struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC      *float64 `json:"maxtemp_c"`
					MinTempC      *float64 `json:"mintemp_c"`
					TotalPrecipMM *float64 `json:"totalprecip_mm"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode weatherapi response: %v", weather.ErrInvalidObservation, err)
	}
	if payload.Forecast == nil {
		return nil, fmt.Errorf("%w: weatherapi response has no forecast block", weather.ErrInvalidObservation)
	}

	n := len(payload.Forecast.ForecastDay)
	cols := weather.DailyColumns{
		Time:           make([]string, 0, n),
		TemperatureMax: make([]float64, 0, n),
		TemperatureMin: make([]float64, 0, n),
		Precipitation:  make([]float64, 0, n),
	}
	for i, fd := range payload.Forecast.ForecastDay {
		if fd.Day.MaxTempC == nil || fd.Day.MinTempC == nil || fd.Day.TotalPrecipMM == nil {
			return nil, fmt.Errorf("%w: weatherapi day %d (%s) is missing a field", weather.ErrInvalidObservation, i, fd.Date)
		}
		cols.Time = append(cols.Time, fd.Date)
		cols.TemperatureMax = append(cols.TemperatureMax, *fd.Day.MaxTempC)
		cols.TemperatureMin = append(cols.TemperatureMin, *fd.Day.MinTempC)
		cols.Precipitation = append(cols.Precipitation, *fd.Day.TotalPrecipMM)
	}

	return weather.SeriesFromColumns(cols, days)
}
