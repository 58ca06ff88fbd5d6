package weather

import (
	"time"
)

// DateLayout is the calendar date format used by providers and persisted records.
const DateLayout = "2006-01-02"

// Trend is the categorical direction of daily maxima over the forecast window.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Location represents the single place a pipeline forecasts for.
// Name is the identifier written into records.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Name
}

// DailyObservation is one calendar day of forecast data.
type DailyObservation struct {
	Date           time.Time `json:"date"`
	TemperatureMax float64   `json:"temperature_max"`
	TemperatureMin float64   `json:"temperature_min"`
	Precipitation  float64   `json:"precipitation"`
}

// ForecastSeries is a multi-day forecast, one entry per day.
// Entries are expected to be ordered by Date ascending.
type ForecastSeries []DailyObservation

// DailyColumns is the column-oriented form of a ForecastSeries, as returned by
// providers and stored in the raw block of a Record.
type DailyColumns struct {
	Time           []string  `json:"time"`
	TemperatureMax []float64 `json:"temperature_max"`
	TemperatureMin []float64 `json:"temperature_min"`
	Precipitation  []float64 `json:"precipitation"`
}

// Len returns the number of days described by the time column.
func (c DailyColumns) Len() int {
	return len(c.Time)
}

// Summary is the statistical digest of a ForecastSeries.
type Summary struct {
	MeanMax            float64 `json:"mean_max"`
	MeanMin            float64 `json:"mean_min"`
	AbsoluteMax        float64 `json:"absolute_max"`
	AbsoluteMin        float64 `json:"absolute_min"`
	MeanAmplitude      float64 `json:"mean_amplitude"`
	TotalPrecipitation float64 `json:"total_precipitation"`
	Trend              Trend   `json:"trend"`
}

// Record is the persisted unit of one pipeline run.
type Record struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Location    string       `json:"location"`
	Raw         DailyColumns `json:"raw"`
	Summary     Summary      `json:"summary"`
}
