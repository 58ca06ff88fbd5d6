package weather

import (
	"context"
	"time"
)

// ForecastProvider abstracts a source of daily forecasts (e.g. Open-Meteo).
// Implementations return exactly days entries in ascending date order, or an
// error wrapping ErrFetch or ErrInvalidObservation.
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, loc Location, days int) (ForecastSeries, error)
}

// RecordWriter persists one record at destination, replacing prior content.
type RecordWriter interface {
	WriteRecord(rec Record, destination string) error
}

// ChartRenderer draws a series to an image file at destination.
type ChartRenderer interface {
	Render(series ForecastSeries, destination string) error
}

// RecordStore is the contract for run history (in-memory or SQLite).
type RecordStore interface {
	SaveRecord(rec Record) error
	GetLatest(location string) (Record, error)
	GetRange(location string, from, to time.Time) ([]Record, error)
}
