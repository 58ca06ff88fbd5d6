package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validColumns() DailyColumns {
	return DailyColumns{
		Time:           []string{"2025-06-01", "2025-06-02", "2025-06-03"},
		TemperatureMax: []float64{21.5, 23.0, 19.4},
		TemperatureMin: []float64{12.1, 13.8, 11.0},
		Precipitation:  []float64{0, 2.3, 0.4},
	}
}

func TestSeriesFromColumns(t *testing.T) {
	series, err := SeriesFromColumns(validColumns(), 3)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), series[1].Date)
	assert.Equal(t, 23.0, series[1].TemperatureMax)
	assert.Equal(t, 13.8, series[1].TemperatureMin)
	assert.Equal(t, 2.3, series[1].Precipitation)
}

func TestSeriesFromColumns_AnyLengthWhenUnbounded(t *testing.T) {
	series, err := SeriesFromColumns(validColumns(), 0)
	require.NoError(t, err)
	assert.Len(t, series, 3)
}

func TestSeriesFromColumns_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*DailyColumns)
		wantDays int
	}{
		{name: "missing time", mutate: func(c *DailyColumns) { c.Time = nil }, wantDays: 3},
		{name: "missing max", mutate: func(c *DailyColumns) { c.TemperatureMax = nil }, wantDays: 3},
		{name: "missing min", mutate: func(c *DailyColumns) { c.TemperatureMin = nil }, wantDays: 3},
		{name: "missing precipitation", mutate: func(c *DailyColumns) { c.Precipitation = nil }, wantDays: 3},
		{name: "short min column", mutate: func(c *DailyColumns) { c.TemperatureMin = c.TemperatureMin[:2] }, wantDays: 3},
		{name: "wrong day count", mutate: func(c *DailyColumns) {}, wantDays: 7},
		{name: "bad date", mutate: func(c *DailyColumns) { c.Time[1] = "06/02/2025" }, wantDays: 3},
		{name: "descending dates", mutate: func(c *DailyColumns) { c.Time[0], c.Time[2] = c.Time[2], c.Time[0] }, wantDays: 3},
		{name: "duplicate date", mutate: func(c *DailyColumns) { c.Time[2] = c.Time[1] }, wantDays: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := validColumns()
			tt.mutate(&cols)

			_, err := SeriesFromColumns(cols, tt.wantDays)
			assert.ErrorIs(t, err, ErrInvalidObservation)
		})
	}
}

func TestColumns_RoundTrip(t *testing.T) {
	cols := validColumns()
	series, err := SeriesFromColumns(cols, 3)
	require.NoError(t, err)

	assert.Equal(t, cols, series.Columns())
}
