package weather

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeries(t *testing.T, maxes, mins []float64) ForecastSeries {
	t.Helper()
	require.Len(t, mins, len(maxes))

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := make(ForecastSeries, len(maxes))
	for i := range maxes {
		series[i] = DailyObservation{
			Date:           start.AddDate(0, 0, i),
			TemperatureMax: maxes[i],
			TemperatureMin: mins[i],
		}
	}
	return series
}

func TestSummarize_RisingWeek(t *testing.T) {
	series := makeSeries(t,
		[]float64{20, 22, 18, 25, 21, 19, 23},
		[]float64{12, 14, 10, 17, 13, 11, 15},
	)

	got, err := Summarize(series)
	require.NoError(t, err)

	assert.Equal(t, 21.1, got.MeanMax)
	assert.Equal(t, 13.1, got.MeanMin)
	assert.Equal(t, 25.0, got.AbsoluteMax)
	assert.Equal(t, 10.0, got.AbsoluteMin)
	assert.Equal(t, 8.0, got.MeanAmplitude)
	assert.Equal(t, 0.0, got.TotalPrecipitation)
	assert.Equal(t, TrendRising, got.Trend)
}

func TestSummarize_FallingWeek(t *testing.T) {
	series := makeSeries(t,
		[]float64{25, 24, 23, 22, 21, 20, 19},
		[]float64{18, 17, 16, 15, 14, 13, 12},
	)

	got, err := Summarize(series)
	require.NoError(t, err)

	assert.Equal(t, TrendFalling, got.Trend)
	assert.Equal(t, 22.0, got.MeanMax)
	assert.Equal(t, 7.0, got.MeanAmplitude)
}

func TestSummarize_FlatWeek(t *testing.T) {
	series := makeSeries(t,
		[]float64{20, 20, 20, 20, 20, 20, 20},
		[]float64{15, 15, 15, 15, 15, 15, 15},
	)

	got, err := Summarize(series)
	require.NoError(t, err)

	assert.Equal(t, 20.0, got.MeanMax)
	assert.Equal(t, 15.0, got.MeanMin)
	assert.Equal(t, 5.0, got.MeanAmplitude)
	assert.Equal(t, TrendStable, got.Trend)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = Summarize(ForecastSeries{})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestSummarize_NonFinite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DailyObservation)
	}{
		{name: "NaN max", mutate: func(d *DailyObservation) { d.TemperatureMax = math.NaN() }},
		{name: "+Inf min", mutate: func(d *DailyObservation) { d.TemperatureMin = math.Inf(1) }},
		{name: "-Inf precipitation", mutate: func(d *DailyObservation) { d.Precipitation = math.Inf(-1) }},
		{name: "overflowing maxima", mutate: func(d *DailyObservation) {
			d.TemperatureMax = math.MaxFloat64
			d.TemperatureMin = -math.MaxFloat64
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := makeSeries(t, []float64{20, 21, 22}, []float64{10, 11, 12})
			tt.mutate(&series[1])

			_, err := Summarize(series)
			assert.ErrorIs(t, err, ErrInvalidObservation)
		})
	}
}

func TestSummarize_OverflowingSum(t *testing.T) {
	series := makeSeries(t, []float64{1e308, 1e308}, []float64{-1e308, -1e308})

	_, err := Summarize(series)
	assert.ErrorIs(t, err, ErrInvalidObservation)
	assert.ErrorContains(t, err, "overflows")
}

func TestSummarize_RoundsToOneDecimal(t *testing.T) {
	series := makeSeries(t,
		[]float64{20.13, 21.47, 19.99, 22.01},
		[]float64{10.07, 9.33, 11.29, 8.88},
	)
	series[0].Precipitation = 0.33
	series[1].Precipitation = 1.27
	series[3].Precipitation = 2.04

	got, err := Summarize(series)
	require.NoError(t, err)

	for name, v := range map[string]float64{
		"mean_max":            got.MeanMax,
		"mean_min":            got.MeanMin,
		"mean_amplitude":      got.MeanAmplitude,
		"total_precipitation": got.TotalPrecipitation,
	} {
		assert.InDelta(t, 0, v*10-math.Round(v*10), 1e-9, "%s = %v has more than one decimal", name, v)
	}

	assert.Equal(t, 20.9, got.MeanMax)
	assert.Equal(t, 3.6, got.TotalPrecipitation)
	assert.Equal(t, 22.01, got.AbsoluteMax)
	assert.Equal(t, 8.88, got.AbsoluteMin)
}

func TestSummarize_SingleDay(t *testing.T) {
	series := makeSeries(t, []float64{17.25}, []float64{9.75})

	got, err := Summarize(series)
	require.NoError(t, err)

	assert.Equal(t, 17.2, got.MeanMax) // 172.5 rounds to even
	assert.Equal(t, 9.8, got.MeanMin)
	assert.Equal(t, 7.5, got.MeanAmplitude)
	assert.Equal(t, TrendStable, got.Trend)
}

func TestRound1_HalfToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.25, want: 0.2},
		{in: 0.75, want: 0.8},
		{in: -0.25, want: -0.2},
		{in: 2.5, want: 2.5},
		{in: 21.142857, want: 21.1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round1(tt.in), "round1(%v)", tt.in)
	}
}

func TestClassifyTrend_IgnoresInteriorDays(t *testing.T) {
	base := makeSeries(t,
		[]float64{18, 30, 31, 32, 33, 34, 18},
		[]float64{10, 10, 10, 10, 10, 10, 10},
	)
	assert.Equal(t, TrendStable, ClassifyTrend(base))

	base[len(base)-1].TemperatureMax = 18.1
	assert.Equal(t, TrendRising, ClassifyTrend(base))

	for i := 1; i < len(base)-1; i++ {
		base[i].TemperatureMax = -40
	}
	assert.Equal(t, TrendRising, ClassifyTrend(base))

	base[len(base)-1].TemperatureMax = 17.9
	assert.Equal(t, TrendFalling, ClassifyTrend(base))
}

func TestSummarize_ExtremesMatchInput(t *testing.T) {
	maxes := []float64{3.4, -1.2, 7.7, 7.6, 0}
	mins := []float64{-2.1, -8.4, 1.1, -8.3, -3}
	got, err := Summarize(makeSeries(t, maxes, mins))
	require.NoError(t, err)

	assert.Equal(t, 7.7, got.AbsoluteMax)
	assert.Equal(t, -8.4, got.AbsoluteMin)
}
