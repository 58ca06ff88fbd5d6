package weather

import "math"

// Summarize computes the statistical summary of a forecast series.
// Means and the precipitation total are rounded to one decimal (half to even);
// extremes are reported as observed. The trend compares only the first and
// last day's maximum, so the series must already be in date order.
func Summarize(series ForecastSeries) (Summary, error) {
	if err := ValidateSeries(series); err != nil {
		return Summary{}, err
	}

	var (
		sumMax       float64
		sumMin       float64
		sumAmplitude float64
		sumPrecip    float64
	)

	absMax := series[0].TemperatureMax
	absMin := series[0].TemperatureMin

	for _, d := range series {
		sumMax += d.TemperatureMax
		sumMin += d.TemperatureMin
		sumAmplitude += d.TemperatureMax - d.TemperatureMin
		sumPrecip += d.Precipitation

		absMax = math.Max(absMax, d.TemperatureMax)
		absMin = math.Min(absMin, d.TemperatureMin)
	}

	n := float64(len(series))

	summary := Summary{
		MeanMax:            round1(sumMax / n),
		MeanMin:            round1(sumMin / n),
		AbsoluteMax:        absMax,
		AbsoluteMin:        absMin,
		MeanAmplitude:      round1(sumAmplitude / n),
		TotalPrecipitation: round1(sumPrecip),
		Trend:              ClassifyTrend(series),
	}

	// Finite inputs can still overflow once summed.
	for _, f := range []struct {
		name string
		v    float64
	}{
		{name: "mean_max", v: summary.MeanMax},
		{name: "mean_min", v: summary.MeanMin},
		{name: "mean_amplitude", v: summary.MeanAmplitude},
		{name: "total_precipitation", v: summary.TotalPrecipitation},
	} {
		if !finite(f.v) {
			return Summary{}, invalidf("%s overflows", f.name)
		}
	}

	return summary, nil
}

// ClassifyTrend compares the last day's maximum to the first day's.
// Interior days are ignored. An empty series is stable.
func ClassifyTrend(series ForecastSeries) Trend {
	if len(series) == 0 {
		return TrendStable
	}

	first := series[0].TemperatureMax
	last := series[len(series)-1].TemperatureMax

	switch {
	case last > first:
		return TrendRising
	case last < first:
		return TrendFalling
	default:
		return TrendStable
	}
}

// ValidateSeries rejects empty series and non-finite fields.
func ValidateSeries(series ForecastSeries) error {
	if len(series) == 0 {
		return ErrEmptySeries
	}

	for i, d := range series {
		switch {
		case !finite(d.TemperatureMax):
			return invalidf("day %d: temperature_max is %v", i, d.TemperatureMax)
		case !finite(d.TemperatureMin):
			return invalidf("day %d: temperature_min is %v", i, d.TemperatureMin)
		case !finite(d.Precipitation):
			return invalidf("day %d: precipitation is %v", i, d.Precipitation)
		}
	}

	return nil
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
