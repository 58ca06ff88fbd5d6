package weather

import "time"

// SeriesFromColumns converts a column-oriented payload into a ForecastSeries.
// When wantDays is positive the payload must describe exactly that many days.
// Dates must parse as YYYY-MM-DD and be strictly ascending.
func SeriesFromColumns(cols DailyColumns, wantDays int) (ForecastSeries, error) {
	switch {
	case cols.Time == nil:
		return nil, invalidf("missing time column")
	case cols.TemperatureMax == nil:
		return nil, invalidf("missing temperature_max column")
	case cols.TemperatureMin == nil:
		return nil, invalidf("missing temperature_min column")
	case cols.Precipitation == nil:
		return nil, invalidf("missing precipitation column")
	}

	n := len(cols.Time)
	if len(cols.TemperatureMax) != n || len(cols.TemperatureMin) != n || len(cols.Precipitation) != n {
		return nil, invalidf("column lengths differ: time=%d temperature_max=%d temperature_min=%d precipitation=%d",
			n, len(cols.TemperatureMax), len(cols.TemperatureMin), len(cols.Precipitation))
	}
	if wantDays > 0 && n != wantDays {
		return nil, invalidf("got %d days, want %d", n, wantDays)
	}

	series := make(ForecastSeries, 0, n)
	var prev time.Time
	for i := 0; i < n; i++ {
		date, err := time.Parse(DateLayout, cols.Time[i])
		if err != nil {
			return nil, invalidf("day %d: bad date %q", i, cols.Time[i])
		}
		if i > 0 && !date.After(prev) {
			return nil, invalidf("day %d: date %s is not after %s", i, cols.Time[i], prev.Format(DateLayout))
		}
		prev = date

		series = append(series, DailyObservation{
			Date:           date,
			TemperatureMax: cols.TemperatureMax[i],
			TemperatureMin: cols.TemperatureMin[i],
			Precipitation:  cols.Precipitation[i],
		})
	}

	return series, nil
}

// Columns returns the column-oriented form of the series in freshly allocated slices.
func (s ForecastSeries) Columns() DailyColumns {
	cols := DailyColumns{
		Time:           make([]string, len(s)),
		TemperatureMax: make([]float64, len(s)),
		TemperatureMin: make([]float64, len(s)),
		Precipitation:  make([]float64, len(s)),
	}
	for i, d := range s {
		cols.Time[i] = d.Date.Format(DateLayout)
		cols.TemperatureMax[i] = d.TemperatureMax
		cols.TemperatureMin[i] = d.TemperatureMin
		cols.Precipitation[i] = d.Precipitation
	}
	return cols
}

// Clone returns a copy of the column slices.
func (c DailyColumns) Clone() DailyColumns {
	return DailyColumns{
		Time:           append([]string(nil), c.Time...),
		TemperatureMax: append([]float64(nil), c.TemperatureMax...),
		TemperatureMin: append([]float64(nil), c.TemperatureMin...),
		Precipitation:  append([]float64(nil), c.Precipitation...),
	}
}
