package main

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

func displayRecord(w io.Writer, rec weather.Record) error {
	series, err := weather.SeriesFromColumns(rec.Raw, 0)
	if err != nil {
		return fmt.Errorf("record raw data: %w", err)
	}

	s := rec.Summary
	header := fmt.Sprintf("Forecast Summary for %s:", rec.Location)
	fmt.Fprintf(w, "%s\n", header)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(header)))
	fmt.Fprintf(w, "Generated:     %s\n", rec.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "Trend:         %s\n", cases.Title(language.English).String(string(s.Trend)))
	fmt.Fprintf(w, "Mean High:     %5.1f°C\n", s.MeanMax)
	fmt.Fprintf(w, "Mean Low:      %5.1f°C\n", s.MeanMin)
	fmt.Fprintf(w, "Highest:       %5.1f°C\n", s.AbsoluteMax)
	fmt.Fprintf(w, "Lowest:        %5.1f°C\n", s.AbsoluteMin)
	fmt.Fprintf(w, "Mean Range:    %5.1f°C\n", s.MeanAmplitude)
	fmt.Fprintf(w, "Precipitation: %5.1f mm\n", s.TotalPrecipitation)
	fmt.Fprintln(w)

	header = fmt.Sprintf("%d-Day Forecast for %s:", len(series), rec.Location)
	fmt.Fprintf(w, "%s\n", header)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(header)))

	for _, day := range series {
		fmt.Fprintf(w, "%s %s: High: %4.1f°C. Low: %4.1f°C.",
			day.Date.Format("Mon"),
			day.Date.Format(weather.DateLayout),
			day.TemperatureMax,
			day.TemperatureMin)
		if day.Precipitation > 0 {
			fmt.Fprintf(w, " Precipitation: %4.1f mm.", day.Precipitation)
		}
		fmt.Fprintln(w)
	}
	return nil
}
