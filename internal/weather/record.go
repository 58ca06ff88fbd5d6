package weather

import "time"

// BuildRecord assembles the persistable record of a run. Statistics are taken
// as given. The raw block shares no memory with the input series.
func BuildRecord(raw ForecastSeries, summary Summary, generatedAt time.Time, location string) Record {
	return Record{
		GeneratedAt: generatedAt,
		Location:    location,
		Raw:         raw.Columns(),
		Summary:     summary,
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Raw = r.Raw.Clone()
	return out
}
