package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

var (
	// ErrNotFound is returned when no record is available for a given location.
	ErrNotFound = errors.New("no forecast record for location")
)

// RecordHistory holds a time-ordered list of records for a location.
type RecordHistory struct {
	Records []weather.Record
}

// MemoryStore is a concurrency-safe in-memory record history.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location, value: history
	data map[string]*RecordHistory

	maxHistory int           // max number of records per location
	maxAge     time.Duration // optional max age for records

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*RecordHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveRecord appends a copy of rec to its location's history and enforces retention.
func (s *MemoryStore) SaveRecord(rec weather.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[rec.Location]
	if !ok {
		history = &RecordHistory{}
		s.data[rec.Location] = history
	}

	history.Records = append(history.Records, rec.Clone())

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Records) > s.maxHistory {
		over := len(history.Records) - s.maxHistory
		history.Records = history.Records[over:]
	}

	// Enforce retention by age, always keeping the newest record.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Records)-1; i++ {
			if !history.Records[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		history.Records = history.Records[i:]
	}

	return nil
}

// GetLatest returns the most recent record for a location.
func (s *MemoryStore) GetLatest(location string) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[location]
	if !ok || len(history.Records) == 0 {
		return weather.Record{}, ErrNotFound
	}

	// Newest by generated_at; on ties the later insertion wins, as in SQLiteStore.
	latest := 0
	for i, rec := range history.Records {
		if !rec.GeneratedAt.Before(history.Records[latest].GeneratedAt) {
			latest = i
		}
	}
	return history.Records[latest].Clone(), nil
}

// GetRange returns all records for a location generated between from and to
// (inclusive), oldest first.
func (s *MemoryStore) GetRange(location string, from, to time.Time) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[location]
	if !ok || len(history.Records) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Record
	for _, rec := range history.Records {
		if !rec.GeneratedAt.Before(from) && !rec.GeneratedAt.After(to) {
			result = append(result, rec.Clone())
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].GeneratedAt.Before(result[j].GeneratedAt)
	})
	return result, nil
}
