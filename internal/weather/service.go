package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the position of a run in the pipeline.
type State string

const (
	StatePending    State = "PENDING"
	StateFetched    State = "FETCHED"
	StateSummarized State = "SUMMARIZED"
	StateBuilt      State = "BUILT"
	StatePersisted  State = "PERSISTED"
	StateRendered   State = "RENDERED"
	StateFailed     State = "FAILED"
)

// PipelineConfig is the per-process configuration of a Service.
type PipelineConfig struct {
	Location   Location
	Days       int
	RecordPath string
	ChartPath  string
}

// RunResult describes a finished run, successful or not.
type RunResult struct {
	RunID  string
	State  State
	Record Record
}

// Service runs the fetch → summarize → build → persist → render pipeline.
type Service struct {
	cfg      PipelineConfig
	provider ForecastProvider
	writer   RecordWriter
	renderer ChartRenderer
	history  RecordStore
	logger   *slog.Logger
	now      func() time.Time

	// runs share the record and chart destinations
	mu sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithHistory appends every persisted record to store.
func WithHistory(store RecordStore) Option {
	return func(s *Service) { s.history = store }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock replaces time.Now for generated_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(cfg PipelineConfig, provider ForecastProvider, writer RecordWriter, renderer ChartRenderer, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		provider: provider,
		writer:   writer,
		renderer: renderer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the pipeline configuration.
func (s *Service) Config() PipelineConfig {
	return s.cfg
}

// Run executes one pipeline run. On failure the returned error is a *StageError
// and the result state is StateFailed; artifacts of completed stages are kept.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := RunResult{RunID: uuid.NewString(), State: StatePending}
	log := s.logger.With("run_id", res.RunID, "location", s.cfg.Location.Key())

	fail := func(stage Stage, err error) (RunResult, error) {
		res.State = StateFailed
		log.Error("pipeline run failed", "stage", stage, "error", err)
		return res, &StageError{Stage: stage, Err: err}
	}

	log.Debug("fetching forecast", "provider", s.provider.Name(), "days", s.cfg.Days)
	series, err := s.provider.FetchForecast(ctx, s.cfg.Location, s.cfg.Days)
	if err != nil {
		if !errors.Is(err, ErrFetch) && !errors.Is(err, ErrInvalidObservation) {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return fail(StageFetch, err)
	}
	res.State = StateFetched

	summary, err := Summarize(series)
	if err != nil {
		return fail(StageSummarize, err)
	}
	res.State = StateSummarized

	rec := BuildRecord(series, summary, s.now(), s.cfg.Location.Name)
	res.Record = rec
	res.State = StateBuilt

	if err := s.persist(rec); err != nil {
		return fail(StagePersist, err)
	}
	res.State = StatePersisted
	log.Info("record persisted", "path", s.cfg.RecordPath, "trend", summary.Trend)

	if s.renderer == nil {
		log.Debug("chart rendering disabled")
	} else {
		if err := s.renderer.Render(series, s.cfg.ChartPath); err != nil {
			if !errors.Is(err, ErrRender) {
				err = fmt.Errorf("%w: %w", ErrRender, err)
			}
			return fail(StageRender, err)
		}
		log.Info("chart rendered", "path", s.cfg.ChartPath)
	}
	res.State = StateRendered

	return res, nil
}

func (s *Service) persist(rec Record) error {
	if err := s.writer.WriteRecord(rec.Clone(), s.cfg.RecordPath); err != nil {
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		return err
	}

	if s.history == nil {
		return nil
	}
	if err := s.history.SaveRecord(rec.Clone()); err != nil {
		return fmt.Errorf("%w: history: %w", ErrPersistence, err)
	}
	return nil
}

// GetLatest delegates to the history store.
func (s *Service) GetLatest(location string) (Record, error) {
	if s.history == nil {
		return Record{}, ErrHistoryDisabled
	}
	return s.history.GetLatest(location)
}

// GetRange delegates to the history store.
func (s *Service) GetRange(location string, from, to time.Time) ([]Record, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.GetRange(location, from, to)
}
