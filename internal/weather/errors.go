package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries is returned when there are no days to summarize or draw.
	ErrEmptySeries = errors.New("forecast series is empty")

	// ErrInvalidObservation covers non-finite values, missing columns,
	// mismatched column lengths and wrong day counts.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrPersistence wraps any failure to write a record.
	ErrPersistence = errors.New("persist record")

	// ErrRender wraps any failure to produce the chart.
	ErrRender = errors.New("render chart")

	// ErrFetch wraps failures reported by the forecast provider.
	ErrFetch = errors.New("fetch forecast")

	// ErrHistoryDisabled is returned by history queries when no store is configured.
	ErrHistoryDisabled = errors.New("record history is not configured")
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageSummarize Stage = "summarize"
	StageBuild     Stage = "build"
	StagePersist   Stage = "persist"
	StageRender    Stage = "render"
)

// StageError tags the first error of a pipeline run with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidObservation, fmt.Sprintf(format, args...))
}
