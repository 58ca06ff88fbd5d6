package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

// FileWriter writes records as indented JSON files.
//
// Each write truncates and replaces the destination in place. A failure part
// way through can leave a corrupt file; writing to a temporary file and
// renaming it would be needed for crash safety.
type FileWriter struct {
	Perm os.FileMode
}

// NewFileWriter returns a FileWriter creating files with mode 0644.
func NewFileWriter() *FileWriter {
	return &FileWriter{Perm: 0o644}
}

// WriteRecord serializes rec to destination, creating parent directories as needed.
func (w *FileWriter) WriteRecord(rec weather.Record, destination string) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", weather.ErrPersistence, err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(destination); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %w", weather.ErrPersistence, dir, err)
		}
	}

	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(destination, data, perm); err != nil {
		return fmt.Errorf("%w: %w", weather.ErrPersistence, err)
	}
	return nil
}

// ReadRecord loads a record previously written by FileWriter.
func ReadRecord(path string) (weather.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return weather.Record{}, err
	}

	var rec weather.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return weather.Record{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}
