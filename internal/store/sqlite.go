package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/forecast-analytics/internal/weather"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/insert-record.sql
var insertRecordSQL string

//go:embed sql/get-latest-record.sql
var getLatestRecordSQL string

//go:embed sql/get-records-range.sql
var getRecordsRangeSQL string

// Fixed width so that lexical order in SQLite matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps record history in a SQLite database. Records are stored
// as their JSON document next to indexed location and timestamp columns.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
// A path of ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// A single writer keeps SQLite away from "database is locked".
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}

	if dir := filepath.Dir(strings.TrimPrefix(path, "file:")); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// NewSQLiteStore ensures the schema exists and returns a store over db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("create records schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRecord inserts rec under a fresh uuid.
func (s *SQLiteStore) SaveRecord(rec weather.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = s.db.Exec(insertRecordSQL,
		uuid.NewString(),
		rec.Location,
		rec.GeneratedAt.UTC().Format(sqliteTimeLayout),
		string(rec.Summary.Trend),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetLatest returns the record with the newest generated_at for location.
func (s *SQLiteStore) GetLatest(location string) (weather.Record, error) {
	var payload string
	err := s.db.QueryRow(getLatestRecordSQL, location).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return weather.Record{}, ErrNotFound
		}
		return weather.Record{}, fmt.Errorf("query latest record: %w", err)
	}
	return decodeRecord(payload)
}

// GetRange returns records generated between from and to (inclusive), oldest first.
func (s *SQLiteStore) GetRange(location string, from, to time.Time) ([]weather.Record, error) {
	rows, err := s.db.Query(getRecordsRangeSQL,
		location,
		from.UTC().Format(sqliteTimeLayout),
		to.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close records rows", "error", err)
		}
	}()

	var out []weather.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func decodeRecord(payload string) (weather.Record, error) {
	var rec weather.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return weather.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
