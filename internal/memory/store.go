// Package memory is the assistant's long-term store: key price levels and
// past analyses, keyed by instrument. It replaces ad-hoc shared JSON files
// with an embedded transactional store so concurrent workflow runs cannot
// lose updates.
package memory

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS key_levels (
	id         TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	level      REAL NOT NULL,
	type       TEXT NOT NULL,
	source_id  TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMP NOT NULL,
	UNIQUE (instrument, level)
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	summary    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_key_levels_instrument ON key_levels (instrument);
CREATE INDEX IF NOT EXISTS idx_analyses_instrument ON analyses (instrument, created_at);
`

type KeyLevel struct {
	ID         string
	Instrument string
	Level      float64
	Type       string
	SourceID   string
	Status     string
	CreatedAt  time.Time
}

type Analysis struct {
	ID         string
	Instrument string
	Summary    string
	CreatedAt  time.Time
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать схему памяти: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveKeyLevels inserts the given levels, skipping any level value already
// stored for the instrument. Returns the number of newly stored levels.
func (s *Store) SaveKeyLevels(instrument string, levels []KeyLevel) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	saved := 0
	for _, lvl := range levels {
		status := lvl.Status
		if status == "" {
			status = "active"
		}
		res, err := tx.Exec(`
			INSERT INTO key_levels (id, instrument, level, type, source_id, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (instrument, level) DO NOTHING`,
			ulid.Make().String(), instrument, lvl.Level, lvl.Type, lvl.SourceID, status, time.Now().UTC(),
		)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

func (s *Store) KeyLevels(instrument string) ([]KeyLevel, error) {
	rows, err := s.db.Query(`
		SELECT id, instrument, level, type, source_id, status, created_at
		FROM key_levels WHERE instrument = ? ORDER BY level`, instrument)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []KeyLevel
	for rows.Next() {
		var lvl KeyLevel
		if err := rows.Scan(&lvl.ID, &lvl.Instrument, &lvl.Level, &lvl.Type,
			&lvl.SourceID, &lvl.Status, &lvl.CreatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}

func (s *Store) SaveAnalysis(instrument, summary string) error {
	_, err := s.db.Exec(`
		INSERT INTO analyses (id, instrument, summary, created_at)
		VALUES (?, ?, ?, ?)`,
		ulid.Make().String(), instrument, summary, time.Now().UTC(),
	)
	return err
}

func (s *Store) RecentAnalyses(instrument string, limit int) ([]Analysis, error) {
	rows, err := s.db.Query(`
		SELECT id, instrument, summary, created_at
		FROM analyses WHERE instrument = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, instrument, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.Instrument, &a.Summary, &a.CreatedAt); err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Summary renders the stored levels for an instrument as prompt context.
func (s *Store) Summary(instrument string) (string, error) {
	levels, err := s.KeyLevels(instrument)
	if err != nil {
		return "", err
	}
	if len(levels) == 0 {
		return "Сохраненных уровней нет.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Сохраненные уровни для %s:\n", instrument)
	for _, lvl := range levels {
		fmt.Fprintf(&b, "- %g (%s, %s)\n", lvl.Level, lvl.Type, lvl.Status)
	}
	return b.String(), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
