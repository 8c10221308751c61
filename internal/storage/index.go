package storage

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const indexFile = "index.db"

// Index is a SQLite table of stored runs and their metrics, used to rank
// runs without reading every metadata.json.
type Index struct {
	conn *sqlx.DB
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	ix := &Index{conn: conn}
	if err := ix.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return ix, nil
}

func (ix *Index) Close() error {
	return ix.conn.Close()
}

func (ix *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		created INTEGER NOT NULL,
		integrator TEXT NOT NULL,
		controller TEXT NOT NULL,
		kp REAL NOT NULL,
		kd REAL NOT NULL,
		ki REAL NOT NULL,
		ts REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_metrics (
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (run_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_name ON run_metrics(name, value);
	`
	_, err := ix.conn.Exec(schema)
	return err
}

// Add inserts or replaces one run. Non-finite metric values are skipped.
func (ix *Index) Add(meta RunMetadata) error {
	tx, err := ix.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs
		(id, model, created, integrator, controller, kp, kd, ki, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Model, meta.Timestamp.UnixNano(), meta.Integrator, meta.Controller,
		meta.Kp, meta.Kd, meta.Ki, meta.Ts,
	); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM run_metrics WHERE run_id = ?", meta.ID); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for name, v := range meta.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if _, err := stmt.Exec(meta.ID, name, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RankedRun is one row of Rank.
type RankedRun struct {
	ID         string  `db:"id"`
	Model      string  `db:"model"`
	Controller string  `db:"controller"`
	Kp         float64 `db:"kp"`
	Kd         float64 `db:"kd"`
	Ki         float64 `db:"ki"`
	Value      float64 `db:"value"`
}

// Rank returns up to limit runs ordered by ascending value of metric.
func (ix *Index) Rank(metric string, limit int) ([]RankedRun, error) {
	var runs []RankedRun
	err := ix.conn.Select(&runs, `
		SELECT r.id, r.model, r.controller, r.kp, r.kd, r.ki, m.value
		FROM run_metrics m JOIN runs r ON r.id = m.run_id
		WHERE m.name = ?
		ORDER BY m.value ASC, r.created DESC
		LIMIT ?`,
		metric, limit,
	)
	return runs, err
}

// Count reports how many runs are indexed.
func (ix *Index) Count() (int, error) {
	var n int
	err := ix.conn.Get(&n, "SELECT COUNT(*) FROM runs")
	return n, err
}

// OpenIndex opens the store's index database.
func (s *Store) OpenIndex() (*Index, error) {
	return OpenIndex(filepath.Join(s.baseDir, indexFile))
}

// Reindex rebuilds the index from the run directories.
func (s *Store) Reindex() (int, error) {
	runs, err := s.List()
	if err != nil {
		return 0, err
	}
	ix, err := s.OpenIndex()
	if err != nil {
		return 0, err
	}
	defer ix.Close()
	if _, err := ix.conn.Exec("DELETE FROM run_metrics; DELETE FROM runs;"); err != nil {
		return 0, err
	}
	for _, meta := range runs {
		if err := ix.Add(meta); err != nil {
			return 0, fmt.Errorf("index %s: %w", meta.ID, err)
		}
	}
	return len(runs), nil
}
