package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tcgsim/battlesim/internal/sim"
)

// ErrRunNotFound is returned by LoadRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore persists aggregate results.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; also keeps in-memory databases on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			matches INTEGER NOT NULL,
			draws INTEGER NOT NULL DEFAULT 0,
			turns INTEGER NOT NULL DEFAULT 0,
			reasons TEXT,
			playstyles TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS archetype_results (
			run_id TEXT NOT NULL,
			archetype TEXT NOT NULL,
			wins INTEGER NOT NULL,
			appearances INTEGER NOT NULL,
			knockouts INTEGER NOT NULL,
			PRIMARY KEY (run_id, archetype),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE TABLE IF NOT EXISTS failures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			match_index INTEGER NOT NULL,
			reason TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run_id ON failures(run_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun stores a result under runID in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, runID string, res *sim.AggregateResult) error {
	reasons, err := json.Marshal(res.Reasons)
	if err != nil {
		return err
	}
	playstyles, err := json.Marshal(res.Playstyles)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, seed, matches, draws, turns, reasons, playstyles) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, strconv.FormatUint(res.Seed, 10), res.Matches, res.Draws, res.Turns, string(reasons), string(playstyles),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO archetype_results (run_id, archetype, wins, appearances, knockouts) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, archetype := range res.Archetypes() {
		if _, err := stmt.ExecContext(ctx, runID, archetype,
			res.Wins[archetype], res.Appearances[archetype], res.Knockouts[archetype]); err != nil {
			return fmt.Errorf("insert archetype %s: %w", archetype, err)
		}
	}

	for _, f := range res.Failures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO failures (run_id, match_index, reason) VALUES (?, ?, ?)", runID, f.Match, f.Reason); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}

	return tx.Commit()
}

// StoredRun is a saved result and when it was saved.
type StoredRun struct {
	ID        string
	CreatedAt time.Time
	Result    *sim.AggregateResult
}

// LoadRun reads a saved result.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (*StoredRun, error) {
	var (
		seed, reasons, playstyles string
		matches, draws, turns     int
		createdAt                 time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT seed, matches, draws, turns, reasons, playstyles, created_at FROM runs WHERE id = ?`, runID,
	).Scan(&seed, &matches, &draws, &turns, &reasons, &playstyles, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	parsedSeed, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	res := sim.NewAggregateResult(parsedSeed, matches)
	res.Draws = draws
	res.Turns = turns
	if err := json.Unmarshal([]byte(reasons), &res.Reasons); err != nil {
		return nil, fmt.Errorf("decode reasons: %w", err)
	}
	if err := json.Unmarshal([]byte(playstyles), &res.Playstyles); err != nil {
		return nil, fmt.Errorf("decode playstyles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT archetype, wins, appearances, knockouts FROM archetype_results WHERE run_id = ? ORDER BY archetype`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var archetype string
		var wins, appearances, knockouts int
		if err := rows.Scan(&archetype, &wins, &appearances, &knockouts); err != nil {
			return nil, err
		}
		if wins > 0 {
			res.Wins[archetype] = wins
		}
		res.Appearances[archetype] = appearances
		res.Knockouts[archetype] = knockouts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	failures, err := s.db.QueryContext(ctx,
		`SELECT match_index, reason FROM failures WHERE run_id = ? ORDER BY match_index`, runID)
	if err != nil {
		return nil, err
	}
	defer failures.Close()
	for failures.Next() {
		var f sim.Failure
		if err := failures.Scan(&f.Match, &f.Reason); err != nil {
			return nil, err
		}
		res.Failures = append(res.Failures, f)
	}
	if err := failures.Err(); err != nil {
		return nil, err
	}

	return &StoredRun{ID: runID, CreatedAt: createdAt, Result: res}, nil
}
