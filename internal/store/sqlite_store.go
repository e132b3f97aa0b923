package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements the Store interface on a single SQLite database.
// The population, fitness, and generation record live in separate tables,
// mirroring the three-table layout of the filesystem checkpoint. Saves are
// transactional delete+insert, so a save is an idempotent overwrite of the
// run's previous snapshot.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the run database under baseDir.
func NewSQLiteStore(baseDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	path := filepath.Join(baseDir, "runs.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Single writer per generation; WAL still helps concurrent readers
	// (status queries while a run is saving).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Debug("SQLite store opened", "path", path)
	return s, nil
}

func (s *SQLiteStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id        TEXT PRIMARY KEY,
		num_solutions INTEGER NOT NULL,
		num_params    INTEGER NOT NULL,
		num_parents   INTEGER NOT NULL,
		seed          INTEGER NOT NULL,
		ranges        TEXT NOT NULL,
		saved_at      TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS population (
		run_id  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		row     INTEGER NOT NULL,
		params  TEXT NOT NULL,
		fitness REAL NOT NULL,
		PRIMARY KEY (run_id, row)
	);

	CREATE TABLE IF NOT EXISTS record (
		run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		generation INTEGER NOT NULL,
		params     TEXT NOT NULL,
		fitness    REAL NOT NULL,
		PRIMARY KEY (run_id, generation)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists the run state in a single transaction.
func (s *SQLiteStore) SaveRun(runID string, state *RunState) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	rangesJSON, err := json.Marshal(state.Config.Ranges)
	if err != nil {
		return fmt.Errorf("failed to serialize ranges: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, num_solutions, num_params, num_parents, seed, ranges, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			num_solutions = excluded.num_solutions,
			num_params    = excluded.num_params,
			num_parents   = excluded.num_parents,
			seed          = excluded.seed,
			ranges        = excluded.ranges,
			saved_at      = excluded.saved_at`,
		runID, state.Config.NumSolutions, state.Config.NumParams,
		state.Config.NumParents, state.Config.Seed, string(rangesJSON), state.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert run row: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM population WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear population: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM record WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear record: %w", err)
	}

	popStmt, err := tx.Prepare("INSERT INTO population (run_id, row, params, fitness) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare population insert: %w", err)
	}
	defer popStmt.Close()

	for i, row := range state.Population {
		params, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to serialize population row %d: %w", i, err)
		}
		var fitness float64
		if i < len(state.Fitness) {
			fitness = state.Fitness[i]
		}
		if _, err := popStmt.Exec(runID, i, string(params), fitness); err != nil {
			return fmt.Errorf("failed to insert population row %d: %w", i, err)
		}
	}

	recStmt, err := tx.Prepare("INSERT INTO record (run_id, generation, params, fitness) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer recStmt.Close()

	for i, entry := range state.Record {
		params, err := json.Marshal(entry.Params)
		if err != nil {
			return fmt.Errorf("failed to serialize record entry %d: %w", i, err)
		}
		if _, err := recStmt.Exec(runID, entry.Generation, string(params), entry.Fitness); err != nil {
			return fmt.Errorf("failed to insert record entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run state: %w", err)
	}

	slog.Debug("Checkpoint saved", "run_id", runID, "backend", "sqlite", "generations", len(state.Record))
	return nil
}

// LoadRun retrieves the persisted state for the given run.
func (s *SQLiteStore) LoadRun(runID string) (*RunState, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	state := &RunState{RunID: runID}
	var rangesJSON string

	err := s.db.QueryRow(`
		SELECT num_solutions, num_params, num_parents, seed, ranges, saved_at
		FROM runs WHERE run_id = ?`, runID).Scan(
		&state.Config.NumSolutions, &state.Config.NumParams,
		&state.Config.NumParents, &state.Config.Seed, &rangesJSON, &state.SavedAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to query run row: %w", err)
	}

	if err := json.Unmarshal([]byte(rangesJSON), &state.Config.Ranges); err != nil {
		return nil, fmt.Errorf("failed to deserialize ranges: %w", err)
	}

	rows, err := s.db.Query("SELECT params, fitness FROM population WHERE run_id = ? ORDER BY row", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query population: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var params string
		var fitness float64
		if err := rows.Scan(&params, &fitness); err != nil {
			return nil, fmt.Errorf("failed to scan population row: %w", err)
		}
		var genome []float64
		if err := json.Unmarshal([]byte(params), &genome); err != nil {
			return nil, fmt.Errorf("failed to deserialize population row: %w", err)
		}
		state.Population = append(state.Population, genome)
		state.Fitness = append(state.Fitness, fitness)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate population: %w", err)
	}

	recRows, err := s.db.Query("SELECT generation, params, fitness FROM record WHERE run_id = ? ORDER BY generation", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var entry RecordEntry
		var params string
		if err := recRows.Scan(&entry.Generation, &params, &entry.Fitness); err != nil {
			return nil, fmt.Errorf("failed to scan record entry: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &entry.Params); err != nil {
			return nil, fmt.Errorf("failed to deserialize record entry: %w", err)
		}
		state.Record = append(state.Record, entry)
	}
	if err := recRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record: %w", err)
	}

	slog.Debug("Checkpoint loaded", "run_id", runID, "backend", "sqlite", "generations", len(state.Record))
	return state, nil
}

// ListRuns returns metadata for all persisted runs.
func (s *SQLiteStore) ListRuns() ([]RunInfo, error) {
	rows, err := s.db.Query(`
		SELECT r.run_id, r.num_solutions, r.num_params, r.saved_at,
		       COALESCE((SELECT COUNT(*) FROM record WHERE run_id = r.run_id), 0),
		       COALESCE((SELECT fitness FROM population WHERE run_id = r.run_id AND row = 0), 0)
		FROM runs r ORDER BY r.saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	infos := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.RunID, &info.NumSolutions, &info.NumParams,
			&info.SavedAt, &info.Generations, &info.BestFitness); err != nil {
			return nil, fmt.Errorf("failed to scan run info: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	slog.Debug("Listed runs", "backend", "sqlite", "count", len(infos))
	return infos, nil
}

// DeleteRun removes all persisted state for the given run.
func (s *SQLiteStore) DeleteRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	res, err := s.db.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{RunID: runID}
	}

	slog.Debug("Run deleted", "run_id", runID, "backend", "sqlite")
	return nil
}
