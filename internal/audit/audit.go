// Package audit keeps a local, non-authoritative record of each cutover
// run's reconciliation iterations for operator post-mortem. It is never
// consulted to decide what the controller does next — the scheduler and
// proxy fleet remain the only source of truth for that.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a sqlite connection holding the iteration log.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the audit database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	db := &DB{DB: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS iterations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    iteration INTEGER NOT NULL,
    recorded_at DATETIME NOT NULL,
    gates_json TEXT NOT NULL,
    killed_json TEXT NOT NULL,
    new_instances INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_iterations_run_id ON iterations(run_id);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate audit database: %w", err)
	}
	return nil
}

// Iteration is one recorded reconciliation step.
type Iteration struct {
	RunID        string
	Iteration    int
	RecordedAt   time.Time
	Gates        any
	Killed       []string
	NewInstances int
}

// Save persists one iteration record.
func (db *DB) Save(it Iteration) error {
	gatesJSON, err := json.Marshal(it.Gates)
	if err != nil {
		return fmt.Errorf("encode gate result: %w", err)
	}
	killedJSON, err := json.Marshal(it.Killed)
	if err != nil {
		return fmt.Errorf("encode killed task list: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO iterations (run_id, iteration, recorded_at, gates_json, killed_json, new_instances)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		it.RunID, it.Iteration, it.RecordedAt, string(gatesJSON), string(killedJSON), it.NewInstances,
	)
	if err != nil {
		return fmt.Errorf("save iteration: %w", err)
	}
	return nil
}

// CountForRun returns how many iterations have been recorded for runID,
// useful for tests and for an operator sanity-checking a long-running
// cutover.
func (db *DB) CountForRun(runID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM iterations WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count iterations: %w", err)
	}
	return n, nil
}
