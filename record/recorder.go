// Package record stores sweep outcomes in a SQLite database.
package record

import (
	"database/sql"
	"fmt"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/sweep"
)

// TableName is the table that holds one row per sweep point.
const TableName = "cache_results"

const createTableSQL = `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
	run_id     TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	sweep      TEXT    NOT NULL,
	engine     TEXT    NOT NULL,
	ways       INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL,
	line_size  INTEGER NOT NULL,
	policy     TEXT    NOT NULL,
	hits       INTEGER NOT NULL,
	accesses   INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

const insertSQL = `INSERT INTO ` + TableName + ` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Row is one recorded sweep point.
type Row struct {
	RunID     string
	Seq       int
	Sweep     string
	Engine    string
	Ways      int
	SizeBytes int
	LineSize  int
	Policy    string
	Hits      uint64
	Accesses  uint64
}

// SQLiteRecorder buffers outcomes and writes them to SQLite in batches. Every
// recorder tags its rows with a fresh run ID so several sweeps can share one
// database.
type SQLiteRecorder struct {
	*sql.DB

	path      string
	runID     string
	rows      []Row
	seq       int
	batchSize int
	closed    bool
}

// NewSQLiteRecorder opens (creating if needed) the database at path. Pending
// rows are flushed when the process leaves through atexit.Exit.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create %s in %s: %w", TableName, path, err)
	}

	r := &SQLiteRecorder{
		DB:        db,
		path:      path,
		runID:     xid.New().String(),
		batchSize: 1000,
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// RunID returns the ID attached to every row of this recorder.
func (r *SQLiteRecorder) RunID() string {
	return r.runID
}

// Record buffers one outcome. It implements sweep.Sink.
func (r *SQLiteRecorder) Record(o sweep.Outcome) error {
	if r.closed {
		return fmt.Errorf("recorder for %s is closed", r.path)
	}

	r.rows = append(r.rows, Row{
		RunID:     r.runID,
		Seq:       r.seq,
		Sweep:     o.Point.Group,
		Engine:    o.Point.Engine.String(),
		Ways:      o.Point.Geometry.Ways,
		SizeBytes: o.Point.Geometry.TotalSize,
		LineSize:  o.Point.Geometry.LineSize,
		Policy:    o.Point.Policy.String(),
		Hits:      o.Result.Hits,
		Accesses:  o.Result.Accesses,
	})
	r.seq++

	if len(r.rows) >= r.batchSize {
		return r.Flush()
	}

	return nil
}

// Flush writes all buffered rows in one transaction.
func (r *SQLiteRecorder) Flush() error {
	if len(r.rows) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range r.rows {
		_, err := stmt.Exec(
			row.RunID, row.Seq, row.Sweep, row.Engine, row.Ways,
			row.SizeBytes, row.LineSize, row.Policy, row.Hits, row.Accesses,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert row %d: %w", row.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}

	r.rows = nil

	return nil
}

// Close flushes pending rows and closes the database. Closing twice is a
// no-op.
func (r *SQLiteRecorder) Close() error {
	if r.closed {
		return nil
	}

	flushErr := r.Flush()
	r.closed = true
	closeErr := r.DB.Close()

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// ReadRun returns the rows of one run, ordered by sequence number.
func ReadRun(db *sql.DB, runID string) ([]Row, error) {
	rows, err := db.Query(
		`SELECT run_id, seq, sweep, engine, ways, size_bytes, line_size, policy, hits, accesses
		FROM `+TableName+` WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var result []Row
	for rows.Next() {
		var row Row
		err := rows.Scan(
			&row.RunID, &row.Seq, &row.Sweep, &row.Engine, &row.Ways,
			&row.SizeBytes, &row.LineSize, &row.Policy, &row.Hits, &row.Accesses,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run %s: %w", runID, err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
