package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Engine wraps an embedded SQLite instance bound to a single database file.
//
// The engine holds exactly one connection. SQLite's last_insert_rowid is
// connection-scoped, and the store manager snapshots the database file after
// every mutation, so a second connection would break both.
//
// The engine does not persist anything beyond its own file: durability
// across hosts is the store manager's job.
type Engine struct {
	db   *sql.DB
	path string
}

// Row is a single result row as a column→value mapping.
type Row map[string]any

// Result reports the outcome of a mutating statement.
type Result struct {
	// LastInsertID is the rowid of the most recently inserted row on this
	// connection. Zero when the statement did not insert.
	LastInsertID int64

	// RowsAffected is the number of rows changed by the statement.
	RowsAffected int64
}

// Open creates or opens the database file at path.
//
// The connection is configured with:
//   - foreign_keys=ON so ON DELETE CASCADE holds (off by default in SQLite)
//   - journal_mode=DELETE so the main file stays self-contained; Snapshot
//     reads it directly and WAL would leave committed pages in a side file
//   - busy_timeout=5000 for lock contention across processes
//
// Safe to call against an existing database file.
func Open(path string) (*Engine, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Single writer, single connection. See type comment.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	return &Engine{db: db, path: path}, nil
}

// Close closes the underlying connection.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Path returns the database file path the engine is bound to.
func (e *Engine) Path() string {
	return e.path
}

// Query executes a read statement with positional parameters and returns all
// result rows as column→value maps.
//
// Returns an empty slice (not nil) when the statement matches no rows.
// Malformed statements and parameter count mismatches return a *QueryError.
func (e *Engine) Query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &QueryError{Stmt: stmt, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			// Text columns scan as []byte through the generic interface;
			// normalize so callers and JSON encoding see strings.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

// Execute runs a mutating statement with positional parameters.
//
// LastInsertID carries SQLite's last_insert_rowid for the connection: the
// primary key of the row just inserted, or a stale/zero value if the
// statement was not an insert. Each call is independently autocommitted;
// there is no batch or transaction support.
func (e *Engine) Execute(ctx context.Context, stmt string, args ...any) (Result, error) {
	res, err := e.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return Result{}, &QueryError{Stmt: stmt, Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Result{}, fmt.Errorf("last insert id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("rows affected: %w", err)
	}

	return Result{LastInsertID: id, RowsAffected: n}, nil
}

// Snapshot returns the serialized database image: the bytes of the main
// database file. Valid between statements only: with journal_mode=DELETE
// and autocommit statements the file is complete once Execute returns.
func (e *Engine) Snapshot() ([]byte, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("snapshot image: %w", err)
	}
	return data, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = DELETE",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}
