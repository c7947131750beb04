package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vcnty/importer"
)

type SQLiteStore struct {
	db *sql.DB
}

var ErrImportRunNotFound = errors.New("import run not found")

// timestampLayout has a fixed width so stored values sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunFilter narrows ListImportRuns. Zero values disable a filter.
type RunFilter struct {
	StoreID string
	Since   time.Time
	Limit   int
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	total INTEGER NOT NULL CHECK(total >= 0),
	success INTEGER NOT NULL CHECK(success >= 0),
	failed INTEGER NOT NULL CHECK(failed >= 0),
	submitted INTEGER NOT NULL DEFAULT 0,
	errors TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_import_runs_store_started ON import_runs(store_id, started_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	// Columns added after the first release.
	if err := s.ensureColumn("ignored_columns", `TEXT NOT NULL DEFAULT '[]'`); err != nil {
		return err
	}
	if err := s.ensureColumn("dry_run", `INTEGER NOT NULL DEFAULT 0`); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(column, definition string) error {
	rows, err := s.db.Query(`PRAGMA table_info(import_runs);`)
	if err != nil {
		return fmt.Errorf("query table info: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		if strings.EqualFold(name, column) {
			found = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}
	if found {
		return nil
	}
	// Release the PRAGMA cursor before altering the table.
	rows.Close()

	stmt := fmt.Sprintf(`ALTER TABLE import_runs ADD COLUMN %s %s;`, column, definition)
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("add %s column: %w", column, err)
	}
	return nil
}

// RecordImport stores a finished run. Recording the same run ID twice keeps
// the first copy.
func (s *SQLiteStore) RecordImport(run importer.Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("import run id is required")
	}

	errorsJSON, err := encodeStrings(run.Report.Errors)
	if err != nil {
		return err
	}
	ignoredJSON, err := encodeStrings(run.Report.IgnoredColumns)
	if err != nil {
		return err
	}

	const insertStmt = `
INSERT OR IGNORE INTO import_runs (
	id,
	store_id,
	file_name,
	started_at,
	finished_at,
	total,
	success,
	failed,
	submitted,
	dry_run,
	errors,
	ignored_columns
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err = s.db.Exec(
		insertStmt,
		run.ID,
		run.StoreID,
		run.FileName,
		run.StartedAt.UTC().Format(timestampLayout),
		run.FinishedAt.UTC().Format(timestampLayout),
		run.Report.Total,
		run.Report.Success,
		run.Report.Failed,
		boolToInt(run.Report.Submitted),
		boolToInt(run.Report.DryRun),
		errorsJSON,
		ignoredJSON,
	)
	if err != nil {
		return fmt.Errorf("insert import run %s: %w", run.ID, err)
	}
	return nil
}

const selectRunColumns = `
SELECT
	id,
	store_id,
	file_name,
	started_at,
	finished_at,
	total,
	success,
	failed,
	submitted,
	dry_run,
	errors,
	ignored_columns
FROM import_runs`

// ListImportRuns returns runs newest first.
func (s *SQLiteStore) ListImportRuns(filter RunFilter) ([]importer.Run, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
		conditions = append(conditions, "store_id = ?")
		args = append(args, storeID)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, filter.Since.UTC().Format(timestampLayout))
	}

	query := selectRunColumns
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\nORDER BY started_at DESC, id"
	if filter.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]importer.Run, 0, 32)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteStore) GetImportRun(id string) (importer.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return importer.Run{}, errors.New("import run id is required")
	}

	run, err := scanRun(s.db.QueryRow(selectRunColumns+"\nWHERE id = ?;", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return importer.Run{}, ErrImportRunNotFound
		}
		return importer.Run{}, err
	}
	return run, nil
}

// DeleteImportRuns removes the history of one store, or all history when
// storeID is blank.
func (s *SQLiteStore) DeleteImportRuns(storeID string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if storeID = strings.TrimSpace(storeID); storeID == "" {
		res, err = s.db.Exec(`DELETE FROM import_runs;`)
	} else {
		res, err = s.db.Exec(`DELETE FROM import_runs WHERE store_id = ?;`, storeID)
	}
	if err != nil {
		return 0, fmt.Errorf("delete import runs: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return rows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (importer.Run, error) {
	var (
		run         importer.Run
		startedRaw  string
		finishedRaw string
		submitted   int
		dryRun      int
		errorsRaw   string
		ignoredRaw  string
	)
	err := scanner.Scan(
		&run.ID,
		&run.StoreID,
		&run.FileName,
		&startedRaw,
		&finishedRaw,
		&run.Report.Total,
		&run.Report.Success,
		&run.Report.Failed,
		&submitted,
		&dryRun,
		&errorsRaw,
		&ignoredRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return importer.Run{}, err
		}
		return importer.Run{}, fmt.Errorf("scan import run: %w", err)
	}

	if run.StartedAt, err = time.Parse(timestampLayout, startedRaw); err != nil {
		return importer.Run{}, fmt.Errorf("parse started_at %q: %w", startedRaw, err)
	}
	if run.FinishedAt, err = time.Parse(timestampLayout, finishedRaw); err != nil {
		return importer.Run{}, fmt.Errorf("parse finished_at %q: %w", finishedRaw, err)
	}
	run.Report.Submitted = submitted != 0
	run.Report.DryRun = dryRun != 0
	if run.Report.Errors, err = decodeStrings(errorsRaw); err != nil {
		return importer.Run{}, err
	}
	if run.Report.IgnoredColumns, err = decodeStrings(ignoredRaw); err != nil {
		return importer.Run{}, err
	}
	return run, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(encoded), nil
}

func decodeStrings(raw string) ([]string, error) {
	values := make([]string, 0)
	if strings.TrimSpace(raw) == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return values, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
