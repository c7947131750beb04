package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"vcnty/importer"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "vcnty_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRun(id, storeID string, startedAt time.Time) importer.Run {
	return importer.Run{
		ID:         id,
		StoreID:    storeID,
		FileName:   "items.csv",
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(1500 * time.Millisecond),
		Report: importer.Report{
			Total:          3,
			Success:        1,
			Failed:         2,
			Errors:         []string{"Row 2: Missing Title.", "Row 3: Missing Category."},
			IgnoredColumns: []string{"Colour"},
			Submitted:      true,
		},
	}
}

func TestSQLiteStore_RecordAndGetImportRun(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 123000000, time.UTC)
	run := testRun("run-1", "store-1", started)

	if err := store.RecordImport(run); err != nil {
		t.Fatalf("record import: %v", err)
	}

	got, err := store.GetImportRun("run-1")
	if err != nil {
		t.Fatalf("get import run: %v", err)
	}
	if !got.StartedAt.Equal(run.StartedAt) || !got.FinishedAt.Equal(run.FinishedAt) {
		t.Fatalf("unexpected timestamps: %v %v", got.StartedAt, got.FinishedAt)
	}
	if !reflect.DeepEqual(got.Report, run.Report) {
		t.Fatalf("unexpected report:\n got %+v\nwant %+v", got.Report, run.Report)
	}
	if got.StoreID != "store-1" || got.FileName != "items.csv" {
		t.Fatalf("unexpected run: %+v", got)
	}
}

func TestSQLiteStore_GetImportRunNotFound(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.GetImportRun("missing"); !errors.Is(err, ErrImportRunNotFound) {
		t.Fatalf("expected ErrImportRunNotFound, got %v", err)
	}
}

func TestSQLiteStore_RecordImportIgnoresDuplicateID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := testRun("run-1", "store-1", started)
	second := testRun("run-1", "store-2", started)

	if err := store.RecordImport(first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := store.RecordImport(second); err != nil {
		t.Fatalf("record second: %v", err)
	}
	runs, err := store.ListImportRuns(RunFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].StoreID != "store-1" {
		t.Fatalf("expected first copy to be kept, got %+v", runs)
	}
}

func TestSQLiteStore_ListImportRunsFilters(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []importer.Run{
		testRun("a", "store-1", base),
		testRun("b", "store-1", base.Add(24*time.Hour)),
		testRun("c", "store-2", base.Add(48*time.Hour)),
		testRun("d", "store-1", base.Add(72*time.Hour+500*time.Millisecond)),
	}
	for _, run := range runs {
		if err := store.RecordImport(run); err != nil {
			t.Fatalf("record %s: %v", run.ID, err)
		}
	}

	all, err := store.ListImportRuns(RunFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if got := runIDs(all); !reflect.DeepEqual(got, []string{"d", "c", "b", "a"}) {
		t.Fatalf("expected newest first, got %v", got)
	}

	byStore, err := store.ListImportRuns(RunFilter{StoreID: "store-1", Since: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if got := runIDs(byStore); !reflect.DeepEqual(got, []string{"d", "b"}) {
		t.Fatalf("unexpected filtered runs: %v", got)
	}

	limited, err := store.ListImportRuns(RunFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if got := runIDs(limited); !reflect.DeepEqual(got, []string{"d", "c"}) {
		t.Fatalf("unexpected limited runs: %v", got)
	}
}

func TestSQLiteStore_DeleteImportRuns(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		storeID := "store-1"
		if id == "c" {
			storeID = "store-2"
		}
		if err := store.RecordImport(testRun(id, storeID, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	deleted, err := store.DeleteImportRuns("store-1")
	if err != nil {
		t.Fatalf("delete store runs: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted runs, got %d", deleted)
	}

	deleted, err = store.DeleteImportRuns("")
	if err != nil {
		t.Fatalf("delete all runs: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted run, got %d", deleted)
	}
}

func TestOpenSQLite_AddsMissingColumns(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	legacy, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	const legacySchema = `
CREATE TABLE import_runs (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	total INTEGER NOT NULL,
	success INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	submitted INTEGER NOT NULL DEFAULT 0,
	errors TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
INSERT INTO import_runs (id, store_id, file_name, started_at, finished_at, total, success, failed)
VALUES ('old', 'store-1', 'old.csv', '2026-01-01T00:00:00.000000000Z', '2026-01-01T00:00:01.000000000Z', 1, 1, 0);`
	if _, err := legacy.Exec(legacySchema); err != nil {
		t.Fatalf("create legacy schema: %v", err)
	}
	_ = legacy.Close()

	store, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open migrated store: %v", err)
	}
	defer store.Close()

	run, err := store.GetImportRun("old")
	if err != nil {
		t.Fatalf("get legacy run: %v", err)
	}
	if run.Report.DryRun || len(run.Report.IgnoredColumns) != 0 || len(run.Report.Errors) != 0 {
		t.Fatalf("unexpected migrated run: %+v", run.Report)
	}
}

func runIDs(runs []importer.Run) []string {
	ids := make([]string, 0, len(runs))
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	return ids
}
