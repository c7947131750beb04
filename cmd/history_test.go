package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"vcnty/importer"
)

func sampleRun() importer.Run {
	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	return importer.Run{
		ID:         "6a1f4c2e-0000-4000-8000-000000000001",
		StoreID:    "store-1",
		FileName:   "items.csv",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Report: importer.Report{
			Total:          3,
			Success:        1,
			Failed:         2,
			Errors:         []string{"Row 2: Missing Title.", "Row 3: Invalid price format."},
			IgnoredColumns: []string{"Colour"},
			Submitted:      true,
		},
	}
}

func TestPrintRunList(t *testing.T) {
	t.Parallel()

	var empty bytes.Buffer
	printRunList(&empty, nil)
	if !strings.Contains(empty.String(), "No import runs found.") {
		t.Fatalf("unexpected empty output: %q", empty.String())
	}

	dryRun := sampleRun()
	dryRun.ID = "6a1f4c2e-0000-4000-8000-000000000002"
	dryRun.Report.DryRun = true
	dryRun.Report.Submitted = false

	var out bytes.Buffer
	printRunList(&out, []importer.Run{sampleRun(), dryRun})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", out.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "store-1") || !strings.HasSuffix(lines[1], "items.csv") {
		t.Fatalf("unexpected list:\n%s", out.String())
	}
	if !strings.HasSuffix(lines[2], "items.csv (dry run)") {
		t.Fatalf("expected dry run marker:\n%s", out.String())
	}
}

func TestPrintRunDetail(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printRunDetail(&out, sampleRun())

	text := out.String()
	for _, want := range []string{
		"Run:      6a1f4c2e-0000-4000-8000-000000000001",
		"Duration: 1.5s",
		"Mode:     submitted",
		"Total: 3, Success: 1, Failed: 2",
		"Ignored columns: Colour",
		"  - Row 2: Missing Title.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}
