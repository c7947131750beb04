package importer

import (
	"fmt"
	"time"
)

// Report summarizes one import run for display.
type Report struct {
	Total          int      `json:"total"`
	Success        int      `json:"success"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors"`
	IgnoredColumns []string `json:"ignoredColumns,omitempty"`
	Submitted      bool     `json:"submitted"`
	DryRun         bool     `json:"dryRun,omitempty"`
}

// Consistent checks the count invariant.
func (r Report) Consistent() bool {
	return r.Success+r.Failed == r.Total && r.Success >= 0 && r.Failed >= 0
}

// Describe renders a one-line summary.
func (r Report) Describe() string {
	return fmt.Sprintf("Total: %d, Success: %d, Failed: %d", r.Total, r.Success, r.Failed)
}

// Run is a finished import kept in local history.
type Run struct {
	ID         string
	StoreID    string
	FileName   string
	StartedAt  time.Time
	FinishedAt time.Time
	Report     Report
}
