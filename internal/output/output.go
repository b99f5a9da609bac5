// Package output collects per-document prune results into a run summary
// and renders it for humans or machines.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/jpcorreia/jsonprune/internal/prune"
)

// DocumentResult records what one document went through.
type DocumentResult struct {
	Input    string        `json:"input"`
	Report   prune.Report  `json:"report"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Summary aggregates a whole run. RunID ties log lines, reports and
// pruned output of the same invocation together.
type Summary struct {
	RunID        string           `json:"run_id"`
	StartedAt    time.Time        `json:"started_at"`
	Duration     time.Duration    `json:"duration_ns"`
	Documents    []DocumentResult `json:"documents"`
	TotalMatched int              `json:"total_matched"`
	TotalRemoved int              `json:"total_removed"`
	Failed       int              `json:"failed"`
}

// NewSummary starts an empty summary with a fresh run identifier.
func NewSummary() *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Add records one document result and updates the aggregate counters.
func (s *Summary) Add(result DocumentResult) {
	s.Documents = append(s.Documents, result)
	s.TotalMatched += result.Report.Matched
	s.TotalRemoved += result.Report.Removed
	if result.Error != "" {
		s.Failed++
	}
}

// Finish stamps the total duration.
func (s *Summary) Finish() {
	s.Duration = time.Since(s.StartedAt)
}

// Succeeded reports whether every document was processed without error.
func (s *Summary) Succeeded() bool {
	return s.Failed == 0
}
