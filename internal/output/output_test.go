package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jpcorreia/jsonprune/internal/prune"
)

func sampleSummary() *Summary {
	s := NewSummary()
	s.Add(DocumentResult{
		Input: "a.json",
		Report: prune.Report{
			Rules: []prune.RuleStat{
				{Query: "$..password", Syntax: "dialect", Matched: []string{"$['password']"}, Removed: 1},
			},
			Matched: 1,
			Removed: 1,
		},
		Duration: 3 * time.Millisecond,
	})
	s.Add(DocumentResult{Input: "b.json", Error: "decode JSON: unexpected EOF"})
	s.Finish()
	return s
}

func TestSummary_Aggregates(t *testing.T) {
	s := sampleSummary()

	if s.RunID == "" {
		t.Error("RunID is empty")
	}
	if s.TotalMatched != 1 || s.TotalRemoved != 1 {
		t.Errorf("totals = %d matched, %d removed, want 1/1", s.TotalMatched, s.TotalRemoved)
	}
	if s.Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Failed)
	}
	if s.Succeeded() {
		t.Error("Succeeded() = true with a failed document")
	}
}

func TestSummary_DistinctRunIDs(t *testing.T) {
	if NewSummary().RunID == NewSummary().RunID {
		t.Error("consecutive summaries share a run identifier")
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewText(&buf).Format(sampleSummary()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{
		"a.json: 1 matched, 1 removed",
		"b.json: failed: decode JSON: unexpected EOF",
		"2 document(s), 1 matched, 1 removed, 1 failed",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text output missing %q:\n%s", want, got)
		}
	}
}

func TestTextFormatter_Warnings(t *testing.T) {
	s := NewSummary()
	s.Add(DocumentResult{
		Input: "a.json",
		Report: prune.Report{
			Rules: []prune.RuleStat{{Query: "broken", Warning: "syntax error"}},
		},
	})
	s.Finish()

	var buf bytes.Buffer
	if err := NewText(&buf).Format(s); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `warning: rule "broken": syntax error`) {
		t.Errorf("text output missing warning:\n%s", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON(&buf).Format(sampleSummary()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.RunID == "" {
		t.Error("decoded report has no run_id")
	}
	if len(decoded.Documents) != 2 {
		t.Errorf("decoded report has %d documents, want 2", len(decoded.Documents))
	}
}
