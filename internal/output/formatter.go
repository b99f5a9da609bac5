package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"
)

// Formatter renders a run summary.
type Formatter interface {
	Format(s *Summary) error
}

// TextFormatter writes a human-readable summary, one line per document
// plus aggregate counters.
type TextFormatter struct {
	writer io.Writer
}

// NewText creates a text formatter writing to w.
func NewText(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the summary in text form.
func (f *TextFormatter) Format(s *Summary) error {
	for _, doc := range s.Documents {
		status := fmt.Sprintf("%d matched, %d removed", doc.Report.Matched, doc.Report.Removed)
		if doc.Error != "" {
			status = "failed: " + doc.Error
		}
		if _, err := fmt.Fprintf(f.writer, "%s: %s (%d ms)\n",
			doc.Input, status, doc.Duration.Milliseconds()); err != nil {
			return err
		}
		for _, rule := range doc.Report.Rules {
			if rule.Warning == "" {
				continue
			}
			if _, err := fmt.Fprintf(f.writer, "  warning: rule %q: %s\n", rule.Query, rule.Warning); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(f.writer, "run %s: %d document(s), %d matched, %d removed, %d failed in %d ms\n",
		s.RunID, len(s.Documents), s.TotalMatched, s.TotalRemoved, s.Failed,
		s.Duration.Milliseconds()); err != nil {
		return err
	}
	return nil
}

// JSONFormatter writes the summary as an indented JSON report.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSON creates a JSON formatter writing to w.
func NewJSON(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Format writes the summary as JSON.
func (f *JSONFormatter) Format(s *Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if _, err := f.writer.Write(pretty.Pretty(data)); err != nil {
		return err
	}
	return nil
}
