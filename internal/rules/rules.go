// Package rules loads prune rule files. A rule file is a YAML list of
// queries; each entry names the syntax it is written in and may carry a
// free-form description used in reports.
package rules

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

var (
	ErrNoRules       = errors.New("rule file contains no rules")
	ErrEmptyQuery    = errors.New("rule query cannot be empty")
	ErrUnknownSyntax = errors.New("unknown rule syntax")
)

// Syntax selects the query language of a rule.
type Syntax string

const (
	// SyntaxDialect is the built-in query dialect, the default.
	SyntaxDialect Syntax = "dialect"
	// SyntaxJSONPath is RFC 9535 JSONPath, delegated to a conforming
	// library.
	SyntaxJSONPath Syntax = "jsonpath"
)

// Rule is one prune instruction: every node the query matches is removed
// from the document.
type Rule struct {
	Query       string `yaml:"query"`
	Syntax      Syntax `yaml:"syntax,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Load decodes a YAML rule list and validates each entry. An omitted
// syntax defaults to the dialect.
func Load(r io.Reader) ([]Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var loaded []Rule
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(loaded) == 0 {
		return nil, ErrNoRules
	}

	for i := range loaded {
		if loaded[i].Syntax == "" {
			loaded[i].Syntax = SyntaxDialect
		}
		if err := loaded[i].validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return loaded, nil
}

// LoadFile reads and decodes one rule file.
func LoadFile(filename string) ([]Rule, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open rule file: %w", err)
	}
	defer f.Close()

	loaded, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", filename, err)
	}
	return loaded, nil
}

func (r *Rule) validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	switch r.Syntax {
	case SyntaxDialect, SyntaxJSONPath:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSyntax, r.Syntax)
	}
}

// Inline builds dialect rules from query strings given on the command
// line.
func Inline(queries []string) []Rule {
	out := make([]Rule, 0, len(queries))
	for _, q := range queries {
		out = append(out, Rule{Query: q, Syntax: SyntaxDialect})
	}
	return out
}
