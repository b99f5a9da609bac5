// Package prune applies compiled rules to a document, removing every
// matched node. The query engine itself never mutates; all writes happen
// here, through the container handles returned by path resolution.
package prune

import (
	"sort"

	"github.com/theory/jsonpath"
	"github.com/theory/jsonpath/spec"

	"github.com/jpcorreia/jsonprune/internal/document"
	"github.com/jpcorreia/jsonprune/internal/pathquery"
	"github.com/jpcorreia/jsonprune/internal/rules"
)

// CompiledRule pairs a rule with its compiled query. A rule that failed
// to compile matches nothing; Warning carries the compile diagnostic.
type CompiledRule struct {
	Rule    rules.Rule
	Warning string

	plan     *pathquery.Plan
	standard *jsonpath.Path
}

// CompileRules compiles every rule. Compile failures do not abort the
// batch; the failing rule degrades to a match-nothing rule so one bad
// query cannot take down a pipeline.
func CompileRules(rs []rules.Rule) []CompiledRule {
	compiled := make([]CompiledRule, 0, len(rs))
	for _, r := range rs {
		cr := CompiledRule{Rule: r}
		switch r.Syntax {
		case rules.SyntaxJSONPath:
			p, err := jsonpath.Parse(r.Query)
			if err != nil {
				cr.Warning = err.Error()
			} else {
				cr.standard = p
			}
		default:
			p, err := pathquery.Compile(r.Query)
			if err != nil {
				cr.Warning = err.Error()
			} else {
				cr.plan = p
			}
		}
		compiled = append(compiled, cr)
	}
	return compiled
}

// Plan returns the compiled dialect plan, or nil for standard-syntax and
// match-nothing rules. Exposed for debug output.
func (cr *CompiledRule) Plan() *pathquery.Plan {
	return cr.plan
}

// find returns the paths the rule matches in root, in traversal order.
func (cr *CompiledRule) find(root any) []pathquery.Path {
	switch {
	case cr.plan != nil:
		return cr.plan.Evaluate(root)
	case cr.standard != nil:
		return cr.findStandard(root)
	default:
		return nil
	}
}

// findStandard runs an RFC 9535 query and converts its normalized result
// paths into engine paths, element by element, so member names survive
// unchanged regardless of how their textual rendering would escape them.
func (cr *CompiledRule) findStandard(root any) []pathquery.Path {
	located := cr.standard.SelectLocated(document.Generic(root))

	var out []pathquery.Path
	for _, node := range located {
		path, ok := enginePath(node.Path)
		if !ok || len(path) == 0 {
			// the root has no container to delete from
			continue
		}
		if res := pathquery.Resolve(root, path); res.Owned {
			out = append(out, path)
		}
	}
	return out
}

// enginePath converts a normalized result path into an engine path.
func enginePath(np spec.NormalizedPath) (pathquery.Path, bool) {
	out := make(pathquery.Path, 0, len(np))
	for _, elem := range np {
		switch e := elem.(type) {
		case spec.Name:
			out = append(out, pathquery.NameKey(string(e)))
		case spec.Index:
			out = append(out, pathquery.IndexKey(int(e)))
		default:
			return nil, false
		}
	}
	return out, true
}

// RuleStat summarizes one rule's effect on a document.
type RuleStat struct {
	Query       string   `json:"query"`
	Syntax      string   `json:"syntax"`
	Description string   `json:"description,omitempty"`
	Warning     string   `json:"warning,omitempty"`
	Matched     []string `json:"matched,omitempty"`
	Removed     int      `json:"removed"`
}

// Report describes a full prune pass over one document.
type Report struct {
	Rules   []RuleStat `json:"rules"`
	Matched int        `json:"matched"`
	Removed int        `json:"removed"`
}

// Apply removes every node matched by the compiled rules from root and
// returns what happened. With dryRun set, matches are reported but
// nothing is deleted.
func Apply(root any, compiled []CompiledRule, dryRun bool) Report {
	report := Report{Rules: make([]RuleStat, 0, len(compiled))}

	for i := range compiled {
		cr := &compiled[i]
		stat := RuleStat{
			Query:       cr.Rule.Query,
			Syntax:      string(cr.Rule.Syntax),
			Description: cr.Rule.Description,
			Warning:     cr.Warning,
		}

		matches := cr.find(root)
		for _, path := range matches {
			stat.Matched = append(stat.Matched, path.String())
		}
		report.Matched += len(matches)

		if !dryRun {
			stat.Removed = deleteAll(root, matches)
			report.Removed += stat.Removed
		}

		report.Rules = append(report.Rules, stat)
	}
	return report
}

// deleteAll removes the nodes at paths from root and returns how many
// were actually deleted. A query may match the same node more than once;
// deleting a duplicate path would hit whatever shifted into its position,
// so each distinct path is deleted at most once. Deeper paths are removed
// first, and siblings within one array in descending index order, so a
// removal never shifts a path that is still pending.
func deleteAll(root any, paths []pathquery.Path) int {
	seen := make(map[string]bool, len(paths))
	ordered := make([]pathquery.Path, 0, len(paths))
	for _, path := range paths {
		key := path.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		ordered = append(ordered, path)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return laterInContainer(ordered[i], ordered[j])
	})

	removed := 0
	for _, path := range ordered {
		res := pathquery.Resolve(root, path)
		if !res.Owned {
			continue
		}
		switch c := res.Container.(type) {
		case *document.Object:
			if c.Delete(res.Key.Name) {
				removed++
			}
		case *document.Array:
			if c.Delete(res.Key.Index) {
				removed++
			}
		}
	}
	return removed
}

// laterInContainer orders equal-length paths so that higher array indices
// under the same parent come first.
func laterInContainer(a, b pathquery.Path) bool {
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if a[i].IsIndex && b[i].IsIndex {
			return a[i].Index > b[i].Index
		}
		return false
	}
	return false
}
