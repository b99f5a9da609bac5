package pathquery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Compile parses a query into an immutable plan. The parse is a single
// linear pass; recursion happens only for bracketed sub-queries, so the
// recursion depth equals the bracket nesting depth of the query text.
func Compile(query string) (*Plan, error) {
	steps, end, err := compile(query, 0)
	if err != nil {
		return nil, err
	}
	if end != len(query) {
		return nil, fmt.Errorf("%w: unexpected input at position %d in %q", ErrSyntax, end, query)
	}
	return &Plan{source: query, steps: steps}, nil
}

// MustCompile compiles a query and panics when it does not parse. Use only
// for constant queries known to be valid.
func MustCompile(query string) *Plan {
	p, err := Compile(query)
	if err != nil {
		panic(fmt.Sprintf("pathquery.MustCompile(%q): %v", query, err))
	}
	return p
}

// compile parses one (sub)query starting at pos and returns its steps and
// the position where parsing stopped. A sub-query stops at the ')' of the
// enclosing bracket predicate, which the caller consumes. A valid (sub)plan
// has an anchor step plus at least one accessor.
func compile(query string, pos int) ([]step, int, error) {
	pos = skipSpace(query, pos)
	if pos >= len(query) {
		return nil, pos, fmt.Errorf("%w: empty query", ErrSyntax)
	}

	var steps []step
	switch query[pos] {
	case '$':
		steps = append(steps, step{mov: movRoot, sel: selAnchor})
	case '@':
		steps = append(steps, step{mov: movCurrent, sel: selAnchor})
	default:
		return nil, pos, fmt.Errorf("%w: query must start with '$' or '@'", ErrSyntax)
	}
	pos++

	for {
		pos = skipSpace(query, pos)
		if pos >= len(query) || query[pos] == ')' {
			break
		}

		if op, width := matchOperator(query, pos); op != opNone {
			next, err := attachComparison(query, pos+width, op, steps)
			if err != nil {
				return nil, pos, err
			}
			// a comparison binds to the previous step and ends this (sub)plan
			pos = next
			break
		}

		st, next, err := parseAccessor(query, pos)
		if err != nil {
			return nil, pos, err
		}
		steps = append(steps, st)
		pos = next
	}

	if len(steps) < 2 {
		return nil, pos, fmt.Errorf("%w: query %q needs at least one accessor", ErrSyntax, query)
	}
	return steps, pos, nil
}

func parseAccessor(query string, pos int) (step, int, error) {
	switch {
	case strings.HasPrefix(query[pos:], ".."):
		next := skipSpace(query, pos+2)
		if next < len(query) && query[next] == '[' {
			return parseBracket(query, next, movDescendants)
		}
		return parseDotName(query, next, movDescendants)
	case query[pos] == '.':
		return parseDotName(query, pos+1, movChildren)
	case query[pos] == '[':
		return parseBracket(query, pos, movChildren)
	default:
		return step{}, pos, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, query[pos], pos)
	}
}

func parseDotName(query string, pos int, mov movement) (step, int, error) {
	if pos < len(query) && query[pos] == '*' {
		return step{mov: mov, sel: selWildcard}, pos + 1, nil
	}
	if pos >= len(query) || !isIdentStart(query[pos]) {
		return step{}, pos, fmt.Errorf("%w: expected identifier at position %d", ErrSyntax, pos)
	}
	start := pos
	pos++
	for pos < len(query) && isIdentPart(query[pos]) {
		pos++
	}
	return step{mov: mov, sel: selName, names: []string{query[start:pos]}}, pos, nil
}

func parseBracket(query string, pos int, mov movement) (step, int, error) {
	pos = skipSpace(query, pos+1)
	if pos >= len(query) {
		return step{}, pos, fmt.Errorf("%w: unterminated bracket selector", ErrSyntax)
	}

	switch {
	case query[pos] == '*':
		return closeBracket(query, pos+1, step{mov: mov, sel: selWildcard})
	case query[pos] == '\'':
		name, next, err := parseQuotedName(query, pos)
		if err != nil {
			return step{}, pos, err
		}
		return closeBracket(query, next, step{mov: mov, sel: selName, names: []string{name}})
	case query[pos] == '?':
		return parseNested(query, pos, mov)
	case query[pos] == '-' || isDigit(query[pos]):
		index, next, err := parseIndex(query, pos)
		if err != nil {
			return step{}, pos, err
		}
		return closeBracket(query, next, step{mov: mov, sel: selIndex, index: index})
	default:
		return step{}, pos, fmt.Errorf("%w: unsupported bracket selector at position %d", ErrSyntax, pos)
	}
}

func closeBracket(query string, pos int, st step) (step, int, error) {
	pos = skipSpace(query, pos)
	if pos >= len(query) || query[pos] != ']' {
		return step{}, pos, fmt.Errorf("%w: expected ']' at position %d", ErrSyntax, pos)
	}
	return st, pos + 1, nil
}

// parseNested compiles a [?(...)] bracket predicate. The sub-query is
// compiled with the same grammar as the top level; its final step, unless
// it already carries a comparison or another nested predicate, becomes an
// existence test so the sub-plan only matches keys the document owns.
func parseNested(query string, pos int, mov movement) (step, int, error) {
	if pos+1 >= len(query) || query[pos+1] != '(' {
		return step{}, pos, fmt.Errorf("%w: expected '(' after '?' at position %d", ErrSyntax, pos)
	}
	pos = skipSpace(query, pos+2)

	not := false
	if pos < len(query) && query[pos] == '!' {
		not = true
		pos++
	}

	sub, next, err := compile(query, pos)
	if err != nil {
		return step{}, pos, err
	}
	if !strings.HasPrefix(query[next:], ")]") {
		return step{}, next, fmt.Errorf("%w: expected \")]\" at position %d", ErrSyntax, next)
	}

	if last := &sub[len(sub)-1]; last.op == opNone && last.sel != selNested {
		last.op = opExists
	}

	nested := &Plan{source: strings.TrimSpace(query[pos:next]), steps: sub}
	return step{mov: mov, sel: selNested, nested: nested, not: not}, next + 2, nil
}

// parseQuotedName decodes a single-quoted bracket name. A backslash
// followed by a quote or a backslash yields the bare character; any other
// escape sequence is preserved verbatim.
func parseQuotedName(query string, pos int) (string, int, error) {
	var b strings.Builder
	for i := pos + 1; i < len(query); i++ {
		switch query[i] {
		case '\'':
			return b.String(), i + 1, nil
		case '\\':
			i++
			if i >= len(query) {
				return "", i, fmt.Errorf("%w: unterminated escape in quoted name", ErrSyntax)
			}
			if query[i] != '\'' && query[i] != '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(query[i])
		default:
			b.WriteByte(query[i])
		}
	}
	return "", len(query), fmt.Errorf("%w: unterminated quoted name", ErrSyntax)
}

func parseIndex(query string, pos int) (int, int, error) {
	start := pos
	if query[pos] == '-' {
		pos++
	}
	digits := pos
	for pos < len(query) && isDigit(query[pos]) {
		pos++
	}
	if pos == digits {
		return 0, pos, fmt.Errorf("%w: expected digits at position %d", ErrSyntax, digits)
	}
	index, err := strconv.Atoi(query[start:pos])
	if err != nil {
		return 0, pos, fmt.Errorf("%w: invalid index %q", ErrSyntax, query[start:pos])
	}
	return index, pos, nil
}

// attachComparison parses "op literal" and binds it to the previous step.
// The literal text runs up to the ")]" closing the enclosing bracket
// predicate. A right-hand side that fails to decode as a JSON literal
// downgrades the comparison to a bare existence test instead of failing
// the compile.
func attachComparison(query string, pos int, op cmpOp, steps []step) (int, error) {
	if len(steps) < 2 {
		return pos, fmt.Errorf("%w: comparison at position %d has no preceding accessor", ErrSyntax, pos)
	}
	end := strings.Index(query[pos:], ")]")
	if end < 0 {
		return pos, fmt.Errorf("%w: comparison at position %d is not closed by \")]\"", ErrSyntax, pos)
	}

	last := &steps[len(steps)-1]
	if rhs, err := decodeLiteral(strings.TrimSpace(query[pos : pos+end])); err != nil {
		last.op = opExists
	} else {
		last.op = op
		last.rhs = rhs
	}
	return pos + end, nil
}

func decodeLiteral(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after literal %q", raw)
	}
	return v, nil
}

func matchOperator(query string, pos int) (cmpOp, int) {
	rest := query[pos:]
	switch {
	case strings.HasPrefix(rest, "=="):
		return opEq, 2
	case strings.HasPrefix(rest, "!="):
		return opNe, 2
	case strings.HasPrefix(rest, "<="):
		return opLe, 2
	case strings.HasPrefix(rest, ">="):
		return opGe, 2
	case strings.HasPrefix(rest, "^="):
		return opHasPrefix, 2
	case strings.HasPrefix(rest, "$="):
		return opHasSuffix, 2
	case strings.HasPrefix(rest, "*="):
		return opContains, 2
	case strings.HasPrefix(rest, "<"):
		return opLt, 1
	case strings.HasPrefix(rest, ">"):
		return opGt, 1
	}
	return opNone, 0
}

func skipSpace(query string, pos int) int {
	for pos < len(query) && (query[pos] == ' ' || query[pos] == '\t') {
		pos++
	}
	return pos
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
