package pathquery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// test evaluates the step's predicate against the node addressed by path.
// A step without a predicate matches unconditionally. A comparison against
// a key the container does not own fails regardless of operator.
func (st *step) test(root any, path Path) bool {
	if st.op == opNone {
		return true
	}
	res := Resolve(root, path)
	if st.op == opExists {
		return res.Owned
	}
	if !res.Owned {
		return false
	}
	return compare(st.op, res.Value, st.rhs)
}

func compare(op cmpOp, value, literal any) bool {
	switch op {
	case opEq:
		return strictEqual(value, literal)
	case opNe:
		return !strictEqual(value, literal)
	case opLt, opLe, opGt, opGe:
		return comparedOrder(op, value, literal)
	case opHasPrefix:
		return strings.HasPrefix(stringify(value), stringify(literal))
	case opHasSuffix:
		return strings.HasSuffix(stringify(value), stringify(literal))
	case opContains:
		return strings.Contains(stringify(value), stringify(literal))
	}
	return false
}

// strictEqual compares scalars without cross-type coercion. Numbers
// compare numerically regardless of their textual representation.
func strictEqual(a, b any) bool {
	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

// comparedOrder orders numbers numerically and strings lexicographically;
// every other pairing is unordered and fails.
func comparedOrder(op cmpOp, a, b any) bool {
	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		if !ok {
			return false
		}
		switch op {
		case opLt:
			return an < bn
		case opLe:
			return an <= bn
		case opGt:
			return an > bn
		case opGe:
			return an >= bn
		}
		return false
	}

	as, ok := a.(string)
	if !ok {
		return false
	}
	bs, ok := b.(string)
	if !ok {
		return false
	}
	switch op {
	case opLt:
		return as < bs
	case opLe:
		return as <= bs
	case opGt:
		return as > bs
	case opGe:
		return as >= bs
	}
	return false
}

func toFloat(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// stringify renders a scalar as text for the prefix, suffix and substring
// operators, which coerce both sides before comparing.
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return string(value)
	case bool:
		return strconv.FormatBool(value)
	case nil:
		return "null"
	default:
		return fmt.Sprint(value)
	}
}
