package pathquery

import (
	"encoding/json"
	"strconv"
	"strings"
)

type movement uint8

const (
	movRoot movement = iota
	movCurrent
	movChildren
	movDescendants
)

type selKind uint8

const (
	selAnchor selKind = iota
	selName
	selWildcard
	selIndex
	selNested
)

type cmpOp uint8

const (
	opNone cmpOp = iota // no predicate attached
	opExists            // bare existence test, no right-hand side
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opHasPrefix
	opHasSuffix
	opContains
)

func (op cmpOp) String() string {
	switch op {
	case opEq:
		return "=="
	case opNe:
		return "!="
	case opLt:
		return "<"
	case opLe:
		return "<="
	case opGt:
		return ">"
	case opGe:
		return ">="
	case opHasPrefix:
		return "^="
	case opHasSuffix:
		return "$="
	case opContains:
		return "*="
	}
	return ""
}

// step is one unit of a compiled plan: a movement, a selector, and an
// optional predicate. names holds a literal key or an alternation of keys;
// nested holds the sub-plan of a bracket predicate. The two are mutually
// exclusive.
type step struct {
	mov    movement
	sel    selKind
	names  []string
	index  int
	nested *Plan
	op     cmpOp
	rhs    any
	not    bool
}

// Plan is the immutable result of compiling a query: an ordered sequence of
// steps. A plan may be evaluated repeatedly and concurrently against
// different documents.
type Plan struct {
	source string
	steps  []step
}

// Source returns the query text the plan was compiled from.
func (p *Plan) Source() string {
	if p == nil {
		return ""
	}
	return p.source
}

// String renders the plan in a stable textual form for logging and
// diffing. The rendering is not guaranteed to compile back into an
// identical plan.
func (p *Plan) String() string {
	if p == nil {
		return "<no plan>"
	}
	var b strings.Builder
	for i := range p.steps {
		if i > 0 {
			b.WriteByte(' ')
		}
		p.steps[i].writeTo(&b)
	}
	return b.String()
}

func (st *step) writeTo(b *strings.Builder) {
	switch st.mov {
	case movRoot:
		b.WriteByte('$')
		return
	case movCurrent:
		b.WriteByte('@')
		return
	}

	prefix := "."
	if st.mov == movDescendants {
		prefix = ".."
	}

	switch st.sel {
	case selWildcard:
		b.WriteString(prefix)
		b.WriteByte('*')
	case selName:
		b.WriteString(prefix)
		b.WriteString(strings.Join(st.names, "|"))
	case selIndex:
		if st.mov == movDescendants {
			b.WriteString(prefix)
		}
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(st.index))
		b.WriteByte(']')
	case selNested:
		if st.mov == movDescendants {
			b.WriteString(prefix)
		}
		b.WriteString("[?(")
		if st.not {
			b.WriteByte('!')
		}
		b.WriteString(st.nested.String())
		b.WriteString(")]")
	}

	switch {
	case st.op == opExists:
		b.WriteString("?")
	case st.op != opNone:
		b.WriteString(st.op.String())
		if raw, err := json.Marshal(st.rhs); err == nil {
			b.Write(raw)
		}
	}
}

// Key addresses one level of a document: an object member name or an array
// index.
type Key struct {
	Name    string
	Index   int
	IsIndex bool
}

// NameKey returns a Key addressing an object member.
func NameKey(name string) Key {
	return Key{Name: name}
}

// IndexKey returns a Key addressing an array element.
func IndexKey(index int) Key {
	return Key{Index: index, IsIndex: true}
}

func (k Key) String() string {
	if k.IsIndex {
		return strconv.Itoa(k.Index)
	}
	return k.Name
}

// Path is an ordered sequence of keys locating a node relative to the
// document root. The zero-length path denotes the root itself. Paths are
// immutable snapshots; extending a path never modifies the original.
type Path []Key

// extend returns a copy of p with key appended.
func (p Path) extend(k Key) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = k
	return next
}

// Equal reports whether both paths address the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path in canonical bracket form rooted at '$', for
// example $['items'][2]['name'].
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, k := range p {
		if k.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(k.Index))
			b.WriteByte(']')
			continue
		}
		name := strings.ReplaceAll(k.Name, `\`, `\\`)
		name = strings.ReplaceAll(name, `'`, `\'`)
		b.WriteString("['")
		b.WriteString(name)
		b.WriteString("']")
	}
	return b.String()
}
