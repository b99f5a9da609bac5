package pathquery

import (
	"github.com/jpcorreia/jsonprune/internal/document"
)

// Evaluate runs the plan against root and returns the matching paths in
// traversal order. Duplicates are possible when a query logically visits a
// node more than once; no deduplication is performed. A nil plan matches
// nothing. The document is only read, never retained past the call.
func (p *Plan) Evaluate(root any) []Path {
	if p == nil || len(p.steps) == 0 {
		return nil
	}
	return p.evaluate(root, nil)
}

// evaluate runs the steps with entry bound to any current-node anchor,
// which is how a nested sub-plan is scoped to the candidate it tests.
func (p *Plan) evaluate(root any, entry Path) []Path {
	var candidates []Path
	for i := range p.steps {
		st := &p.steps[i]
		switch st.mov {
		case movRoot:
			candidates = []Path{{}}
		case movCurrent:
			candidates = []Path{entry}
		case movChildren, movDescendants:
			candidates = expand(root, st, candidates)
		}
	}
	return candidates
}

// expand replaces the candidate set with every extension that matches the
// step's selector and passes its predicate. Shape mismatches prune only
// the offending candidate, never the whole evaluation.
func expand(root any, st *step, candidates []Path) []Path {
	deep := st.mov == movDescendants
	var out []Path

	for _, candidate := range candidates {
		node := valueAt(root, candidate)

		switch st.sel {
		case selWildcard:
			if deep {
				for path := range descendants(node, candidate) {
					out = appendIfKept(out, root, st, path)
				}
			} else {
				for path := range children(node, candidate) {
					out = appendIfKept(out, root, st, path)
				}
			}
		case selIndex:
			if deep {
				for ownerPath, owner := range selfAndDescendants(node, candidate) {
					out = appendIndex(out, root, st, owner, ownerPath)
				}
			} else {
				out = appendIndex(out, root, st, node, candidate)
			}
		case selName:
			if deep {
				for ownerPath, owner := range selfAndDescendants(node, candidate) {
					obj, ok := owner.(*document.Object)
					if !ok {
						continue
					}
					for _, name := range st.names {
						if _, owned := obj.Get(name); owned {
							out = appendIfKept(out, root, st, ownerPath.extend(NameKey(name)))
						}
					}
				}
			} else {
				// no existence check; an absent key resolves to an
				// unowned path and is filtered by predicates only
				for _, name := range st.names {
					out = appendIfKept(out, root, st, candidate.extend(NameKey(name)))
				}
			}
		case selNested:
			if deep {
				for path, value := range selfAndDescendants(node, candidate) {
					out = appendIfNestedMatch(out, root, st, path, value)
				}
			} else {
				out = appendIfNestedMatch(out, root, st, candidate, node)
			}
		}
	}
	return out
}

func appendIfKept(out []Path, root any, st *step, path Path) []Path {
	if st.test(root, path) != st.not {
		out = append(out, path)
	}
	return out
}

// appendIndex resolves an index selector against one array node. Negative
// indices address from the end; out-of-range indices match nothing.
func appendIndex(out []Path, root any, st *step, node any, base Path) []Path {
	arr, ok := node.(*document.Array)
	if !ok {
		return out
	}
	index := st.index
	if index < 0 {
		index += arr.Len()
	}
	if index < 0 || index >= arr.Len() {
		return out
	}
	return appendIfKept(out, root, st, base.extend(IndexKey(index)))
}

// appendIfNestedMatch keeps the candidate itself when its nested sub-plan
// matches at least one path below it. Array nodes are never tested.
func appendIfNestedMatch(out []Path, root any, st *step, path Path, value any) []Path {
	if _, ok := value.(*document.Array); ok {
		return out
	}
	matched := len(st.nested.evaluate(root, path)) > 0
	if matched != st.not {
		out = append(out, path)
	}
	return out
}
