package pathquery

import "github.com/jpcorreia/jsonprune/internal/document"

// Resolution locates one node: the container holding it, the final key,
// and the value currently stored there. Owned reports whether the
// container actually holds Key; for an unowned key Value is nil.
type Resolution struct {
	Container any
	Key       Key
	Value     any
	Owned     bool
}

// Resolve walks root through every element of path except the last and
// returns the immediate container of the final key together with the
// value found there. The zero-length path resolves to the root itself,
// with no container: the root can be inspected but not removed. A walk
// that dead-ends returns an empty resolution.
//
// Paths are positional; mutating the document between evaluation and
// resolution can retarget or invalidate them.
func Resolve(root any, path Path) Resolution {
	if len(path) == 0 {
		return Resolution{Value: root}
	}

	container := root
	for _, k := range path[:len(path)-1] {
		v, ok := lookup(container, k)
		if !ok {
			return Resolution{Key: path[len(path)-1]}
		}
		container = v
	}

	last := path[len(path)-1]
	res := Resolution{Container: container, Key: last}
	if v, ok := lookup(container, last); ok {
		res.Value = v
		res.Owned = true
	}
	return res
}

// lookup reads one key from a container. Negative indices are not
// interpreted here; evaluation resolves them before a path is produced.
func lookup(container any, k Key) (any, bool) {
	switch c := container.(type) {
	case *document.Object:
		if k.IsIndex {
			return nil, false
		}
		return c.Get(k.Name)
	case *document.Array:
		if !k.IsIndex || k.Index < 0 || k.Index >= c.Len() {
			return nil, false
		}
		return c.At(k.Index), true
	}
	return nil, false
}

// valueAt returns the node addressed by path, or nil when absent.
func valueAt(root any, path Path) any {
	if len(path) == 0 {
		return root
	}
	return Resolve(root, path).Value
}
