package pathquery

import (
	"iter"

	"github.com/jpcorreia/jsonprune/internal/document"
	"github.com/jpcorreia/jsonprune/internal/stack"
)

// frame tracks enumeration progress inside one container.
type frame struct {
	container any
	path      Path
	cursor    int
}

func containerLen(v any) int {
	switch c := v.(type) {
	case *document.Object:
		return c.Len()
	case *document.Array:
		return c.Len()
	}
	return 0
}

func childAt(container any, i int) (Key, any) {
	switch c := container.(type) {
	case *document.Object:
		key, value := c.At(i)
		return NameKey(key), value
	case *document.Array:
		return IndexKey(i), c.At(i)
	}
	return Key{}, nil
}

// children yields the immediate children of node with their paths, object
// members in document order and array elements in index order. Scalars
// yield nothing.
func children(node any, base Path) iter.Seq2[Path, any] {
	return func(yield func(Path, any) bool) {
		for i := 0; i < containerLen(node); i++ {
			key, value := childAt(node, i)
			if !yield(base.extend(key), value) {
				return
			}
		}
	}
}

// descendants yields every node strictly below start in pre-order: each
// node before its own children, siblings in document order. Enumeration is
// lazy and driven by an explicit frame stack, so document depth never
// grows the call stack. The iterator is restartable; each range starts a
// fresh traversal.
func descendants(start any, base Path) iter.Seq2[Path, any] {
	return func(yield func(Path, any) bool) {
		frames := stack.NewWithCapacity[frame](8)
		if containerLen(start) > 0 {
			frames.Push(frame{container: start, path: base})
		}

		for !frames.IsEmpty() {
			top := frames.PeekRef()
			if top.cursor >= containerLen(top.container) {
				frames.Pop()
				continue
			}

			key, value := childAt(top.container, top.cursor)
			top.cursor++
			path := top.path.extend(key)

			if !yield(path, value) {
				return
			}
			if containerLen(value) > 0 {
				frames.Push(frame{container: value, path: path})
			}
		}
	}
}

// selfAndDescendants yields the start node itself, then its descendants.
// Used by descendant steps whose key may be owned by the anchor node as
// well as by any node below it.
func selfAndDescendants(start any, base Path) iter.Seq2[Path, any] {
	return func(yield func(Path, any) bool) {
		if !yield(base, start) {
			return
		}
		for path, value := range descendants(start, base) {
			if !yield(path, value) {
				return
			}
		}
	}
}
