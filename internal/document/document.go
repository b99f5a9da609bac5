// Package document models decoded structured documents as a closed set of
// value shapes: *Object, *Array, string, json.Number, bool and nil.
//
// Objects keep their members in document order, so traversal and re-encoding
// preserve the key order of the original input. Containers are always held by
// pointer inside the tree, which lets callers remove members in place without
// rewriting parent references.
package document

import "iter"

// Member is a single key/value entry of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an insertion-ordered string-keyed mapping. Keys are unique;
// setting an existing key replaces its value in place.
type Object struct {
	members []Member
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{}
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.members)
}

// Get returns the value stored under key and whether the key is present.
func (o *Object) Get(key string) (any, bool) {
	for i := range o.members {
		if o.members[i].Key == key {
			return o.members[i].Value, true
		}
	}
	return nil, false
}

// Set replaces the value of an existing key or appends a new member.
func (o *Object) Set(key string, value any) {
	for i := range o.members {
		if o.members[i].Key == key {
			o.members[i].Value = value
			return
		}
	}
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Delete removes the member stored under key, preserving the order of the
// remaining members. It reports whether the key was present.
func (o *Object) Delete(key string) bool {
	for i := range o.members {
		if o.members[i].Key == key {
			o.members = append(o.members[:i], o.members[i+1:]...)
			return true
		}
	}
	return false
}

// At returns the member at position i in document order.
func (o *Object) At(i int) (string, any) {
	return o.members[i].Key, o.members[i].Value
}

// Keys returns the member keys in document order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.members))
	for i := range o.members {
		keys[i] = o.members[i].Key
	}
	return keys
}

// All iterates over members in document order.
func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for i := range o.members {
			if !yield(o.members[i].Key, o.members[i].Value) {
				return
			}
		}
	}
}

// Array is an ordered sequence of values.
type Array struct {
	elems []any
}

// NewArray returns an array holding elems.
func NewArray(elems ...any) *Array {
	return &Array{elems: elems}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.elems)
}

// At returns the element at index i. The index must be in range.
func (a *Array) At(i int) any {
	return a.elems[i]
}

// Set replaces the element at index i. The index must be in range.
func (a *Array) Set(i int, value any) {
	a.elems[i] = value
}

// Append adds value at the end of the array.
func (a *Array) Append(value any) {
	a.elems = append(a.elems, value)
}

// Delete removes the element at index i, shifting later elements down.
// It reports whether the index was in range.
func (a *Array) Delete(i int) bool {
	if i < 0 || i >= len(a.elems) {
		return false
	}
	a.elems = append(a.elems[:i], a.elems[i+1:]...)
	return true
}

// All iterates over elements in index order.
func (a *Array) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i := range a.elems {
			if !yield(i, a.elems[i]) {
				return
			}
		}
	}
}

// Generic converts a document value into plain Go containers
// (map[string]any and []any), as produced by encoding/json. Member order is
// lost; the result is intended for libraries that expect the standard shapes.
func Generic(v any) any {
	switch value := v.(type) {
	case *Object:
		m := make(map[string]any, value.Len())
		for key, member := range value.All() {
			m[key] = Generic(member)
		}
		return m
	case *Array:
		s := make([]any, 0, value.Len())
		for _, elem := range value.All() {
			s = append(s, Generic(elem))
		}
		return s
	default:
		return v
	}
}
