package stack

import (
	"testing"
)

func TestStack_New(t *testing.T) {
	s := New[int]()

	if !s.IsEmpty() {
		t.Error("New() stack should be empty")
	}

	if s.Size() != 0 {
		t.Errorf("New() stack size = %d, want 0", s.Size())
	}
}

func TestStack_PushAndPop(t *testing.T) {
	s := NewWithCapacity[int](4)

	s.Push(1)
	s.Push(2, 3)

	if s.Size() != 3 {
		t.Errorf("Push() stack size = %d, want 3", s.Size())
	}

	for _, want := range []int{3, 2, 1} {
		val, ok := s.Pop()
		if !ok || val != want {
			t.Errorf("Pop() = %d, %t, want %d, true", val, ok, want)
		}
	}

	if _, ok := s.Pop(); ok {
		t.Error("Pop() on empty stack should report false")
	}
}

func TestStack_Peek(t *testing.T) {
	s := New[string]()

	if _, ok := s.Peek(); ok {
		t.Error("Peek() on empty stack should report false")
	}

	s.Push("a", "b")

	val, ok := s.Peek()
	if !ok || val != "b" {
		t.Errorf("Peek() = %q, %t, want %q, true", val, ok, "b")
	}

	if s.Size() != 2 {
		t.Errorf("Peek() must not remove elements, size = %d, want 2", s.Size())
	}
}

func TestStack_PeekRef(t *testing.T) {
	s := New[int]()

	if ref := s.PeekRef(); ref != nil {
		t.Error("PeekRef() on empty stack should return nil")
	}

	s.Push(10)
	if ref := s.PeekRef(); ref == nil {
		t.Fatal("PeekRef() returned nil for non-empty stack")
	} else {
		*ref = 42
	}

	val, _ := s.Pop()
	if val != 42 {
		t.Errorf("Pop() after PeekRef mutation = %d, want 42", val)
	}
}
