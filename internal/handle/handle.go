// Package handle provides non-owning references through an indirection table.
// A Handle stays valid as a key after its target is removed; resolving it then
// reports the target as gone instead of returning a dangling pointer.
package handle

import "sync"

// Handle identifies an entry in a Table. The zero Handle never resolves.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

type slot[T any] struct {
	value      *T
	generation uint32
}

// Table maps handles to live pointers. Removed slots are reused with a bumped
// generation so stale handles never alias a newer entry.
type Table[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

// Insert stores v and returns its handle.
func (t *Table[T]) Insert(v *T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.value = v
		return Handle{index: idx, generation: s.generation}
	}

	t.slots = append(t.slots, slot[T]{value: v, generation: 1})
	return Handle{index: uint32(len(t.slots) - 1), generation: 1}
}

// Get resolves h. ok is false when the entry was removed or h is unknown.
func (t *Table[T]) Get(h Handle) (v *T, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if h.IsZero() || int(h.index) >= len(t.slots) {
		return nil, false
	}
	s := t.slots[h.index]
	if s.generation != h.generation || s.value == nil {
		return nil, false
	}
	return s.value, true
}

// Remove invalidates h. Removing a stale handle is a no-op.
func (t *Table[T]) Remove(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h.IsZero() || int(h.index) >= len(t.slots) {
		return
	}
	s := &t.slots[h.index]
	if s.generation != h.generation || s.value == nil {
		return
	}
	s.value = nil
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	t.free = append(t.free, h.index)
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots) - len(t.free)
}

// Weak is a non-owning reference to a table entry.
type Weak[T any] struct {
	table  *Table[T]
	handle Handle
}

// WeakRef returns a weak reference to h.
func (t *Table[T]) WeakRef(h Handle) Weak[T] {
	return Weak[T]{table: t, handle: h}
}

// Lock returns the target if it is still alive.
func (w Weak[T]) Lock() (*T, bool) {
	if w.table == nil {
		return nil, false
	}
	return w.table.Get(w.handle)
}
