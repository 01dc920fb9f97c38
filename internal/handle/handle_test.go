package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type target struct{ name string }

func TestInsertGet(t *testing.T) {
	tbl := NewTable[target]()
	a := &target{name: "a"}

	h := tbl.Insert(a)
	require.False(t, h.IsZero())

	got, ok := tbl.Get(h)
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 1, tbl.Len())
}

func TestRemoveInvalidates(t *testing.T) {
	tbl := NewTable[target]()
	h := tbl.Insert(&target{name: "a"})
	w := tbl.WeakRef(h)

	tbl.Remove(h)

	_, ok := tbl.Get(h)
	assert.False(t, ok)
	_, ok = w.Lock()
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())

	// second remove is harmless
	tbl.Remove(h)
	assert.Equal(t, 0, tbl.Len())
}

func TestReusedSlotDoesNotAlias(t *testing.T) {
	tbl := NewTable[target]()
	old := tbl.Insert(&target{name: "old"})
	tbl.Remove(old)

	b := &target{name: "new"}
	fresh := tbl.Insert(b)

	assert.NotEqual(t, old, fresh)
	_, ok := tbl.Get(old)
	assert.False(t, ok, "stale handle must not resolve to the new entry")

	got, ok := tbl.Get(fresh)
	require.True(t, ok)
	assert.Same(t, b, got)

	// removing through the stale handle leaves the new entry alone
	tbl.Remove(old)
	_, ok = tbl.Get(fresh)
	assert.True(t, ok)
}

func TestZeroValues(t *testing.T) {
	tbl := NewTable[target]()
	_, ok := tbl.Get(Handle{})
	assert.False(t, ok)

	var w Weak[target]
	_, ok = w.Lock()
	assert.False(t, ok)
}
