package deferred

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterOnceReplaces(t *testing.T) {
	q := NewQueue()
	var calls []string

	q.RegisterOnce("model", func() { calls = append(calls, "first") })
	q.RegisterOnce("model", func() { calls = append(calls, "second") })
	assert.Equal(t, 1, q.Pending())

	assert.Equal(t, 1, q.Flush())
	assert.Equal(t, []string{"second"}, calls)
}

func TestFlushOrderAndClear(t *testing.T) {
	q := NewQueue()
	var calls []string

	type key struct{ id int }
	q.RegisterOnce(key{1}, func() { calls = append(calls, "a") })
	q.RegisterOnce(key{2}, func() { calls = append(calls, "b") })
	q.RegisterOnce(key{1}, func() { calls = append(calls, "a2") })

	assert.Equal(t, 2, q.Flush())
	assert.Equal(t, []string{"a2", "b"}, calls)

	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, 0, q.Flush())
	assert.Len(t, calls, 2)
}

func TestRegisterDuringFlushRunsNextFrame(t *testing.T) {
	q := NewQueue()
	ran := 0

	q.RegisterOnce("outer", func() {
		ran++
		q.RegisterOnce("inner", func() { ran += 10 })
	})

	q.Flush()
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, q.Pending())

	q.Flush()
	assert.Equal(t, 11, ran)
}
