// Package blend collects requests for blend-shape passes. The blend itself runs elsewhere;
// models only signal that one is needed.
package blend

import (
	"sync"

	"github.com/Faultbox/midgard-skin/internal/handle"
)

// Notifier receives fire-and-forget blend requests.
type Notifier interface {
	NoteRequiresBlend(model handle.Handle)
}

// Blender queues models awaiting a blend pass, at most once each.
type Blender struct {
	mu      sync.Mutex
	pending []handle.Handle
	queued  map[handle.Handle]struct{}
}

// NewBlender creates an empty blender.
func NewBlender() *Blender {
	return &Blender{queued: make(map[handle.Handle]struct{})}
}

// NoteRequiresBlend implements Notifier.
func (b *Blender) NoteRequiresBlend(model handle.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.queued[model]; ok {
		return
	}
	b.queued[model] = struct{}{}
	b.pending = append(b.pending, model)
}

// Drain returns the queued models in request order and clears the queue.
func (b *Blender) Drain() []handle.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	b.queued = make(map[handle.Handle]struct{})
	return out
}
