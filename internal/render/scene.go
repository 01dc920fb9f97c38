// Package render holds the render-item side of the skinning core: the scene that
// applies transactions, the mesh-part payloads a draw call consumes, and their
// GPU-layout cluster buffers.
package render

import (
	"sync"
	"sync/atomic"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// Item is one drawable unit stored in a Scene.
type Item interface {
	// Bound returns the world-space bounding box used for culling.
	Bound() math.AABB
}

// Scene stores items and applies queued transactions. Producers enqueue from the
// update thread; the render thread calls ProcessTransactionQueue and reads items.
type Scene struct {
	lastID atomic.Uint32

	pendingMu sync.Mutex
	pending   []Transaction

	mu    sync.RWMutex
	items map[ItemID]Item
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{items: make(map[ItemID]Item)}
}

// AllocateID reserves a new item ID.
func (s *Scene) AllocateID() ItemID {
	return ItemID(s.lastID.Add(1))
}

// EnqueueTransaction hands tx to the scene. Later changes to the caller's copy are not seen.
func (s *Scene) EnqueueTransaction(tx Transaction) {
	if tx.IsEmpty() {
		return
	}
	s.pendingMu.Lock()
	s.pending = append(s.pending, tx.seal())
	s.pendingMu.Unlock()
}

// PendingTransactions returns the number of transactions not yet applied.
func (s *Scene) PendingTransactions() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// ProcessTransactionQueue applies every pending transaction in enqueue order.
// Readers never observe a partially applied transaction.
// It returns the number of transactions applied.
func (s *Scene) ProcessTransactionQueue() int {
	s.pendingMu.Lock()
	batch := s.pending
	s.pending = nil
	s.pendingMu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range batch {
		s.apply(tx)
	}
	return len(batch)
}

func (s *Scene) apply(tx Transaction) {
	for _, o := range tx.ops {
		switch o.kind {
		case opReset:
			s.items[o.id] = o.item
		case opRemove:
			delete(s.items, o.id)
		case opUpdate:
			if it, ok := s.items[o.id]; ok {
				o.update(it)
			}
		}
	}
}

// Item returns the item stored under id.
func (s *Scene) Item(id ItemID) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// View runs fn with read access to the item under id. fn must not retain the item.
func (s *Scene) View(id ItemID, fn func(Item)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if ok {
		fn(it)
	}
	return ok
}

// Len returns the number of items.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
