package render

// ItemID addresses an item in a Scene across transactions. Zero is never allocated.
type ItemID uint32

// InvalidItemID is the zero ItemID.
const InvalidItemID ItemID = 0

type opKind uint8

const (
	opReset opKind = iota
	opRemove
	opUpdate
)

type op struct {
	kind   opKind
	id     ItemID
	item   Item
	update func(Item)
}

// Transaction is a batch of item mutations. Nothing is visible to the scene
// until the whole batch is enqueued, and the scene applies it as one unit.
// The zero value is an empty transaction.
type Transaction struct {
	ops []op
}

// ResetItem installs item under id, replacing whatever was there.
func (t *Transaction) ResetItem(id ItemID, item Item) {
	t.ops = append(t.ops, op{kind: opReset, id: id, item: item})
}

// RemoveItem deletes id from the scene.
func (t *Transaction) RemoveItem(id ItemID) {
	t.ops = append(t.ops, op{kind: opRemove, id: id})
}

// UpdateItem runs fn against the item stored under id when the batch is applied.
// Missing items are skipped.
func (t *Transaction) UpdateItem(id ItemID, fn func(Item)) {
	t.ops = append(t.ops, op{kind: opUpdate, id: id, update: fn})
}

// UpdateItem is the typed form of Transaction.UpdateItem. Items that are not a T are skipped.
func UpdateItem[T Item](t *Transaction, id ItemID, fn func(T)) {
	t.UpdateItem(id, func(it Item) {
		if typed, ok := it.(T); ok {
			fn(typed)
		}
	})
}

// Len returns the number of operations.
func (t Transaction) Len() int {
	return len(t.ops)
}

// IsEmpty reports whether the transaction carries no operations.
func (t Transaction) IsEmpty() bool {
	return len(t.ops) == 0
}

// seal returns a copy whose op slice cannot be appended to by the sender.
func (t Transaction) seal() Transaction {
	ops := make([]op, len(t.ops))
	copy(ops, t.ops)
	return Transaction{ops: ops}
}
