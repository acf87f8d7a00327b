package engine

import (
	"github.com/google/btree"
)

// Less orders resting orders best-first: highest canonical price, then earliest
// timestamp, then lowest id. The deciding fields are immutable, so an order
// popped and pushed back keeps its exact queue position.
func (o *Order) Less(than btree.Item) bool {
	other := than.(*Order)
	if o.CanonicalPrice != other.CanonicalPrice {
		return o.CanonicalPrice > other.CanonicalPrice
	}
	if o.Timestamp != other.Timestamp {
		return o.Timestamp < other.Timestamp
	}
	return o.ID < other.ID
}

// book is one of the two resting-order queues (YES and NO). The btree's Min is
// the best-priority order, and Ascend walks best-first without mutating the tree.
type book struct {
	tree *btree.BTree
}

func newBook() *book {
	return &book{tree: btree.New(32)}
}

func (b *book) push(order *Order) {
	b.tree.ReplaceOrInsert(order)
}

func (b *book) peek() *Order {
	item := b.tree.Min()
	if item == nil {
		return nil
	}
	return item.(*Order)
}

func (b *book) pop() *Order {
	item := b.tree.DeleteMin()
	if item == nil {
		return nil
	}
	return item.(*Order)
}

// restore reinserts an order held aside during a self-trade skip. Its priority
// fields are untouched, so it lands back in its original queue position.
func (b *book) restore(order *Order) {
	b.tree.ReplaceOrInsert(order)
}

func (b *book) len() int {
	return b.tree.Len()
}

// scan visits up to depth resting orders in priority order without mutating
// the book.
func (b *book) scan(depth int, visit func(*Order)) {
	count := 0
	b.tree.Ascend(func(item btree.Item) bool {
		if count >= depth {
			return false
		}
		visit(item.(*Order))
		count++
		return true
	})
}
