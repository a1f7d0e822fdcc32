package engine

import (
	"github.com/tidwall/btree"

	"skoll/internal/common"
)

// priceLevel holds the FIFO queue of resting orders at one price.
// Every order in the queue has Quantity > 0; an order filled to zero is
// dequeued immediately rather than left as a placeholder.
type priceLevel struct {
	price  float64
	orders []*common.Order
}

func (lvl *priceLevel) totalQuantity() uint64 {
	var total uint64
	for _, order := range lvl.orders {
		total += order.Quantity
	}
	return total
}

// sideLevels is one side of the book: the price-level map and the sorted
// price index folded into a single ordered structure. The btree is keyed
// by price with a per-side comparator, so the minimum element is always
// the best price (highest bid, lowest ask) and an in-order scan yields
// the depth-limited prefix.
type sideLevels struct {
	tree *btree.BTreeG[*priceLevel]
}

// newBidLevels sorts greatest price first.
func newBidLevels() sideLevels {
	return sideLevels{tree: btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price > b.price
	})}
}

// newAskLevels sorts least price first.
func newAskLevels() sideLevels {
	return sideLevels{tree: btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price < b.price
	})}
}

// best returns the level at the side's best price.
func (s sideLevels) best() (*priceLevel, bool) {
	return s.tree.MinMut()
}

// get looks up the level resting at exactly price.
func (s sideLevels) get(price float64) (*priceLevel, bool) {
	// The comparator only reads the price, so a stack key is enough.
	return s.tree.GetMut(&priceLevel{price: price})
}

// upsert returns the level at price, creating it (and thereby its index
// entry) on first use. Insertion is idempotent: a price occurs at most
// once per side.
func (s sideLevels) upsert(price float64) *priceLevel {
	if lvl, ok := s.get(price); ok {
		return lvl
	}
	lvl := &priceLevel{price: price}
	s.tree.Set(lvl)
	return lvl
}

// remove drops an emptied level from the side, keeping the index and the
// level map in lockstep.
func (s sideLevels) remove(lvl *priceLevel) {
	s.tree.Delete(lvl)
}

// prefix visits the first k levels in priority order. Sides holding
// fewer than k levels yield fewer visits.
func (s sideLevels) prefix(k int, visit func(lvl *priceLevel)) {
	if k <= 0 {
		return
	}
	seen := 0
	s.tree.Scan(func(lvl *priceLevel) bool {
		visit(lvl)
		seen++
		return seen < k
	})
}

func (s sideLevels) len() int {
	return s.tree.Len()
}
