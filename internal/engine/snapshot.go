package engine

// LevelSummary is one price level aggregated for reporting: the price
// and the summed residual quantity of every order resting there.
type LevelSummary struct {
	Price    float64 `json:"price"`
	Quantity uint64  `json:"quantity"`
}

// BookSnapshot is a depth-limited view of both sides, best price first.
type BookSnapshot struct {
	Bids []LevelSummary `json:"bids"`
	Asks []LevelSummary `json:"asks"`
}

// Snapshot aggregates the top depth levels per side at a consistent
// instant. It never mutates the book; a depth of zero or less yields
// empty sides.
func (b *Book) Snapshot(depth int) BookSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	var snap BookSnapshot
	b.bids.prefix(depth, func(lvl *priceLevel) {
		snap.Bids = append(snap.Bids, LevelSummary{Price: lvl.price, Quantity: lvl.totalQuantity()})
	})
	b.asks.prefix(depth, func(lvl *priceLevel) {
		snap.Asks = append(snap.Asks, LevelSummary{Price: lvl.price, Quantity: lvl.totalQuantity()})
	})
	return snap
}
