package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skoll/internal/common"
)

func collectPrices(s sideLevels, k int) []float64 {
	var prices []float64
	s.prefix(k, func(lvl *priceLevel) {
		prices = append(prices, lvl.price)
	})
	return prices
}

func TestSideLevels_BidOrdering(t *testing.T) {
	bids := newBidLevels()
	for _, price := range []float64{99.0, 101.0, 100.0, 98.5} {
		bids.upsert(price)
	}

	assert.Equal(t, []float64{101.0, 100.0, 99.0, 98.5}, collectPrices(bids, 10))

	best, ok := bids.best()
	require.True(t, ok)
	assert.Equal(t, 101.0, best.price)
}

func TestSideLevels_AskOrdering(t *testing.T) {
	asks := newAskLevels()
	for _, price := range []float64{100.0, 99.5, 100.5} {
		asks.upsert(price)
	}

	assert.Equal(t, []float64{99.5, 100.0, 100.5}, collectPrices(asks, 10))

	best, ok := asks.best()
	require.True(t, ok)
	assert.Equal(t, 99.5, best.price)
}

func TestSideLevels_UpsertIsIdempotent(t *testing.T) {
	asks := newAskLevels()
	first := asks.upsert(100.0)
	first.orders = append(first.orders, &common.Order{ID: "a", Quantity: 1})

	again := asks.upsert(100.0)
	assert.Same(t, first, again, "a price occurs at most once per side")
	assert.Equal(t, 1, asks.len())
}

func TestSideLevels_RemoveAndEmpty(t *testing.T) {
	bids := newBidLevels()
	lvl := bids.upsert(100.0)
	bids.upsert(99.0)

	bids.remove(lvl)
	assert.Equal(t, []float64{99.0}, collectPrices(bids, 10))

	remaining, ok := bids.best()
	require.True(t, ok)
	bids.remove(remaining)

	_, ok = bids.best()
	assert.False(t, ok)
	assert.Zero(t, bids.len())
}

func TestSideLevels_PrefixShorterThanAsked(t *testing.T) {
	asks := newAskLevels()
	asks.upsert(100.0)
	asks.upsert(101.0)

	assert.Len(t, collectPrices(asks, 5), 2)
	assert.Empty(t, collectPrices(asks, 0))
	assert.Empty(t, collectPrices(asks, -1))
}

func TestPriceLevel_TotalQuantity(t *testing.T) {
	lvl := &priceLevel{price: 100.0}
	lvl.orders = append(lvl.orders,
		&common.Order{ID: "a", Quantity: 4},
		&common.Order{ID: "b", Quantity: 6},
	)
	assert.Equal(t, uint64(10), lvl.totalQuantity())
}
