package engine

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"skoll/internal/common"
)

var (
	ErrInvalidSide     = errors.New("invalid order side")
	ErrInvalidQuantity = errors.New("invalid order quantity")
	ErrInvalidPrice    = errors.New("invalid limit price")
)

// Reporter receives each fill after the submission that produced it has
// fully settled. Implementations must not call back into the book's
// mutating operations.
type Reporter interface {
	ReportTrade(trade common.Trade) error
}

// Book is a two-sided limit order book for a single instrument, matched
// in price-time priority. One mutex serializes all mutating operations,
// so every submission runs to completion before any other submission or
// snapshot observes the book; readers never see a level mid-drain.
type Book struct {
	mu   sync.Mutex
	bids sideLevels
	asks sideLevels

	// Append-only fill log, kept until explicitly cleared.
	trades []common.Trade

	reporter Reporter
}

func NewBook() *Book {
	return &Book{
		bids: newBidLevels(),
		asks: newAskLevels(),
	}
}

// SetReporter registers the fill observer. Call before serving traffic.
func (b *Book) SetReporter(r Reporter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reporter = r
}

// SubmitLimitOrder crosses the incoming order against the opposing side
// while the opposing best price satisfies the limit, filling in FIFO
// order within each level. Residual quantity rests on the order's own
// side at its limit price. The id is returned whether the order filled
// fully, partially, or rested untouched.
//
// Validation happens before any mutation; on error the book is
// unchanged.
func (b *Book) SubmitLimitOrder(side common.Side, price float64, quantity uint64, id string, submittedAt time.Time) (string, error) {
	if !side.Valid() {
		return "", ErrInvalidSide
	}
	if quantity == 0 {
		return "", ErrInvalidQuantity
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "", ErrInvalidPrice
	}

	order := &common.Order{
		ID:          id,
		Side:        side,
		Type:        common.LimitOrder,
		Price:       price,
		Quantity:    quantity,
		SubmittedAt: submittedAt,
	}

	b.mu.Lock()
	var fills []common.Trade
	if side == common.Buy {
		fills = b.cross(order, b.asks, func(bestAsk float64) bool {
			return bestAsk <= price
		})
		if order.Quantity > 0 {
			lvl := b.bids.upsert(price)
			lvl.orders = append(lvl.orders, order)
		}
	} else {
		fills = b.cross(order, b.bids, func(bestBid float64) bool {
			return bestBid >= price
		})
		if order.Quantity > 0 {
			lvl := b.asks.upsert(price)
			lvl.orders = append(lvl.orders, order)
		}
	}
	reporter := b.reporter
	b.mu.Unlock()

	report(reporter, fills)
	return id, nil
}

// SubmitMarketOrder sweeps the opposing side from the best price outward
// until the quantity is exhausted or the side is empty. Unfilled
// residual is discarded; market orders never rest on the book, and an
// empty opposing side is a normal unfilled outcome, not an error.
func (b *Book) SubmitMarketOrder(side common.Side, quantity uint64, id string, submittedAt time.Time) (string, error) {
	if !side.Valid() {
		return "", ErrInvalidSide
	}
	if quantity == 0 {
		return "", ErrInvalidQuantity
	}

	order := &common.Order{
		ID:          id,
		Side:        side,
		Type:        common.MarketOrder,
		Quantity:    quantity,
		SubmittedAt: submittedAt,
	}

	sweep := func(float64) bool { return true }

	b.mu.Lock()
	var fills []common.Trade
	if side == common.Buy {
		fills = b.cross(order, b.asks, sweep)
	} else {
		fills = b.cross(order, b.bids, sweep)
	}
	reporter := b.reporter
	b.mu.Unlock()

	report(reporter, fills)
	return id, nil
}

// cross drains opposing levels in priority order while the crossing
// predicate holds for the opposing best price and the taker has residual
// quantity. Within a level fills proceed strictly oldest-first; each
// fill consumes min(taker residual, maker residual) and records one
// trade at the maker's price. A drained level is removed before moving
// to the next price.
func (b *Book) cross(taker *common.Order, opposing sideLevels, crosses func(bestPrice float64) bool) []common.Trade {
	var fills []common.Trade
	for taker.Quantity > 0 {
		lvl, ok := opposing.best()
		if !ok || !crosses(lvl.price) {
			break
		}

		for len(lvl.orders) > 0 && taker.Quantity > 0 {
			maker := lvl.orders[0]
			fill := min(taker.Quantity, maker.Quantity)
			taker.Quantity -= fill
			maker.Quantity -= fill
			fills = append(fills, newTrade(taker, maker, lvl.price, fill))
			if maker.Quantity == 0 {
				lvl.orders = lvl.orders[1:]
			}
		}

		if len(lvl.orders) == 0 {
			opposing.remove(lvl)
		}
	}

	b.trades = append(b.trades, fills...)
	return fills
}

// newTrade builds the fill record, mapping taker and maker onto the buy
// and sell legs. The timestamp is the taker's submission time; the book
// never reads the clock.
func newTrade(taker, maker *common.Order, makerPrice float64, quantity uint64) common.Trade {
	trade := common.Trade{
		Price:     makerPrice,
		Quantity:  quantity,
		Timestamp: taker.SubmittedAt,
	}
	if taker.Side == common.Buy {
		trade.BuyOrderID = taker.ID
		trade.SellOrderID = maker.ID
	} else {
		trade.BuyOrderID = maker.ID
		trade.SellOrderID = taker.ID
	}
	return trade
}

// BestBid returns the highest resting bid price, if any.
func (b *Book) BestBid() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.bids.best()
	if !ok {
		return 0, false
	}
	return lvl.price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *Book) BestAsk() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.asks.best()
	if !ok {
		return 0, false
	}
	return lvl.price, true
}

// Trades returns a copy of the fill log in execution order.
func (b *Book) Trades() []common.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]common.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

// ClearTrades empties the fill log. Resting orders are unaffected.
func (b *Book) ClearTrades() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trades = nil
}

func report(reporter Reporter, fills []common.Trade) {
	if reporter == nil {
		return
	}
	for _, trade := range fills {
		if err := reporter.ReportTrade(trade); err != nil {
			log.Error().Err(err).
				Str("buy", trade.BuyOrderID).
				Str("sell", trade.SellOrderID).
				Msg("trade report failed")
		}
	}
}
