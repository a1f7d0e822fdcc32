package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"skoll/internal/common"
	"skoll/internal/engine"
)

// countReporter tallies fills without keeping them.
type countReporter struct {
	n uint64
}

func (r *countReporter) ReportTrade(common.Trade) error {
	r.n++
	return nil
}

func main() {
	totalOrders := flag.Int("orders", 100000, "number of orders to submit")
	basePrice := flag.Float64("base-price", 100, "mid price used for randomization")
	wiggle := flag.Int("wiggle", 10, "price spread around the mid")
	marketRatio := flag.Int("market-ratio", 10, "1 in N orders will be market instead of limit")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for deterministic random streams")
	depth := flag.Int("depth", 3, "snapshot depth printed at the end")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	book := engine.NewBook()
	counter := &countReporter{}
	book.SetReporter(counter)

	start := time.Now()
	for i := 0; i < *totalOrders; i++ {
		side := common.Side(rng.Intn(2))
		id := uuid.New().String()
		now := time.Now()

		var err error
		if *marketRatio > 0 && rng.Intn(*marketRatio) == 0 {
			qty := uint64(rng.Intn(20) + 1)
			_, err = book.SubmitMarketOrder(side, qty, id, now)
		} else {
			w := *wiggle
			price := roundPrice(*basePrice + float64(rng.Intn(2*w+1)-w) + rng.Float64())
			qty := uint64(rng.Intn(10) + 1)
			_, err = book.SubmitLimitOrder(side, price, qty, id, now)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "submit failed: %v\n", err)
		}

		// Bound the fill log; the counter keeps the running total.
		if i%100000 == 99999 {
			book.ClearTrades()
		}
	}
	elapsed := time.Since(start)

	ordersPerSec := float64(*totalOrders) / elapsed.Seconds()
	tradesPerSec := float64(counter.n) / elapsed.Seconds()

	fmt.Printf("submitted %d orders in %s (%.0f orders/s)\n", *totalOrders, elapsed.Truncate(time.Millisecond), ordersPerSec)
	fmt.Printf("matched %d trades (%.0f trades/s)\n", counter.n, tradesPerSec)

	snap := book.Snapshot(*depth)
	fmt.Println("top of book:")
	for _, lvl := range snap.Asks {
		fmt.Printf("  ASK %.2f x %d\n", lvl.Price, lvl.Quantity)
	}
	for _, lvl := range snap.Bids {
		fmt.Printf("  BID %.2f x %d\n", lvl.Price, lvl.Quantity)
	}
}

// roundPrice clamps random prices onto a two-decimal grid so levels
// actually collide and produce crossings.
func roundPrice(price float64) float64 {
	return float64(int(price*100)) / 100
}
