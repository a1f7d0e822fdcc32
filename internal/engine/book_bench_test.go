package engine

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"skoll/internal/common"
)

// Mirrors the production traffic shape: mostly limit orders scattered
// around a mid price with an occasional market sweep.
func randomBenchOrder(rng *rand.Rand) (common.OrderType, common.Side, float64, uint64) {
	side := common.Side(rng.Intn(2))
	if rng.Intn(10) < 9 {
		price := 100 + float64(rng.Intn(21)-10) + rng.Float64()
		return common.LimitOrder, side, price, uint64(rng.Intn(10) + 1)
	}
	return common.MarketOrder, side, 0, uint64(rng.Intn(20) + 1)
}

func BenchmarkSubmitRandomFlow(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	book := NewBook()
	ts := time.Unix(0, 0)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		otype, side, price, qty := randomBenchOrder(rng)
		id := "bench-" + strconv.Itoa(i)
		var err error
		if otype == common.LimitOrder {
			_, err = book.SubmitLimitOrder(side, price, qty, id, ts)
		} else {
			_, err = book.SubmitMarketOrder(side, qty, id, ts)
		}
		if err != nil {
			b.Fatalf("submit failed: %v", err)
		}
		// Keep the fill log from dominating memory on long runs.
		if i%100000 == 99999 {
			book.ClearTrades()
		}
	}

	b.StopTimer()
	b.ReportMetric(float64(len(book.Trades())), "resid-trades")
}
