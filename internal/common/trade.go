package common

import (
	"fmt"
	"time"
)

// Trade records one fill between a resting maker and an incoming taker.
// Price is always the maker's price. Trades reference order ids rather
// than order objects; the book alone owns its orders.
type Trade struct {
	BuyOrderID  string    `json:"buyOrderId"`
	SellOrderID string    `json:"sellOrderId"`
	Price       float64   `json:"price"`
	Quantity    uint64    `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`Buy:       %s
Sell:      %s
Price:     %f
Quantity:  %d
Timestamp: %v`,
		t.BuyOrderID,
		t.SellOrderID,
		t.Price,
		t.Quantity,
		t.Timestamp.Format(time.RFC3339Nano),
	)
}
