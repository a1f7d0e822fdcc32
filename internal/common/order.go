package common

import (
	"fmt"
	"time"
)

// Order is a request to trade. The id and timestamp are minted by the
// caller (gateway, load generator); the book never reads the clock or
// generates identifiers itself.
//
// Quantity is the remaining unfilled amount and decreases as fills
// occur. An order whose quantity reaches zero is removed from the book.
type Order struct {
	ID          string    // Caller-assigned unique token
	Side        Side      // Order side
	Type        OrderType // Limit or market
	Price       float64   // Limit price; meaningless for market orders
	Quantity    uint64    // Remaining quantity
	SubmittedAt time.Time // Arrival time, record-keeping only
}

func (order Order) String() string {
	return fmt.Sprintf(
		`ID:          %s
Side:        %v
Type:        %v
Price:       %f
Quantity:    %d
SubmittedAt: %v`,
		order.ID,
		order.Side,
		order.Type,
		order.Price,
		order.Quantity,
		order.SubmittedAt.Format(time.RFC3339Nano),
	)
}
