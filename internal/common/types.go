package common

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Valid reports whether the side is one of the two recognised values.
// Anything else is an input error and must never reach the book.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

type OrderType int

const (
	// Limit orders are an order to buy or sell at a specified price or
	// better. Limit orders may rest on the book until filled.
	LimitOrder OrderType = iota
	// Market orders are instructions to buy or sell immediately against
	// the best available opposing prices. Any residual that cannot be
	// filled is discarded; market orders never rest.
	MarketOrder
)

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "limit"
	case MarketOrder:
		return "market"
	}
	return "unknown"
}
