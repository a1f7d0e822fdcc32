package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skoll/internal/common"
)

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	h := newHub[common.Trade]()
	a := h.Subscribe(4)
	b := h.Subscribe(4)

	trade := common.Trade{BuyOrderID: "b1", SellOrderID: "s1", Price: 100, Quantity: 5}
	h.Broadcast(trade)

	assert.Equal(t, trade, <-a.ch)
	assert.Equal(t, trade, <-b.ch)
}

func TestHub_SlowSubscriberDropsValues(t *testing.T) {
	h := newHub[int]()
	slow := h.Subscribe(1)

	h.Broadcast(1)
	h.Broadcast(2) // buffer full, dropped without blocking

	assert.Equal(t, 1, <-slow.ch)
	select {
	case v := <-slow.ch:
		t.Fatalf("unexpected value %d", v)
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := newHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)

	_, open := <-sub.ch
	require.False(t, open)

	// Broadcasting after unsubscribe must not panic.
	h.Broadcast(3)
}
