package net

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skoll/internal/common"
	"skoll/internal/engine"
)

// pipeSession wires a fake client session into the server so dispatch
// can be exercised without a listener.
func pipeSession(t *testing.T, s *Server) (clientConn net.Conn, address string) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})
	s.addClientSession(serverConn)
	return clientConn, serverConn.RemoteAddr().String()
}

// readReport reads one report frame off the pipe in the background.
func readReport(t *testing.T, conn net.Conn) <-chan Report {
	t.Helper()
	out := make(chan Report, 1)
	go func() {
		buf := make([]byte, MAX_RECV_SIZE)
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		report, err := ParseReport(buf[:n])
		if err != nil {
			return
		}
		out <- report
	}()
	return out
}

func mustParse(t *testing.T, frame []byte) Message {
	t.Helper()
	msg, err := parseMessage(frame)
	require.NoError(t, err)
	return msg
}

func TestDispatch_NewOrderAcked(t *testing.T) {
	book := engine.NewBook()
	s := New("127.0.0.1", 0, book)
	conn, address := pipeSession(t, s)

	reports := readReport(t, conn)
	s.dispatch(ClientMessage{
		clientAddress: address,
		message:       mustParse(t, EncodeNewOrder(common.LimitOrder, common.Buy, 100.0, 5)),
	})

	report := <-reports
	assert.Equal(t, OrderAck, report.TypeOf)
	assert.NotEmpty(t, report.OrderID)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 100.0, bid)
}

func TestDispatch_InvalidOrderRejected(t *testing.T) {
	book := engine.NewBook()
	s := New("127.0.0.1", 0, book)
	conn, address := pipeSession(t, s)

	reports := readReport(t, conn)
	s.dispatch(ClientMessage{
		clientAddress: address,
		message:       mustParse(t, EncodeNewOrder(common.MarketOrder, common.Sell, 0, 0)),
	})

	report := <-reports
	assert.Equal(t, ErrorReport, report.TypeOf)
	assert.Equal(t, engine.ErrInvalidQuantity.Error(), report.Err)

	_, ok := book.BestBid()
	assert.False(t, ok, "rejected order must not mutate the book")
}

func TestDispatch_SnapshotAndTopOfBook(t *testing.T) {
	book := engine.NewBook()
	ts := time.Unix(0, 1)
	_, err := book.SubmitLimitOrder(common.Buy, 99.0, 10, "bid-1", ts)
	require.NoError(t, err)
	_, err = book.SubmitLimitOrder(common.Sell, 100.0, 5, "ask-1", ts)
	require.NoError(t, err)

	s := New("127.0.0.1", 0, book)
	conn, address := pipeSession(t, s)

	reports := readReport(t, conn)
	s.dispatch(ClientMessage{
		clientAddress: address,
		message:       mustParse(t, EncodeSnapshotRequest(5)),
	})

	snapshot := <-reports
	require.Equal(t, SnapshotReport, snapshot.TypeOf)
	assert.Equal(t, []engine.LevelSummary{{Price: 99.0, Quantity: 10}}, snapshot.Snapshot.Bids)
	assert.Equal(t, []engine.LevelSummary{{Price: 100.0, Quantity: 5}}, snapshot.Snapshot.Asks)

	reports = readReport(t, conn)
	s.dispatch(ClientMessage{
		clientAddress: address,
		message:       mustParse(t, EncodeTopOfBookRequest()),
	})

	top := <-reports
	require.Equal(t, TopOfBookReport, top.TypeOf)
	assert.True(t, top.HasBid)
	assert.Equal(t, 99.0, top.BestBid)
	assert.True(t, top.HasAsk)
	assert.Equal(t, 100.0, top.BestAsk)
}
