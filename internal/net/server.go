package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"skoll/internal/common"
	"skoll/internal/engine"
	"skoll/internal/utils"
)

const (
	MAX_RECV_SIZE      = 4 * 1024
	defaultNWorkers    = 10
	defaultIdleTimeout = 30 * time.Second
)

var ErrImproperConversion = errors.New("improper type conversion")

// ClientSession contains relevant information pertaining to an
// individual connected TCP session.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a message to the client sending it.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// Server is the order gateway: it frames and parses client messages,
// mints order ids and arrival timestamps, and forwards submissions to
// the book. The book itself never touches the wire.
type Server struct {
	address            string
	port               int
	book               *engine.Book
	pool               utils.WorkerPool
	cancel             context.CancelFunc
	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex
	clientMessages     chan ClientMessage
}

func New(address string, port int, book *engine.Book) *Server {
	return &Server{
		address:        address,
		port:           port,
		book:           book,
		pool:           utils.NewWorkerPool(defaultNWorkers),
		clientSessions: make(map[string]ClientSession),
		clientMessages: make(chan ClientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("gateway shutting down")
	s.cancel()
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	// Setup a cancel on the context for future shutdown.
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	// Start a tcp listener.
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	// Close the listener when the tomb dies so Accept unblocks.
	t.Go(func() error {
		<-t.Dying()
		return listener.Close()
	})

	// Start the worker pool.
	s.pool.Setup(t, s.handleConnection)

	// Start the session handler.
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("gateway running")

	// Start accepting connections.
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().
				Str("address", conn.RemoteAddr().String()).
				Msg("new client added")
			// Add the client to client sessions we are tracking.
			// We expect to potentially maintain a long TCP session.
			s.addClientSession(conn)

			// Pass over the connection to be read from.
			s.pool.AddTask(conn)
		}
	}
}

// sessionHandler reads off incoming messages from clients and dispatches
// them against the book. All submissions funnel through this one
// goroutine, so clients observe FIFO admission: matching outcomes follow
// the order in which messages were accepted here.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.clientMessages:
			s.dispatch(msg)
		}
	}
}

func (s *Server) dispatch(msg ClientMessage) {
	switch m := msg.message.(type) {
	case NewOrderMessage:
		s.handleNewOrder(msg.clientAddress, m)
	case SnapshotRequestMessage:
		s.send(msg.clientAddress, Report{
			TypeOf:   SnapshotReport,
			Snapshot: s.book.Snapshot(int(m.Depth)),
		})
	case BaseMessage:
		switch m.TypeOf {
		case TopOfBookRequest:
			report := Report{TypeOf: TopOfBookReport}
			report.BestBid, report.HasBid = s.book.BestBid()
			report.BestAsk, report.HasAsk = s.book.BestAsk()
			s.send(msg.clientAddress, report)
		case Heartbeat:
			// Keepalive only.
		}
	}
}

func (s *Server) handleNewOrder(clientAddress string, m NewOrderMessage) {
	order := m.Order()

	var err error
	switch m.OrderType {
	case common.LimitOrder:
		_, err = s.book.SubmitLimitOrder(order.Side, order.Price, order.Quantity, order.ID, order.SubmittedAt)
	case common.MarketOrder:
		_, err = s.book.SubmitMarketOrder(order.Side, order.Quantity, order.ID, order.SubmittedAt)
	default:
		err = ErrInvalidMessageType
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("address", clientAddress).
			Msg("order rejected")
		s.send(clientAddress, Report{TypeOf: ErrorReport, Err: err.Error()})
		return
	}

	log.Info().
		Str("id", order.ID).
		Str("side", order.Side.String()).
		Str("type", order.Type.String()).
		Uint64("quantity", m.Quantity).
		Float64("price", m.LimitPrice).
		Msg("order accepted")
	s.send(clientAddress, Report{TypeOf: OrderAck, OrderID: order.ID})
}

// send serializes a report to the named client, dropping the session on
// a write failure.
func (s *Server) send(clientAddress string, report Report) {
	buf, err := report.Serialize()
	if err != nil {
		log.Error().Err(err).Msg("unable to serialize report")
		return
	}

	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[clientAddress]
	if !ok {
		log.Warn().Str("address", clientAddress).Msg("report for unknown client")
		return
	}

	if _, err := client.conn.Write(buf); err != nil {
		log.Error().Err(err).Str("address", clientAddress).Msg("unable to send report")
		delete(s.clientSessions, clientAddress)
	}
}

// handleConnection is a short-lived worker method which reads the next
// message off the connection, parses and passes it forward to
// sessionHandler. If the connection dies, the client session is cleaned
// up. This method does not lock any client session directly and gives up
// early if the connection is terminated.
// Note, any error returned from here is fatal.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	address := conn.RemoteAddr().String()

	// Bound how long an idle session may sit between messages.
	if err := conn.SetReadDeadline(time.Now().Add(defaultIdleTimeout)); err != nil {
		log.Error().
			Str("address", address).
			Err(err).
			Msg("failed setting deadline for connection")
		s.dropConnection(conn)
		return nil
	}

	buffer := make([]byte, MAX_RECV_SIZE)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			// If a read from a client fails, it is likely that the
			// client has exited. Clean up the client session.
			log.Info().
				Err(err).
				Str("address", address).
				Msg("closing client connection")
			s.dropConnection(conn)
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().
				Err(err).
				Str("address", address).
				Msg("error parsing message")
			s.send(address, Report{TypeOf: ErrorReport, Err: err.Error()})
		} else {
			// Pass over to the message handling buffer and exit this
			// worker.
			s.clientMessages <- ClientMessage{
				message:       message,
				clientAddress: address,
			}
		}

		// Push the client connection back to handle the next message.
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) dropConnection(conn net.Conn) {
	s.deleteClientSession(conn.RemoteAddr().String())
	if err := conn.Close(); err != nil {
		log.Error().Str("address", conn.RemoteAddr().String()).Err(err).Msg("closing connection")
	}
}

// addClientSession is an atomic map add
func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{
		conn: conn,
	}
}

// deleteClientSession is an atomic map remove
func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	delete(s.clientSessions, address)
}
