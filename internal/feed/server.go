package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"skoll/internal/common"
	"skoll/internal/engine"
)

const subscriberBuffer = 16

// Server is the market-data surface: an HTTP depth snapshot plus
// websocket streams of fills and book updates. It implements
// engine.Reporter so the book pushes each settled fill through it.
type Server struct {
	address  string
	depth    int
	book     *engine.Book
	upgrader websocket.Upgrader
	trades   *hub[common.Trade]
	books    *hub[engine.BookSnapshot]
}

func NewServer(address string, depth int, book *engine.Book) *Server {
	return &Server{
		address:  address,
		depth:    depth,
		book:     book,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		trades:   newHub[common.Trade](),
		books:    newHub[engine.BookSnapshot](),
	}
}

// ReportTrade broadcasts the fill and a refreshed depth view to every
// subscribed stream. Called by the book after the submission settled, so
// the snapshot taken here is never mid-match.
func (s *Server) ReportTrade(trade common.Trade) error {
	s.trades.Broadcast(trade)
	s.books.Broadcast(s.book.Snapshot(s.depth))
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/book", s.handleSnapshot)
	mux.HandleFunc("/ws/trades", s.handleTradeStream)
	mux.HandleFunc("/ws/book", s.handleBookStream)
	return mux
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	srv := &http.Server{Addr: s.address, Handler: s.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("feed shutdown")
		}
	}()

	log.Info().Str("address", s.address).Msg("feed running")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("feed listener failed")
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	depth := s.depth
	if q := r.URL.Query().Get("depth"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil {
			depth = parsed
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.book.Snapshot(depth)); err != nil {
		log.Error().Err(err).Msg("encoding snapshot")
	}
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("trade stream upgrade failed")
		return
	}

	sub := s.trades.Subscribe(subscriberBuffer)
	defer s.trades.Unsubscribe(sub)
	defer conn.Close()

	for trade := range sub.ch {
		if err := conn.WriteJSON(trade); err != nil {
			return
		}
	}
}

func (s *Server) handleBookStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("book stream upgrade failed")
		return
	}

	sub := s.books.Subscribe(subscriberBuffer)
	defer s.books.Unsubscribe(sub)
	defer conn.Close()

	// Seed the stream so a new subscriber sees the book immediately.
	if err := conn.WriteJSON(s.book.Snapshot(s.depth)); err != nil {
		return
	}

	for snap := range sub.ch {
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}
}
