package net

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"skoll/internal/common"
	"skoll/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short")
	ErrInvalidReportType  = errors.New("invalid report type")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	SnapshotRequest
	TopOfBookRequest
)

type ReportMessageType int

const (
	OrderAck ReportMessageType = iota
	SnapshotReport
	TopOfBookReport
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants. All integers are big-endian; prices travel
// as IEEE 754 bits.
const (
	BaseMessageHeaderLen     = 2
	NewOrderMessageHeaderLen = 2 + 1 + 8 + 8
	SnapshotMessageHeaderLen = 2
)

// Generic message type.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case Heartbeat:
		return BaseMessage{TypeOf: Heartbeat}, nil
	case NewOrder:
		m, err := parseNewOrder(msg)
		return m, err
	case SnapshotRequest:
		m, err := parseSnapshotRequest(msg)
		return m, err
	case TopOfBookRequest:
		return BaseMessage{TypeOf: TopOfBookRequest}, nil
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

type NewOrderMessage struct {
	BaseMessage
	OrderType  common.OrderType // 2 bytes
	Side       common.Side      // 1 byte
	LimitPrice float64          // 8 bytes
	Quantity   uint64           // 8 bytes
}

// Order mints the id and arrival timestamp and builds the order to hand
// to the book. Validation of side and quantity is the book's job.
func (m *NewOrderMessage) Order() common.Order {
	return common.Order{
		ID:          uuid.New().String(),
		Side:        m.Side,
		Type:        m.OrderType,
		Price:       m.LimitPrice,
		Quantity:    m.Quantity,
		SubmittedAt: time.Now(),
	}
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.OrderType = common.OrderType(binary.BigEndian.Uint16(msg[0:2]))
	m.Side = common.Side(msg[2])
	m.LimitPrice = math.Float64frombits(binary.BigEndian.Uint64(msg[3:11]))
	m.Quantity = binary.BigEndian.Uint64(msg[11:19])
	return m, nil
}

// EncodeNewOrder builds the wire frame for a new order submission.
func EncodeNewOrder(orderType common.OrderType, side common.Side, price float64, quantity uint64) []byte {
	buf := make([]byte, BaseMessageHeaderLen+NewOrderMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(orderType))
	buf[4] = byte(side)
	binary.BigEndian.PutUint64(buf[5:13], math.Float64bits(price))
	binary.BigEndian.PutUint64(buf[13:21], quantity)
	return buf
}

type SnapshotRequestMessage struct {
	BaseMessage
	Depth uint16 // 2 bytes
}

func parseSnapshotRequest(msg []byte) (SnapshotRequestMessage, error) {
	if len(msg) < SnapshotMessageHeaderLen {
		return SnapshotRequestMessage{}, ErrMessageTooShort
	}

	m := SnapshotRequestMessage{BaseMessage: BaseMessage{TypeOf: SnapshotRequest}}
	m.Depth = binary.BigEndian.Uint16(msg[0:2])
	return m, nil
}

// EncodeSnapshotRequest builds the wire frame for a depth request.
func EncodeSnapshotRequest(depth uint16) []byte {
	buf := make([]byte, BaseMessageHeaderLen+SnapshotMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(SnapshotRequest))
	binary.BigEndian.PutUint16(buf[2:4], depth)
	return buf
}

// EncodeTopOfBookRequest builds the wire frame for a best-price request.
func EncodeTopOfBookRequest() []byte {
	buf := make([]byte, BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(TopOfBookRequest))
	return buf
}

// Report is the server-to-client response frame. Which fields are
// populated depends on TypeOf.
type Report struct {
	TypeOf   ReportMessageType
	OrderID  string
	Err      string
	Snapshot engine.BookSnapshot
	BestBid  float64
	HasBid   bool
	BestAsk  float64
	HasAsk   bool
}

const (
	topOfBookReportLen = 1 + 1 + 8 + 8
	levelSummaryLen    = 8 + 8
)

// Serialize converts the report to be sent on the wire.
func (r *Report) Serialize() ([]byte, error) {
	switch r.TypeOf {
	case OrderAck:
		buf := make([]byte, 2+len(r.OrderID))
		buf[0] = byte(OrderAck)
		buf[1] = uint8(len(r.OrderID))
		copy(buf[2:], r.OrderID)
		return buf, nil

	case ErrorReport:
		buf := make([]byte, 5+len(r.Err))
		buf[0] = byte(ErrorReport)
		binary.BigEndian.PutUint32(buf[1:5], uint32(len(r.Err)))
		copy(buf[5:], r.Err)
		return buf, nil

	case TopOfBookReport:
		buf := make([]byte, topOfBookReportLen)
		buf[0] = byte(TopOfBookReport)
		if r.HasBid {
			buf[1] |= 0x01
		}
		if r.HasAsk {
			buf[1] |= 0x02
		}
		binary.BigEndian.PutUint64(buf[2:10], math.Float64bits(r.BestBid))
		binary.BigEndian.PutUint64(buf[10:18], math.Float64bits(r.BestAsk))
		return buf, nil

	case SnapshotReport:
		nBids := len(r.Snapshot.Bids)
		nAsks := len(r.Snapshot.Asks)
		buf := make([]byte, 5+(nBids+nAsks)*levelSummaryLen)
		buf[0] = byte(SnapshotReport)
		binary.BigEndian.PutUint16(buf[1:3], uint16(nBids))
		binary.BigEndian.PutUint16(buf[3:5], uint16(nAsks))
		offset := 5
		putLevel := func(lvl engine.LevelSummary) {
			binary.BigEndian.PutUint64(buf[offset:offset+8], math.Float64bits(lvl.Price))
			binary.BigEndian.PutUint64(buf[offset+8:offset+16], lvl.Quantity)
			offset += levelSummaryLen
		}
		for _, lvl := range r.Snapshot.Bids {
			putLevel(lvl)
		}
		for _, lvl := range r.Snapshot.Asks {
			putLevel(lvl)
		}
		return buf, nil
	}
	return nil, ErrInvalidReportType
}

// ParseReport decodes a server response frame. Used by clients and in
// codec tests; the server only serializes.
func ParseReport(msg []byte) (Report, error) {
	if len(msg) < 1 {
		return Report{}, ErrMessageTooShort
	}

	r := Report{TypeOf: ReportMessageType(msg[0])}
	switch r.TypeOf {
	case OrderAck:
		if len(msg) < 2 {
			return Report{}, ErrMessageTooShort
		}
		idLen := int(msg[1])
		if len(msg) < 2+idLen {
			return Report{}, ErrMessageTooShort
		}
		r.OrderID = string(msg[2 : 2+idLen])
		return r, nil

	case ErrorReport:
		if len(msg) < 5 {
			return Report{}, ErrMessageTooShort
		}
		errLen := int(binary.BigEndian.Uint32(msg[1:5]))
		if len(msg) < 5+errLen {
			return Report{}, ErrMessageTooShort
		}
		r.Err = string(msg[5 : 5+errLen])
		return r, nil

	case TopOfBookReport:
		if len(msg) < topOfBookReportLen {
			return Report{}, ErrMessageTooShort
		}
		r.HasBid = msg[1]&0x01 != 0
		r.HasAsk = msg[1]&0x02 != 0
		r.BestBid = math.Float64frombits(binary.BigEndian.Uint64(msg[2:10]))
		r.BestAsk = math.Float64frombits(binary.BigEndian.Uint64(msg[10:18]))
		return r, nil

	case SnapshotReport:
		if len(msg) < 5 {
			return Report{}, ErrMessageTooShort
		}
		nBids := int(binary.BigEndian.Uint16(msg[1:3]))
		nAsks := int(binary.BigEndian.Uint16(msg[3:5]))
		if len(msg) < 5+(nBids+nAsks)*levelSummaryLen {
			return Report{}, ErrMessageTooShort
		}
		offset := 5
		parseLevel := func() engine.LevelSummary {
			lvl := engine.LevelSummary{
				Price:    math.Float64frombits(binary.BigEndian.Uint64(msg[offset : offset+8])),
				Quantity: binary.BigEndian.Uint64(msg[offset+8 : offset+16]),
			}
			offset += levelSummaryLen
			return lvl
		}
		for i := 0; i < nBids; i++ {
			r.Snapshot.Bids = append(r.Snapshot.Bids, parseLevel())
		}
		for i := 0; i < nAsks; i++ {
			r.Snapshot.Asks = append(r.Snapshot.Asks, parseLevel())
		}
		return r, nil
	}
	return Report{}, ErrInvalidReportType
}
