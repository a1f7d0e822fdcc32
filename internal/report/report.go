// Package report holds the fill observers wired into the book: a
// structured-log reporter, a Kafka publisher, and a fan-out combinator.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"skoll/internal/common"
	"skoll/internal/engine"
)

const kafkaWriteTimeout = 5 * time.Second

// Log writes each fill to the structured log.
type Log struct{}

func (Log) ReportTrade(trade common.Trade) error {
	log.Info().
		Str("buy", trade.BuyOrderID).
		Str("sell", trade.SellOrderID).
		Float64("price", trade.Price).
		Uint64("quantity", trade.Quantity).
		Time("timestamp", trade.Timestamp).
		Msg("trade")
	return nil
}

// Kafka publishes each fill as a JSON record, keyed by the buy-side
// order id so fills for one taker land in one partition.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (k *Kafka) ReportTrade(trade common.Trade) error {
	payload, err := json.Marshal(trade)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), kafkaWriteTimeout)
	defer cancel()

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(trade.BuyOrderID),
		Value: payload,
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Multi fans each fill out to every reporter, delivering to all of them
// even when some fail.
type Multi []engine.Reporter

func (m Multi) ReportTrade(trade common.Trade) error {
	var errs []error
	for _, r := range m {
		if err := r.ReportTrade(trade); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
