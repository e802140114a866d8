package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ inventory.EventSink = (*KafkaSink)(nil)

// messageWriter lo implementa *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publica StockChanged en un tópico, con el product_id como key para
// conservar el orden de eventos por producto dentro de la partición.
type KafkaSink struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaSink crea el writer hacia brokers/topic.
func NewKafkaSink(brokers []string, topic string, timeout time.Duration) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSink{writer: writer, timeout: timeout}
}

func encodeEvent(e entity.StockChanged) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("serializar evento: %w", err)
	}
	return data, nil
}

func (s *KafkaSink) Emit(ctx context.Context, e entity.StockChanged) error {
	data, err := encodeEvent(e)
	if err != nil {
		return err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ProductID),
		Value: data,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
