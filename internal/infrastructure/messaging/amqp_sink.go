package messaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ inventory.EventSink = (*AMQPSink)(nil)

// amqpChannel lo implementa *amqp.Channel.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publica StockChanged en un exchange topic de RabbitMQ.
// Routing key: stock.<type> (stock.in, stock.out, stock.adjustment, stock.reserve, stock.release).
type AMQPSink struct {
	mu       sync.Mutex // amqp.Channel no es seguro para publicar concurrentemente
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// DialAMQPSink conecta, abre canal y declara el exchange (durable, topic).
func DialAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("conectar RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declarar exchange %s: %w", exchange, err)
	}
	return &AMQPSink{conn: conn, channel: ch, exchange: exchange}, nil
}

func routingKey(e entity.StockChanged) string {
	return "stock." + e.Type
}

func (s *AMQPSink) Emit(_ context.Context, e entity.StockChanged) error {
	body, err := encodeEvent(e)
	if err != nil {
		return err
	}
	msgID := e.MovementID
	if msgID == "" {
		msgID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.channel.Publish(s.exchange, routingKey(e), false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    msgID,
		Timestamp:    e.Timestamp,
		Headers: amqp.Table{
			"product_id": e.ProductID,
			"event_type": e.Type,
		},
	})
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", routingKey(e), err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.channel.Close()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
