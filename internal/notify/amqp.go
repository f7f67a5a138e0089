package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the fanout exchange notifications are published to.
const ExchangeName = "notifications_fanout"

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes notifications to a RabbitMQ fanout exchange. The room is
// used as routing key so topic consumers can bind to it as well. Each message
// carries a ULID message id consumers can deduplicate redeliveries on.
type AMQPSink struct {
	pub  Publisher
	conn *amqp.Connection
}

func NewAMQPSink(pub Publisher) *AMQPSink {
	return &AMQPSink{pub: pub}
}

// DialAMQP connects to url and declares the notification exchange.
func DialAMQP(url string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		"fanout",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPSink{pub: ch, conn: conn}, nil
}

func (s *AMQPSink) Deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.pub.PublishWithContext(ctx,
		ExchangeName, // exchange
		n.Room,       // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			MessageId:    ulid.Make().String(),
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    n.CreatedAt,
			Body:         body,
		})
}

// Close closes the underlying connection, if the sink owns one.
func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
