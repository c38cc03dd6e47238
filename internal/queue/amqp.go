package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes and consumes events through RabbitMQ. Each topic maps to
// a durable queue of the same name on the default exchange.
type AMQPQueue struct {
	conn   *amqp.Connection
	logger *zap.Logger

	mu       sync.Mutex
	pub      *amqp.Channel
	declared map[string]bool

	// republish puts a failed delivery back on topic; publish in production.
	republish func(topic string, body []byte, retryCount int) error

	MaxRetries int
}

func DialAMQP(url string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open publish channel: %w", err)
	}

	q := &AMQPQueue{
		conn:       conn,
		logger:     logger,
		pub:        ch,
		declared:   map[string]bool{},
		MaxRetries: 3,
	}
	q.republish = q.publish
	return q, nil
}

func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func (q *AMQPQueue) Publish(ctx context.Context, topic string, event model.CampaignEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retryCount int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.declared[topic] {
		if err := declare(q.pub, topic); err != nil {
			return fmt.Errorf("declare queue %s: %w", topic, err)
		}
		q.declared[topic] = true
	}

	return q.pub.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{retryHeader: int32(retryCount)},
			Body:         body,
		},
	)
}

// Subscribe starts consuming topic on its own channel. A failed delivery is
// republished with an incremented retry header and acked, until MaxRetries
// is reached; then it is logged and dropped. Only a failed republish nacks
// the delivery back onto the queue.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	if err := declare(ch, topic); err != nil {
		ch.Close()
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		defer ch.Close()
		for d := range msgs {
			q.handleDelivery(topic, d, handler)
		}
		q.logger.Info("consumer stopped", zap.String("topic", topic))
	}()
	return nil
}

func (q *AMQPQueue) handleDelivery(topic string, d amqp.Delivery, handler Handler) {
	var event model.CampaignEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		q.logger.Warn("invalid event", zap.String("topic", topic), zap.Error(err))
		d.Ack(false)
		return
	}

	if err := handler(context.Background(), event); err != nil {
		retryCount := RetryCount(d.Headers)
		q.logger.Warn("event handler failed",
			zap.String("topic", topic),
			zap.Int("attempt", retryCount+1),
			zap.Error(err),
		)
		if retryCount < q.MaxRetries {
			if perr := q.republish(topic, d.Body, retryCount+1); perr != nil {
				q.logger.Error("requeue failed", zap.Error(perr))
				d.Nack(false, true)
				return
			}
		} else {
			q.logger.Error("event permanently failed", zap.String("topic", topic), zap.Any("event", event))
		}
	}

	d.Ack(false)
}

// RetryCount reads the retry header whatever integer width the broker kept.
func RetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}

// Closed reports when the broker connection goes away.
func (q *AMQPQueue) Closed() <-chan *amqp.Error {
	return q.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	q.pub.Close()
	q.mu.Unlock()
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
