package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

// EventsTopic carries every campaign lifecycle event.
const EventsTopic = "campaign_events"

// Handler processes one event. Returning an error asks the queue to retry.
type Handler func(ctx context.Context, event model.CampaignEvent) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, event model.CampaignEvent) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers events to in-process subscribers with retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	inflight sync.WaitGroup

	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Logger:     logger,
	}
}

// job wraps an event with retry info
type job struct {
	event      model.CampaignEvent
	retryCount int
}

// Publish hands the event to every subscriber of topic in the background.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, event model.CampaignEvent) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.inflight.Add(1)
		go q.processJob(context.WithoutCancel(ctx), topic, handler, job{event: event})
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(ctx context.Context, topic string, handler Handler, j job) {
	defer q.inflight.Done()

	for j.retryCount <= q.MaxRetries {
		err := handler(ctx, j.event)
		if err == nil {
			q.Logger.Debug("job processed", zap.String("topic", topic), zap.String("event", string(j.event.Type)))
			return // ACK
		}

		j.retryCount++
		q.Logger.Warn("job failed",
			zap.String("topic", topic),
			zap.Int("attempt", j.retryCount),
			zap.Int("max_retries", q.MaxRetries),
			zap.Error(err),
		)

		if j.retryCount > q.MaxRetries {
			q.Logger.Error("job permanently failed", zap.String("topic", topic), zap.Any("event", j.event))
			return // No requeue
		}

		// linear backoff before retry
		time.Sleep(time.Duration(j.retryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished, retries included.
func (q *InMemoryQueue) Wait() {
	q.inflight.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
