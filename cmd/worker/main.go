// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/config"
	"github.com/unclebandit/prospecting-dashboard/internal/logging"
	"github.com/unclebandit/prospecting-dashboard/internal/queue"
	"github.com/unclebandit/prospecting-dashboard/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL must be set for the worker")
	}
	if cfg.Workflow.ControlWebhook == "" {
		logger.Warn("N8N_CONTROL_WEBHOOK is empty; events will only be logged")
	}

	// Connect to RabbitMQ
	q, err := queue.DialAMQP(cfg.AMQPURL, logger)
	if err != nil {
		return err
	}
	defer q.Close()

	relay := newRelay(cfg, logger)
	if err := queue.StartEventRelay(q, cfg.AMQPQueue, relay); err != nil {
		return err
	}

	logger.Info("worker running, waiting for campaign events", zap.String("queue", cfg.AMQPQueue))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case amqpErr := <-q.Closed():
		if amqpErr == nil {
			return nil
		}
		return fmt.Errorf("broker connection lost: %w", amqpErr)
	}
}

func newRelay(cfg *config.Config, logger *zap.Logger) *queue.EventRelay {
	return &queue.EventRelay{
		Notifier:   workflow.NewClient(cfg.Workflow.Timeout),
		ControlURL: cfg.Workflow.ControlWebhook,
		Logger:     logger,
	}
}
