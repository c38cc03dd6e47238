package queue

import (
	"context"

	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

// Notifier delivers a JSON body to a URL.
type Notifier interface {
	Notify(ctx context.Context, url string, body any) error
}

// EventRelay forwards lifecycle events to the workflow control webhook so
// running automations learn about stop, pause and resume. Without a URL it
// only logs.
type EventRelay struct {
	Notifier   Notifier
	ControlURL string
	Logger     *zap.Logger
}

func (r *EventRelay) Handle(ctx context.Context, event model.CampaignEvent) error {
	r.Logger.Info("campaign event",
		zap.String("type", string(event.Type)),
		zap.Int("campaign_id", event.CampaignID),
		zap.Int64("affected", event.Affected),
	)
	if r.ControlURL == "" {
		return nil
	}
	return r.Notifier.Notify(ctx, r.ControlURL, event)
}

// StartEventRelay subscribes the relay to topic, EventsTopic when empty.
func StartEventRelay(q Queue, topic string, relay *EventRelay) error {
	if topic == "" {
		topic = EventsTopic
	}
	return q.Subscribe(topic, relay.Handle)
}
