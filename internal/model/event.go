// internal/model/event.go
package model

import "time"

type EventType string

const (
	EventLaunched     EventType = "launched"
	EventLaunchFailed EventType = "launch_failed"
	EventStopped      EventType = "stopped"
	EventPaused       EventType = "paused"
	EventResumed      EventType = "resumed"
)

// CampaignEvent is published on the event queue after every lifecycle change.
// CampaignID is set for launches; bulk transitions carry Affected instead.
type CampaignEvent struct {
	Type       EventType `json:"type"`
	CampaignID int       `json:"campaign_id,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Affected   int64     `json:"affected"`
	At         time.Time `json:"at"`
}
