// internal/model/campaign.go
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state stored in campaigns.status.
type Status int

const (
	StatusStopped Status = 0
	StatusActive  Status = 1
	StatusPaused  Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus accepts either the name ("active") or the stored number ("1").
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "stopped", "0":
		return StatusStopped, nil
	case "active", "1":
		return StatusActive, nil
	case "paused", "2":
		return StatusPaused, nil
	}
	return 0, fmt.Errorf("unknown campaign status %q", v)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		var n int
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return err
		}
		raw = fmt.Sprint(n)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Campaign struct {
	ID           int        `db:"id" json:"id"`
	CompanyType  string     `db:"company_type" json:"company_type"`
	State        string     `db:"state" json:"state"`
	City         string     `db:"city" json:"city"`
	Kind         string     `db:"kind" json:"kind"`
	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	LeadsReached int        `db:"leads_reached" json:"leads_reached"`
	Status       Status     `db:"status" json:"status"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ChartPoint is the per-campaign projection the dashboard chart consumes.
type ChartPoint struct {
	Kind      string    `json:"kind"`
	Leads     int       `json:"leads"`
	StartedAt time.Time `json:"started_at"`
}
