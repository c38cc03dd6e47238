package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
	"github.com/unclebandit/prospecting-dashboard/internal/queue"
	"github.com/unclebandit/prospecting-dashboard/internal/workflow"
)

// --- Mock Repositories ---

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns []*model.Campaign
	failWith  error
}

func (m *MockCampaignRepo) CreateIfUnderLimit(ctx context.Context, c *model.Campaign, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	active := m.countLocked(model.StatusActive)
	if active >= limit {
		return active, appErrors.NewAdmissionDenied(active, limit)
	}
	c.ID = len(m.campaigns) + 1
	c.Status = model.StatusActive
	c.StartedAt = time.Now().UTC()
	copied := *c
	m.campaigns = append(m.campaigns, &copied)
	return active, nil
}

func (m *MockCampaignRepo) TransitionAll(ctx context.Context, from []model.Status, to model.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for _, c := range m.campaigns {
		for _, f := range from {
			if c.Status == f {
				c.Status = to
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *MockCampaignRepo) UpdateStatus(ctx context.Context, id int, status model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.ID == id {
			c.Status = status
			return nil
		}
	}
	return appErrors.NewCampaignNotFound(id)
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (m *MockCampaignRepo) ListByStatus(ctx context.Context, status model.Status) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.Status == status {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockCampaignRepo) ListCampaigns(ctx context.Context, offset, limit int, kind string, status *model.Status) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*model.Campaign
	for _, c := range m.campaigns {
		if kind != "" && c.Kind != kind {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		matched = append(matched, c)
	}
	total := len(matched)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *MockCampaignRepo) CountByStatus(ctx context.Context, status model.Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	return m.countLocked(status), nil
}

func (m *MockCampaignRepo) ChartSeries(ctx context.Context) ([]model.ChartPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ChartPoint{}
	for _, c := range m.campaigns {
		out = append(out, model.ChartPoint{Kind: c.Kind, Leads: c.LeadsReached, StartedAt: c.StartedAt})
	}
	return out, nil
}

func (m *MockCampaignRepo) countLocked(status model.Status) int {
	n := 0
	for _, c := range m.campaigns {
		if c.Status == status {
			n++
		}
	}
	return n
}

func (m *MockCampaignRepo) seed(status model.Status, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns = append(m.campaigns, &model.Campaign{
		ID:          len(m.campaigns) + 1,
		CompanyType: "Padaria",
		State:       "SP",
		City:        "Campinas",
		Kind:        kind,
		Status:      status,
		StartedAt:   time.Now().UTC(),
	})
}

func (m *MockCampaignRepo) statuses() []model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Status, len(m.campaigns))
	for i, c := range m.campaigns {
		out[i] = c.Status
	}
	return out
}

type MockCityRepo struct {
	cities map[string][]string
	asked  []string
}

func (m *MockCityRepo) CitiesByState(ctx context.Context, state string) ([]string, error) {
	m.asked = append(m.asked, state)
	out := append([]string{}, m.cities[state]...)
	sort.Strings(out)
	return out, nil
}

type MockUserRepo struct {
	users map[string]*model.User
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *MockUserRepo) Create(ctx context.Context, u *model.User) error {
	if m.users == nil {
		m.users = map[string]*model.User{}
	}
	u.ID = len(m.users) + 1
	m.users[strings.ToLower(u.Email)] = u
	return nil
}

func (m *MockUserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

type MockSessionRepo struct {
	sessions map[string]*model.Session
}

func newMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{sessions: map[string]*model.Session{}}
}

func (m *MockSessionRepo) Create(ctx context.Context, s *model.Session) error {
	if _, exists := m.sessions[s.Token]; exists {
		return errors.New("duplicate token")
	}
	copied := *s
	m.sessions[s.Token] = &copied
	return nil
}

func (m *MockSessionRepo) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *MockSessionRepo) Delete(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *MockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// --- Mock workflow + queue ---

type triggerCall struct {
	Kind    string
	URL     string
	Payload workflow.Payload
}

type MockWorkflow struct {
	mu    sync.Mutex
	calls []triggerCall
	err   error
}

func (m *MockWorkflow) Trigger(ctx context.Context, kind, url string, p workflow.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, triggerCall{Kind: kind, URL: url, Payload: p})
	return m.err
}

type MockQueue struct {
	mu     sync.Mutex
	events []model.CampaignEvent
	err    error
}

func (m *MockQueue) Publish(ctx context.Context, topic string, ev model.CampaignEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *MockQueue) Subscribe(topic string, h queue.Handler) error {
	return nil
}

func (m *MockQueue) types() []model.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EventType, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Type
	}
	return out
}
