// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
	"github.com/unclebandit/prospecting-dashboard/internal/queue"
	"github.com/unclebandit/prospecting-dashboard/internal/repository"
	"github.com/unclebandit/prospecting-dashboard/internal/workflow"
)

// WorkflowTrigger starts the external automation behind a campaign kind.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, kind, url string, p workflow.Payload) error
}

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CityRepo     repository.CityRepositoryInterface
	Admission    *AdmissionController
	Routes       workflow.Routes
	Workflow     WorkflowTrigger
	Queue        queue.Queue
	// Topic defaults to queue.EventsTopic.
	Topic  string
	Logger *zap.Logger
}

type LaunchRequest struct {
	CompanyType string
	State       string
	City        string
	Kind        string
}

// TransitionResult describes a bulk stop, pause or resume. Affected == 0 is a
// normal outcome and Message says there was nothing to do.
type TransitionResult struct {
	Action   model.EventType `json:"action"`
	Affected int64           `json:"affected"`
	Message  string          `json:"message"`
}

type DashboardData struct {
	Active      []*model.Campaign
	Chart       []model.ChartPoint
	ActiveCount int
	Limit       int
}

// ====================== Lifecycle ======================

// Launch resolves the workflow for req.Kind, admits a new Active campaign and
// triggers the workflow. An unknown kind touches nothing. A failed trigger
// leaves the row Stopped and returns the workflow error together with the
// campaign.
func (s *CampaignService) Launch(ctx context.Context, req LaunchRequest) (*model.Campaign, error) {
	req = req.normalized()
	if err := req.validate(); err != nil {
		return nil, err
	}

	url, ok := s.Routes.Resolve(req.Kind)
	if !ok {
		return nil, &appErrors.UnknownKindError{Kind: req.Kind}
	}

	c := &model.Campaign{
		CompanyType: req.CompanyType,
		State:       req.State,
		City:        req.City,
		Kind:        req.Kind,
	}
	if err := s.Admission.Admit(ctx, c); err != nil {
		return nil, err
	}

	err := s.Workflow.Trigger(ctx, c.Kind, url, workflow.Payload{
		TipoEmpresa: c.CompanyType,
		Estado:      c.State,
		Cidade:      c.City,
	})
	if err != nil {
		s.Logger.Error("workflow trigger failed", zap.Int("campaign_id", c.ID), zap.String("kind", c.Kind), zap.Error(err))
		// the request may already be canceled; the row must still be released
		if uerr := s.CampaignRepo.UpdateStatus(context.WithoutCancel(ctx), c.ID, model.StatusStopped); uerr != nil {
			s.Logger.Error("failed to stop campaign after workflow failure", zap.Int("campaign_id", c.ID), zap.Error(uerr))
		} else {
			c.Status = model.StatusStopped
		}
		s.publish(ctx, model.CampaignEvent{Type: model.EventLaunchFailed, CampaignID: c.ID, Kind: c.Kind, Affected: 1})
		return c, err
	}

	s.Logger.Info("campaign launched", zap.Int("campaign_id", c.ID), zap.String("kind", c.Kind), zap.String("state", c.State))
	s.publish(ctx, model.CampaignEvent{Type: model.EventLaunched, CampaignID: c.ID, Kind: c.Kind, Affected: 1})
	return c, nil
}

// Stop ends every Active campaign. Paused campaigns are left alone.
func (s *CampaignService) Stop(ctx context.Context) (TransitionResult, error) {
	return s.transition(ctx, model.EventStopped,
		[]model.Status{model.StatusActive}, model.StatusStopped,
		"no active campaign to stop", "stop command executed, wait a moment before starting a new campaign")
}

func (s *CampaignService) Pause(ctx context.Context) (TransitionResult, error) {
	return s.transition(ctx, model.EventPaused,
		[]model.Status{model.StatusActive}, model.StatusPaused,
		"no active campaign to pause", "campaigns paused")
}

// Resume reactivates paused campaigns without going through admission, so
// the active count can end up above the limit. That case is logged.
func (s *CampaignService) Resume(ctx context.Context) (TransitionResult, error) {
	result, err := s.transition(ctx, model.EventResumed,
		[]model.Status{model.StatusPaused}, model.StatusActive,
		"no paused campaign to resume", "campaigns resumed")
	if err != nil || result.Affected == 0 {
		return result, err
	}

	active, limit, serr := s.Admission.Snapshot(ctx)
	if serr != nil {
		s.Logger.Warn("could not recount active campaigns after resume", zap.Error(serr))
		return result, nil
	}
	if active > limit {
		s.Logger.Warn("resume left more campaigns active than the limit allows",
			zap.Int("active", active),
			zap.Int("limit", limit),
		)
	}
	return result, nil
}

func (s *CampaignService) transition(ctx context.Context, action model.EventType, from []model.Status, to model.Status, noop, done string) (TransitionResult, error) {
	n, err := s.CampaignRepo.TransitionAll(ctx, from, to)
	if err != nil {
		return TransitionResult{Action: action}, err
	}

	result := TransitionResult{Action: action, Affected: n, Message: noop}
	if n == 0 {
		s.Logger.Info("campaign transition found nothing to do", zap.String("action", string(action)))
		return result, nil
	}

	result.Message = done
	s.Logger.Info("campaign transition applied", zap.String("action", string(action)), zap.Int64("affected", n))
	s.publish(ctx, model.CampaignEvent{Type: action, Affected: n})
	return result, nil
}

// publish never fails the caller; the event stream is advisory.
func (s *CampaignService) publish(ctx context.Context, ev model.CampaignEvent) {
	if s.Queue == nil {
		return
	}
	topic := s.Topic
	if topic == "" {
		topic = queue.EventsTopic
	}
	ev.At = time.Now().UTC()
	if err := s.Queue.Publish(ctx, topic, ev); err != nil {
		s.Logger.Warn("failed to publish campaign event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

func (r LaunchRequest) normalized() LaunchRequest {
	return LaunchRequest{
		CompanyType: strings.TrimSpace(r.CompanyType),
		State:       strings.ToUpper(strings.TrimSpace(r.State)),
		City:        strings.TrimSpace(r.City),
		Kind:        strings.TrimSpace(r.Kind),
	}
}

func (r LaunchRequest) validate() error {
	switch {
	case r.CompanyType == "":
		return &appErrors.MissingFieldError{Field: "tipoEmpresa"}
	case r.State == "":
		return &appErrors.MissingFieldError{Field: "estado"}
	case r.City == "":
		return &appErrors.MissingFieldError{Field: "cidade"}
	case r.Kind == "":
		return &appErrors.MissingFieldError{Field: "baseText"}
	}
	return nil
}

// ====================== Projections ======================

func (s *CampaignService) ListActive(ctx context.Context) ([]*model.Campaign, error) {
	return s.CampaignRepo.ListByStatus(ctx, model.StatusActive)
}

func (s *CampaignService) ListHistory(ctx context.Context) ([]*model.Campaign, error) {
	return s.CampaignRepo.ListByStatus(ctx, model.StatusStopped)
}

func (s *CampaignService) ChartSeries(ctx context.Context) ([]model.ChartPoint, error) {
	return s.CampaignRepo.ChartSeries(ctx)
}

func (s *CampaignService) CountActive(ctx context.Context) (int, error) {
	return s.CampaignRepo.CountByStatus(ctx, model.StatusActive)
}

// Capacity reports the active count and the admission limit.
func (s *CampaignService) Capacity(ctx context.Context) (int, int, error) {
	return s.Admission.Snapshot(ctx)
}

// Cities upper-cases the state code before the lookup.
func (s *CampaignService) Cities(ctx context.Context, state string) ([]string, error) {
	return s.CityRepo.CitiesByState(ctx, strings.ToUpper(strings.TrimSpace(state)))
}

// GetCampaign fetches a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// ListCampaigns fetches campaigns with pagination. An empty status means any.
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, kind, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	var statusFilter *model.Status
	if status != "" {
		parsed, err := model.ParseStatus(status)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidRequest, err)
		}
		statusFilter = &parsed
	}

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, kind, statusFilter)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// Dashboard gathers the home page data with the queries running concurrently.
func (s *CampaignService) Dashboard(ctx context.Context) (*DashboardData, error) {
	data := &DashboardData{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		active, err := s.ListActive(gctx)
		data.Active = active
		return err
	})
	g.Go(func() error {
		chart, err := s.ChartSeries(gctx)
		data.Chart = chart
		return err
	})
	g.Go(func() error {
		count, limit, err := s.Admission.Snapshot(gctx)
		data.ActiveCount, data.Limit = count, limit
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
