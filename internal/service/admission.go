package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
	"github.com/unclebandit/prospecting-dashboard/internal/repository"
)

// AdmissionController gates launches on the number of Active campaigns.
type AdmissionController struct {
	Repo   repository.CampaignRepositoryInterface
	Limit  int
	Logger *zap.Logger
}

// Admit records c as Active when fewer than Limit campaigns are Active. The
// count and the insert are one repository transaction. A denial returns an
// error matching appErrors.ErrAdmissionDenied and writes nothing.
func (a *AdmissionController) Admit(ctx context.Context, c *model.Campaign) error {
	active, err := a.Repo.CreateIfUnderLimit(ctx, c, a.Limit)
	if err != nil {
		if errors.Is(err, appErrors.ErrAdmissionDenied) {
			a.Logger.Info("campaign launch denied", zap.Int("active", active), zap.Int("limit", a.Limit))
		}
		return err
	}
	a.Logger.Info("campaign admitted",
		zap.Int("campaign_id", c.ID),
		zap.Int("active_before", active),
		zap.Int("limit", a.Limit),
	)
	return nil
}

// Snapshot reports the current active count alongside the limit.
func (a *AdmissionController) Snapshot(ctx context.Context) (int, int, error) {
	active, err := a.Repo.CountByStatus(ctx, model.StatusActive)
	if err != nil {
		return 0, 0, err
	}
	return active, a.Limit, nil
}
