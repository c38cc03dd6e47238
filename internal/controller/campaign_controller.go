// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
	"github.com/unclebandit/prospecting-dashboard/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Logger          *zap.Logger
}

// LaunchCampaign handles the new campaign form and answers with a redirect
// to the page describing the outcome.
func (c *CampaignController) LaunchCampaign(w http.ResponseWriter, r *http.Request) {
	fields, err := ReadFields(r, "tipoEmpresa", "estado", "cidade", "baseText")
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := c.CampaignService.Launch(r.Context(), service.LaunchRequest{
		CompanyType: fields["tipoEmpresa"],
		State:       fields["estado"],
		City:        fields["cidade"],
		Kind:        fields["baseText"],
	})

	var missing *appErrors.MissingFieldError
	switch {
	case err == nil:
		c.Logger.Info("campaign started from dashboard", zap.Int("campaign_id", campaign.ID))
		http.Redirect(w, r, "/prospection-success", http.StatusSeeOther)
	case errors.As(err, &missing):
		writeText(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErrors.ErrAdmissionDenied):
		http.Redirect(w, r, "/campaign-limit", http.StatusSeeOther)
	case errors.Is(err, appErrors.ErrInvalidCampaignKind):
		http.Redirect(w, r, "/campaign-type-error", http.StatusSeeOther)
	default:
		c.Logger.Error("campaign launch failed", zap.Error(err))
		http.Redirect(w, r, "/prospection-error", http.StatusSeeOther)
	}
}

func (c *CampaignController) StopCampaigns(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.CampaignService.Stop)
}

func (c *CampaignController) PauseCampaigns(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.CampaignService.Pause)
}

func (c *CampaignController) ResumeCampaigns(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.CampaignService.Resume)
}

func (c *CampaignController) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context) (service.TransitionResult, error)) {
	result, err := fn(r.Context())
	if err != nil {
		c.Logger.Error("campaign transition failed", zap.String("action", string(result.Action)), zap.Error(err))
		writeText(w, http.StatusInternalServerError, "failed to update campaigns")
		return
	}
	writeText(w, http.StatusOK, result.Message)
}

// ListActive returns the running campaigns with the admission headroom in
// the X-Active-Count and X-Campaign-Limit headers.
func (c *CampaignController) ListActive(w http.ResponseWriter, r *http.Request) {
	campaigns, err := c.CampaignService.ListActive(r.Context())
	if err != nil {
		c.Logger.Error("failed to list active campaigns", zap.Error(err))
		http.Error(w, "failed to list campaigns", http.StatusInternalServerError)
		return
	}
	active, limit, err := c.CampaignService.Capacity(r.Context())
	if err != nil {
		c.Logger.Error("failed to count active campaigns", zap.Error(err))
		http.Error(w, "failed to list campaigns", http.StatusInternalServerError)
		return
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}

	w.Header().Set("X-Active-Count", strconv.Itoa(active))
	w.Header().Set("X-Campaign-Limit", strconv.Itoa(limit))
	WriteJSON(w, c.Logger, http.StatusOK, campaigns)
}

func (c *CampaignController) ListHistory(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters; the service applies defaults and caps
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	kind := r.URL.Query().Get("kind")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, kind, model.StatusStopped.String())
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.Logger.Error("failed to list campaign history", zap.Error(err))
		http.Error(w, "failed to list campaigns", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, c.Logger, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.GetCampaign(r.Context(), id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		c.Logger.Error("failed to load campaign", zap.Int("campaign_id", id), zap.Error(err))
		http.Error(w, "failed to load campaign", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, c.Logger, http.StatusOK, campaign)
}

func (c *CampaignController) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := c.CampaignService.Cities(r.Context(), chi.URLParam(r, "estado"))
	if err != nil {
		c.Logger.Error("failed to look up cities", zap.Error(err))
		http.Error(w, "failed to look up cities", http.StatusInternalServerError)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	WriteJSON(w, c.Logger, http.StatusOK, cities)
}
