package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/service"
	"github.com/unclebandit/prospecting-dashboard/internal/view"
)

// PageHandler serves the signed-in dashboard pages.
type PageHandler struct {
	Campaigns *service.CampaignService
	Logger    *zap.Logger
}

func userName(r *http.Request) string {
	if sess, ok := SessionFromContext(r.Context()); ok {
		return sess.UserName
	}
	return ""
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	data, err := h.Campaigns.Dashboard(r.Context())
	if err != nil {
		h.Logger.Error("failed to load dashboard", zap.Error(err))
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	chart, err := view.ChartJSON(data.Chart)
	if err != nil {
		h.Logger.Error("failed to encode chart", zap.Error(err))
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	render(w, h.Logger, http.StatusOK, "home", view.HomePage{
		UserName:    userName(r),
		Active:      data.Active,
		ActiveCount: data.ActiveCount,
		Limit:       data.Limit,
		ChartJSON:   chart,
	})
}

func (h *PageHandler) CampaignForm(w http.ResponseWriter, r *http.Request) {
	render(w, h.Logger, http.StatusOK, "campanhaProspeccao", view.CampaignFormPage{
		UserName: userName(r),
		Kinds:    h.Campaigns.Routes.Kinds(),
	})
}

func (h *PageHandler) FAQ(w http.ResponseWriter, r *http.Request) {
	render(w, h.Logger, http.StatusOK, "faq", view.BasicPage{UserName: userName(r)})
}

func (h *PageHandler) History(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Campaigns.ListHistory(r.Context())
	if err != nil {
		h.Logger.Error("failed to load history", zap.Error(err))
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	render(w, h.Logger, http.StatusOK, "history", view.HistoryPage{
		UserName:  userName(r),
		Campaigns: campaigns,
	})
}

// Outcome serves one of the fixed launch result pages.
func (h *PageHandler) Outcome(page string) http.HandlerFunc {
	data := view.Outcomes[page]
	return func(w http.ResponseWriter, r *http.Request) {
		d := data
		d.UserName = userName(r)
		render(w, h.Logger, http.StatusOK, page, d)
	}
}
