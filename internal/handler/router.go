package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/config"
	"github.com/unclebandit/prospecting-dashboard/internal/controller"
	"github.com/unclebandit/prospecting-dashboard/internal/view"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterDeps struct {
	Config    *config.Config
	Auth      *AuthHandler
	Pages     *PageHandler
	Campaigns *controller.CampaignController
	DB        Pinger
	Logger    *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if d.Config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	if d.Config.DB.QueueLimit > 0 {
		// requests beyond the pool wait in a bounded backlog instead of piling on the DB
		r.Use(middleware.ThrottleBacklog(d.Config.DB.PoolSize, d.Config.DB.QueueLimit, d.Config.DB.QueueTimeout))
	}

	// Public routes
	r.Get("/healthz", health(d.DB, d.Logger))
	r.Handle("/static/*", http.StripPrefix("/static/", view.Static()))
	r.Get("/login", d.Auth.LoginPage)
	r.Post("/login", d.Auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(d.Auth.Auth, d.Auth.Cookies, d.Logger))

		r.Get("/logout", d.Auth.Logout)
		r.Get("/", d.Pages.Home)
		r.Get("/home", d.Pages.Home)
		r.Get("/campanhaProspeccao", d.Pages.CampaignForm)
		r.Get("/faq", d.Pages.FAQ)
		r.Get("/history", d.Pages.History)
		for page := range view.Outcomes {
			r.Get("/"+page, d.Pages.Outcome(page))
		}

		// Campaign lifecycle
		r.Post("/api/enviar-campanha", d.Campaigns.LaunchCampaign)
		r.Post("/stopcampaign", d.Campaigns.StopCampaigns)
		r.Post("/pausecampaign", d.Campaigns.PauseCampaigns)
		r.Post("/resumecampaign", d.Campaigns.ResumeCampaigns)

		// Projections
		r.Get("/api/campanhas", d.Campaigns.ListActive)
		r.Get("/api/campanhas/historico", d.Campaigns.ListHistory)
		r.Get("/api/campanhas/{id}", d.Campaigns.GetCampaign)
		r.Get("/api/cidades/{estado}", d.Campaigns.Cities)
	})

	return r
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			controller.WriteJSON(w, logger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		controller.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
