package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/controller"
	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/service"
	"github.com/unclebandit/prospecting-dashboard/internal/view"
)

type AuthHandler struct {
	Auth    *service.AuthService
	Cookies *CookieCodec
	Logger  *zap.Logger
}

// LoginPage shows the form, or skips it when the visitor is already signed in.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.Cookies.Token(r); ok {
		if _, err := h.Auth.Authenticate(r.Context(), token); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	render(w, h.Logger, http.StatusOK, "login", view.LoginPage{})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	fields, err := controller.ReadFields(r, "email", "password", "remember")
	if err != nil {
		render(w, h.Logger, http.StatusBadRequest, "login", view.LoginPage{Error: "invalid request"})
		return
	}
	email := strings.TrimSpace(fields["email"])

	sess, err := h.Auth.Login(r.Context(), email, fields["password"], controller.Truthy(fields["remember"]))
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidCredentials) {
			render(w, h.Logger, http.StatusUnauthorized, "login", view.LoginPage{Email: email, Error: err.Error()})
			return
		}
		h.Logger.Error("login failed", zap.Error(err))
		render(w, h.Logger, http.StatusInternalServerError, "login", view.LoginPage{Email: email, Error: "login is unavailable, try again"})
		return
	}

	h.Cookies.Set(w, sess, time.Now())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout always ends at the login page, even without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.Cookies.Token(r); ok {
		if err := h.Auth.Logout(r.Context(), token); err != nil {
			h.Logger.Warn("failed to delete session", zap.Error(err))
		}
	}
	h.Cookies.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func render(w http.ResponseWriter, logger *zap.Logger, status int, page string, data any) {
	if err := view.Render(w, status, page, data); err != nil {
		logger.Error("failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
