package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

// Authenticator resolves a session token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

type sessionKey struct{}

// SessionFromContext returns the session RequireSession stored, if any.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*model.Session)
	return sess, ok
}

func withSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// RequireSession lets a request through only when its signed cookie resolves
// to a live session. Anything else is sent to the login page.
func RequireSession(auth Authenticator, cookies *CookieCodec, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := cookies.Token(r)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			sess, err := auth.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, appErrors.ErrSessionNotFound):
				cookies.Clear(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			case err != nil:
				logger.Error("failed to resolve session",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Error(err),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
		})
	}
}

// RequestLogger logs one line per request once the handler returns.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("request", fields...)
				return
			}
			logger.Debug("request", fields...)
		})
	}
}
