package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/unclebandit/prospecting-dashboard/internal/config"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

const SessionCookieName = "prospect_session"

// CookieCodec signs session tokens into the cookie value "token.signature".
// The signature is HMAC-SHA256 over the token.
type CookieCodec struct {
	Name     string
	Secret   []byte
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

func NewCookieCodec(cfg config.SessionConfig) (*CookieCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	sameSite, err := config.ParseSameSite(cfg.CookieSite)
	if err != nil {
		return nil, err
	}
	return &CookieCodec{
		Name:     SessionCookieName,
		Secret:   []byte(cfg.Secret),
		Secure:   cfg.CookieSecure,
		HTTPOnly: cfg.CookieHTTP,
		SameSite: sameSite,
	}, nil
}

func (c *CookieCodec) sign(token string) string {
	mac := hmac.New(sha256.New, c.Secret)
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c *CookieCodec) Encode(token string) string {
	return token + "." + c.sign(token)
}

// Decode returns the token when the signature matches.
func (c *CookieCodec) Decode(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}
	token, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(c.sign(token))) {
		return "", false
	}
	return token, true
}

// Token reads and verifies the session cookie on r.
func (c *CookieCodec) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return "", false
	}
	return c.Decode(cookie.Value)
}

// Set writes the cookie for sess. Only persistent sessions get an expiry;
// the rest end with the browser session.
func (c *CookieCodec) Set(w http.ResponseWriter, sess *model.Session, now time.Time) {
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    c.Encode(sess.Token),
		Path:     "/",
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	}
	if sess.Persistent {
		cookie.Expires = sess.ExpiresAt
		cookie.MaxAge = int(sess.ExpiresAt.Sub(now) / time.Second)
	}
	http.SetCookie(w, cookie)
}

func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	})
}
