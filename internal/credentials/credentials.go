// Package credentials implements C1: it owns the upstream's opaque
// anti-bot token and cookie blob and returns the fixed header set
// every upstream call requires (spec.md §4.1).
package credentials

import (
	"fmt"

	"github.com/chriscoletech/qwen-gateway/internal/config"
)

const (
	tokenHeader  = "Authorization"
	cookieHeader = "Cookie"
)

// Holder is the sole owner of upstream auth material within the
// process. It never rotates credentials at runtime — a fresh process
// restart is required to pick up new values (spec.md §4.1).
type Holder struct {
	token     string
	cookie    string
	userAgent string
}

// New constructs a Holder from configuration, failing if either
// required value is absent, per spec.md §4.1.
func New(cfg config.UpstreamConfig) (*Holder, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("credentials: upstream token is required")
	}
	if cfg.Cookie == "" {
		return nil, fmt.Errorf("credentials: upstream cookie is required")
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}
	return &Holder{token: cfg.Token, cookie: cfg.Cookie, userAgent: ua}, nil
}

// Headers returns the fixed header set required on every upstream
// call: the anti-bot token, the cookie blob, JSON content type, and a
// plausible browser user agent.
func (h *Holder) Headers() map[string]string {
	return map[string]string{
		tokenHeader:    "Bearer " + h.token,
		cookieHeader:   h.cookie,
		"Content-Type": "application/json",
		"User-Agent":   h.userAgent,
	}
}

// TokenPreview returns a prefix-only preview of the token, safe for
// diagnostics/health output — never the full value (spec.md §4.1).
func (h *Holder) TokenPreview() string {
	return preview(h.token)
}

// CookiePreview returns a prefix-only preview of the cookie blob.
func (h *Holder) CookiePreview() string {
	return preview(h.cookie)
}

func preview(s string) string {
	const n = 6
	if len(s) <= n {
		return "***"
	}
	return s[:n] + "…"
}
