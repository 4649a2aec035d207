package upstream

import (
	"strings"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
)

// htmlChallengeMarkers are substrings that identify Qwen's anti-bot
// HTML interstitial, which the gateway must treat as an auth failure
// rather than a parse error (spec.md §4.2, §6).
var htmlChallengeMarkers = []string{
	"<!doctype html",
	"<html",
	"cf-browser-verification",
	"just a moment",
}

// looksLikeAuthChallenge reports whether body is Qwen's HTML anti-bot
// challenge page instead of a JSON API response.
func looksLikeAuthChallenge(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range htmlChallengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// semanticErrorMarkers identify upstream-reported, coherent protocol
// errors (not transport failures) — spec.md §4.2 "parent_id ... not
// exist" is the canonical example.
var semanticErrorMarkers = []string{
	"parent_id",
	"not exist",
	"invalid_parent",
}

func looksLikeSemanticError(body string) bool {
	lower := strings.ToLower(body)
	hits := 0
	for _, marker := range semanticErrorMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	return hits >= 2
}

// classifyHTTPError maps a non-2xx upstream response to the gateway's
// tagged error kind, per spec.md §4.2 and §7. status 5xx and network
// errors are transient (retryable); everything else is terminal.
func classifyHTTPError(status int, body string) *apperrors.AppError {
	switch {
	case looksLikeAuthChallenge(body):
		return apperrors.New(apperrors.KindAuthError, "upstream returned an anti-bot challenge")
	case status == 429:
		return apperrors.New(apperrors.KindRateLimited, "upstream rate limited the request")
	case status >= 500:
		return apperrors.Newf(apperrors.KindUpstreamTransient, "upstream returned %d", status)
	case looksLikeSemanticError(body):
		return apperrors.New(apperrors.KindUpstreamSemantic, body).WithCode("invalid_parent")
	case status == 401 || status == 403:
		return apperrors.New(apperrors.KindAuthError, "upstream rejected credentials")
	default:
		return apperrors.Newf(apperrors.KindUpstreamSemantic, "upstream error %d: %s", status, truncate(body, 500))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
