package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
	"github.com/chriscoletech/qwen-gateway/internal/sessionstore"
)

// maxPageSize is the upper bound on the limit query param across the
// audit surface.
const maxPageSize = 500

// AuditHandler exposes read-only session/request/response audit
// queries and administrative session deletion, per spec.md §4.10's
// query surface.
type AuditHandler struct {
	sessions  *sessionstore.Store
	sessionsQ repository.SessionQueryRepository
	requests  repository.RequestRepository
	responses repository.ResponseRepository
	logger    *zap.Logger
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(
	sessions *sessionstore.Store,
	sessionsQ repository.SessionQueryRepository,
	requests repository.RequestRepository,
	responses repository.ResponseRepository,
	logger *zap.Logger,
) *AuditHandler {
	return &AuditHandler{
		sessions:  sessions,
		sessionsQ: sessionsQ,
		requests:  requests,
		responses: responses,
		logger:    logger.With(zap.String("component", "audit-handler")),
	}
}

// ListSessions handles GET /v1/sessions.
func (h *AuditHandler) ListSessions(c *gin.Context) {
	limit, offset := pagination(c)
	sessions, err := h.sessionsQ.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "list sessions", err))
		return
	}
	total, err := h.sessionsQ.Count(c.Request.Context())
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "count sessions", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions, "total": total, "limit": limit, "offset": offset})
}

// GetSession handles GET /v1/sessions/:id.
func (h *AuditHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	session, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if session == nil {
		writeError(c, apperrors.Newf(apperrors.KindNotFound, "session %q not found", id))
		return
	}
	c.JSON(http.StatusOK, session)
}

// DeleteSession handles DELETE /v1/sessions/:id.
func (h *AuditHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSessionRequests handles GET /v1/sessions/:id/requests.
func (h *AuditHandler) ListSessionRequests(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.RequestFilter{
		SessionID: c.Param("id"),
		Limit:     limit,
		Offset:    offset,
	}
	rows, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "list session requests", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "limit": limit, "offset": offset})
}

// ListRequests handles GET /v1/requests.
func (h *AuditHandler) ListRequests(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.RequestFilter{
		SessionID: c.Query("session_id"),
		Model:     c.Query("model"),
		StartDate: parseDateParam(c, "start_date"),
		EndDate:   parseDateParam(c, "end_date"),
		Limit:     limit,
		Offset:    offset,
	}
	rows, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "list requests", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "limit": limit, "offset": offset})
}

// GetRequest handles GET /v1/requests/:id.
func (h *AuditHandler) GetRequest(c *gin.Context) {
	id := c.Param("id")
	row, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "get request", err))
		return
	}
	if row == nil {
		writeError(c, apperrors.Newf(apperrors.KindNotFound, "request %q not found", id))
		return
	}
	c.JSON(http.StatusOK, row)
}

// GetRequestResponse handles GET /v1/requests/:id/response.
func (h *AuditHandler) GetRequestResponse(c *gin.Context) {
	id := c.Param("id")
	row, err := h.responses.GetByRequestID(c.Request.Context(), id)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "get response for request", err))
		return
	}
	if row == nil {
		writeError(c, apperrors.Newf(apperrors.KindNotFound, "response for request %q not found", id))
		return
	}
	c.JSON(http.StatusOK, row)
}

// ListResponses handles GET /v1/responses.
func (h *AuditHandler) ListResponses(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.ResponseFilter{
		SessionID: c.Query("session_id"),
		Limit:     limit,
		Offset:    offset,
	}
	rows, err := h.responses.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "list responses", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "limit": limit, "offset": offset})
}

// GetResponse handles GET /v1/responses/:id.
func (h *AuditHandler) GetResponse(c *gin.Context) {
	id := c.Param("id")
	row, err := h.responses.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "get response", err))
		return
	}
	if row == nil {
		writeError(c, apperrors.Newf(apperrors.KindNotFound, "response %q not found", id))
		return
	}
	c.JSON(http.StatusOK, row)
}

// UsageStats handles GET /v1/sessions/:id/stats.
func (h *AuditHandler) UsageStats(c *gin.Context) {
	id := c.Param("id")
	stats, err := h.responses.UsageStats(c.Request.Context(), id)
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "usage stats", err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GlobalUsageStats handles GET /v1/responses/stats — the cross-session
// rollup, reusing UsageStats' empty-sessionID aggregate mode.
func (h *AuditHandler) GlobalUsageStats(c *gin.Context) {
	stats, err := h.responses.UsageStats(c.Request.Context(), "")
	if err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInternal, "global usage stats", err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// parseDateParam reads an RFC3339 timestamp query parameter, returning
// nil when absent or malformed rather than failing the whole request.
func parseDateParam(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
