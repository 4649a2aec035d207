// Package handlers implements C10: the gateway's HTTP entry points,
// modeled on the teacher's interfaces/http/handlers package — one
// struct per surface, gin.Context in, JSON/SSE out, errors funneled
// through a single response helper.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/openaiapi"
	"github.com/chriscoletech/qwen-gateway/internal/orchestrator"
	"github.com/chriscoletech/qwen-gateway/internal/relay"
	"github.com/chriscoletech/qwen-gateway/internal/transform"
)

// OpenAIHandler implements the OpenAI-compatible chat completions and
// models surfaces.
type OpenAIHandler struct {
	orch   *orchestrator.Orchestrator
	relay  *relay.Relay
	logger *zap.Logger
}

// NewOpenAIHandler constructs an OpenAIHandler.
func NewOpenAIHandler(orch *orchestrator.Orchestrator, rel *relay.Relay, logger *zap.Logger) *OpenAIHandler {
	return &OpenAIHandler{orch: orch, relay: rel, logger: logger.With(zap.String("component", "openai-handler"))}
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *OpenAIHandler) ChatCompletions(c *gin.Context) {
	var req openaiapi.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Wrap(apperrors.KindInvalidRequest, "invalid request body", err))
		return
	}

	inboundBody, _ := json.Marshal(req)

	if req.Stream {
		h.handleStream(c, &req, string(inboundBody))
		return
	}
	h.handleBlocking(c, &req, string(inboundBody))
}

func (h *OpenAIHandler) handleBlocking(c *gin.Context, req *openaiapi.ChatCompletionRequest, inboundBodyJSON string) {
	start := time.Now()
	ctx := c.Request.Context()

	_, reply, reqRecord, err := h.orch.ExecuteBlocking(ctx, req.Messages, req.Model, inboundBodyJSON)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := transform.BlockingToOpenAI(reply, req.Model)
	outboundBody, _ := json.Marshal(resp)
	h.orch.PersistBlockingResponse(ctx, reqRecord, reply, string(outboundBody), start)

	c.JSON(http.StatusOK, resp)
}

func (h *OpenAIHandler) handleStream(c *gin.Context, req *openaiapi.ChatCompletionRequest, inboundBodyJSON string) {
	start := time.Now()
	ctx := c.Request.Context()

	session, reqRecord, body, err := h.orch.PrepareStream(ctx, req.Messages, req.Model, inboundBodyJSON)
	if err != nil {
		writeError(c, err)
		return
	}

	relay.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)

	streamID := "chatcmpl-" + uuid.NewString()
	result, err := h.relay.Run(ctx, body, c.Writer, streamID, req.Model)
	if err != nil {
		h.logger.Error("stream relay failed", zap.Error(err))
		return
	}

	h.orch.FinishStream(ctx, session, reqRecord, result, start)
}

// ListModels handles GET /v1/models.
func (h *OpenAIHandler) ListModels(c *gin.Context) {
	entries, err := h.orch.ListModels(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	data := make([]openaiapi.Model, 0, len(entries))
	for _, e := range entries {
		data = append(data, openaiapi.Model{
			ID:      e.ID,
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "qwen",
			Root:    e.ID,
			Metadata: map[string]any{
				"display_name":          e.DisplayName,
				"max_context_length":    e.MaxContextLength,
				"max_generation_length": e.MaxGenerationLength,
			},
		})
	}
	c.JSON(http.StatusOK, openaiapi.ModelsResponse{Object: "list", Data: data})
}

// GetModel handles GET /v1/models/:id.
func (h *OpenAIHandler) GetModel(c *gin.Context) {
	id := c.Param("id")
	entry, ok, err := h.orch.GetModel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, apperrors.Newf(apperrors.KindNotFound, "model %q not found", id))
		return
	}
	c.JSON(http.StatusOK, openaiapi.Model{
		ID:      entry.ID,
		Object:  "model",
		Created: time.Now().Unix(),
		OwnedBy: "qwen",
		Root:    entry.ID,
	})
}
