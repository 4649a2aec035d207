package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/openaiapi"
)

// writeError renders err as an OpenAI-shaped error body with the
// status spec.md §7's kind-to-HTTP-status table assigns.
func writeError(c *gin.Context, err error) {
	ae := apperrors.As(err)
	c.JSON(ae.Kind.HTTPStatus(), openaiapi.ErrorResponse{
		Error: openaiapi.ErrorBody{
			Message: ae.Message,
			Type:    ae.Kind.OpenAIType(),
			Code:    ae.Code,
		},
	})
}
