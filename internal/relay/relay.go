// Package relay implements C6: the streaming relay that reads Qwen's
// SSE body line by line, classifies each frame, and writes the
// equivalent OpenAI SSE frame to the client — a single goroutine, no
// buffering beyond one partial line, modeled on the teacher's
// internal/interfaces/http/handlers streaming writer.
package relay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/metrics"
	"github.com/chriscoletech/qwen-gateway/internal/openaiapi"
	"github.com/chriscoletech/qwen-gateway/internal/transform"
	"github.com/chriscoletech/qwen-gateway/internal/upstream"
)

// Writer is the subset of gin.ResponseWriter the relay needs, kept
// narrow so it can be exercised with a plain httptest.ResponseRecorder
// in tests.
type Writer interface {
	io.Writer
	Flush()
}

// Result is what the relay hands back to the orchestrator once the
// upstream stream ends: the final parent_id cursor and token usage, so
// the session and audit rows can be updated (spec.md §4.6, §4.7).
type Result struct {
	ParentID         string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
	ClientDisconnected bool
}

// Relay owns one streaming turn's upstream-to-client SSE translation.
type Relay struct {
	logger *zap.Logger
}

// New constructs a Relay.
func New(logger *zap.Logger) *Relay {
	return &Relay{logger: logger.With(zap.String("component", "relay"))}
}

// SetHeaders applies the fixed SSE response headers spec.md §4.6
// requires, before any body bytes are written.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Run reads body line by line, classifying each "data: " frame and
// writing the translated OpenAI chunk to w, until the upstream body is
// exhausted, the client disconnects (ctx.Done), or reading the upstream
// body fails (an error frame is then written to the client). It never
// returns an error for a clean
// client disconnect — that is expected traffic, not a failure
// (spec.md §4.6).
func (r *Relay) Run(ctx context.Context, body io.ReadCloser, w Writer, streamID, model string) (*Result, error) {
	defer body.Close()

	created := time.Now().Unix()
	result := &Result{}
	roleSent := false
	reader := bufio.NewReader(body)

	for {
		select {
		case <-ctx.Done():
			result.ClientDisconnected = true
			return result, nil
		default:
		}

		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if frame, ok := parseDataLine(line); ok {
				if !roleSent {
					writeChunk(w, transform.RoleChunk(streamID, model, created))
					roleSent = true
				}
				done, rerr := r.handleFrame(ctx, frame, w, streamID, model, created, result)
				if rerr != nil {
					return result, rerr
				}
				if done {
					writeDone(w)
					return result, nil
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				writeDone(w)
				return result, nil
			}
			r.logger.Warn("upstream stream read failed", zap.Error(err))
			writeErrorFrame(w, apperrors.Wrap(apperrors.KindUpstreamTransient, "stream interrupted", err))
			writeDone(w)
			return result, nil
		}
	}
}

// handleFrame classifies and translates one parsed upstream frame.
// done=true signals the finish frame was seen and the caller should
// emit [DONE] and stop.
func (r *Relay) handleFrame(ctx context.Context, frame *upstream.StreamFrame, w Writer, streamID, model string, created int64, result *Result) (bool, error) {
	switch transform.ClassifyFrame(frame) {
	case transform.FrameMetadata:
		result.ParentID = transform.FrameParentID(frame)
	case transform.FrameContentDelta:
		content := frame.Choices[0].Delta.Content
		writeChunk(w, transform.ContentChunk(streamID, model, created, content))
	case transform.FrameFinish:
		reason := "stop"
		if len(frame.Choices) > 0 && frame.Choices[0].FinishReason != nil {
			reason = *frame.Choices[0].FinishReason
		}
		result.FinishReason = reason
		if frame.Usage != nil {
			result.PromptTokens = frame.Usage.InputTokens
			result.CompletionTokens = frame.Usage.OutputTokens
		}
		writeChunk(w, transform.FinishChunk(streamID, model, created, reason))
		if frame.Usage != nil {
			writeChunk(w, transform.UsageChunk(streamID, model, created, result.PromptTokens, result.CompletionTokens))
		}
		return true, nil
	case transform.FrameRoleOpening, transform.FrameUnknown:
		// nothing to forward
	}
	return false, nil
}

func parseDataLine(line string) (*upstream.StreamFrame, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "data:") {
		return nil, false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" || payload == "[DONE]" {
		return nil, false
	}
	frame, err := decodeFrame([]byte(payload))
	if err != nil {
		return nil, false
	}
	return frame, true
}

func writeChunk(w Writer, chunk *openaiapi.ChatCompletionChunk) {
	b, err := encodeChunk(chunk)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
	w.Flush()
	metrics.StreamingChunksTotal.Inc()
}

func writeErrorFrame(w Writer, appErr *apperrors.AppError) {
	resp := openaiapi.ErrorResponse{Error: openaiapi.ErrorBody{
		Message: appErr.Message,
		Type:    appErr.Kind.OpenAIType(),
		Code:    appErr.Code,
	}}
	b, err := encodeChunk(resp)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
	w.Flush()
}

func writeDone(w Writer) {
	fmt.Fprint(w, "data: [DONE]\n\n")
	w.Flush()
}
