package relay_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/openaiapi"
	"github.com/chriscoletech/qwen-gateway/internal/relay"
)

// bufferWriter adapts a bytes.Buffer to relay.Writer; Flush is a no-op
// since the buffer has no network layer to drain.
type bufferWriter struct{ bytes.Buffer }

func (b *bufferWriter) Flush() {}

func dataLines(w *bufferWriter) []string {
	var out []string
	for _, line := range strings.Split(w.String(), "\n") {
		if strings.HasPrefix(line, "data: ") {
			out = append(out, strings.TrimPrefix(line, "data: "))
		}
	}
	return out
}

func TestRelay_Run_FullTurn(t *testing.T) {
	sse := "" +
		`data: {"response.created":{"parent_id":"parent-1"}}` + "\n\n" +
		`data: {"choices":[{"delta":{"role":"assistant"}}]}` + "\n\n" +
		`data: {"choices":[{"delta":{"content":"hello "}}]}` + "\n\n" +
		`data: {"choices":[{"delta":{"content":"world"}}]}` + "\n\n" +
		`data: {"choices":[{"delta":{"status":"finished"},"finish_reason":"stop"}],"usage":{"input_tokens":3,"output_tokens":2}}` + "\n\n" +
		"data: [DONE]\n\n"

	r := relay.New(zap.NewNop())
	w := &bufferWriter{}
	body := io.NopCloser(strings.NewReader(sse))

	result, err := r.Run(context.Background(), body, w, "chatcmpl-1", "qwen-max")
	require.NoError(t, err)

	assert.Equal(t, "parent-1", result.ParentID)
	assert.Equal(t, "stop", result.FinishReason)
	assert.Equal(t, 3, result.PromptTokens)
	assert.Equal(t, 2, result.CompletionTokens)
	assert.False(t, result.ClientDisconnected)

	lines := dataLines(w)
	require.GreaterOrEqual(t, len(lines), 5)

	var roleChunk openaiapi.ChatCompletionChunk
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &roleChunk))
	assert.Equal(t, "assistant", roleChunk.Choices[0].Delta.Role)

	var contentChunk openaiapi.ChatCompletionChunk
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &contentChunk))
	assert.Equal(t, "hello ", contentChunk.Choices[0].Delta.Content)

	assert.Equal(t, "[DONE]", lines[len(lines)-1])
}

func TestRelay_Run_ClientDisconnect(t *testing.T) {
	r := relay.New(zap.NewNop())
	w := &bufferWriter{}
	body := io.NopCloser(strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"never read\"}}]}\n\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, body, w, "chatcmpl-1", "qwen-max")
	require.NoError(t, err)
	assert.True(t, result.ClientDisconnected)
}

func TestRelay_Run_EmptyBodyStillSendsDone(t *testing.T) {
	r := relay.New(zap.NewNop())
	w := &bufferWriter{}
	body := io.NopCloser(strings.NewReader(""))

	result, err := r.Run(context.Background(), body, w, "chatcmpl-1", "qwen-max")
	require.NoError(t, err)
	assert.False(t, result.ClientDisconnected)
	assert.Contains(t, w.String(), "[DONE]")
}

func TestRelay_Run_SkipsNonDataLines(t *testing.T) {
	sse := ": keep-alive comment\n\n" +
		`data: {"choices":[{"delta":{"role":"assistant"}}]}` + "\n\n" +
		`data: {"choices":[{"delta":{"status":"finished"},"finish_reason":"length"}]}` + "\n\n"

	r := relay.New(zap.NewNop())
	w := &bufferWriter{}
	body := io.NopCloser(strings.NewReader(sse))

	result, err := r.Run(context.Background(), body, w, "chatcmpl-1", "qwen-max")
	require.NoError(t, err)
	assert.Equal(t, "length", result.FinishReason)
}

func TestSetHeaders(t *testing.T) {
	h := make(http.Header)
	relay.SetHeaders(h)
	assert.Equal(t, "text/event-stream", h.Get("Content-Type"))
	assert.Equal(t, "no-cache", h.Get("Cache-Control"))
	assert.Equal(t, "keep-alive", h.Get("Connection"))
	assert.Equal(t, "no", h.Get("X-Accel-Buffering"))
}
