// Package openaiapi defines the OpenAI-compatible wire shapes the
// gateway's inbound HTTP surface accepts and emits (spec.md §6),
// mirroring the teacher's interfaces/http/handlers/openai_handler.go
// request/response structs.
package openaiapi

import "github.com/chriscoletech/qwen-gateway/internal/domain/entity"

// ChatCompletionRequest is POST /v1/chat/completions' body.
type ChatCompletionRequest struct {
	Model    string               `json:"model" binding:"required"`
	Messages []entity.ChatMessage `json:"messages" binding:"required"`
	Stream   bool                 `json:"stream,omitempty"`
	User     string               `json:"user,omitempty"`
}

// ChatMessageOut is an outbound (assistant) message.
type ChatMessageOut struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is the OpenAI token-usage block.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one completion choice.
type Choice struct {
	Index        int            `json:"index"`
	Message      ChatMessageOut `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

// ChatCompletionResponse is the blocking-mode response shape
// (spec.md §4.5).
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// StreamDelta is a streaming chunk's delta.
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice wraps a StreamDelta with an optional finish reason.
type StreamChoice struct {
	Index        int          `json:"index"`
	Delta        StreamDelta  `json:"delta"`
	FinishReason *string      `json:"finish_reason"`
}

// ChatCompletionChunk is one SSE `data:` payload (spec.md §4.5, §4.6).
type ChatCompletionChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// ErrorBody is the OpenAI error envelope's nested object
// (spec.md §7).
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the OpenAI error envelope (spec.md §7), returned
// both as a JSON body and, mid-stream, as an SSE data frame.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Model is one /v1/models entry (spec.md §4.9).
type Model struct {
	ID         string         `json:"id"`
	Object     string         `json:"object"`
	Created    int64          `json:"created"`
	OwnedBy    string         `json:"owned_by"`
	Permission []any          `json:"permission"`
	Root       string         `json:"root"`
	Parent     any            `json:"parent"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ModelsResponse wraps GET /v1/models.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
