package transform

import (
	"time"

	"github.com/google/uuid"

	"github.com/chriscoletech/qwen-gateway/internal/openaiapi"
	"github.com/chriscoletech/qwen-gateway/internal/upstream"
)

// BlockingToOpenAI implements C5's blocking shape: given an upstream
// blocking reply, produce an OpenAI completion object (spec.md §4.5).
func BlockingToOpenAI(reply *upstream.BlockingReply, model string) *openaiapi.ChatCompletionResponse {
	content := ""
	finishReason := "stop"
	if len(reply.Choices) > 0 {
		content = reply.Choices[0].Message.Content
		if reply.Choices[0].FinishReason != "" {
			finishReason = reply.Choices[0].FinishReason
		}
	}

	prompt, completion := 0, 0
	if reply.Usage != nil {
		prompt = reply.Usage.InputTokens
		completion = reply.Usage.OutputTokens
	}

	return &openaiapi.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []openaiapi.Choice{
			{
				Index: 0,
				Message: openaiapi.ChatMessageOut{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: finishReason,
			},
		},
		Usage: openaiapi.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}
}

// ExtractParentID implements C5's extraction helper: it returns the
// parent_id chain cursor from a blocking reply (FrameParentID does the
// same for streaming frames), and never returns message_id.
func ExtractParentID(reply *upstream.BlockingReply) string {
	if reply == nil {
		return ""
	}
	return reply.ParentID
}

// FrameKind classifies one parsed upstream SSE frame, per spec.md
// §4.5's four frame kinds.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameMetadata
	FrameRoleOpening
	FrameContentDelta
	FrameFinish
)

// ClassifyFrame implements C5's streaming classifier.
func ClassifyFrame(f *upstream.StreamFrame) FrameKind {
	if f.ResponseCreated != nil && f.ResponseCreated.ParentID != "" {
		return FrameMetadata
	}
	if len(f.Choices) == 0 {
		return FrameUnknown
	}
	delta := f.Choices[0].Delta
	if delta.Status == "finished" {
		return FrameFinish
	}
	if delta.Content != "" {
		return FrameContentDelta
	}
	if delta.Role != "" {
		return FrameRoleOpening
	}
	return FrameUnknown
}

// FrameParentID extracts parent_id from a metadata frame.
func FrameParentID(f *upstream.StreamFrame) string {
	if f.ResponseCreated != nil {
		return f.ResponseCreated.ParentID
	}
	return f.ParentID
}

// ContentChunk builds the OpenAI SSE chunk for a content delta
// (spec.md §4.5).
func ContentChunk(streamID, model string, created int64, content string) *openaiapi.ChatCompletionChunk {
	return &openaiapi.ChatCompletionChunk{
		ID:      streamID,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []openaiapi.StreamChoice{
			{Index: 0, Delta: openaiapi.StreamDelta{Content: content}, FinishReason: nil},
		},
	}
}

// RoleChunk builds the opening role-only OpenAI SSE chunk.
func RoleChunk(streamID, model string, created int64) *openaiapi.ChatCompletionChunk {
	return &openaiapi.ChatCompletionChunk{
		ID:      streamID,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []openaiapi.StreamChoice{
			{Index: 0, Delta: openaiapi.StreamDelta{Role: "assistant"}, FinishReason: nil},
		},
	}
}

// FinishChunk builds the terminating chunk with finish_reason set.
func FinishChunk(streamID, model string, created int64, finishReason string) *openaiapi.ChatCompletionChunk {
	fr := finishReason
	return &openaiapi.ChatCompletionChunk{
		ID:      streamID,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []openaiapi.StreamChoice{
			{Index: 0, Delta: openaiapi.StreamDelta{}, FinishReason: &fr},
		},
	}
}

// UsageChunk builds the trailing usage-only chunk (empty choices).
func UsageChunk(streamID, model string, created int64, promptTokens, completionTokens int) *openaiapi.ChatCompletionChunk {
	return &openaiapi.ChatCompletionChunk{
		ID:      streamID,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []openaiapi.StreamChoice{},
		Usage: &openaiapi.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}
