// Package transform implements C4 (request transformer) and C5
// (response transformer): the bidirectional mapping between OpenAI's
// wire shapes and Qwen's single-turn, parent-chained envelope.
package transform

import (
	"time"

	"github.com/google/uuid"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/upstream"
)

// BuildEnvelope implements C4: given the OpenAI request's messages and
// the resolved session, it produces an upstream envelope carrying
// exactly one message — the last message of the request array — with
// every mandatory Qwen field populated (spec.md §4.4).
//
// The caller (the orchestrator) has already validated the request;
// BuildEnvelope assumes messages is non-empty.
func BuildEnvelope(messages []entity.ChatMessage, session *entity.Session, model string, stream bool) *upstream.Envelope {
	last := messages[len(messages)-1]
	now := time.Now().Unix()

	fid := uuid.NewString()
	parentID := session.ParentID // nil on the first turn

	msg := upstream.Message{
		FID:           fid,
		ParentID:      parentID,
		ParentIDSnake: parentID,
		ChildrenIDs:   []string{},
		Role:          string(last.Role),
		Content:       last.Content.Canonical(),
		UserAction:    "chat",
		Files:         []string{},
		Timestamp:     now,
		Models:        []string{model},
		ChatType:      "t2t",
		SubChatType:   "t2t",
		FeatureConfig: upstream.FeatureConfig{ThinkingEnabled: false, OutputSchema: "phase"},
		Extra:         upstream.Extra{Meta: upstream.ExtraMeta{SubChatType: "t2t"}},
	}

	return &upstream.Envelope{
		ChatID:            session.UpstreamChatID,
		ParentID:          parentID,
		Stream:            stream,
		IncrementalOutput: true,
		ChatMode:          "guest",
		Model:             model,
		Timestamp:         now,
		Messages:          []upstream.Message{msg},
	}
}
