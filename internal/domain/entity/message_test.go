package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/valueobject"
)

func TestFirstUserMessage_FindsFirstUserRole(t *testing.T) {
	messages := []entity.ChatMessage{
		{Role: valueobject.RoleSystem, Content: valueobject.NewTextContent("you are a bot")},
		{Role: valueobject.RoleUser, Content: valueobject.NewTextContent("first user turn")},
		{Role: valueobject.RoleAssistant, Content: valueobject.NewTextContent("reply")},
		{Role: valueobject.RoleUser, Content: valueobject.NewTextContent("second user turn")},
	}

	got, ok := entity.FirstUserMessage(messages)
	require.True(t, ok)
	assert.Equal(t, "first user turn", got.Content.Canonical())
}

func TestFirstUserMessage_NoUserMessage(t *testing.T) {
	messages := []entity.ChatMessage{
		{Role: valueobject.RoleSystem, Content: valueobject.NewTextContent("system only")},
	}
	_, ok := entity.FirstUserMessage(messages)
	assert.False(t, ok)
}

func TestFirstUserMessage_EmptyMessages(t *testing.T) {
	_, ok := entity.FirstUserMessage(nil)
	assert.False(t, ok)
}
