package transform_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/valueobject"
	"github.com/chriscoletech/qwen-gateway/internal/transform"
)

func TestBuildEnvelope_FirstTurnHasNilParentID(t *testing.T) {
	session := &entity.Session{UpstreamChatID: "chat-1", ParentID: nil}
	messages := []entity.ChatMessage{
		{Role: valueobject.RoleUser, Content: valueobject.NewTextContent("hello")},
	}

	env := transform.BuildEnvelope(messages, session, "qwen-max", false)

	assert.Equal(t, "chat-1", env.ChatID)
	assert.Nil(t, env.ParentID)
	require.Len(t, env.Messages, 1)
	assert.Nil(t, env.Messages[0].ParentID)
	assert.Nil(t, env.Messages[0].ParentIDSnake)
}

func TestBuildEnvelope_CarriesOnlyTheLastMessage(t *testing.T) {
	parent := "parent-1"
	session := &entity.Session{UpstreamChatID: "chat-1", ParentID: &parent}
	messages := []entity.ChatMessage{
		{Role: valueobject.RoleUser, Content: valueobject.NewTextContent("first turn")},
		{Role: valueobject.RoleAssistant, Content: valueobject.NewTextContent("first reply")},
		{Role: valueobject.RoleUser, Content: valueobject.NewTextContent("second turn")},
	}

	env := transform.BuildEnvelope(messages, session, "qwen-max", true)

	require.Len(t, env.Messages, 1, "only the most recent message is sent — the parent chain carries the rest")
	assert.Equal(t, "second turn", env.Messages[0].Content)
	assert.Equal(t, "user", env.Messages[0].Role)
	require.NotNil(t, env.ParentID)
	assert.Equal(t, "parent-1", *env.ParentID)
}

func TestBuildEnvelope_PopulatesMandatoryFields(t *testing.T) {
	session := &entity.Session{UpstreamChatID: "chat-1"}
	messages := []entity.ChatMessage{
		{Role: valueobject.RoleUser, Content: valueobject.NewTextContent("hi")},
	}

	env := transform.BuildEnvelope(messages, session, "qwen-max", true)

	assert.True(t, env.Stream)
	assert.True(t, env.IncrementalOutput)
	assert.Equal(t, "guest", env.ChatMode)
	assert.Equal(t, "qwen-max", env.Model)
	assert.WithinDuration(t, time.Now(), time.Unix(env.Timestamp, 0), 5*time.Second)

	msg := env.Messages[0]
	assert.NotEmpty(t, msg.FID)
	assert.Equal(t, "chat", msg.UserAction)
	assert.Equal(t, []string{"qwen-max"}, msg.Models)
	assert.Equal(t, "t2t", msg.ChatType)
	assert.Equal(t, "t2t", msg.SubChatType)
	assert.False(t, msg.FeatureConfig.ThinkingEnabled)
	assert.Equal(t, "phase", msg.FeatureConfig.OutputSchema)
	assert.Equal(t, "t2t", msg.Extra.Meta.SubChatType)
	assert.Empty(t, msg.ChildrenIDs)
	assert.Empty(t, msg.Files)
}
