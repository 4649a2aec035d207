package entity

import "github.com/chriscoletech/qwen-gateway/internal/domain/valueobject"

// ChatMessage is one entry of an inbound OpenAI chat completion
// request's `messages` array.
type ChatMessage struct {
	Role    valueobject.Role    `json:"role"`
	Content valueobject.Content `json:"content"`
	Name    string              `json:"name,omitempty"`
}

// FirstUserMessage returns the first message with role "user", which
// spec.md §3 defines as the conversation's fingerprint source.
func FirstUserMessage(messages []ChatMessage) (ChatMessage, bool) {
	for _, m := range messages {
		if m.Role == valueobject.RoleUser {
			return m, true
		}
	}
	return ChatMessage{}, false
}
