// Package valueobject holds small, immutable types shared across the
// translation engine: message roles and the OpenAI content union.
package valueobject

import (
	"encoding/json"
	"strings"
)

// Role is an OpenAI chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsKnown reports whether r is one of the roles the gateway accepts.
func (r Role) IsKnown() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ContentPart is one element of an OpenAI array-of-parts message content.
// Only the text parts are significant to this gateway; non-text parts
// (image_url, etc.) are preserved on the wire but not canonicalized.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Content is the tagged union OpenAI allows for a message's `content`
// field: either a plain string, or an array of typed parts. It
// unmarshals either wire shape and always remarshals back to whichever
// shape it was given, so stored/replayed bodies stay byte-faithful.
type Content struct {
	raw   json.RawMessage
	text  string
	parts []ContentPart
	isStr bool
}

// NewTextContent builds a Content value directly from a plain string,
// for constructing envelopes and test fixtures.
func NewTextContent(text string) Content {
	return Content{text: text, isStr: true}
}

// UnmarshalJSON implements json.Unmarshaler, accepting both wire shapes.
func (c *Content) UnmarshalJSON(data []byte) error {
	c.raw = append(json.RawMessage(nil), data...)

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.text = s
		c.isStr = true
		c.parts = nil
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err == nil {
		c.parts = parts
		c.isStr = false
		c.text = ""
		return nil
	}

	// Unknown shape (e.g. null) — treat as empty text, preserve raw for
	// round-trip.
	c.isStr = true
	c.text = ""
	return nil
}

// MarshalJSON implements json.Marshaler, preserving the original shape
// when one was captured via UnmarshalJSON, and falling back to the
// plain-string shape for values constructed with NewTextContent.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.raw) > 0 {
		return c.raw, nil
	}
	if c.isStr {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.parts)
}

// Canonical joins array-of-parts text in order, or returns the plain
// string unchanged. This is the exact transform spec.md §4.3 requires
// for fingerprinting and for building the single-message envelope.
func (c Content) Canonical() string {
	if c.isStr {
		return c.text
	}
	var b strings.Builder
	for _, p := range c.parts {
		if p.Type == "" || p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// IsEmpty reports whether the canonical content has no visible text.
func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.Canonical()) == ""
}
