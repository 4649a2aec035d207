// Package models holds the gorm row structs persistence maps the
// domain entities to and from, mirroring the teacher's
// internal/infrastructure/persistence/models package.
package models

import "time"

// SessionModel is the sessions table row.
type SessionModel struct {
	ID               string `gorm:"primaryKey"`
	UpstreamChatID   string
	ParentID         *string
	FirstUserMessage string
	MessageCount     int
	CreatedAt        time.Time
	LastAccessed     time.Time
	ExpiresAt        time.Time `gorm:"index"`
}

// TableName pins the table name explicitly rather than relying on
// gorm's pluralization, matching the goose-authored schema.
func (SessionModel) TableName() string { return "sessions" }

// RequestModel is the requests table row.
type RequestModel struct {
	ID              string `gorm:"primaryKey"`
	SessionID       string `gorm:"index"`
	Timestamp       time.Time
	Model           string
	Stream          bool
	InboundBodyJSON string
	UpstreamBodyJSON string
}

func (RequestModel) TableName() string { return "requests" }

// ResponseModel is the responses table row.
type ResponseModel struct {
	ID               string `gorm:"primaryKey"`
	RequestID        string `gorm:"index"`
	SessionID        string `gorm:"index"`
	Timestamp        time.Time
	UpstreamBodyJSON string
	OutboundBodyJSON string
	ParentID         string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	FinishReason     string
	ErrorMessage     string
	DurationMS       int64
}

func (ResponseModel) TableName() string { return "responses" }
