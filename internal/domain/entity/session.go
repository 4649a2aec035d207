package entity

import "time"

// Session is the gateway's record of one OpenAI conversation mapped to
// a Qwen chat. It is the sole owner of the parent_id cursor used to
// rejoin Qwen's server-side context chain (spec.md §3).
type Session struct {
	ID                string // fingerprint, unique
	UpstreamChatID    string
	ParentID          *string // nil exactly for the first turn
	FirstUserMessage  string
	MessageCount      int
	CreatedAt         time.Time
	LastAccessed      time.Time
	ExpiresAt         time.Time
}

// IsExpired reports whether the session should be swept as of now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Touch refreshes last-accessed/expiry bookkeeping without mutating
// the parent chain. Callers pass the configured inactivity timeout.
func (s *Session) Touch(now time.Time, timeout time.Duration) {
	s.LastAccessed = now
	s.ExpiresAt = now.Add(timeout)
}

// AdvanceParent records the parent_id extracted from an upstream reply
// and increments the turn counter, per spec.md §3/§4.3.
func (s *Session) AdvanceParent(parentID string, now time.Time, timeout time.Duration) {
	pid := parentID
	s.ParentID = &pid
	s.MessageCount++
	s.Touch(now, timeout)
}
