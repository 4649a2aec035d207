package entity

import "time"

// RequestRecord is the append-only audit row written before an
// upstream call is made (spec.md §3 "Request record").
type RequestRecord struct {
	ID               string
	SessionID        string
	Timestamp        time.Time
	Model            string
	Stream           bool
	InboundBodyJSON  string
	UpstreamBodyJSON string
}

// ResponseRecord is the audit row written once a turn completes or
// fails (spec.md §3 "Response record"). UpstreamBodyJSON is empty for
// streaming mode, per spec.
type ResponseRecord struct {
	ID               string
	RequestID        string
	SessionID        string
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
