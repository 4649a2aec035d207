package upstream

// FeatureConfig is the fixed feature-toggle block every envelope
// carries (spec.md §4.4).
type FeatureConfig struct {
	ThinkingEnabled bool   `json:"thinking_enabled"`
	OutputSchema    string `json:"output_schema"`
}

// ExtraMeta is the nested extra.meta block spec.md §4.4 requires.
type ExtraMeta struct {
	SubChatType string `json:"subChatType"`
}

// Extra wraps ExtraMeta under the "meta" key.
type Extra struct {
	Meta ExtraMeta `json:"meta"`
}

// Message is the single upstream message an envelope carries —
// exactly the fields spec.md §4.4 enumerates as mandatory.
type Message struct {
	FID           string        `json:"fid"`
	ParentID      *string       `json:"parentId"`
	ParentIDSnake *string       `json:"parent_id"`
	ChildrenIDs   []string      `json:"childrenIds"`
	Role          string        `json:"role"`
	Content       string        `json:"content"`
	UserAction    string        `json:"user_action"`
	Files         []string      `json:"files"`
	Timestamp     int64         `json:"timestamp"`
	Models        []string      `json:"models"`
	ChatType      string        `json:"chat_type"`
	SubChatType   string        `json:"sub_chat_type"`
	FeatureConfig FeatureConfig `json:"feature_config"`
	Extra         Extra         `json:"extra"`
}

// Envelope is the fully-populated single-message payload C4 builds
// and C2 sends to POST /api/v2/chat/completions?chat_id=<id>
// (spec.md §4.4, §6).
type Envelope struct {
	ChatID             string    `json:"chat_id"`
	ParentID           *string   `json:"parent_id"`
	Stream             bool      `json:"stream"`
	IncrementalOutput  bool      `json:"incremental_output"`
	ChatMode           string    `json:"chat_mode"`
	Model              string    `json:"model"`
	Timestamp          int64     `json:"timestamp"`
	Messages           []Message `json:"messages"`
}

// NewChatRequest is the body of POST /api/v2/chats/new (spec.md §6).
type NewChatRequest struct {
	Title     string   `json:"title"`
	Models    []string `json:"models"`
	ChatMode  string   `json:"chat_mode"`
	ChatType  string   `json:"chat_type"`
	Timestamp int64    `json:"timestamp"`
}

// NewChatResponse wraps the freshly issued chat id.
type NewChatResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Usage is the upstream token-count shape (spec.md §4.5).
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// BlockingChoice is one choice of a blocking reply.
type BlockingChoice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// BlockingReply is the upstream shape for a non-streaming reply
// (spec.md §4.5 "Blocking").
type BlockingReply struct {
	ParentID  string           `json:"parent_id"`
	MessageID string           `json:"message_id"`
	Choices   []BlockingChoice `json:"choices"`
	Usage     *Usage           `json:"usage,omitempty"`
}

// StreamResponseCreated carries the metadata frame's parent_id
// (spec.md §4.5 "Metadata frame").
type StreamResponseCreated struct {
	ParentID string `json:"parent_id"`
}

// StreamDelta is one streaming choice's delta (spec.md §4.5).
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
}

// StreamChoice wraps a StreamDelta.
type StreamChoice struct {
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason,omitempty"`
}

// StreamFrame is one JSON-parsed line of Qwen's SSE body. A frame is
// either a metadata frame (ResponseCreated set), a content/role/finish
// frame (Choices set), or both fields absent (ignored).
type StreamFrame struct {
	ResponseCreated *StreamResponseCreated `json:"response.created,omitempty"`
	Choices         []StreamChoice         `json:"choices,omitempty"`
	Usage           *Usage                 `json:"usage,omitempty"`
	ParentID        string                 `json:"parent_id,omitempty"` // present on some terminal frames
}

// QwenModelMeta is the capability/limit block of a native model entry.
type QwenModelMeta struct {
	Description         string   `json:"description"`
	Capabilities        map[string]bool `json:"capabilities"`
	MaxContextLength    int      `json:"max_context_length"`
	MaxGenerationLength int      `json:"max_generation_length"`
	ChatType            []string `json:"chat_type"`
}

// QwenModelInfo wraps QwenModelMeta under "meta", mirroring the
// upstream's nested shape.
type QwenModelInfo struct {
	Meta QwenModelMeta `json:"meta"`
}

// QwenModel is one entry of GET /api/models' native list (spec.md §6,
// §4.9).
type QwenModel struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Info     QwenModelInfo `json:"info"`
	IsActive bool          `json:"is_active"`
}

// ModelsListResponse wraps the native model list.
type ModelsListResponse struct {
	Data []QwenModel `json:"data"`
}
