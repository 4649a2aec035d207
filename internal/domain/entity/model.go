package entity

// ModelCapabilities mirrors the capability flags Qwen reports per
// model (spec.md §3 "Model entry").
type ModelCapabilities struct {
	Vision    bool `json:"vision"`
	Document  bool `json:"document"`
	Video     bool `json:"video"`
	Audio     bool `json:"audio"`
	Citations bool `json:"citations"`
}

// ModelEntry is one row of the cached, reshaped upstream model list.
type ModelEntry struct {
	ID                   string            `json:"id"`
	DisplayName          string            `json:"display_name"`
	Description          string            `json:"description"`
	Capabilities         ModelCapabilities `json:"capabilities"`
	MaxContextLength     int               `json:"max_context_length"`
	MaxGenerationLength  int               `json:"max_generation_length"`
	ChatTypes            []string          `json:"chat_types"`
	IsActive             bool              `json:"is_active"`
}
