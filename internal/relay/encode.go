package relay

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/chriscoletech/qwen-gateway/internal/upstream"
)

// frameIsRelevant peeks at the raw SSE payload for the two keys a
// frame must carry one of before paying for a full unmarshal into
// upstream.StreamFrame — Qwen's keep-alive lines carry neither.
func frameIsRelevant(payload []byte) bool {
	result := gjson.GetManyBytes(payload, `response\.created`, "choices")
	return result[0].Exists() || result[1].Exists()
}

func decodeFrame(payload []byte) (*upstream.StreamFrame, error) {
	if !frameIsRelevant(payload) {
		return &upstream.StreamFrame{}, nil
	}
	var frame upstream.StreamFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

func encodeChunk(v any) ([]byte, error) {
	return json.Marshal(v)
}
