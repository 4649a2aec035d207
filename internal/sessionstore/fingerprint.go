package sessionstore

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
)

// Fingerprint derives the stable session key for a conversation: the
// hex sha256 digest of the canonicalized first user message, per
// spec.md §3/§4.3. It is pure and deterministic so that OpenAI's
// replay-full-history client behavior maps every turn of the same
// conversation back onto the same session row.
func Fingerprint(messages []entity.ChatMessage) (string, bool) {
	first, ok := entity.FirstUserMessage(messages)
	if !ok {
		return "", false
	}
	canonical := strings.TrimSpace(first.Content.Canonical())
	if canonical == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), true
}
