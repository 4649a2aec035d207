package orchestrator

import (
	"github.com/tidwall/sjson"
)

// redactInboundBody strips the caller-supplied `user` field from the
// stored inbound JSON blob before it is written to the audit trail —
// it can carry an end-user identifier the gateway has no business
// retaining. Manipulating the raw JSON with sjson avoids a full
// unmarshal/remarshal round trip that would also normalize field
// ordering and drop unknown keys.
func redactInboundBody(raw string) string {
	redacted, err := sjson.Delete(raw, "user")
	if err != nil {
		return raw
	}
	return redacted
}
