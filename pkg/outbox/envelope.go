package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeVersion is written into every new outbox payload.
const EnvelopeVersion = 1

// PayloadEnvelope wraps an invoice lifecycle payload in outbox_events.payload.
// Subscribers dedupe on EventID.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload and rejects versions this build
// cannot read.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version > EnvelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("envelope version %d newer than supported %d", env.Version, EnvelopeVersion)
	}
	return env, nil
}
