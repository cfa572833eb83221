package types

// SuccessEnvelope wraps every successful invoice API payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Violation and LegacyCode are set for
// lifecycle rule failures so clients can branch without parsing details.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Violation  string `json:"violation,omitempty"`
	LegacyCode int    `json:"legacy_code,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Details    any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
