// Package types holds the JSON envelopes shared by the operator API. Webhook
// acknowledgement bodies do not use these; each gateway dictates its own.
package types

// SuccessEnvelope wraps every successful operator API response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details carries field-level validation
// messages or replay context only when the error code allows it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every operator API error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
