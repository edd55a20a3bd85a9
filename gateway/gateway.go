// Package gateway implements [flow.Opener] for the pipeline gateway API.
//
// Generation exchanges are single HTTP POSTs carrying a JSON body and a
// base64-encoded job descriptor header. The gateway answers either with a
// text/event-stream body of "data: "-framed chunks, or with a single JSON
// document holding the complete result. The package also provides the
// long-lived event-log subscription over SSE or WebSocket.
package gateway

import "encoding/json"

const (
	// jobHeader carries the base64 JSON job descriptor the gateway routes on.
	jobHeader = "Livepeer-Job"

	defaultTimeout = 60 // seconds, when the request does not set one
)

// jobDescriptor is the payload of the job header.
type jobDescriptor struct {
	Request        string `json:"request"`
	Parameters     string `json:"parameters"`
	Capability     string `json:"capability"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// apiRequest is the JSON body of a generation POST.
type apiRequest struct {
	Prompt     string         `json:"prompt"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Stream     bool           `json:"stream"`
}

// apiDocument is the non-streaming response shape. Content is a pointer so
// an absent field can be told apart from an empty result.
type apiDocument struct {
	Content *string `json:"content"`
}

// apiErrorBody covers the error shapes the gateway has been seen to return.
type apiErrorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}
