// Package models provides the core data structures exchanged between the webhook boundary, the normalizer and the event bus.
package models

// Request represents an incoming webhook request independent of its transport (HTTP server or Lambda).
type Request struct {
	Method string
	Body   []byte
	// Headers are keyed by lowercase header name.
	Headers map[string]string
}

// Response defines the structure for an HTTP response containing a body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}
