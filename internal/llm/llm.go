// Package llm defines the narrow completion contract every NL pipeline
// operation is built on, plus the markdown-fence-stripping step every
// structured response passes through before JSON parsing.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// ErrorKind classifies an LlmError, kept distinct from the backend's
// MemoryError taxonomy at this layer — the NL pipeline funnels these into
// Internal/InvalidParams only once it reaches the surface (SPEC_FULL.md
// §7).
type ErrorKind string

const (
	KindMissingAPIKey ErrorKind = "missing_api_key"
	KindHTTP          ErrorKind = "http"
	KindParse         ErrorKind = "parse"
	KindEmptyResponse ErrorKind = "empty_response"
)

// LlmError is the error type every Client implementation returns.
type LlmError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *LlmError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

func (e *LlmError) Unwrap() error { return e.Err }

func MissingAPIKey(msg string) *LlmError          { return &LlmError{Kind: KindMissingAPIKey, Message: msg} }
func HTTP(msg string, err error) *LlmError        { return &LlmError{Kind: KindHTTP, Message: msg, Err: err} }
func Parse(msg string, err error) *LlmError       { return &LlmError{Kind: KindParse, Message: msg, Err: err} }
func EmptyResponse(msg string) *LlmError          { return &LlmError{Kind: KindEmptyResponse, Message: msg} }

// Client is the narrow capability every NL operation depends on: one
// completion call with a system prompt and a user message, returning raw
// text. Production uses AnthropicClient; tests use MockClient.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// StripMarkdownFences removes a single leading/trailing ```lang fence
// from s, if present, and trims surrounding whitespace. A string with no
// leading fence comes back unchanged apart from that trimming, and the
// function is a fixed point on already-stripped input (P9): calling it twice never differs from
// calling it once.
func StripMarkdownFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}

	// Drop the opening fence line (``` or ```json, ```lang, ...).
	body := lines[1:]

	// Drop a trailing fence line, if present.
	if len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "```" {
		body = body[:len(body)-1]
	}

	return strings.TrimSpace(strings.Join(body, "\n"))
}
