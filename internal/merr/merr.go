// Package merr defines the memory engine's error taxonomy.
//
// Every subsystem that touches the backend or the LLM funnels its failures
// through a MemoryError so surfaces (CLI, MCP) can render a single-line
// message and pick an exit code without knowing which subsystem failed.
package merr

import "fmt"

// Kind classifies a MemoryError.
type Kind string

const (
	KindServer            Kind = "server"
	KindServerUnavailable Kind = "server_unavailable"
	KindSchema            Kind = "schema"
	KindIndex              Kind = "index"
	KindInvalidParams      Kind = "invalid_params"
	KindInternal           Kind = "internal"
)

// MemoryError is the single error type returned across package boundaries
// in the engine (backend, schema, query, lifecycle). Surfaces map it to a
// stderr message and a process exit code.
type MemoryError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *MemoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *MemoryError) Unwrap() error { return e.Err }

func newErr(k Kind, msg string, err error) *MemoryError {
	return &MemoryError{Kind: k, Message: msg, Err: err}
}

func Server(msg string, err error) *MemoryError            { return newErr(KindServer, msg, err) }
func ServerUnavailable(msg string, err error) *MemoryError  { return newErr(KindServerUnavailable, msg, err) }
func Schema(msg string, err error) *MemoryError             { return newErr(KindSchema, msg, err) }
func Index(msg string, err error) *MemoryError              { return newErr(KindIndex, msg, err) }
func InvalidParams(msg string, err error) *MemoryError      { return newErr(KindInvalidParams, msg, err) }
func Internal(msg string, err error) *MemoryError           { return newErr(KindInternal, msg, err) }

// Is reports whether err is a *MemoryError of the given kind.
func Is(err error, k Kind) bool {
	var me *MemoryError
	if as, ok := err.(*MemoryError); ok {
		me = as
	} else {
		return false
	}
	return me.Kind == k
}
