package model

import (
	"context"
	"fmt"

	"github.com/toolturn/toolturn/core"
)

// ToolCallDelta is a slice of a tool-call-in-progress. Index is the
// producer-assigned slot the slice belongs to, stable for the duration of
// one turn. The first delta for a slot always carries a non-empty ID;
// continuation deltas carry only an Arguments slice.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Fragment is one increment of a streaming model response. Either field may
// be empty; content and tool-call slices interleave freely.
type Fragment struct {
	Content   string
	ToolCalls []ToolCallDelta
}

// Definition declaratively exposes a capability to the model.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the turn
// controller: full logical transcript, capability schemas and the
// deployment (provider model id) to run against.
type Request struct {
	Messages   []core.Message
	Tools      []Definition
	Deployment string
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the turn controller needs to drive
// generation. Stream returns a fragment channel and an error channel; both
// are closed when the response ends. A non-nil error on the error channel
// means the turn failed at the transport level and no reconstruction of the
// partial stream is attempted.
type Model interface {
	Stream(ctx context.Context, req Request) (<-chan Fragment, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// TransportError wraps a failure of the inference backend call itself
// (network, auth, quota). It is fatal to the current turn; retry policy, if
// any, belongs to the transport layer.
type TransportError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }
