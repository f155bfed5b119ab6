// Package capability implements the registry of executable capabilities the
// model may invoke: a named, schema-described unit of functionality behind a
// single Execute method, with consistent error codes and a read-only
// registry built once at startup.
package capability

import (
	"context"
	"fmt"

	"github.com/toolturn/toolturn/core"
)

// Capability is a unit of executable functionality exposed to the model.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case recommended) and
//     descriptions within the backend's length limit
//   - Define a proper JSON schema for Arguments
//   - Treat call.Arguments as untrusted input requiring validation
//   - Be safe for concurrent use; calls of one turn run in parallel
//   - Never retain the ExecutionContext after Execute returns
//
// Execute may return an error; the dispatcher converts it into the call's
// ToolResult so a broken capability never aborts a turn.
type Capability interface {
	// Name returns the unique identifier for this capability.
	Name() string

	// Description returns the human-readable description given to the model.
	Description() string

	// Parameters returns a JSON schema describing the accepted arguments.
	Parameters() map[string]any

	// Execute runs the capability for one reconstructed tool call.
	Execute(ctx context.Context, call core.ToolCall, execCtx *core.ExecutionContext) (core.ToolResult, error)
}

// StageOwner is an optional interface for capabilities that render their own
// progress. The dispatcher skips the default argument/result echo for them
// but still guarantees the stage is closed.
type StageOwner interface {
	WritesOwnStage() bool
}

// Error represents a failure during capability execution with a stable code
// for categorization.
type Error struct {
	Capability string `json:"capability"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("capability error [%s] in %s: %s", e.Code, e.Capability, e.Message)
	}
	return fmt.Sprintf("capability error in %s: %s", e.Capability, e.Message)
}

// NewError creates an Error with the specified details.
func NewError(capability, message, code string) *Error {
	return &Error{Capability: capability, Message: message, Code: code}
}
