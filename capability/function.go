package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/internal/util"
)

// FuncCapability adapts a plain Go function into a Capability.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Deserializes and validates the call's Arguments before execution
//   - Normalizes error handling so callers receive *Error with consistent
//     codes: ARGUMENT_ERROR for malformed/mismatched arguments,
//     EXECUTION_ERROR for failures of the wrapped function (custom codes
//     preserved if the function returns *Error directly)
//
// A FuncCapability has no mutable state after construction and is safe for
// concurrent use.
type FuncCapability struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any, execCtx *core.ExecutionContext) (string, error)
}

// NewFunc constructs a FuncCapability from an explicit schema and function.
//
// Example:
//
//	sum := capability.NewFunc(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(ctx context.Context, args map[string]any, _ *core.ExecutionContext) (string, error) {
//	    return fmt.Sprintf("%v", args["a"].(float64)+args["b"].(float64)), nil
//	  },
//	)
func NewFunc(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any, execCtx *core.ExecutionContext) (string, error),
) *FuncCapability {
	return &FuncCapability{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFuncFromStruct derives the parameter schema from a struct using
// reflection, equivalent to util.CreateSchema(structType).
func NewFuncFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any, execCtx *core.ExecutionContext) (string, error),
) *FuncCapability {
	return NewFunc(name, description, util.CreateSchema(structType), fn)
}

// Name returns the unique capability name.
func (c *FuncCapability) Name() string { return c.name }

// Description returns the description exposed to models.
func (c *FuncCapability) Description() string { return c.description }

// Parameters returns the JSON schema describing expected arguments.
func (c *FuncCapability) Parameters() map[string]any { return c.parameters }

// Execute decodes and validates the serialized arguments, then invokes the
// wrapped function. Failures are wrapped (or passed through) as *Error.
func (c *FuncCapability) Execute(ctx context.Context, call core.ToolCall, execCtx *core.ExecutionContext) (core.ToolResult, error) {
	result := core.ToolResult{ToolCallID: call.ID, Name: call.Name}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return result, &Error{
				Capability: c.name,
				Message:    fmt.Sprintf("arguments are not valid JSON: %v", err),
				Code:       "ARGUMENT_ERROR",
			}
		}
	}

	if err := util.ValidateParameters(args, c.parameters); err != nil {
		return result, &Error{
			Capability: c.name,
			Message:    fmt.Sprintf("argument validation failed: %v", err),
			Code:       "ARGUMENT_ERROR",
			Details:    err,
		}
	}

	content, err := c.fn(ctx, args, execCtx)
	if err != nil {
		if capErr, ok := err.(*Error); ok {
			return result, capErr
		}
		return result, &Error{
			Capability: c.name,
			Message:    err.Error(),
			Code:       "EXECUTION_ERROR",
		}
	}

	result.Content = content
	return result, nil
}
