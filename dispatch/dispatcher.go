// Package dispatch executes the tool calls of one assistant turn
// concurrently against the capability registry. It upholds the engine's
// central failure-isolation contract: every request yields exactly one
// result, in request order, and no single broken call can abort the turn or
// starve its siblings.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/toolturn/toolturn/capability"
	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/logging"
)

// Config configures the dispatcher.
type Config struct {
	MaxParallel int // 0 or <1 => no explicit limit (len(calls))
}

// Dispatcher fans a batch of tool calls out over goroutines and joins on
// all of them before returning. Results are index-aligned with the input
// regardless of completion order.
type Dispatcher struct {
	registry *capability.Registry
	sink     core.ProgressSink
	logger   logging.Logger
	cfg      Config
}

// New constructs a dispatcher over the given registry. A nil sink disables
// progress rendering; a nil logger disables logging.
func New(registry *capability.Registry, sink core.ProgressSink, logger logging.Logger, cfg Config) *Dispatcher {
	if sink == nil {
		sink = core.NopSink{}
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Dispatcher{registry: registry, sink: sink, logger: logger, cfg: cfg}
}

// Execute runs every call concurrently and returns one ToolResult per call,
// element i corresponding to request i. It never returns an error: lookup
// failures, execution errors and panics are all folded into the affected
// call's result so the model can react to them.
func (d *Dispatcher) Execute(ctx context.Context, calls []core.ToolCall, execCtx core.ExecutionContext) []core.ToolResult {
	n := len(calls)
	if n == 0 {
		return nil
	}

	// Fast path: single call, execute inline.
	if n == 1 {
		return []core.ToolResult{d.executeOne(ctx, calls[0], execCtx)}
	}

	maxPar := d.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.ToolResult, n)
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()
	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call core.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = d.executeOne(ctx, call, execCtx)
		}(i, calls[i])
	}
	wg.Wait()

	d.logger.Debug("dispatch.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

// executeOne resolves and runs a single call with panic safety and a stage
// that closes on every exit path.
func (d *Dispatcher) executeOne(ctx context.Context, call core.ToolCall, execCtx core.ExecutionContext) core.ToolResult {
	stage := d.sink.Open(call.Name)
	defer stage.Close()

	impl, ok := d.registry.Lookup(call.Name)
	if !ok {
		d.logger.Warn("dispatch.call.unknown", "capability", call.Name, "call_id", call.ID)
		msg := fmt.Sprintf("Error executing tool: capability %q is not available", call.Name)
		stage.Append(msg + "\n")
		return core.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: msg}
	}

	echo := true
	if owner, ok := impl.(capability.StageOwner); ok && owner.WritesOwnStage() {
		echo = false
	}
	if echo {
		stage.Append("## Request arguments:\n")
		stage.Append(fmt.Sprintf("```json\n%s\n```\n", indentArguments(call.Arguments)))
		stage.Append("## Response:\n")
	}

	start := time.Now()
	var (
		result core.ToolResult
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				d.logger.Error("dispatch.call.panic",
					"capability", call.Name,
					"call_id", call.ID,
					"recover", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		result, err = impl.Execute(ctx, call, execCtx.WithStage(stage))
	}()

	d.logger.Info("dispatch.call.executed",
		"capability", call.Name,
		"call_id", call.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		result = core.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("Error executing tool: %v", err),
		}
	}

	// The skeleton fields are the dispatcher's responsibility; capabilities
	// only have to fill in content and attachments.
	if result.ToolCallID == "" {
		result.ToolCallID = call.ID
	}
	if result.Name == "" {
		result.Name = call.Name
	}

	if echo {
		stage.Append(result.Content + "\n")
	}

	return result
}

// indentArguments pretty-prints the serialized arguments for stage display,
// falling back to the raw payload when it is not valid JSON.
func indentArguments(args string) string {
	if args == "" {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(args), "", "  "); err != nil {
		return args
	}
	return buf.String()
}
