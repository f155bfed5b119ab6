package core

// ProgressSink creates visible stages for tool activity. Implementations
// must be safe for concurrent Open calls because tool calls of one turn run
// in parallel.
type ProgressSink interface {
	// Open starts a new named stage and returns its handle.
	Open(name string) Stage
}

// Stage is the handle for one open progress section. Close is idempotent and
// Append after Close is a no-op; a rendering failure must never influence
// the ToolResult of the call it belongs to.
type Stage interface {
	Append(text string)
	Close()
}

// ExecutionContext is the per-request, read-only bundle handed to a
// capability for the duration of one tool call. It carries the caller's
// credential, a correlation identifier for cache/session scoping, and the
// stage the dispatcher opened for this call. Capabilities must not retain it
// after Execute returns.
type ExecutionContext struct {
	APIKey         string
	ConversationID string
	Stage          Stage
}

// WithStage returns a copy of the context bound to the given stage. The
// dispatcher uses this to specialize one shared template per call.
func (e ExecutionContext) WithStage(s Stage) *ExecutionContext {
	e.Stage = s
	return &e
}

// nopStage implements Stage with no output.
type nopStage struct{}

func (nopStage) Append(string) {}
func (nopStage) Close()        {}

// NopSink discards all progress output. It is the default when no sink is
// configured and keeps capability code free of nil checks.
type NopSink struct{}

// Open implements ProgressSink.
func (NopSink) Open(string) Stage { return nopStage{} }
