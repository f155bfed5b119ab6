// Package turn drives the multi-turn orchestration loop: call the model,
// reconstruct the streamed response, dispatch any tool calls, fold the
// results back into the transcript and repeat until the model answers in
// plain text or the turn budget runs out.
package turn

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/toolturn/toolturn/capability"
	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/dispatch"
	"github.com/toolturn/toolturn/logging"
	"github.com/toolturn/toolturn/model"
	"github.com/toolturn/toolturn/stream"
)

// DefaultMaxTurns bounds the inference/dispatch loop when no explicit limit
// is configured.
const DefaultMaxTurns = 32

// TurnLimitError is returned when the loop exhausts its turn budget without
// the model producing a plain-text answer.
type TurnLimitError struct {
	Limit int
}

// Error implements the error interface.
func (e *TurnLimitError) Error() string {
	return fmt.Sprintf("turn limit of %d reached without a final answer", e.Limit)
}

// Request is one orchestration run: the caller-visible transcript plus the
// identifiers the capabilities may need. Hidden history packed into message
// metadata is spliced back in automatically.
type Request struct {
	Messages       []core.Message
	Deployment     string
	APIKey         string
	ConversationID string
}

// Result is the outcome of a completed run. Message is the outward-facing
// assistant answer with the hidden history packed into its metadata; Hidden
// is the same history for callers that persist it server-side. Attachments
// collects everything the capabilities produced across all turns.
type Result struct {
	Message     core.Message
	Hidden      []core.Message
	Attachments []core.Attachment
	Turns       int
}

// Options configure a Controller.
type Options struct {
	// Preamble is the system instruction injected at the head of every
	// inference call. Empty disables injection.
	Preamble string

	// MaxTurns caps the number of inference calls per run. It defaults to
	// DefaultMaxTurns; setting it to zero removes the cap.
	MaxTurns int

	// MaxParallel is forwarded to the dispatcher.
	MaxParallel int

	Sink   core.ProgressSink
	Logger logging.Logger
}

// Controller owns the orchestration loop for one model and one capability
// registry. It is stateless across runs and safe for concurrent use.
type Controller struct {
	model      model.Model
	registry   *capability.Registry
	dispatcher *dispatch.Dispatcher
	opts       Options
}

// NewController creates a controller over the given model and registry.
func NewController(m model.Model, registry *capability.Registry, optFns ...func(*Options)) *Controller {
	opts := Options{
		MaxTurns: DefaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Controller{
		model:    m,
		registry: registry,
		dispatcher: dispatch.New(registry, opts.Sink, opts.Logger,
			dispatch.Config{MaxParallel: opts.MaxParallel}),
		opts: opts,
	}
}

// Run executes the loop until the model produces a plain-text answer.
//
// Each iteration assembles the full logical transcript (preamble, spliced
// visible messages, accumulated hidden history), streams one inference call
// and reconstructs it. A response without tool calls ends the run; otherwise
// every call is dispatched and the turn is appended to the hidden history
// before the next iteration. A failed iteration returns the typed error
// unchanged and leaves the hidden history of completed turns intact.
func (c *Controller) Run(ctx context.Context, req Request) (Result, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	execCtx := core.ExecutionContext{
		APIKey:         req.APIKey,
		ConversationID: conversationID,
	}

	visible := SpliceHistory(req.Messages)
	state := NewConversationState(nil)
	tools := c.registry.Definitions()

	var attachments []core.Attachment

	for turnNo := 1; c.opts.MaxTurns <= 0 || turnNo <= c.opts.MaxTurns; turnNo++ {
		msgs := c.assemble(visible, state)

		c.opts.Logger.Debug("turn.inference.start",
			"conversation_id", conversationID,
			"turn", turnNo,
			"messages", len(msgs),
		)

		fragments, errs := c.model.Stream(ctx, model.Request{
			Messages:   msgs,
			Tools:      tools,
			Deployment: req.Deployment,
		})

		acc := stream.NewAccumulator()
		if err := acc.Drain(fragments, errs); err != nil {
			c.opts.Logger.Error("turn.inference.failed",
				"conversation_id", conversationID,
				"turn", turnNo,
				"error", err,
			)
			return Result{}, err
		}

		content, calls := acc.Finalize()
		assistant := core.NewAssistantMessage(content, calls)

		if !assistant.HasToolCalls() {
			c.opts.Logger.Info("turn.complete",
				"conversation_id", conversationID,
				"turns", turnNo,
				"hidden_messages", state.Len(),
			)
			return Result{
				Message:     PackHistory(assistant, state.Messages()),
				Hidden:      state.Messages(),
				Attachments: attachments,
				Turns:       turnNo,
			}, nil
		}

		c.opts.Logger.Info("turn.dispatch",
			"conversation_id", conversationID,
			"turn", turnNo,
			"calls", len(calls),
		)

		results := c.dispatcher.Execute(ctx, calls, execCtx)
		for _, r := range results {
			attachments = append(attachments, r.Attachments...)
		}
		state.AppendTurn(assistant, results)
	}

	return Result{}, &TurnLimitError{Limit: c.opts.MaxTurns}
}

// assemble builds the transcript for one inference call. The preamble is
// re-injected fresh each turn so it always sits at the head, ahead of any
// caller-provided system message.
func (c *Controller) assemble(visible []core.Message, state *ConversationState) []core.Message {
	msgs := make([]core.Message, 0, len(visible)+state.Len()+1)
	if c.opts.Preamble != "" {
		msgs = append(msgs, core.NewSystemMessage(c.opts.Preamble))
	}
	msgs = append(msgs, visible...)
	msgs = append(msgs, state.Messages()...)
	return msgs
}
