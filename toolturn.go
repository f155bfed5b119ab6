// Package toolturn provides a high-level façade over the turn controller,
// capability registry and session store. Most applications interact with
// this package by:
//  1. Creating an Orchestrator via New() with a model and capabilities
//  2. Calling Respond() with the visible transcript (stateless, hidden
//     history round-trips through message metadata), or
//  3. Calling RespondSession() with a conversation id to let the configured
//     session store keep the transcript server-side
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable session store and a structured
// logger.
package toolturn

import (
	"context"
	"fmt"

	"github.com/toolturn/toolturn/capability"
	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/logging"
	"github.com/toolturn/toolturn/model"
	"github.com/toolturn/toolturn/session"
	"github.com/toolturn/toolturn/turn"
)

// Options configures the Orchestrator instance.
type Options struct {
	// Preamble is the fixed system instruction injected at the head of every
	// inference call.
	Preamble string

	// MaxTurns caps inference calls per response (default turn.DefaultMaxTurns,
	// 0 removes the cap).
	MaxTurns int

	// MaxParallel limits concurrent tool executions within one turn.
	// Zero means one goroutine per call.
	MaxParallel int

	// SessionStore backs RespondSession (defaults to in-memory).
	SessionStore session.Store

	// Sink receives tool progress stages (defaults to discarding).
	Sink core.ProgressSink

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Orchestrator is the high-level façade aggregating the turn controller,
// registry and session store.
type Orchestrator struct {
	opts       Options
	controller *turn.Controller
	registry   *capability.Registry
}

// New creates an Orchestrator for the given model and capabilities.
func New(m model.Model, caps []capability.Capability, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		MaxTurns:     turn.DefaultMaxTurns,
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry, err := capability.NewRegistry(caps...)
	if err != nil {
		return nil, err
	}

	controller := turn.NewController(m, registry, func(o *turn.Options) {
		o.Preamble = opts.Preamble
		o.MaxTurns = opts.MaxTurns
		o.MaxParallel = opts.MaxParallel
		o.Sink = opts.Sink
		o.Logger = opts.Logger
	})

	return &Orchestrator{opts: opts, controller: controller, registry: registry}, nil
}

// Registry exposes the capability registry, e.g. for listing capabilities.
func (o *Orchestrator) Registry() *capability.Registry { return o.registry }

// Respond runs one orchestration pass over the caller-provided transcript.
// Hidden tool-turn history carried in message metadata is honored and the
// returned message carries the updated history the same way. The caller owns
// transcript persistence.
func (o *Orchestrator) Respond(ctx context.Context, req turn.Request) (turn.Result, error) {
	return o.controller.Run(ctx, req)
}

// RespondSession runs one orchestration pass with server-side persistence:
// the stored transcript is loaded, the user message appended, and the full
// transcript (final assistant message included) saved back on success.
func (o *Orchestrator) RespondSession(ctx context.Context, conversationID string, userMessage string, req turn.Request) (turn.Result, error) {
	if conversationID == "" {
		return turn.Result{}, fmt.Errorf("toolturn: conversation id is required for session mode")
	}

	stored, err := o.opts.SessionStore.Load(ctx, conversationID)
	if err != nil {
		return turn.Result{}, err
	}

	req.ConversationID = conversationID
	req.Messages = append(core.CloneMessages(stored), core.NewUserMessage(userMessage))

	result, err := o.controller.Run(ctx, req)
	if err != nil {
		return turn.Result{}, err
	}

	transcript := append(req.Messages, result.Message)
	if err := o.opts.SessionStore.Save(ctx, conversationID, transcript); err != nil {
		return turn.Result{}, err
	}
	return result, nil
}
