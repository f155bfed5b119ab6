package stream

import (
	"fmt"
	"strings"

	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/model"
)

// AccumulationError reports a continuation fragment for a slot that was
// never opened. The turn cannot be recovered: argument bytes are already
// lost and no resynchronization is possible after the fact.
type AccumulationError struct {
	Slot int
}

// Error implements the error interface.
func (e *AccumulationError) Error() string {
	return fmt.Sprintf("stream: continuation for unopened tool call slot %d", e.Slot)
}

// slot holds the in-progress reconstruction of one tool call.
type slot struct {
	id   string
	name string
	args strings.Builder
}

// Accumulator consumes an ordered fragment sequence and produces the full
// text content plus zero or more complete tool call requests. Slots are kept
// in a growable slice keyed by index so finalization order is deterministic
// regardless of arrival order; a map would reintroduce iteration-order
// ambiguity.
type Accumulator struct {
	content strings.Builder
	slots   []*slot
}

// NewAccumulator returns an empty accumulator for one turn.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Ingest folds one fragment into the accumulated state. Content slices and
// tool-call slices are independent and may interleave freely.
func (a *Accumulator) Ingest(f model.Fragment) error {
	a.content.WriteString(f.Content)

	for _, d := range f.ToolCalls {
		if d.Index < 0 {
			return &AccumulationError{Slot: d.Index}
		}
		if d.ID != "" {
			a.open(d)
			continue
		}
		if d.Index >= len(a.slots) || a.slots[d.Index] == nil {
			return &AccumulationError{Slot: d.Index}
		}
		s := a.slots[d.Index]
		if d.Name != "" {
			s.name = d.Name
		}
		s.args.WriteString(d.Arguments)
	}

	return nil
}

// open starts (or restarts, if the producer re-announces the id) the slot at
// d.Index. Providers occasionally repeat the id on later deltas; arguments
// carried on an opening delta still count.
func (a *Accumulator) open(d model.ToolCallDelta) {
	for d.Index >= len(a.slots) {
		a.slots = append(a.slots, nil)
	}
	s := a.slots[d.Index]
	if s == nil {
		s = &slot{}
		a.slots[d.Index] = s
	}
	s.id = d.ID
	if d.Name != "" {
		s.name = d.Name
	}
	s.args.WriteString(d.Arguments)
}

// Drain consumes fragments and errors from a model stream until both
// channels close, ingesting every fragment. A transport error or ingest
// failure aborts immediately.
func (a *Accumulator) Drain(fragments <-chan model.Fragment, errs <-chan error) error {
	for fragments != nil || errs != nil {
		select {
		case f, ok := <-fragments:
			if !ok {
				fragments = nil
				continue
			}
			if err := a.Ingest(f); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Finalize returns the reconstructed content and tool calls. Calls are
// ordered by slot index, not arrival order, giving deterministic downstream
// processing regardless of producer reordering.
func (a *Accumulator) Finalize() (string, []core.ToolCall) {
	var calls []core.ToolCall
	for _, s := range a.slots {
		if s == nil {
			continue
		}
		calls = append(calls, core.ToolCall{
			ID:        s.id,
			Name:      s.name,
			Arguments: s.args.String(),
		})
	}
	return a.content.String(), calls
}
