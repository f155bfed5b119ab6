package model

import (
	"context"
	"fmt"
)

// ScriptedModel replays a fixed fragment script per call, in call order. It
// is the test double used throughout the repository: scripts let tests drive
// the accumulator and turn controller through arbitrary interleavings
// without a network backend.
type ScriptedModel struct {
	info    Info
	scripts [][]Fragment
	errs    []error
	calls   int

	// Requests records every request received, for assertions.
	Requests []Request
}

// NewScriptedModel constructs an empty scripted model.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{
		info: Info{Name: "scripted", Provider: "test", SupportsTools: true},
	}
}

// AddTurn appends the fragment sequence emitted for the next call.
func (m *ScriptedModel) AddTurn(fragments ...Fragment) *ScriptedModel {
	m.scripts = append(m.scripts, fragments)
	m.errs = append(m.errs, nil)
	return m
}

// AddFailure appends a call that emits the given transport error instead of
// fragments.
func (m *ScriptedModel) AddFailure(err error) *ScriptedModel {
	m.scripts = append(m.scripts, nil)
	m.errs = append(m.errs, err)
	return m
}

// Calls reports how many times Stream has been invoked.
func (m *ScriptedModel) Calls() int { return m.calls }

// Stream implements Model by replaying the script for the current call.
func (m *ScriptedModel) Stream(ctx context.Context, req Request) (<-chan Fragment, <-chan error) {
	out := make(chan Fragment, 32)
	errCh := make(chan error, 1)

	idx := m.calls
	m.calls++
	m.Requests = append(m.Requests, req)

	go func() {
		defer close(out)
		defer close(errCh)

		if idx >= len(m.scripts) {
			errCh <- &TransportError{Provider: "test", Err: fmt.Errorf("no script for call %d", idx)}
			return
		}
		if err := m.errs[idx]; err != nil {
			errCh <- err
			return
		}
		for _, f := range m.scripts[idx] {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- f:
			}
		}
	}()

	return out, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
