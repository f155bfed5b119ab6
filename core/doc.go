// Package core defines the shared data model of the orchestration engine:
// chat messages, tool call requests and results, the per-request execution
// context handed to capabilities, and the progress sink interfaces used to
// render tool activity. Higher layers (stream, dispatch, turn, capability)
// all depend on core; core depends on nothing but the standard library.
package core
