// Package model defines the inference backend boundary. A Model turns a
// normalized Request (messages + capability schemas + deployment selector)
// into an ordered, finite stream of Fragments; the stream package
// reconstructs full content and tool calls from those fragments. Provider
// adapters live in the openai and anthropic subpackages.
package model
