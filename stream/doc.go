// Package stream reconstructs a complete assistant turn from the
// incremental fragments a model backend emits. Tool-call argument slices
// must be concatenated verbatim and in order per slot; a lost or misordered
// slice corrupts the serialized arguments silently, so a continuation for a
// slot that was never opened is a protocol violation and fails the turn.
package stream
