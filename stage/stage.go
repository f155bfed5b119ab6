// Package stage provides progress sink implementations for surfacing tool
// activity to callers while a turn is in flight.
package stage

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/toolturn/toolturn/core"
)

// WriterSink renders stages as markdown sections on a shared writer. Because
// tool calls of one turn run concurrently, every stage buffers its output and
// flushes the whole section once on Close, so sections never interleave.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink over the given writer.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Open implements core.ProgressSink.
func (s *WriterSink) Open(name string) core.Stage {
	return &writerStage{sink: s, name: name}
}

// flush writes one completed section. Render failures are swallowed: a
// broken progress channel must never influence the tool result it narrates.
func (s *WriterSink) flush(name, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "### %s\n\n%s\n", name, body)
}

type writerStage struct {
	sink *WriterSink
	name string

	mu     sync.Mutex
	buf    strings.Builder
	closed bool
}

// Append buffers text for the section. Appending to a closed stage is a
// no-op.
func (st *writerStage) Append(text string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	st.buf.WriteString(text)
}

// Close flushes the section exactly once.
func (st *writerStage) Close() {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	st.closed = true
	body := st.buf.String()
	st.mu.Unlock()

	st.sink.flush(st.name, body)
}
