package stage

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterSink_SectionRendering(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	st := sink.Open("web_search")
	st.Append("looking up...\n")
	st.Append("found 3 results\n")
	st.Close()

	out := buf.String()
	assert.Contains(t, out, "### web_search")
	assert.Contains(t, out, "looking up...\nfound 3 results\n")
}

func TestWriterSink_DoubleCloseFlushesOnce(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	st := sink.Open("tool")
	st.Append("once\n")
	st.Close()
	st.Close()

	assert.Equal(t, 1, strings.Count(buf.String(), "### tool"))
}

func TestWriterSink_AppendAfterCloseIgnored(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	st := sink.Open("tool")
	st.Append("kept")
	st.Close()
	st.Append("dropped")

	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
}

// Concurrent stages must come out as whole sections, never interleaved.
func TestWriterSink_ConcurrentSectionsStayContiguous(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	var wg sync.WaitGroup
	for _, name := range []string{"alpha", "beta", "gamma"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			st := sink.Open(name)
			for i := 0; i < 10; i++ {
				st.Append(name + " line\n")
			}
			st.Close()
		}(name)
	}
	wg.Wait()

	out := buf.String()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		assert.Equal(t, 1, strings.Count(out, "### "+name))
		assert.Equal(t, 10, strings.Count(out, name+" line\n"))
	}
}
