package mcpcap

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCapability_Parameters(t *testing.T) {
	c := &toolCapability{tool: mcptypes.Tool{
		Name:        "web_search",
		Description: "Search the web",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{"type": "string"},
			},
			Required: []string{"query"},
		},
	}}

	params := c.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []string{"query"}, params["required"])
	props := params["properties"].(map[string]any)
	assert.Contains(t, props, "query")
}

func TestToolCapability_ParametersEmptySchema(t *testing.T) {
	c := &toolCapability{tool: mcptypes.Tool{Name: "ping"}}
	params := c.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.NotNil(t, params["properties"])
	assert.NotContains(t, params, "required")
}

func TestFlattenContent(t *testing.T) {
	content, attachments := flattenContent([]mcptypes.Content{
		mcptypes.TextContent{Type: "text", Text: "first line"},
		mcptypes.TextContent{Type: "text", Text: "second line"},
	})
	assert.Equal(t, "first line\nsecond line", content)
	assert.Empty(t, attachments)
}

func TestFlattenContent_Empty(t *testing.T) {
	content, attachments := flattenContent(nil)
	assert.Equal(t, "", content)
	assert.Empty(t, attachments)
}

// Interpreter-style servers return generated files as image or binary
// resource items; those must surface as attachments, not JSON noise.
func TestFlattenContent_ArtifactsBecomeAttachments(t *testing.T) {
	content, attachments := flattenContent([]mcptypes.Content{
		mcptypes.TextContent{Type: "text", Text: "Execution finished."},
		mcptypes.ImageContent{Type: "image", Data: "aGVsbG8=", MIMEType: "image/png"},
		mcptypes.EmbeddedResource{Type: "resource", Resource: mcptypes.BlobResourceContents{
			URI:      "file:///tmp/plot.csv",
			MIMEType: "text/csv",
			Blob:     "Y29sMSxjb2wy",
		}},
		mcptypes.EmbeddedResource{Type: "resource", Resource: mcptypes.TextResourceContents{
			URI:      "file:///tmp/log.txt",
			MIMEType: "text/plain",
			Text:     "stdout: ok",
		}},
	})

	assert.Equal(t, "Execution finished.\nstdout: ok", content)
	require.Len(t, attachments, 2)
	assert.Equal(t, "aGVsbG8=", attachments[0].Data)
	assert.Equal(t, "image/png", attachments[0].MimeType)
	assert.Equal(t, "file:///tmp/plot.csv", attachments[1].URL)
	assert.Equal(t, "Y29sMSxjb2wy", attachments[1].Data)
	assert.Equal(t, "text/csv", attachments[1].MimeType)
}

func TestNewClient_UnknownTransport(t *testing.T) {
	_, err := newClient(Config{Name: "x", URL: "http://localhost", Transport: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown transport")
}
