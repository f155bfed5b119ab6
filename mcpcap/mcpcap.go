// Package mcpcap connects to remote MCP servers and exposes their tools as
// capabilities. One connection is shared by every tool discovered on it.
package mcpcap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/toolturn/toolturn/capability"
	"github.com/toolturn/toolturn/core"
)

const protocolVersion = "2025-06-18"

// Config describes one remote MCP server.
type Config struct {
	Name      string
	URL       string
	Transport string // "streamable-http" (default) or "sse"
	Headers   map[string]string
}

// Server is a live connection to a remote MCP server plus the capabilities
// wrapping its tools. Close when done.
type Server struct {
	client *client.Client
	caps   []capability.Capability
}

// Connect dials the server, initializes the session and wraps every
// discovered tool as a capability.
func Connect(ctx context.Context, cfg Config) (*Server, error) {
	mcpClient, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("mcp %s: %w", cfg.Name, err)
	}
	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp %s: start transport: %w", cfg.Name, err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "toolturn",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("mcp %s: initialize: %w", cfg.Name, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("mcp %s: list tools: %w", cfg.Name, err)
	}

	srv := &Server{client: mcpClient}
	for _, tool := range toolsResult.Tools {
		srv.caps = append(srv.caps, &toolCapability{client: mcpClient, tool: tool})
	}
	return srv, nil
}

func newClient(cfg Config) (*client.Client, error) {
	switch cfg.Transport {
	case "", "streamable-http":
		var opts []transport.StreamableHTTPCOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(cfg.Headers))
		}
		return client.NewStreamableHttpClient(cfg.URL, opts...)
	case "sse":
		var opts []transport.ClientOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(cfg.Headers))
		}
		return client.NewSSEMCPClient(cfg.URL, opts...)
	default:
		return nil, fmt.Errorf("unknown transport type: %s", cfg.Transport)
	}
}

// Capabilities returns one capability per discovered tool.
func (s *Server) Capabilities() []capability.Capability { return s.caps }

// Close tears the connection down.
func (s *Server) Close() error { return s.client.Close() }

// toolCapability adapts one remote tool. It is a stateless wrapper; the
// shared client owns the connection.
type toolCapability struct {
	client *client.Client
	tool   mcptypes.Tool
}

func (c *toolCapability) Name() string        { return c.tool.Name }
func (c *toolCapability) Description() string { return c.tool.Description }

func (c *toolCapability) Parameters() map[string]any {
	params := map[string]any{
		"type":       c.tool.InputSchema.Type,
		"properties": c.tool.InputSchema.Properties,
	}
	if params["type"] == "" {
		params["type"] = "object"
	}
	if params["properties"] == nil {
		params["properties"] = map[string]any{}
	}
	if len(c.tool.InputSchema.Required) > 0 {
		params["required"] = c.tool.InputSchema.Required
	}
	return params
}

// Execute forwards the call and flattens the returned content items into
// text.
func (c *toolCapability) Execute(ctx context.Context, call core.ToolCall, execCtx *core.ExecutionContext) (core.ToolResult, error) {
	result := core.ToolResult{ToolCallID: call.ID, Name: call.Name}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return result, fmt.Errorf("mcp tool %s: invalid arguments: %w", c.tool.Name, err)
		}
	}

	res, err := c.client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      c.tool.Name,
			Arguments: args,
		},
	})
	if err != nil {
		return result, fmt.Errorf("mcp tool %s: %w", c.tool.Name, err)
	}

	content, attachments := flattenContent(res.Content)
	if res.IsError {
		return result, fmt.Errorf("mcp tool %s: %s", c.tool.Name, content)
	}

	result.Content = content
	result.Attachments = attachments
	return result, nil
}

// flattenContent splits the result items into model-facing text and
// caller-facing attachments. Text items (including embedded text resources)
// join into the content string; images and binary resources become
// attachments, so servers that generate files (plots, CSVs) surface their
// artifacts. Anything else is serialized as JSON.
func flattenContent(items []mcptypes.Content) (string, []core.Attachment) {
	var parts []string
	var attachments []core.Attachment

	add := func(item mcptypes.Content) {
		switch c := item.(type) {
		case mcptypes.TextContent:
			parts = append(parts, c.Text)
		case mcptypes.ImageContent:
			attachments = append(attachments, core.Attachment{
				Data:     c.Data,
				MimeType: c.MIMEType,
			})
		case mcptypes.EmbeddedResource:
			switch rc := c.Resource.(type) {
			case mcptypes.TextResourceContents:
				parts = append(parts, rc.Text)
			case mcptypes.BlobResourceContents:
				attachments = append(attachments, core.Attachment{
					URL:      rc.URI,
					MimeType: rc.MIMEType,
					Data:     rc.Blob,
				})
			}
		default:
			if data, err := json.Marshal(item); err == nil {
				parts = append(parts, string(data))
			}
		}
	}

	for _, item := range items {
		switch c := item.(type) {
		case *mcptypes.TextContent:
			add(*c)
		case *mcptypes.ImageContent:
			add(*c)
		case *mcptypes.EmbeddedResource:
			add(*c)
		default:
			add(item)
		}
	}
	return strings.Join(parts, "\n"), attachments
}
