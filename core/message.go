package core

// Conversation roles. A tool message always carries ToolCallID and Name; an
// assistant message carries ToolCalls only when the model requested
// invocations during that turn.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a conversation transcript. Metadata is an opaque
// side channel used to round-trip hidden orchestration state through callers;
// it is stripped before a message is handed to a model backend.
type Message struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ToolCall is a reconstructed tool invocation request. ID is opaque and
// backend-assigned, unique within one inference turn. Arguments is the
// verbatim serialized payload (typically JSON); it is validated by the
// capability, never by the orchestrator.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Attachment is an opaque reference produced by a capability (generated
// image, saved file, ...). It travels with the ToolResult and is surfaced to
// the caller, not to the model.
type Attachment struct {
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"` // base64 payload when inlined
}

// ToolResult is the outcome of exactly one ToolCall, success or failure.
// A failed execution is reported through Content; the orchestrator never
// surfaces capability errors any other way.
type ToolResult struct {
	ToolCallID  string       `json:"tool_call_id"`
	Name        string       `json:"name"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Message converts the result into its tool-role transcript entry.
func (r ToolResult) Message() Message {
	return Message{
		Role:       RoleTool,
		Content:    r.Content,
		ToolCallID: r.ToolCallID,
		Name:       r.Name,
	}
}

// NewSystemMessage builds a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage builds a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant-role message carrying the given
// text and any tool calls reconstructed for the turn.
func NewAssistantMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// HasToolCalls reports whether the message requests tool invocations.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// WithoutMetadata returns a copy of the message with the metadata side
// channel removed. Model backends must never see carried hidden state.
func (m Message) WithoutMetadata() Message {
	m.Metadata = nil
	return m
}

// CloneMessages returns a shallow copy of the slice so callers can append
// without mutating the original transcript.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
