package turn

import (
	"encoding/json"

	"github.com/toolturn/toolturn/core"
)

// HistoryMetadataKey is the metadata field on an outward-facing assistant
// message that carries the hidden tool-turn history. Callers round-trip the
// field opaquely; the visible transcript itself never contains raw tool
// arguments or results.
const HistoryMetadataKey = "tool_turn_history"

// ConversationState is the hidden, append-only record of every tool-bearing
// turn of one orchestration session: the assistant message that requested
// the calls followed by one tool message per result. It is owned exclusively
// by one controller run and mutated only between dispatch and the next
// inference call, never concurrently.
type ConversationState struct {
	messages []core.Message
}

// NewConversationState creates a state seeded with previously carried
// history (may be nil).
func NewConversationState(seed []core.Message) *ConversationState {
	return &ConversationState{messages: core.CloneMessages(seed)}
}

// AppendTurn records one completed tool-bearing turn: the assistant message
// carrying the calls, then every result as a tool message in dispatch order.
func (s *ConversationState) AppendTurn(assistant core.Message, results []core.ToolResult) {
	s.messages = append(s.messages, assistant)
	for _, r := range results {
		s.messages = append(s.messages, r.Message())
	}
}

// Messages returns a defensive copy of the recorded history.
func (s *ConversationState) Messages() []core.Message {
	return core.CloneMessages(s.messages)
}

// Len returns the number of recorded messages.
func (s *ConversationState) Len() int { return len(s.messages) }

// PackHistory attaches the hidden history to an outward-facing message so a
// subsequent call from the same caller can round-trip it back in. An empty
// history attaches nothing.
func PackHistory(msg core.Message, history []core.Message) core.Message {
	if len(history) == 0 {
		return msg
	}
	if msg.Metadata == nil {
		msg.Metadata = map[string]any{}
	}
	msg.Metadata[HistoryMetadataKey] = core.CloneMessages(history)
	return msg
}

// SpliceHistory reconstructs the full logical transcript the model needs:
// wherever a visible assistant message carries packed history, the hidden
// messages are re-inserted immediately before it, in their original
// position. All metadata is stripped from the returned messages.
func SpliceHistory(visible []core.Message) []core.Message {
	out := make([]core.Message, 0, len(visible))
	for _, msg := range visible {
		if msg.Metadata != nil {
			if raw, ok := msg.Metadata[HistoryMetadataKey]; ok {
				out = append(out, decodeHistory(raw)...)
			}
		}
		out = append(out, msg.WithoutMetadata())
	}
	return out
}

// decodeHistory accepts the packed history either as the in-process
// []core.Message or as the generic shape it takes after a JSON round trip
// through the caller.
func decodeHistory(raw any) []core.Message {
	if msgs, ok := raw.([]core.Message); ok {
		return core.CloneMessages(msgs)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var msgs []core.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}
