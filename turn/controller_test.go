package turn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolturn/toolturn/capability"
	"github.com/toolturn/toolturn/core"
	"github.com/toolturn/toolturn/model"
)

func echoCapability(name string) capability.Capability {
	return capability.NewFunc(name, "echoes its input", map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
	}, func(ctx context.Context, args map[string]any, execCtx *core.ExecutionContext) (string, error) {
		text, _ := args["text"].(string)
		return "echo: " + text, nil
	})
}

func newRegistry(t *testing.T, caps ...capability.Capability) *capability.Registry {
	t.Helper()
	reg, err := capability.NewRegistry(caps...)
	require.NoError(t, err)
	return reg
}

func callDelta(index int, id, name, args string) model.Fragment {
	return model.Fragment{ToolCalls: []model.ToolCallDelta{
		{Index: index, ID: id, Name: name, Arguments: args},
	}}
}

func TestController_PlainAnswerTerminatesImmediately(t *testing.T) {
	m := model.NewScriptedModel().AddTurn(
		model.Fragment{Content: "Hello"},
		model.Fragment{Content: ", world."},
	)
	c := NewController(m, newRegistry(t, echoCapability("echo")))

	res, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, "Hello, world.", res.Message.Content)
	assert.Empty(t, res.Hidden)
	assert.Nil(t, res.Message.Metadata)
	assert.Equal(t, 1, res.Turns)
}

func TestController_ToolTurnThenAnswer(t *testing.T) {
	m := model.NewScriptedModel().
		AddTurn(callDelta(0, "call_1", "echo", `{"text":"ping"}`)).
		AddTurn(model.Fragment{Content: "The tool said ping."})
	c := NewController(m, newRegistry(t, echoCapability("echo")))

	res, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("use the tool")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Calls())
	assert.Equal(t, "The tool said ping.", res.Message.Content)
	assert.Equal(t, 2, res.Turns)

	// One assistant message plus one tool message per completed turn.
	require.Len(t, res.Hidden, 2)
	assert.Equal(t, core.RoleAssistant, res.Hidden[0].Role)
	require.Len(t, res.Hidden[0].ToolCalls, 1)
	assert.Equal(t, "call_1", res.Hidden[0].ToolCalls[0].ID)
	assert.Equal(t, core.RoleTool, res.Hidden[1].Role)
	assert.Equal(t, "echo: ping", res.Hidden[1].Content)
	assert.Equal(t, "call_1", res.Hidden[1].ToolCallID)

	// The outward message carries the same history in its metadata.
	require.NotNil(t, res.Message.Metadata)
	packed, ok := res.Message.Metadata[HistoryMetadataKey].([]core.Message)
	require.True(t, ok)
	assert.Len(t, packed, 2)
}

func TestController_HiddenHistoryFeedsNextInference(t *testing.T) {
	m := model.NewScriptedModel().
		AddTurn(callDelta(0, "call_1", "echo", `{"text":"a"}`)).
		AddTurn(model.Fragment{Content: "done"})
	c := NewController(m, newRegistry(t, echoCapability("echo")))

	_, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("go")},
	})
	require.NoError(t, err)

	// The second inference call must see user + assistant(call) + tool.
	require.Len(t, m.Requests, 2)
	second := m.Requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, core.RoleUser, second[0].Role)
	assert.Equal(t, core.RoleAssistant, second[1].Role)
	assert.True(t, second[1].HasToolCalls())
	assert.Equal(t, core.RoleTool, second[2].Role)
}

func TestController_PreambleInjectedEveryTurn(t *testing.T) {
	m := model.NewScriptedModel().
		AddTurn(callDelta(0, "call_1", "echo", `{"text":"x"}`)).
		AddTurn(model.Fragment{Content: "ok"})
	c := NewController(m, newRegistry(t, echoCapability("echo")), func(o *Options) {
		o.Preamble = "be terse"
	})

	_, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("go")},
	})
	require.NoError(t, err)

	for i, req := range m.Requests {
		require.NotEmpty(t, req.Messages, "call %d", i)
		assert.Equal(t, core.RoleSystem, req.Messages[0].Role, "call %d", i)
		assert.Equal(t, "be terse", req.Messages[0].Content, "call %d", i)
	}
}

func TestController_SplicesCarriedHistory(t *testing.T) {
	m := model.NewScriptedModel().AddTurn(model.Fragment{Content: "second answer"})
	c := NewController(m, newRegistry(t, echoCapability("echo")))

	carried := []core.Message{
		core.NewAssistantMessage("", []core.ToolCall{{ID: "old_1", Name: "echo", Arguments: "{}"}}),
		{Role: core.RoleTool, Content: "echo: old", ToolCallID: "old_1", Name: "echo"},
	}
	prior := PackHistory(core.NewAssistantMessage("first answer", nil), carried)

	_, err := c.Run(context.Background(), Request{
		Messages: []core.Message{
			core.NewUserMessage("first"),
			prior,
			core.NewUserMessage("second"),
		},
	})
	require.NoError(t, err)

	got := m.Requests[0].Messages
	require.Len(t, got, 5)
	assert.Equal(t, core.RoleUser, got[0].Role)
	assert.True(t, got[1].HasToolCalls())
	assert.Equal(t, core.RoleTool, got[2].Role)
	assert.Equal(t, "first answer", got[3].Content)
	assert.Nil(t, got[3].Metadata, "metadata must be stripped before inference")
	assert.Equal(t, "second", got[4].Content)
}

func TestController_SplicesJSONRoundTrippedHistory(t *testing.T) {
	// Callers round-trip metadata as JSON, so the packed history arrives as
	// []any of map[string]any rather than []core.Message.
	prior := core.NewAssistantMessage("earlier", nil)
	prior.Metadata = map[string]any{
		HistoryMetadataKey: []any{
			map[string]any{
				"role": "assistant",
				"tool_calls": []any{
					map[string]any{"id": "old_1", "name": "echo", "arguments": "{}"},
				},
			},
			map[string]any{
				"role": "tool", "content": "echo: old",
				"tool_call_id": "old_1", "name": "echo",
			},
		},
	}

	spliced := SpliceHistory([]core.Message{prior})
	require.Len(t, spliced, 3)
	assert.Equal(t, "old_1", spliced[0].ToolCalls[0].ID)
	assert.Equal(t, "echo: old", spliced[1].Content)
	assert.Equal(t, "earlier", spliced[2].Content)
}

func TestController_TurnLimit(t *testing.T) {
	m := model.NewScriptedModel()
	for i := 0; i < 3; i++ {
		m.AddTurn(callDelta(0, fmt.Sprintf("call_%d", i), "echo", `{"text":"again"}`))
	}
	c := NewController(m, newRegistry(t, echoCapability("echo")), func(o *Options) {
		o.MaxTurns = 3
	})

	_, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("loop")},
	})

	var limitErr *TurnLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, 3, m.Calls())
}

func TestController_TransportFailurePropagates(t *testing.T) {
	cause := errors.New("connection refused")
	m := model.NewScriptedModel().
		AddTurn(callDelta(0, "call_1", "echo", `{"text":"x"}`)).
		AddFailure(&model.TransportError{Provider: "test", Err: cause})
	c := NewController(m, newRegistry(t, echoCapability("echo")))

	_, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("go")},
	})

	var transportErr *model.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, cause)
}

func TestController_FailedCapabilityStillAdvances(t *testing.T) {
	failing := capability.NewFunc("broken", "always fails", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(ctx context.Context, args map[string]any, execCtx *core.ExecutionContext) (string, error) {
		return "", errors.New("disk on fire")
	})

	m := model.NewScriptedModel().
		AddTurn(callDelta(0, "call_1", "broken", `{}`)).
		AddTurn(model.Fragment{Content: "recovered"})
	c := NewController(m, newRegistry(t, failing))

	res, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("go")},
	})
	require.NoError(t, err)

	assert.Equal(t, "recovered", res.Message.Content)
	require.Len(t, res.Hidden, 2)
	assert.Contains(t, res.Hidden[1].Content, "disk on fire")
}

func TestController_UnknownCapabilityRecovered(t *testing.T) {
	m := model.NewScriptedModel().
		AddTurn(callDelta(0, "call_1", "ghost", `{}`)).
		AddTurn(model.Fragment{Content: "moving on"})
	c := NewController(m, newRegistry(t, echoCapability("echo")))

	res, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("go")},
	})
	require.NoError(t, err)

	assert.Equal(t, "moving on", res.Message.Content)
	assert.Contains(t, res.Hidden[1].Content, "not available")
}

func TestController_ParallelCallsInOneTurn(t *testing.T) {
	m := model.NewScriptedModel().
		AddTurn(
			callDelta(0, "call_a", "echo", `{"text":"a"}`),
			callDelta(1, "call_b", "echo", `{"text":"b"}`),
		).
		AddTurn(model.Fragment{Content: "both done"})
	c := NewController(m, newRegistry(t, echoCapability("echo")))

	res, err := c.Run(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("go")},
	})
	require.NoError(t, err)

	require.Len(t, res.Hidden, 3)
	assert.Equal(t, "echo: a", res.Hidden[1].Content)
	assert.Equal(t, "echo: b", res.Hidden[2].Content)
}

func TestPackHistory_EmptyAttachesNothing(t *testing.T) {
	msg := PackHistory(core.NewAssistantMessage("done", nil), nil)
	assert.Nil(t, msg.Metadata)
}
