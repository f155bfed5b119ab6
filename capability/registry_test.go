package capability

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolturn/toolturn/core"
)

func namedCapability(name string) Capability {
	return NewFunc(name, "test capability "+name, map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(context.Context, map[string]any, *core.ExecutionContext) (string, error) {
		return "ok", nil
	})
}

func TestRegistry_LookupAndOrder(t *testing.T) {
	reg, err := NewRegistry(namedCapability("b"), namedCapability("a"), namedCapability("c"))
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Len())

	c, ok := reg.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", c.Name())

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	// Registration order, not lexical order.
	var names []string
	for _, c := range reg.List() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry(namedCapability("dup"), namedCapability("dup"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dup")
}

func TestRegistry_EmptyName(t *testing.T) {
	_, err := NewRegistry(namedCapability(""))
	assert.Error(t, err)
}

func TestRegistry_Definitions(t *testing.T) {
	reg, err := NewRegistry(namedCapability("first"), namedCapability("second"))
	require.NoError(t, err)

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "first", defs[0].Name)
	assert.Equal(t, "second", defs[1].Name)
	assert.Equal(t, "test capability first", defs[0].Description)
	assert.Equal(t, "object", defs[0].Parameters["type"])
}

func TestRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.Definitions())
}

func ExampleNewRegistry() {
	reg, _ := NewRegistry(namedCapability("calculator"))
	for _, def := range reg.Definitions() {
		fmt.Println(def.Name)
	}
	// Output: calculator
}
