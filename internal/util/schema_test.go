package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	type args struct {
		Query   string  `json:"query" description:"what to look for"`
		Limit   *int    `json:"limit,omitempty"`
		Verbose bool    `json:"verbose,omitempty"`
		Score   float64 `json:"score"`
		Skipped string  `json:"-"`
	}

	schema := CreateSchema(args{})
	assert.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]any)
	assert.Len(t, props, 4)
	assert.Equal(t, "string", props["query"].(map[string]any)["type"])
	assert.Equal(t, "what to look for", props["query"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["limit"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["verbose"].(map[string]any)["type"])
	assert.Equal(t, "number", props["score"].(map[string]any)["type"])

	assert.ElementsMatch(t, []string{"query", "score"}, schema["required"])
}

func TestCreateSchema_NonStruct(t *testing.T) {
	schema := CreateSchema("not a struct")
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer"},
			"ratio": map[string]any{"type": "number"},
			"flag":  map[string]any{"type": "boolean"},
		},
		"required": []string{"name"},
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{name: "valid", args: map[string]any{"name": "x", "count": float64(3)}, wantErr: false},
		{name: "missing required", args: map[string]any{"count": float64(3)}, wantErr: true},
		{name: "wrong type", args: map[string]any{"name": 42}, wantErr: true},
		{name: "fractional for integer", args: map[string]any{"name": "x", "count": 1.5}, wantErr: true},
		{name: "whole float as integer", args: map[string]any{"name": "x", "count": 2.0}, wantErr: false},
		{name: "extra field allowed", args: map[string]any{"name": "x", "other": "y"}, wantErr: false},
		{name: "nil matches anything", args: map[string]any{"name": "x", "flag": nil}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.args, schema)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateParameters_RequiredAsAnySlice(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"q": map[string]any{"type": "string"}},
		"required":   []any{"q"},
	}
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"q": "hi"}, schema))
}
