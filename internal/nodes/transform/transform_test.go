package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

func TestTransformProjectsFields(t *testing.T) {
	n := New()
	edges, err := n.Execute(&node.ExecutionContext{Ctx: context.Background()}, map[string]any{
		"input": map[string]any{
			"user": map[string]any{"name": "Alice", "age": 30.0},
		},
		"ops": []any{
			map[string]any{"from": "user.name", "to": "fullName"},
			map[string]any{"from": "user.age", "to": "meta.age"},
		},
	})
	require.NoError(t, err)
	produce, ok := edges["done"]
	require.True(t, ok)

	data, err := produce()
	require.NoError(t, err)
	result := data.(map[string]any)["output"].(map[string]any)
	assert.Equal(t, "Alice", result["fullName"])
	assert.Equal(t, 30.0, result["meta"].(map[string]any)["age"])
}

func TestTransformSkipsMissingSourcePaths(t *testing.T) {
	n := New()
	edges, err := n.Execute(&node.ExecutionContext{Ctx: context.Background()}, map[string]any{
		"input": map[string]any{"a": 1.0},
		"ops":   []any{map[string]any{"from": "missing.path", "to": "out"}},
	})
	require.NoError(t, err)
	produce := edges["done"]
	data, err := produce()
	require.NoError(t, err)
	result := data.(map[string]any)["output"].(map[string]any)
	_, exists := result["out"]
	assert.False(t, exists)
}
