package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

func TestConditionRoutesTrueFalse(t *testing.T) {
	var c Condition
	edges, err := c.Execute(&node.ExecutionContext{Ctx: context.Background()}, map[string]any{"value": true})
	require.NoError(t, err)
	_, ok := edges["true"]
	assert.True(t, ok)

	edges, err = c.Execute(&node.ExecutionContext{Ctx: context.Background()}, map[string]any{"value": false})
	require.NoError(t, err)
	_, ok = edges["false"]
	assert.True(t, ok)
}

func TestDelayCompletesAfterDuration(t *testing.T) {
	var d Delay
	start := time.Now()
	edges, err := d.Execute(&node.ExecutionContext{Ctx: context.Background()}, map[string]any{"ms": 20.0})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	_, ok := edges["done"]
	assert.True(t, ok)
}

func TestDelayCancelledByContext(t *testing.T) {
	var d Delay
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	edges, err := d.Execute(&node.ExecutionContext{Ctx: ctx}, map[string]any{"ms": 5000.0})
	require.NoError(t, err)
	_, ok := edges["cancelled"]
	assert.True(t, ok)
}

func TestWhileMetadataDeclaresDoAsContinueEdge(t *testing.T) {
	meta := While{}.Metadata()
	assert.Equal(t, []string{"do"}, meta.ContinueEdges)
	assert.ElementsMatch(t, []string{"do", "done"}, meta.ExpectedEdges)
	assert.True(t, meta.IsLoop)
}

func TestWhileEmitsDoWhileConditionHolds(t *testing.T) {
	var w While
	ec := &node.ExecutionContext{Ctx: context.Background()}

	edges, err := w.Execute(ec, map[string]any{
		"condition": map[string]any{"left": 0.0, "operator": "<", "right": 3.0},
	})
	require.NoError(t, err)
	_, ok := edges["do"]
	assert.True(t, ok, "0 < 3 should emit \"do\"")

	edges, err = w.Execute(ec, map[string]any{
		"condition": map[string]any{"left": 3.0, "operator": "<", "right": 3.0},
	})
	require.NoError(t, err)
	_, ok = edges["done"]
	assert.True(t, ok, "3 < 3 should emit \"done\"")
}

func TestWhileCoercesStringOperandsNumerically(t *testing.T) {
	var w While
	ec := &node.ExecutionContext{Ctx: context.Background()}

	edges, err := w.Execute(ec, map[string]any{
		"condition": map[string]any{"left": 2.0, "operator": "<", "right": "3"},
	})
	require.NoError(t, err)
	_, ok := edges["do"]
	assert.True(t, ok, "left=2 right=\"3\" should coerce right to numeric 3 and emit \"do\"")
}

func TestWhileSupportsEqualityOnNonNumericOperands(t *testing.T) {
	var w While
	ec := &node.ExecutionContext{Ctx: context.Background()}

	edges, err := w.Execute(ec, map[string]any{
		"condition": map[string]any{"left": "pending", "operator": "==", "right": "pending"},
	})
	require.NoError(t, err)
	_, ok := edges["do"]
	assert.True(t, ok)

	edges, err = w.Execute(ec, map[string]any{
		"condition": map[string]any{"left": "pending", "operator": "==", "right": "done"},
	})
	require.NoError(t, err)
	_, ok = edges["done"]
	assert.True(t, ok)
}
