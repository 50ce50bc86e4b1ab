package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

func execCtx() *node.ExecutionContext {
	return &node.ExecutionContext{Ctx: context.Background()}
}

func TestJWTSignAndVerifyRoundTrip(t *testing.T) {
	n := NewJWTNode("test-secret")

	signed, err := n.Execute(execCtx(), map[string]any{
		"op":     "sign",
		"claims": map[string]any{"sub": "user-1"},
	})
	require.NoError(t, err)
	produce, ok := signed["signed"]
	require.True(t, ok)
	data, err := produce()
	require.NoError(t, err)
	token := data.(map[string]any)["token"].(string)
	assert.NotEmpty(t, token)

	verified, err := n.Execute(execCtx(), map[string]any{"op": "verify", "token": token})
	require.NoError(t, err)
	_, ok = verified["valid"]
	assert.True(t, ok)
}

func TestJWTVerifyRejectsMalformedToken(t *testing.T) {
	n := NewJWTNode("test-secret")
	verified, err := n.Execute(execCtx(), map[string]any{"op": "verify", "token": "not-a-jwt"})
	require.NoError(t, err)
	_, ok := verified["invalid"]
	assert.True(t, ok)
}

func TestHashRoundTrip(t *testing.T) {
	n := HashNode{}
	hashed, err := n.Execute(execCtx(), map[string]any{"op": "hash", "value": "hunter2"})
	require.NoError(t, err)
	produce := hashed["hashed"]
	data, err := produce()
	require.NoError(t, err)
	hash := data.(map[string]any)["hash"].(string)

	match, err := n.Execute(execCtx(), map[string]any{"op": "compare", "value": "hunter2", "hash": hash})
	require.NoError(t, err)
	_, ok := match["match"]
	assert.True(t, ok)

	mismatch, err := n.Execute(execCtx(), map[string]any{"op": "compare", "value": "wrong", "hash": hash})
	require.NoError(t, err)
	_, ok = mismatch["mismatch"]
	assert.True(t, ok)
}
