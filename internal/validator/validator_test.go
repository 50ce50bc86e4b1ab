package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/registry"
)

type stubNode struct{ meta node.Metadata }

func (s stubNode) Metadata() node.Metadata { return s.meta }
func (s stubNode) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	return node.One("done", nil), nil
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(node.ScopeServer, stubNode{meta: node.Metadata{
		ID: "log", Version: "1.0.0", ExpectedEdges: []string{"done"},
	}}))
	return reg
}

func TestValidateRawRejectsUnknownNode(t *testing.T) {
	v := New(newTestRegistry(t))
	result, _ := v.ValidateRaw([]byte(`{
		"id": "wf1", "name": "n", "version": "1.0.0",
		"workflow": ["bogus"]
	}`), node.ScopeServer)
	assert.False(t, result.Valid)
	assert.Equal(t, SeverityError, result.Issues[0].Severity)
}

func TestValidateRawAcceptsKnownNode(t *testing.T) {
	v := New(newTestRegistry(t))
	result, doc := v.ValidateRaw([]byte(`{
		"id": "wf1", "name": "n", "version": "1.0.0",
		"workflow": ["log"]
	}`), node.ScopeServer)
	assert.True(t, result.Valid)
	require.NotNil(t, doc)
}

func TestValidateRawRejectsBadVersion(t *testing.T) {
	v := New(newTestRegistry(t))
	result, _ := v.ValidateRaw([]byte(`{
		"id": "wf1", "name": "n", "version": "not-a-version",
		"workflow": ["log"]
	}`), node.ScopeServer)
	assert.False(t, result.Valid)
}

func TestValidateRawRejectsMissingRequiredField(t *testing.T) {
	v := New(newTestRegistry(t))
	result, _ := v.ValidateRaw([]byte(`{"name": "n", "version": "1.0.0", "workflow": ["log"]}`), node.ScopeServer)
	assert.False(t, result.Valid)
}

func TestValidateWarnsOnUnexpectedHandlerEdge(t *testing.T) {
	v := New(newTestRegistry(t))
	result, _ := v.ValidateRaw([]byte(`{
		"id": "wf1", "name": "n", "version": "1.0.0",
		"workflow": [{"log": {"neverEmitted?": "log"}}]
	}`), node.ScopeServer)
	require.True(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
}

func TestValidateRawRejectsClientOnlyNodeUnderServerScope(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(node.ScopeClient, stubNode{meta: node.Metadata{
		ID: "browser_only", Version: "1.0.0", ExpectedEdges: []string{"done"},
	}}))
	v := New(reg)

	result, _ := v.ValidateRaw([]byte(`{
		"id": "wf1", "name": "n", "version": "1.0.0",
		"workflow": ["browser_only"]
	}`), node.ScopeServer)
	assert.False(t, result.Valid, "a client-scoped node must not validate successfully for a server-scope execution")

	result, _ = v.ValidateRaw([]byte(`{
		"id": "wf1", "name": "n", "version": "1.0.0",
		"workflow": ["browser_only"]
	}`), node.ScopeClient)
	assert.True(t, result.Valid)
}
