package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/nodes/flow"
	"github.com/Narcis13/workscript-sub004/internal/registry"
	"github.com/Narcis13/workscript-sub004/internal/workflowdoc"
)

type fixedEdgeNode struct {
	id   string
	edge string
}

func (n fixedEdgeNode) Metadata() node.Metadata {
	return node.Metadata{ID: n.id, Version: "1.0.0", ExpectedEdges: []string{n.edge}}
}

func (n fixedEdgeNode) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	return node.One(n.edge, map[string]any{"ranAs": n.id}), nil
}

type loopNode struct{}

func (loopNode) Metadata() node.Metadata {
	return node.Metadata{
		ID: "counter", Version: "1.0.0", IsLoop: true,
		ContinueEdges: []string{"continue"}, ExpectedEdges: []string{"continue", "done"},
	}
}

func (loopNode) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	limit, _ := config["limit"].(float64)
	v, _ := ctx.State.Get("i")
	n, _ := v.(float64)
	n++
	ctx.State.Set("i", n)
	if n < limit {
		return node.One("continue", nil), nil
	}
	return node.One("done", nil), nil
}

func newTestEngine(t *testing.T, nodes ...node.Node) (*Engine, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	providers := make([]registry.Provider, 0, len(nodes))
	for _, n := range nodes {
		providers = append(providers, registry.Provider{Scope: node.ScopeServer, Node: n})
	}
	require.NoError(t, reg.Discover(providers))
	return New(reg, zerolog.Nop()), reg
}

func execCtx(t *testing.T) *node.ExecutionContext {
	t.Helper()
	return &node.ExecutionContext{
		ExecutionID: "exec-1",
		Ctx:         context.Background(),
	}
}

func TestStateSetterThenNodeDispatch(t *testing.T) {
	eng, _ := newTestEngine(t, fixedEdgeNode{id: "log", edge: "done"})
	doc := &workflowdoc.Document{
		ID: "wf1", Version: "1.0.0",
		Workflow: []workflowdoc.Step{
			{Kind: workflowdoc.KindStateSetter, StatePath: "author", ValueExpr: "Alice"},
			{Kind: workflowdoc.KindBareRef, NodeID: "log"},
		},
	}

	res, err := eng.Run(execCtx(t), doc, node.ScopeServer, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", res.State["author"])
	assert.Len(t, res.Trace, 1)
	assert.Equal(t, "done", res.FinalEdge)
}

func TestNestedHandlerRouting(t *testing.T) {
	eng, _ := newTestEngine(t,
		fixedEdgeNode{id: "cond", edge: "yes"},
		fixedEdgeNode{id: "log", edge: "done"},
	)
	doc := &workflowdoc.Document{
		ID: "wf1", Version: "1.0.0",
		Workflow: []workflowdoc.Step{
			{
				Kind: workflowdoc.KindInlineNode, NodeID: "cond",
				Config: map[string]any{},
				Handlers: map[string]workflowdoc.HandlerBody{
					"yes": {{Kind: workflowdoc.KindBareRef, NodeID: "log"}},
				},
			},
		},
	}

	res, err := eng.Run(execCtx(t), doc, node.ScopeServer, nil)
	require.NoError(t, err)
	require.Len(t, res.Trace, 2)
	assert.Equal(t, "cond", res.Trace[0].NodeID)
	assert.Equal(t, "yes", res.Trace[0].Edge)
	assert.Equal(t, "log", res.Trace[1].NodeID)
	assert.Equal(t, "done", res.FinalEdge)
}

func TestLoopNodeReDispatchesUntilTerminateEdge(t *testing.T) {
	eng, _ := newTestEngine(t, loopNode{})
	doc := &workflowdoc.Document{
		ID: "wf1", Version: "1.0.0",
		Workflow: []workflowdoc.Step{
			{Kind: workflowdoc.KindInlineNode, NodeID: "counter", Config: map[string]any{"limit": 3.0}},
		},
	}

	res, err := eng.Run(execCtx(t), doc, node.ScopeServer, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(3), res.State["i"])
	assert.Len(t, res.Trace, 3)
	assert.Equal(t, "done", res.FinalEdge)
}

func TestMaxIterationsExceeded(t *testing.T) {
	eng, _ := newTestEngine(t, loopNode{})
	doc := &workflowdoc.Document{
		ID: "wf1", Version: "1.0.0",
		Workflow: []workflowdoc.Step{
			{
				Kind: workflowdoc.KindInlineNode, NodeID: "counter",
				Config: map[string]any{"limit": 1000.0, "maxIterations": 2.0},
			},
		},
	}

	_, err := eng.Run(execCtx(t), doc, node.ScopeServer, nil)
	require.Error(t, err)
	we, ok := err.(*apperrors.WorkflowError)
	require.True(t, ok)
	assert.Equal(t, "MAX_ITERATIONS_EXCEEDED", we.Message)
	assert.Equal(t, 2, we.Details["iterationsExecuted"])
}

// TestPerStepMaxIterationsOverrideAllowsCoexistingLoops proves two loop
// steps on the same shared Engine can run under different caps: one
// step overrides maxIterations down to 1 and fails, a second step on
// the same Engine with no override runs to completion under the
// Engine-wide default.
func TestPerStepMaxIterationsOverrideAllowsCoexistingLoops(t *testing.T) {
	eng, _ := newTestEngine(t, loopNode{})

	strictDoc := &workflowdoc.Document{
		ID: "strict", Version: "1.0.0",
		Workflow: []workflowdoc.Step{
			{
				Kind: workflowdoc.KindInlineNode, NodeID: "counter",
				Config: map[string]any{"limit": 1000.0, "maxIterations": 1.0},
			},
		},
	}
	_, err := eng.Run(execCtx(t), strictDoc, node.ScopeServer, nil)
	require.Error(t, err)
	we, ok := err.(*apperrors.WorkflowError)
	require.True(t, ok)
	assert.Equal(t, 1, we.Details["iterationsExecuted"])

	relaxedDoc := &workflowdoc.Document{
		ID: "relaxed", Version: "1.0.0",
		Workflow: []workflowdoc.Step{
			{Kind: workflowdoc.KindInlineNode, NodeID: "counter", Config: map[string]any{"limit": 3.0}},
		},
	}
	res, err := eng.Run(execCtx(t), relaxedDoc, node.ScopeServer, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", res.FinalEdge)
	assert.Equal(t, float64(3), res.State["i"])
}

// incrementNode adds 1 to a named state path and emits "done"; it
// stands in for whatever real node a "do?" handler would dispatch to
// mutate state between while iterations.
type incrementNode struct{ path string }

func (n incrementNode) Metadata() node.Metadata {
	return node.Metadata{ID: "increment", Version: "1.0.0", ExpectedEdges: []string{"done"}}
}

func (n incrementNode) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	v, _ := ctx.State.Get(n.path)
	f, _ := v.(float64)
	f++
	ctx.State.Set(n.path, f)
	return node.One("done", nil), nil
}

// TestWhileNodeDoHandlerDrivesCondition mirrors the canonical wire
// example and scenario 3: a while node with condition {$.i < 3}, whose
// "do?" handler increments $.i. The node itself never writes state; the
// handler does, once per iteration, before the node is re-dispatched.
func TestWhileNodeDoHandlerDrivesCondition(t *testing.T) {
	eng, _ := newTestEngine(t, flow.While{}, incrementNode{path: "i"})
	doc := &workflowdoc.Document{
		ID: "wf1", Version: "1.0.0",
		InitialState: map[string]any{"i": 0.0},
		Workflow: []workflowdoc.Step{
			{
				Kind: workflowdoc.KindInlineNode, NodeID: "while",
				Config: map[string]any{
					"condition": map[string]any{"left": "$.i", "operator": "<", "right": "3"},
				},
				Handlers: map[string]workflowdoc.HandlerBody{
					"do": {{Kind: workflowdoc.KindBareRef, NodeID: "increment"}},
				},
			},
		},
	}

	res, err := eng.Run(execCtx(t), doc, node.ScopeServer, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", res.FinalEdge)
	assert.Equal(t, float64(3), res.State["i"])
	assert.Len(t, res.Trace, 7, "while dispatches 4 times (3 do, 1 done); each do is followed by an increment dispatch")
}

// TestWhileNodeMaxIterationsExceeded mirrors scenario 4: the same while
// node, but with a per-step maxIterations override lower than the
// condition would otherwise allow.
func TestWhileNodeMaxIterationsExceeded(t *testing.T) {
	eng, _ := newTestEngine(t, flow.While{}, incrementNode{path: "i"})
	doc := &workflowdoc.Document{
		ID: "wf1", Version: "1.0.0",
		InitialState: map[string]any{"i": 0.0},
		Workflow: []workflowdoc.Step{
			{
				Kind: workflowdoc.KindInlineNode, NodeID: "while",
				Config: map[string]any{
					"condition":     map[string]any{"left": "$.i", "operator": "<", "right": "3"},
					"maxIterations": 2.0,
				},
				Handlers: map[string]workflowdoc.HandlerBody{
					"do": {{Kind: workflowdoc.KindBareRef, NodeID: "increment"}},
				},
			},
		},
	}

	_, err := eng.Run(execCtx(t), doc, node.ScopeServer, nil)
	require.Error(t, err)
	we, ok := err.(*apperrors.WorkflowError)
	require.True(t, ok)
	assert.Equal(t, "MAX_ITERATIONS_EXCEEDED", we.Message)
	assert.Equal(t, 2, we.Details["iterationsExecuted"])
}

func TestUnknownNodeIsRegistryMiss(t *testing.T) {
	eng, _ := newTestEngine(t)
	doc := &workflowdoc.Document{
		ID: "wf1", Version: "1.0.0",
		Workflow: []workflowdoc.Step{{Kind: workflowdoc.KindBareRef, NodeID: "bogus"}},
	}

	_, err := eng.Run(execCtx(t), doc, node.ScopeServer, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeRegistryMiss))
}
