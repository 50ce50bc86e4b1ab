// Package control implements the "guard" universal node: a circuit
// breaker wrapping a child node's dispatch. Grounded on the teacher's
// internal/nodes/workflow/circuit_breaker_node.go, replacing its
// hand-rolled settings struct with a direct sony/gobreaker.Settings,
// the same dependency the teacher already declares but under-uses (its
// own retry/circuit middleware is a hand-written implementation; see
// DESIGN.md).
package control

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/registry"
)

// Node guards a registry-looked-up child node behind a named circuit
// breaker, opening after a configurable consecutive-failure count.
type Node struct {
	reg *registry.Registry

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func New(reg *registry.Registry) *Node {
	return &Node{reg: reg, breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "guard",
		Name:          "Guard",
		Version:       "1.0.0",
		Description:   "Dispatches a named child node through a circuit breaker, short-circuiting after repeated failures.",
		ExpectedEdges: []string{"open", "error"},
		AIHints: node.AIHints{
			Purpose:   "Protect the workflow from a repeatedly failing downstream node.",
			WhenToUse: "Wrapping an I/O node (http, database, s3) that can fail in bursts.",
		},
	}
}

func (n *Node) breakerFor(name string, maxFailures uint32, timeout time.Duration) *gobreaker.CircuitBreaker {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cb, ok := n.breakers[name]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
	n.breakers[name] = cb
	return cb
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	childID, _ := config["node"].(string)
	childConfig, _ := config["config"].(map[string]any)
	maxFailures, _ := config["maxFailures"].(float64)
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeoutSeconds, _ := config["timeoutSeconds"].(float64)
	if timeoutSeconds == 0 {
		timeoutSeconds = 30
	}

	child, ok := n.reg.Get(node.ScopeServer, childID)
	if !ok {
		child, ok = n.reg.Get(node.ScopeClient, childID)
	}
	if !ok {
		return node.One("error", map[string]any{"message": "guard: unknown child node " + childID}), nil
	}

	cb := n.breakerFor(ctx.NodeID+":"+childID, uint32(maxFailures), time.Duration(timeoutSeconds)*time.Second)

	result, err := cb.Execute(func() (any, error) {
		edges, err := child.Execute(ctx, childConfig)
		if err != nil {
			return nil, err
		}
		for edge, produce := range edges {
			data, err := produce()
			if err != nil {
				return nil, err
			}
			return node.EdgeMap{edge: func() (any, error) { return data, nil }}, nil
		}
		return nil, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return node.One("open", map[string]any{"message": err.Error()}), nil
		}
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}
	return result.(node.EdgeMap), nil
}
