// Package node defines the Node Contract: the capability every workflow
// node satisfies, independent of which host (server or browser) runs it.
package node

import (
	"context"
	"time"
)

// Scope names where a node is available. A universal node is visible
// from both the client and server lookup.
type Scope string

const (
	ScopeUniversal Scope = "universal"
	ScopeClient    Scope = "client"
	ScopeServer    Scope = "server"
)

// AIHints carries the metadata an AI planner uses to pick a node; it is
// opaque to the engine itself.
type AIHints struct {
	Purpose        string   `json:"purpose,omitempty"`
	WhenToUse      string   `json:"when_to_use,omitempty"`
	ExpectedEdges  []string `json:"expected_edges,omitempty"`
	ExampleUsage   string   `json:"example_usage,omitempty"`
	ExampleConfig  any      `json:"example_config,omitempty"`
	GetFromState   []string `json:"get_from_state,omitempty"`
}

// Metadata is the immutable description a node declares at construction
// time. It never changes across calls to Execute.
type Metadata struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Inputs      []string `json:"inputs,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
	AIHints     AIHints  `json:"ai_hints,omitempty"`

	// IsLoop marks a node whose step the engine re-dispatches whenever
	// the returned edge is in ContinueEdges, instead of advancing.
	IsLoop bool `json:"is_loop,omitempty"`
	// ContinueEdges is the node's declared continue-set for loop re-
	// dispatch. Used only when the step is a loop (IsLoop here, or a
	// trailing "..." on the step). Defaults applied by the engine when
	// empty: {"do", "continue"}.
	ContinueEdges []string `json:"continue_edges,omitempty"`
	// ExpectedEdges is the full set of edge labels this node may emit,
	// used by the Validator to warn on handlers for edges it never
	// sends and on missing terminate edges for loop nodes.
	ExpectedEdges []string `json:"expected_edges,omitempty"`
}

// Runtime exposes the hooks a streaming or interactive node uses to talk
// to the host without the engine awaiting or multiplexing the stream.
type Runtime interface {
	// Emit sends a progress or stream event out of band. kind is one of
	// "stream_chunk", "stream_complete", "stream_error", or a host-
	// defined progress kind; payload is host/UI defined.
	Emit(kind string, payload any)
	// Pause/Resume let a node cooperate with a host that supports
	// human-in-the-loop suspension. A host without that capability may
	// leave these as no-ops.
	Pause(reason string)
	Resume()
}

// ExecutionContext is the per-run, per-dispatch context passed to every
// node invocation. State is satisfied by internal/state.Manager; Node
// implementations only see this narrow
// interface so they cannot reach into engine-internal bookkeeping.
type ExecutionContext struct {
	ExecutionID string
	WorkflowID  string
	NodeID      string

	State State

	// Ctx carries cancellation and deadline; nodes performing I/O MUST
	// select on Ctx.Done().
	Ctx context.Context

	Runtime Runtime

	StartedAt time.Time
}

// State is the narrow state-manager surface a node body may use.
type State interface {
	Get(path string) (any, bool)
	Set(path string, value any)
	GetAll() map[string]any
	Delete(path string)
}

// EdgeMap is the return value of Execute: exactly one key naming the
// outgoing edge, whose value lazily produces the edge's data record.
// Returning a thunk defers serialisation so the engine can attach trace
// framing uniformly before the producer runs.
type EdgeMap map[string]func() (any, error)

// One builds a single-edge EdgeMap, the common case.
func One(edge string, data any) EdgeMap {
	return EdgeMap{edge: func() (any, error) { return data, nil }}
}

// OneErr builds a single-edge EdgeMap whose producer itself can fail.
func OneErr(edge string, produce func() (any, error)) EdgeMap {
	return EdgeMap{edge: produce}
}

// Node is the capability every workflow node satisfies.
type Node interface {
	Metadata() Metadata
	Execute(ctx *ExecutionContext, config map[string]any) (EdgeMap, error)
}

// Validatable is an optional hook; the Validator calls it with the
// step's config when present. Nodes without it get no config checks:
// Metadata.Inputs is not checked for presence or type.
type Validatable interface {
	Validate(config map[string]any) error
}
