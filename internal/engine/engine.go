// Package engine implements the Execution Engine: it interprets a parsed
// workflowdoc.Document against a node.Registry, driving one
// state.Manager from start to final edge.
//
// Grounded on the teacher's internal/engine/{engine.go,runner.go,context.go}
// shape (Registry + Executor + Runner), generalised from the teacher's
// placeholder "mark every node completed" body to the spec's edge-routed,
// loop-aware interpreter.
package engine

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/metrics"
	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/registry"
	"github.com/Narcis13/workscript-sub004/internal/state"
	"github.com/Narcis13/workscript-sub004/internal/workflowdoc"
)

// Default dispatch bounds, overridable per Engine (spec.md §4.4 / §8
// scenario 4: a loop-step maxIterations, itself overridable per step,
// and a hard cap on the number of dispatches in one run).
const (
	DefaultMaxIterations  = 1000
	DefaultMaxDispatches  = 100000
	defaultContinueEdgeA  = "do"
	defaultContinueEdgeB  = "continue"
)

// TraceEntry records one node dispatch for the returned Result and for
// execution-history persistence.
type TraceEntry struct {
	StepIndex  int    `json:"stepIndex"`
	NodeID     string `json:"nodeId"`
	Edge       string `json:"edge"`
	DurationMs int64  `json:"durationMs"`
}

// Result is what Run returns on success or on a node-level failure that
// the engine could still resolve to a final edge.
type Result struct {
	State     map[string]any `json:"state"`
	Trace     []TraceEntry   `json:"trace"`
	FinalEdge string         `json:"finalEdge"`
}

// Engine interprets workflow documents. One Engine is shared across
// concurrent runs; all per-run state lives in state.Manager, never here.
type Engine struct {
	registry      *registry.Registry
	logger        zerolog.Logger
	metrics       *metrics.Collector
	tracer        trace.Tracer
	maxIterations int
	maxDispatches int
}

// Option customises an Engine at construction.
type Option func(*Engine)

func WithMaxIterations(n int) Option { return func(e *Engine) { e.maxIterations = n } }
func WithMaxDispatches(n int) Option { return func(e *Engine) { e.maxDispatches = n } }
func WithMetrics(c *metrics.Collector) Option { return func(e *Engine) { e.metrics = c } }

// New builds an Engine backed by reg, logging through logger.
func New(reg *registry.Registry, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry:      reg,
		logger:        logger,
		tracer:        otel.Tracer("workscript/engine"),
		maxIterations: DefaultMaxIterations,
		maxDispatches: DefaultMaxDispatches,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the per-execution mutable frame threaded through dispatch and
// runSequence; it is never shared across goroutines.
type run struct {
	executionID   string
	workflowID    string
	scope         node.Scope
	state         *state.Manager
	trace         []TraceEntry
	dispatchCount int
	iterations    map[string]int // nodeId -> loop iterations this run
}

// Run interprets doc.Workflow from the top, seeded with initialState
// merged over doc.InitialState (initialState wins on conflict).
func (e *Engine) Run(ctx *node.ExecutionContext, doc *workflowdoc.Document, scope node.Scope, initialState map[string]any) (*Result, error) {
	started := time.Now()
	spanCtx, span := e.tracer.Start(ctx.Ctx, "engine.Run",
		trace.WithAttributes(
			attribute.String("workflow.id", doc.ID),
			attribute.String("execution.id", ctx.ExecutionID),
		))
	defer span.End()
	ctx.Ctx = spanCtx

	seed := make(map[string]any, len(doc.InitialState)+len(initialState))
	for k, v := range doc.InitialState {
		seed[k] = v
	}
	for k, v := range initialState {
		seed[k] = v
	}

	r := &run{
		executionID: ctx.ExecutionID,
		workflowID:  doc.ID,
		scope:       scope,
		state:       state.New(seed),
		trace:       make([]TraceEntry, 0, len(doc.Workflow)),
		iterations:  make(map[string]int),
	}

	finalEdge, err := e.runSequence(ctx, r, doc.Workflow)
	if e.metrics != nil {
		e.metrics.ObserveWorkflow(doc.ID, finalEdge, time.Since(started))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &Result{State: r.state.GetAll(), Trace: r.trace, FinalEdge: finalEdge}, err
	}

	return &Result{State: r.state.GetAll(), Trace: r.trace, FinalEdge: finalEdge}, nil
}

// runSequence executes steps in order. Each step whose resulting edge has
// a registered handler runs that handler's body before the sequence
// advances to the next step; the edge of the last step dispatched at
// this level is returned to the caller.
func (e *Engine) runSequence(ctx *node.ExecutionContext, r *run, steps []workflowdoc.Step) (string, error) {
	var lastEdge string
	for _, step := range steps {
		if err := ctx.Ctx.Err(); err != nil {
			return lastEdge, apperrors.NewCancelled("execution cancelled: " + err.Error())
		}

		edge, err := e.dispatchStep(ctx, r, step)
		if err != nil {
			return lastEdge, err
		}
		lastEdge = edge

		if step.Kind == workflowdoc.KindInlineNode {
			if body, ok := step.Handlers[edge]; ok {
				handlerEdge, err := e.runSequence(ctx, r, body)
				if err != nil {
					return lastEdge, err
				}
				lastEdge = handlerEdge
			}
		}
	}
	return lastEdge, nil
}

// dispatchStep resolves and executes a single step, including the loop
// re-dispatch logic for nodes marked IsLoop (by step suffix or metadata).
// For a loop node, the handler body attached to a continue edge (e.g. a
// while node's "do?") runs once per iteration, inside the loop, before
// the node is re-dispatched — it owns any state mutation the condition
// depends on (spec.md §8 scenario 3: the increment lives in "do?", not
// in the node itself). Only the terminal edge's handler is left for
// runSequence to run once the loop has exited.
func (e *Engine) dispatchStep(ctx *node.ExecutionContext, r *run, step workflowdoc.Step) (string, error) {
	if step.Kind == workflowdoc.KindStateSetter {
		value, _ := r.state.Interpolate(step.ValueExpr)
		r.state.Set(step.StatePath, value)
		return "", nil
	}

	n, ok := e.registry.Get(r.scope, step.NodeID)
	if !ok {
		return "", apperrors.NewRegistryMiss(step.NodeID)
	}
	meta := n.Metadata()
	isLoop := step.IsLoop || meta.IsLoop
	continueEdges := meta.ContinueEdges
	if len(continueEdges) == 0 {
		continueEdges = []string{defaultContinueEdgeA, defaultContinueEdgeB}
	}

	maxIterations := e.maxIterations
	if v, ok := step.Config["maxIterations"].(float64); ok && v > 0 {
		maxIterations = int(v)
	}

	for {
		edge, err := e.dispatchOnce(ctx, r, step, n, meta)
		if err != nil {
			return edge, err
		}
		if !isLoop || !contains(continueEdges, edge) {
			if r.iterations[step.NodeID] > 0 {
				r.state.Delete("__while_" + step.NodeID)
			}
			return edge, nil
		}

		if body, ok := step.Handlers[edge]; ok {
			if _, err := e.runSequence(ctx, r, body); err != nil {
				return edge, err
			}
		}

		r.iterations[step.NodeID]++
		count := r.iterations[step.NodeID]
		r.state.Set("__while_"+step.NodeID, count)
		if count >= maxIterations {
			return "error", apperrors.New(apperrors.CodeNode, "MAX_ITERATIONS_EXCEEDED").
				WithDetails(map[string]any{"nodeId": step.NodeID, "iterationsExecuted": count})
		}
	}
}

// dispatchOnce runs a node exactly once: resolve config, call Execute,
// resolve the single edge's producer, record trace + metrics.
func (e *Engine) dispatchOnce(ctx *node.ExecutionContext, r *run, step workflowdoc.Step, n node.Node, meta node.Metadata) (string, error) {
	r.dispatchCount++
	if r.dispatchCount > e.maxDispatches {
		return "", apperrors.New(apperrors.CodeNode, "MAX_DISPATCHES_EXCEEDED").
			WithDetails(map[string]any{"dispatches": r.dispatchCount})
	}

	config, _ := r.state.Interpolate(step.Config)
	configMap, _ := config.(map[string]any)
	if configMap == nil {
		configMap = map[string]any{}
	}

	nodeCtx := &node.ExecutionContext{
		ExecutionID: r.executionID,
		WorkflowID:  r.workflowID,
		NodeID:      step.NodeID,
		State:       r.state,
		Ctx:         ctx.Ctx,
		Runtime:     ctx.Runtime,
		StartedAt:   time.Now(),
	}

	dispatchCtx, span := e.tracer.Start(ctx.Ctx, "engine.dispatch",
		trace.WithAttributes(attribute.String("node.id", step.NodeID)))
	nodeCtx.Ctx = dispatchCtx
	defer span.End()

	edges, err := n.Execute(nodeCtx, configMap)
	duration := time.Since(nodeCtx.StartedAt)
	if err != nil {
		span.RecordError(err)
		return "", apperrors.NewNode("node execution failed: "+step.NodeID, err)
	}
	if len(edges) != 1 {
		return "", apperrors.NewProtocol("node must return exactly one edge: " + step.NodeID)
	}

	var edge string
	var producer func() (any, error)
	for k, v := range edges {
		edge, producer = k, v
	}
	data, err := producer()
	if err != nil {
		return edge, apperrors.NewNode("edge producer failed: "+step.NodeID, err)
	}
	if data != nil {
		r.state.Set("__last_"+step.NodeID, data)
	}

	r.trace = append(r.trace, TraceEntry{
		StepIndex:  len(r.trace),
		NodeID:     step.NodeID,
		Edge:       edge,
		DurationMs: duration.Milliseconds(),
	})
	if e.metrics != nil {
		e.metrics.ObserveNode(step.NodeID, edge, duration)
	}
	e.logger.Debug().Str("node", step.NodeID).Str("edge", edge).Dur("duration", duration).Msg("node dispatched")

	_ = meta // reserved for future per-node policy (timeouts, retries)
	return edge, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
