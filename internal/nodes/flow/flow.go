// Package flow implements the universal control-flow nodes: condition,
// delay, and a while loop. Grounded on the teacher's "delay" node entry
// in internal/engine/engine.go's NewNodeRegistry defaults; delay,
// condition, and while's comparison logic have no natural third-party
// library (pure control flow over already-interpolated config), so they
// stay on the standard library — the justified exception SPEC_FULL.md
// calls for.
package flow

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Condition routes to "true" or "false" based on a boolean config field.
type Condition struct{}

func (Condition) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "condition",
		Name:          "Condition",
		Version:       "1.0.0",
		Description:   "Branches on a boolean value resolved from state.",
		ExpectedEdges: []string{"true", "false"},
	}
}

func (Condition) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	v, _ := config["value"].(bool)
	if v {
		return node.One("true", nil), nil
	}
	return node.One("false", nil), nil
}

// Delay pauses for a configured duration, cooperatively cancellable.
type Delay struct{}

func (Delay) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "delay",
		Name:          "Delay",
		Version:       "1.0.0",
		Description:   "Waits for a configured number of milliseconds.",
		ExpectedEdges: []string{"done", "cancelled"},
	}
}

func (Delay) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	ms, _ := config["ms"].(float64)
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return node.One("done", nil), nil
	case <-ctx.Ctx.Done():
		return node.One("cancelled", nil), nil
	}
}

// While is a loop node: each dispatch evaluates a condition field
// (left, operator, right) against already-interpolated state and emits
// "do" while it holds, "done" once it doesn't. While itself never
// mutates state — the engine re-dispatches on "do", running the step's
// "do?" handler (which owns any state change, e.g. incrementing a
// counter) before each re-dispatch.
type While struct{}

func (While) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "while",
		Name:          "While",
		Version:       "1.0.0",
		Description:   "Evaluates a left/operator/right condition against state, looping on \"do\" until it is false.",
		IsLoop:        true,
		ContinueEdges: []string{"do"},
		ExpectedEdges: []string{"do", "done"},
	}
}

func (While) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	cond, _ := config["condition"].(map[string]any)
	op, _ := cond["operator"].(string)

	if evaluateCondition(cond["left"], op, cond["right"]) {
		return node.One("do", nil), nil
	}
	return node.One("done", nil), nil
}

func evaluateCondition(left any, op string, right any) bool {
	if lf, lok := toFloat(left); lok {
		if rf, rok := toFloat(right); rok {
			switch op {
			case "<":
				return lf < rf
			case "<=":
				return lf <= rf
			case ">":
				return lf > rf
			case ">=":
				return lf >= rf
			case "==":
				return lf == rf
			case "!=":
				return lf != rf
			}
			return false
		}
	}
	ls, rs := fmt.Sprintf("%v", left), fmt.Sprintf("%v", right)
	switch op {
	case "==":
		return ls == rs
	case "!=":
		return ls != rs
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
