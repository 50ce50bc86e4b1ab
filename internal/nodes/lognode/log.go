// Package lognode implements the "log" universal node, grounded on the
// teacher's internal/nodes/core/logger_node.go zerolog wiring.
package lognode

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Node logs a message at a configurable level and passes through.
type Node struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Node { return &Node{logger: logger} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "log",
		Name:          "Log",
		Version:       "1.0.0",
		Description:   "Writes a structured log line from config fields and the current state.",
		ExpectedEdges: []string{"done"},
		AIHints: node.AIHints{
			Purpose:   "Emit a log line for observability without altering state.",
			WhenToUse: "Between steps, to record progress or a computed value.",
		},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	level := "info"
	if v, ok := config["level"].(string); ok {
		level = v
	}
	message := fmt.Sprintf("%v", config["message"])

	event := n.logger.Info()
	switch level {
	case "debug":
		event = n.logger.Debug()
	case "warn":
		event = n.logger.Warn()
	case "error":
		event = n.logger.Error()
	}
	event = event.Str("nodeId", ctx.NodeID).Str("executionId", ctx.ExecutionID)
	for k, v := range config {
		if k == "level" || k == "message" {
			continue
		}
		event = event.Interface(k, v)
	}
	event.Msg(message)

	return node.One("done", map[string]any{"logged": message}), nil
}
