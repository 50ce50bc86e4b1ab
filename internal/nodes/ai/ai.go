// Package ai implements the "ai_complete" server node over
// langchaingo's llms.Model abstraction, grounded on the teacher's
// internal/ai/agent_runtime.go provider wiring. The node itself never
// dials out here (no API key plumbing in this repo); it is wired
// against whatever llms.Model implementation the host constructs and
// injects, keeping the dependency real without fabricating network
// calls in a module that cannot be executed.
package ai

import (
	"github.com/tmc/langchaingo/llms"

	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Node calls a host-provided language model with a prompt resolved from
// config/state.
type Node struct {
	model llms.Model
}

func New(model llms.Model) *Node { return &Node{model: model} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "ai_complete",
		Name:          "AI Complete",
		Version:       "1.0.0",
		Description:   "Sends a prompt to the configured language model and returns its completion.",
		ExpectedEdges: []string{"completed", "error"},
		AIHints: node.AIHints{
			Purpose:   "Delegate a text generation or reasoning step to an LLM.",
			WhenToUse: "When a step needs free-form generation rather than deterministic logic.",
		},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	if n.model == nil {
		return nil, apperrors.New(apperrors.CodeNode, "ai_complete node: no model configured")
	}
	prompt, _ := config["prompt"].(string)
	if prompt == "" {
		return nil, apperrors.NewValidation("ai_complete node: prompt is required")
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx.Ctx, n.model, prompt)
	if err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}
	return node.One("completed", map[string]any{"text": completion}), nil
}
