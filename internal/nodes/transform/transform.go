// Package transform implements the "transform" universal node: it
// reshapes a JSON value by a list of get/set operations, sharing
// tidwall/gjson and tidwall/sjson with internal/state rather than
// hand-rolling a second path walker.
package transform

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Op is one reshape instruction: read fromPath off input, write it to
// toPath in the output document.
type Op struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Node projects fields from an input document into a new shape.
type Node struct{}

func New() *Node { return &Node{} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "transform",
		Name:          "Transform",
		Version:       "1.0.0",
		Description:   "Projects fields from an input JSON document into a differently shaped output document.",
		ExpectedEdges: []string{"done", "error"},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	input, _ := config["input"].(map[string]any)
	rawOps, _ := config["ops"].([]any)

	inputBytes, err := json.Marshal(input)
	if err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}

	out := []byte("{}")
	for _, rawOp := range rawOps {
		opMap, ok := rawOp.(map[string]any)
		if !ok {
			continue
		}
		from, _ := opMap["from"].(string)
		to, _ := opMap["to"].(string)
		value := gjson.GetBytes(inputBytes, from)
		if !value.Exists() {
			continue
		}
		out, err = sjson.SetBytes(out, to, value.Value())
		if err != nil {
			return node.One("error", map[string]any{"message": err.Error()}), nil
		}
	}

	var result map[string]any
	if err := json.Unmarshal(out, &result); err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}
	return node.One("done", map[string]any{"output": result}), nil
}
