// Package workflowdoc defines the wire format for a WorkflowDocument:
// the ordered sequence of typed Steps the Execution Engine interprets.
package workflowdoc

import (
	"encoding/json"
	"strings"
)

// Document is a parsed workflow document (spec.md §3 / §6).
type Document struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	Description  string         `json:"description,omitempty"`
	InitialState map[string]any `json:"initialState,omitempty"`
	Workflow     []Step         `json:"workflow"`
}

// StepKind discriminates the three step shapes spec.md §3 names.
type StepKind int

const (
	KindBareRef StepKind = iota
	KindStateSetter
	KindInlineNode
)

// Step is a position in a workflow. Exactly one of its field groups is
// populated, selected by Kind.
type Step struct {
	Kind StepKind

	// KindBareRef / KindInlineNode
	NodeID string
	IsLoop bool // true when the original bare ref had a trailing "..."

	// KindInlineNode only: declarative params (handler keys removed).
	Config map[string]any
	// KindInlineNode only: edge label (without "?") -> handler body.
	Handlers map[string]HandlerBody

	// KindStateSetter only.
	StatePath string
	ValueExpr any
}

// HandlerBody is the body of an edge handler: a single step, a sequence
// of steps, or a bare node-id string — normalised to a slice so the
// engine always walks a sequence ("a sequence handler executes its
// elements in order").
type HandlerBody []Step

// UnmarshalJSON implements the Step discriminated union described in
// spec.md §3: a bare string is a BareRef; a single-key object is either
// a state-setter (key starts with "$.") or an inline node.
func (s *Step) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		nodeID, isLoop := splitLoopSuffix(asString)
		*s = Step{Kind: KindBareRef, NodeID: nodeID, IsLoop: isLoop}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return &jsonShapeError{"step object must have exactly one key"}
	}
	for key, val := range raw {
		if strings.HasPrefix(key, "$.") || key == "$" {
			var value any
			if err := json.Unmarshal(val, &value); err != nil {
				return err
			}
			*s = Step{Kind: KindStateSetter, StatePath: key, ValueExpr: value}
			return nil
		}

		nodeID, isLoop := splitLoopSuffix(key)
		var rawConfig map[string]json.RawMessage
		if err := json.Unmarshal(val, &rawConfig); err != nil {
			// A config that isn't an object (e.g. a bare ref reused as
			// the value) still counts as a zero-param inline node.
			var anyVal any
			if err2 := json.Unmarshal(val, &anyVal); err2 != nil {
				return err
			}
			*s = Step{Kind: KindInlineNode, NodeID: nodeID, IsLoop: isLoop,
				Config: map[string]any{}, Handlers: map[string]HandlerBody{}}
			return nil
		}

		config := make(map[string]any)
		handlers := make(map[string]HandlerBody)
		for k, v := range rawConfig {
			if strings.HasSuffix(k, "?") {
				edge := strings.TrimSuffix(k, "?")
				body, err := unmarshalHandlerBody(v)
				if err != nil {
					return err
				}
				handlers[edge] = body
				continue
			}
			var value any
			if err := json.Unmarshal(v, &value); err != nil {
				return err
			}
			config[k] = value
		}

		*s = Step{Kind: KindInlineNode, NodeID: nodeID, IsLoop: isLoop,
			Config: config, Handlers: handlers}
		return nil
	}
	return nil
}

func unmarshalHandlerBody(data []byte) (HandlerBody, error) {
	var asArray []json.RawMessage
	if err := json.Unmarshal(data, &asArray); err == nil {
		body := make(HandlerBody, 0, len(asArray))
		for _, item := range asArray {
			var step Step
			if err := json.Unmarshal(item, &step); err != nil {
				return nil, err
			}
			body = append(body, step)
		}
		return body, nil
	}

	var step Step
	if err := json.Unmarshal(data, &step); err != nil {
		return nil, err
	}
	return HandlerBody{step}, nil
}

// MarshalJSON reconstructs the wire shape for round-tripping.
func (s Step) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindBareRef:
		id := s.NodeID
		if s.IsLoop {
			id += "..."
		}
		return json.Marshal(id)
	case KindStateSetter:
		return json.Marshal(map[string]any{s.StatePath: s.ValueExpr})
	case KindInlineNode:
		id := s.NodeID
		if s.IsLoop {
			id += "..."
		}
		config := make(map[string]any, len(s.Config)+len(s.Handlers))
		for k, v := range s.Config {
			config[k] = v
		}
		for edge, body := range s.Handlers {
			config[edge+"?"] = marshalHandlerBody(body)
		}
		return json.Marshal(map[string]any{id: config})
	default:
		return nil, &jsonShapeError{"unknown step kind"}
	}
}

func marshalHandlerBody(body HandlerBody) any {
	if len(body) == 1 {
		return body[0]
	}
	return []Step(body)
}

func splitLoopSuffix(id string) (string, bool) {
	if strings.HasSuffix(id, "...") {
		return strings.TrimSuffix(id, "..."), true
	}
	return id, false
}

type jsonShapeError struct{ msg string }

func (e *jsonShapeError) Error() string { return e.msg }

// Parse decodes a JSON workflow document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Serialize encodes a document back to JSON.
func Serialize(d *Document) ([]byte, error) {
	return json.Marshal(d)
}
