package wsserver

import "encoding/json"

// Inbound message types, spec.md §4.7.
const (
	TypePing             = "ping"
	TypeSubscribe        = "subscribe"
	TypeUnsubscribe      = "unsubscribe"
	TypeWorkflowExecute  = "workflow:execute"
	TypeWorkflowValidate = "workflow:validate"
	TypeWorkflowCancel   = "workflow:cancel"
)

// Outbound message types.
const (
	TypePong                = "pong"
	TypeSubscribed          = "subscribed"
	TypeUnsubscribed        = "unsubscribed"
	TypeWorkflowResult      = "workflow:result"
	TypeWorkflowError       = "workflow:error"
	TypeWorkflowValidation  = "workflow:validation-result"
	TypeWorkflowProgress    = "workflow:progress"
	TypeProtocolError       = "error"
)

// Envelope is the wire shape for every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"` // client-supplied correlation id, echoed back
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ExecutePayload is TypeWorkflowExecute's payload.
type ExecutePayload struct {
	WorkflowID   string         `json:"workflowId"`
	Document     json.RawMessage `json:"document"`
	InitialState map[string]any `json:"initialState,omitempty"`
	Scope        string         `json:"scope,omitempty"`
}

// ValidatePayload is TypeWorkflowValidate's payload.
type ValidatePayload struct {
	Document json.RawMessage `json:"document"`
	Scope    string          `json:"scope,omitempty"`
}

// CancelPayload is TypeWorkflowCancel's payload.
type CancelPayload struct {
	ExecutionID string `json:"executionId"`
}

// SubscribePayload names a channel that Manager.Broadcast delivers to.
// Execution progress is not broadcast: it goes only to the session that
// started the execution.
type SubscribePayload struct {
	Channel string `json:"channel"`
}

func encode(msgType, id string, payload any) []byte {
	raw, _ := json.Marshal(payload)
	b, _ := json.Marshal(Envelope{Type: msgType, ID: id, Payload: raw})
	return b
}
