package wsserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/engine"
	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/validator"
)

// WorkflowDispatcher is the Dispatcher implementation wiring inbound
// envelopes to validation and execution.
type WorkflowDispatcher struct {
	Engine    *engine.Engine
	Validator *validator.Validator
	Logger    zerolog.Logger
}

func (d *WorkflowDispatcher) Handle(ctx context.Context, s *Session, env Envelope) {
	switch env.Type {
	case TypePing:
		s.emit(encode(TypePong, env.ID, map[string]any{}))

	case TypeSubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.emit(encode(TypeProtocolError, env.ID, errPayload("malformed subscribe payload")))
			return
		}
		s.mu.Lock()
		s.subscriptions[p.Channel] = true
		s.mu.Unlock()
		s.emit(encode(TypeSubscribed, env.ID, p))

	case TypeUnsubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.emit(encode(TypeProtocolError, env.ID, errPayload("malformed unsubscribe payload")))
			return
		}
		s.mu.Lock()
		delete(s.subscriptions, p.Channel)
		s.mu.Unlock()
		s.emit(encode(TypeUnsubscribed, env.ID, p))

	case TypeWorkflowValidate:
		var p ValidatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.emit(encode(TypeProtocolError, env.ID, errPayload("malformed validate payload")))
			return
		}
		scope := node.ScopeServer
		if p.Scope == string(node.ScopeClient) {
			scope = node.ScopeClient
		}
		result, _ := d.Validator.ValidateRaw(p.Document, scope)
		s.emit(encode(TypeWorkflowValidation, env.ID, result))

	case TypeWorkflowExecute:
		d.handleExecute(ctx, s, env)

	case TypeWorkflowCancel:
		var p CancelPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.emit(encode(TypeProtocolError, env.ID, errPayload("malformed cancel payload")))
			return
		}
		s.cancelExecution(p.ExecutionID)

	default:
		s.emit(encode(TypeProtocolError, env.ID, errPayload("unknown message type: "+env.Type)))
	}
}

func (d *WorkflowDispatcher) handleExecute(ctx context.Context, s *Session, env Envelope) {
	var p ExecutePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		s.emit(encode(TypeProtocolError, env.ID, errPayload("malformed execute payload")))
		return
	}

	scope := node.ScopeServer
	if p.Scope == string(node.ScopeClient) {
		scope = node.ScopeClient
	}

	result, doc := d.Validator.ValidateRaw(p.Document, scope)
	if !result.Valid {
		s.emit(encode(TypeWorkflowValidation, env.ID, result))
		return
	}

	executionID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	s.registerCancel(executionID, cancel)

	execCtx := &node.ExecutionContext{
		ExecutionID: executionID,
		WorkflowID:  doc.ID,
		Ctx:         runCtx,
		Runtime:     &wsRuntime{session: s, executionID: executionID},
		StartedAt:   time.Now(),
	}

	go func() {
		defer s.clearExecution(executionID)
		res, err := d.Engine.Run(execCtx, doc, scope, p.InitialState)
		if err != nil {
			s.emit(encode(TypeWorkflowError, env.ID, workflowErrorPayload(executionID, err)))
			return
		}
		s.emit(encode(TypeWorkflowResult, env.ID, map[string]any{
			"executionId": executionID,
			"result":      res,
		}))
	}()
}

func errPayload(message string) map[string]any {
	return map[string]any{"message": message}
}

func workflowErrorPayload(executionID string, err error) map[string]any {
	payload := map[string]any{"executionId": executionID, "message": err.Error()}
	if we, ok := err.(*apperrors.WorkflowError); ok {
		payload["code"] = string(we.Code)
		if we.Details != nil {
			payload["details"] = we.Details
		}
	}
	return payload
}

// wsRuntime adapts a Session into the node.Runtime hooks a streaming or
// interactive node body uses.
type wsRuntime struct {
	session     *Session
	executionID string
}

func (r *wsRuntime) Emit(kind string, payload any) {
	r.session.emit(encode(TypeWorkflowProgress, "", map[string]any{
		"executionId": r.executionID,
		"kind":        kind,
		"data":        payload,
	}))
}

func (r *wsRuntime) Pause(reason string)  {}
func (r *wsRuntime) Resume()              {}

// HandleConn is the fiber websocket handler: it registers the session,
// pumps outbound messages, and decodes inbound ones until the connection
// closes.
func HandleConn(mgr *Manager, logger zerolog.Logger) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		s := newSession(c)
		mgr.add(s)
		defer mgr.remove(s)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for b := range s.send {
				if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
					logger.Debug().Err(err).Str("session", s.ID).Msg("websocket write failed")
					return
				}
			}
		}()

		ctx := context.Background()
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				logger.Debug().Err(err).Str("session", s.ID).Msg("websocket read closed")
				break
			}
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				s.emit(encode(TypeProtocolError, "", errPayload("malformed message envelope")))
				continue
			}
			mgr.dispatch.Handle(ctx, s, env)
		}

		close(s.send)
		<-done
	}
}
