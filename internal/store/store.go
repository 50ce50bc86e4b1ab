// Package store provides in-memory collaborator implementations for the
// persistence boundaries spec.md §6 leaves externally scoped: workflow
// documents, execution history, and cron automations. A real deployment
// swaps these for a database-backed implementation behind the same
// interfaces; grounded on the teacher's gorm-backed repository pattern
// but kept in-memory here since no concrete schema is specified.
package store

import (
	"sync"
	"time"

	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/engine"
	"github.com/Narcis13/workscript-sub004/internal/workflowdoc"
)

// WorkflowStore holds saved workflow documents keyed by id.
type WorkflowStore struct {
	mu   sync.RWMutex
	docs map[string]*workflowdoc.Document
}

func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{docs: make(map[string]*workflowdoc.Document)}
}

func (s *WorkflowStore) Save(doc *workflowdoc.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

func (s *WorkflowStore) Get(id string) (*workflowdoc.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeValidation, "workflow not found: "+id)
	}
	return doc, nil
}

func (s *WorkflowStore) List() []*workflowdoc.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*workflowdoc.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out
}

func (s *WorkflowStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

// ExecutionRecord is one completed or failed run, kept for history APIs.
type ExecutionRecord struct {
	ExecutionID string          `json:"executionId"`
	WorkflowID  string          `json:"workflowId"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  time.Time       `json:"finishedAt"`
	Result      *engine.Result  `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// ExecutionStore holds execution history keyed by execution id.
type ExecutionStore struct {
	mu      sync.RWMutex
	records map[string]*ExecutionRecord
	byFlow  map[string][]string // workflowId -> executionIds, most recent last
}

func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		records: make(map[string]*ExecutionRecord),
		byFlow:  make(map[string][]string),
	}
}

func (s *ExecutionStore) Record(r *ExecutionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ExecutionID] = r
	s.byFlow[r.WorkflowID] = append(s.byFlow[r.WorkflowID], r.ExecutionID)
}

func (s *ExecutionStore) Get(executionID string) (*ExecutionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[executionID]
	return r, ok
}

func (s *ExecutionStore) ForWorkflow(workflowID string) []*ExecutionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byFlow[workflowID]
	out := make([]*ExecutionRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out
}

// AutomationRecord is a persisted cron-automation definition.
type AutomationRecord struct {
	ID         string `json:"id"`
	WorkflowID string `json:"workflowId"`
	Schedule   string `json:"schedule"`
	Enabled    bool   `json:"enabled"`
}

// AutomationStore holds cron automation definitions keyed by id.
type AutomationStore struct {
	mu           sync.RWMutex
	automations  map[string]*AutomationRecord
}

func NewAutomationStore() *AutomationStore {
	return &AutomationStore{automations: make(map[string]*AutomationRecord)}
}

func (s *AutomationStore) Save(a *AutomationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.automations[a.ID] = a
}

func (s *AutomationStore) Get(id string) (*AutomationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.automations[id]
	return a, ok
}

func (s *AutomationStore) SetEnabled(id string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.automations[id]; ok {
		a.Enabled = enabled
	}
}

func (s *AutomationStore) List() []*AutomationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*AutomationRecord, 0, len(s.automations))
	for _, a := range s.automations {
		out = append(out, a)
	}
	return out
}
