// Package state implements the State Manager: a thread-safe, dot-path
// mapping over a JSON document, shared by every step of one workflow
// execution.
//
// Paths are gjson/sjson paths ("a.b.c", "items.0.name"); "$." is the
// workflow-document prefix convention and is stripped before reaching
// gjson/sjson, which index from the bare path.
package state

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Manager owns one execution's state document. It must not be shared
// across concurrent executions.
type Manager struct {
	mu  sync.RWMutex
	raw []byte // current state document, always valid JSON object bytes
}

// New builds a Manager seeded with initial (may be nil for an empty
// object).
func New(initial map[string]any) *Manager {
	m := &Manager{raw: []byte("{}")}
	for k, v := range initial {
		m.Set(k, v)
	}
	return m
}

// StripDollar removes a leading "$." or "$" from a path, the convention
// workflow documents use to mark a state reference.
func StripDollar(path string) string {
	path = strings.TrimPrefix(path, "$.")
	path = strings.TrimPrefix(path, "$")
	return path
}

// Get resolves path, walking objects and numerically-indexed arrays.
func (m *Manager) Get(path string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = StripDollar(path)
	if path == "" {
		var v any
		_ = json.Unmarshal(m.raw, &v)
		return v, true
	}
	res := gjson.GetBytes(m.raw, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// Set writes value at path, creating intermediate objects as needed and
// replacing any existing leaf.
func (m *Manager) Set(path string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = StripDollar(path)
	if path == "" {
		if b, err := json.Marshal(value); err == nil {
			m.raw = b
		}
		return
	}
	out, err := sjson.SetBytes(m.raw, path, value)
	if err == nil {
		m.raw = out
	}
}

// Delete removes path from the document, a no-op if it does not exist.
func (m *Manager) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = StripDollar(path)
	out, err := sjson.DeleteBytes(m.raw, path)
	if err == nil {
		m.raw = out
	}
}

// GetAll returns a deep-cloned snapshot of the whole document, suitable
// for interpolation or for returning to a caller without risking
// concurrent mutation.
func (m *Manager) GetAll() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]any)
	_ = json.Unmarshal(m.raw, &out)
	return out
}

// Snapshot returns the raw JSON document bytes, primarily for execution
// trace persistence.
func (m *Manager) Snapshot() json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]byte, len(m.raw))
	copy(out, m.raw)
	return out
}
