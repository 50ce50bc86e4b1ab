// Package registry implements the Node Registry: a capability-scoped
// store mapping node id to node instance, grounded on the teacher's
// internal/engine/node_registry.go construction style (explicit
// RegisterNode calls at startup rather than reflective discovery).
package registry

import (
	"sync"

	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Provider is a single node's entry in a host-supplied discovery list.
type Provider struct {
	Scope node.Scope
	Node  node.Node
}

// Registry is the process-lifetime node lookup table. It is read-mostly:
// writes happen only during startup discovery. Readers take the read
// lock, which is uncontended once Discover has returned; the mutex also
// guards tests and hosts that register nodes one at a time.
type Registry struct {
	mu    sync.RWMutex
	nodes map[node.Scope]map[string]node.Node
	// versions remembers the version a node id was first registered
	// with, so a later re-registration with a different version can be
	// rejected as DuplicateRegistration.
	versions map[node.Scope]map[string]string

	discovered bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		nodes: map[node.Scope]map[string]node.Node{
			node.ScopeUniversal: {},
			node.ScopeClient:    {},
			node.ScopeServer:    {},
		},
		versions: map[node.Scope]map[string]string{
			node.ScopeUniversal: {},
			node.ScopeClient:    {},
			node.ScopeServer:    {},
		},
	}
}

// Register inserts n under scope. It is idempotent on (scope, id):
// registering the same id with the same version again is a no-op.
// Registering the same id with a different version is rejected.
func (r *Registry) Register(scope node.Scope, n node.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(scope, n)
}

func (r *Registry) registerLocked(scope node.Scope, n node.Node) error {
	meta := n.Metadata()
	if existingVersion, ok := r.versions[scope][meta.ID]; ok {
		if existingVersion != meta.Version {
			return apperrors.New(apperrors.CodeProtocol,
				"DuplicateRegistration: "+meta.ID+" already registered at version "+existingVersion)
		}
		return nil
	}
	r.nodes[scope][meta.ID] = n
	r.versions[scope][meta.ID] = meta.Version
	return nil
}

// Discover performs a one-shot bulk registration from a host-provided
// provider list. Calling it more than once is a no-op, matching spec's
// "runs once at startup" lifecycle.
func (r *Registry) Discover(providers []Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discovered {
		return nil
	}
	for _, p := range providers {
		if err := r.registerLocked(p.Scope, p.Node); err != nil {
			return err
		}
	}
	r.discovered = true
	return nil
}

// Get looks up id in scope, falling back to universal when scope is
// client or server and the scoped lookup misses.
func (r *Registry) Get(scope node.Scope, id string) (node.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n, ok := r.nodes[scope][id]; ok {
		return n, true
	}
	if scope != node.ScopeUniversal {
		if n, ok := r.nodes[node.ScopeUniversal][id]; ok {
			return n, true
		}
	}
	return nil, false
}

// List returns the metadata of every node visible from scope, including
// universal nodes when scope is not itself universal.
func (r *Registry) List(scope node.Scope) []node.Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	out := make([]node.Metadata, 0)
	add := func(s node.Scope) {
		for id, n := range r.nodes[s] {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, n.Metadata())
		}
	}
	add(scope)
	if scope != node.ScopeUniversal {
		add(node.ScopeUniversal)
	}
	return out
}

// BySource returns only the nodes registered directly under source,
// without the universal fallback — for management/admin listings that
// need to know exactly where a node lives.
func (r *Registry) BySource(source node.Scope) []node.Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]node.Metadata, 0, len(r.nodes[source]))
	for _, n := range r.nodes[source] {
		out = append(out, n.Metadata())
	}
	return out
}
