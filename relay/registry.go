package relay

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the process-wide index from node identity to that node's
// ordered relay modules. It is mutated only by node/module lifecycle
// events (load, unload, docking, staging) and is never touched while a
// resolution pass is in flight; in the tick-driven model both run on the
// same update callback.
//
// NOTE: the registry is nevertheless concurrency-safe via an internal
// RWMutex so read-only consumers (metrics, status endpoints) can query it
// from other goroutines.
type Registry struct {
	mu sync.RWMutex

	// byNode preserves registration order per node.
	byNode map[string][]*RelayModule
	byID   map[string]*RelayModule
}

// NewRegistry creates an empty relay registry.
func NewRegistry() *Registry {
	return &Registry{
		byNode: make(map[string][]*RelayModule),
		byID:   make(map[string]*RelayModule),
	}
}

// Register adds a module under its owning node. It is idempotent: if the
// module is already registered it is a no-op. A module whose ID is
// already registered under a different node is rejected.
func (r *Registry) Register(m *RelayModule) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("%w: nil or empty module", ErrUnknownModule)
	}
	if m.NodeID == "" {
		return fmt.Errorf("%w: module %q has no owning node", ErrUnknownNode, m.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[m.ID]; ok {
		if existing.NodeID != m.NodeID {
			return fmt.Errorf("module %q already registered under node %q", m.ID, existing.NodeID)
		}
		return nil // already in the requested state
	}

	r.byID[m.ID] = m
	r.byNode[m.NodeID] = append(r.byNode[m.NodeID], m)
	return nil
}

// Unregister removes a module. It is idempotent: removing a module that
// is not registered is a no-op.
func (r *Registry) Unregister(moduleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[moduleID]
	if !ok {
		return
	}
	delete(r.byID, moduleID)

	mods := r.byNode[m.NodeID]
	kept := mods[:0]
	for _, other := range mods {
		if other.ID != moduleID {
			kept = append(kept, other)
		}
	}
	if len(kept) == 0 {
		delete(r.byNode, m.NodeID)
	} else {
		r.byNode[m.NodeID] = kept
	}
}

// RemoveNode drops every module registered under the node. Lifecycle
// hook for node destruction; registry entries never outlive their node.
func (r *Registry) RemoveNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.byNode[nodeID] {
		delete(r.byID, m.ID)
	}
	delete(r.byNode, nodeID)
}

// ModulesOf returns the node's modules in registration order. An unknown
// node yields an empty slice, never an error.
func (r *Registry) ModulesOf(nodeID string) []*RelayModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mods := r.byNode[nodeID]
	out := make([]*RelayModule, len(mods))
	copy(out, mods)
	return out
}

// Module returns a module by ID, or nil if not registered.
func (r *Registry) Module(id string) *RelayModule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// NodeIDs returns the IDs of all nodes with at least one registered
// module, sorted for deterministic iteration.
func (r *Registry) NodeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byNode))
	for id := range r.byNode {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TotalModules returns the number of registered modules. The resolver
// uses this as the hop bound for chain termination.
func (r *Registry) TotalModules() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// NodeCount returns the number of nodes with registered modules.
func (r *Registry) NodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byNode)
}
