package kb

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/relaymesh/model"
	"github.com/signalsfoundry/relaymesh/relay"
)

// EventType indicates what kind of lifecycle change happened in the KB.
type EventType int

const (
	EventNodeAdded EventType = iota
	EventNodeUpdated
	EventNodeRemoved
)

// Event is emitted to subscribers on node lifecycle changes. The relay
// registry subscribes to drop its entries when a node is destroyed.
type Event struct {
	Type EventType
	Node model.Node
}

// KnowledgeBase is an in-memory, thread-safe store for nodes and the
// fixed ground-station position. It is the host side of the engine: it
// answers position queries and emits node lifecycle notifications.
// It implements relay.PositionSource.
type KnowledgeBase struct {
	mu sync.RWMutex

	nodes         map[string]*model.Node
	groundStation relay.Vec3

	nextSubID int
	subs      map[int]func(Event)
}

// NewKnowledgeBase constructs an empty KB with the ground station at the
// given fixed ECEF position (metres).
func NewKnowledgeBase(groundStation relay.Vec3) *KnowledgeBase {
	return &KnowledgeBase{
		nodes:         make(map[string]*model.Node),
		groundStation: groundStation,
		subs:          make(map[int]func(Event)),
	}
}

// AddNode adds a new node. It returns an error if the ID already exists.
func (kb *KnowledgeBase) AddNode(n *model.Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("nil or empty node")
	}

	kb.mu.Lock()
	if _, exists := kb.nodes[n.ID]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("node with ID %q already exists", n.ID)
	}
	// store pointer so that motion models can update in-place
	kb.nodes[n.ID] = n
	event := Event{Type: EventNodeAdded, Node: *n}
	subs := kb.snapshotSubs()
	kb.mu.Unlock()

	kb.notify(subs, event)
	return nil
}

// RemoveNode deletes a node. Removing an unknown node is a no-op so
// unload/destroy notifications can be replayed safely.
func (kb *KnowledgeBase) RemoveNode(id string) {
	kb.mu.Lock()
	n, ok := kb.nodes[id]
	if !ok {
		kb.mu.Unlock()
		return
	}
	delete(kb.nodes, id)
	event := Event{Type: EventNodeRemoved, Node: *n}
	subs := kb.snapshotSubs()
	kb.mu.Unlock()

	kb.notify(subs, event)
}

// GetNode returns the node with the given ID, or nil if not found.
func (kb *KnowledgeBase) GetNode(id string) *model.Node {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.nodes[id]
}

// ListNodes returns a snapshot slice of all nodes.
func (kb *KnowledgeBase) ListNodes() []*model.Node {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*model.Node, 0, len(kb.nodes))
	for _, n := range kb.nodes {
		res = append(res, n)
	}
	return res
}

// UpdateNodePosition updates a node's coordinates and notifies
// subscribers.
func (kb *KnowledgeBase) UpdateNodePosition(id string, pos model.Motion) error {
	kb.mu.Lock()
	n, ok := kb.nodes[id]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("node with ID %q not found", id)
	}
	n.Coordinates = pos
	event := Event{
		Type: EventNodeUpdated,
		Node: *n, // copy for safety
	}
	subs := kb.snapshotSubs()
	kb.mu.Unlock()

	kb.notify(subs, event)
	return nil
}

// NodePosition implements relay.PositionSource.
func (kb *KnowledgeBase) NodePosition(nodeID string) (relay.Vec3, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	n, ok := kb.nodes[nodeID]
	if !ok {
		return relay.Vec3{}, false
	}
	return relay.Vec3{X: n.Coordinates.X, Y: n.Coordinates.Y, Z: n.Coordinates.Z}, true
}

// GroundStationPosition implements relay.PositionSource.
func (kb *KnowledgeBase) GroundStationPosition() relay.Vec3 {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.groundStation
}

// Subscribe registers a callback for KB events. It returns an
// unsubscribe function. Subscribers are keyed by an identity token, so
// unsubscribing one never affects the others regardless of order.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextSubID
	kb.nextSubID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// snapshotSubs copies the subscriber set; callers must hold the lock.
// The copy lets callbacks run outside it.
func (kb *KnowledgeBase) snapshotSubs() []func(Event) {
	out := make([]func(Event), 0, len(kb.subs))
	for _, fn := range kb.subs {
		out = append(out, fn)
	}
	return out
}

// notify runs subscriber callbacks outside the lock to avoid deadlocks.
func (kb *KnowledgeBase) notify(subs []func(Event), event Event) {
	for _, sub := range subs {
		sub(event)
	}
}
