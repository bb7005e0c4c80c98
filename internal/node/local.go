package node

import (
	"fmt"
	"sync"

	"github.com/memlink-ipc/memlink/internal/pubsub"
)

// LocalRegistry is the intra-process counterpart of the on-disk node
// registry. Nodes built on the intra-process backend register here and are
// visible only to scanners of the same process. Entries cannot be dead or
// inaccessible: the registry lives and dies with the process itself.
type LocalRegistry struct {
	mu     sync.RWMutex
	nodes  map[string]localEntry
	broker *pubsub.Broker[ID]
}

type localEntry struct {
	id      ID
	details Details
}

// NewLocalRegistry creates an empty in-process registry.
func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{
		nodes:  make(map[string]localEntry),
		broker: pubsub.NewBroker[ID](),
	}
}

// DefaultLocal is the process-wide registry used by the intra-process
// backend.
var DefaultLocal = NewLocalRegistry()

// Register adds the node. It fails if the ID is already taken.
func (r *LocalRegistry) Register(id ID, details Details) (*LocalRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[id.Key()]; exists {
		return nil, fmt.Errorf("node %s already registered in process", id)
	}
	r.nodes[id.Key()] = localEntry{id: id, details: details}
	r.broker.Publish(pubsub.NodeRegistered, id)
	return &LocalRegistration{registry: r, id: id}, nil
}

// Snapshot returns the currently registered IDs in unspecified order.
func (r *LocalRegistry) Snapshot() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.nodes))
	for _, entry := range r.nodes {
		ids = append(ids, entry.id)
	}
	return ids
}

// Lookup returns the details registered for id.
func (r *LocalRegistry) Lookup(id ID) (Details, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.nodes[id.Key()]
	return entry.details, ok
}

// Events exposes the registry's lifecycle broker.
func (r *LocalRegistry) Events() *pubsub.Broker[ID] { return r.broker }

// LocalRegistration is the in-process analog of Registration.
type LocalRegistration struct {
	registry *LocalRegistry
	id       ID
	once     sync.Once
}

// ID returns the registered node's ID.
func (l *LocalRegistration) ID() ID { return l.id }

// Close removes the node from its registry.
func (l *LocalRegistration) Close() error {
	l.once.Do(func() {
		l.registry.mu.Lock()
		delete(l.registry.nodes, l.id.Key())
		l.registry.mu.Unlock()
		l.registry.broker.Publish(pubsub.NodeDeregistered, l.id)
	})
	return nil
}
