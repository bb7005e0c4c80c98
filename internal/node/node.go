package node

import (
	"fmt"
	"os"
	"sync"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/log"
	"github.com/memlink-ipc/memlink/internal/names"
	"github.com/memlink-ipc/memlink/internal/service"
)

// Builder configures a node before creation. The backend is chosen at the
// Create call, not here; everything a builder collects is backend-neutral.
type Builder struct {
	cfg     config.Config
	hasCfg  bool
	name    names.NodeName
	hasName bool
}

// NewBuilder starts building a node.
func NewBuilder() *Builder { return &Builder{} }

// Name sets the human-readable node name. Unset names default to empty,
// which the registry accepts.
func (b *Builder) Name(n names.NodeName) *Builder {
	b.name = n
	b.hasName = true
	return b
}

// Config sets the configuration domain the node joins. Unset configs
// default to config.Default().
func (b *Builder) Config(cfg config.Config) *Builder {
	b.cfg = cfg
	b.hasCfg = true
	return b
}

// Node is a live participant in a messaging domain. As long as the node is
// open its registration is observable by scanners; Close withdraws it.
// The backend type parameter carries through to every service the node
// builds.
type Node[B service.Backend] struct {
	id       ID
	name     names.NodeName
	cfg      config.Config
	teardown func() error
	once     sync.Once
}

// Create registers a new node with a generated ID on backend B.
func Create[B service.Backend](b *Builder) (*Node[B], error) {
	cfg := b.cfg
	if !b.hasCfg {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("node config: %w", err)
	}

	name := b.name
	if !b.hasName {
		name = names.NodeNameUnchecked(nil)
	}

	id := NewID()
	details := Details{Name: name, Config: cfg, Pid: os.Getpid()}

	var teardown func() error
	var backend B
	switch any(backend).(type) {
	case service.InterProcess:
		if cfg.Global.Node.CleanupDeadNodes {
			sweepDeadResidue(cfg)
		}
		reg, err := Register(cfg, id, details)
		if err != nil {
			return nil, err
		}
		teardown = reg.Close
	default:
		reg, err := DefaultLocal.Register(id, details)
		if err != nil {
			return nil, err
		}
		teardown = reg.Close
	}

	log.Info(log.CatNode, "node created",
		"id", id, "name", name.String(), "backend", backend.BackendName())
	return &Node[B]{id: id, name: name, cfg: cfg, teardown: teardown}, nil
}

// ID returns the node's unique ID.
func (n *Node[B]) ID() ID { return n.id }

// Name returns the node's name.
func (n *Node[B]) Name() names.NodeName { return n.name }

// Config returns the configuration domain the node belongs to.
func (n *Node[B]) Config() config.Config { return n.cfg }

// ServiceBuilder starts building a service on the node's backend and
// within its configuration domain.
func (n *Node[B]) ServiceBuilder(name names.ServiceName) *service.Builder[B] {
	return service.NewBuilder[B](n.cfg, name)
}

// Close withdraws the node's registration. It is idempotent; only the
// first call tears down.
func (n *Node[B]) Close() error {
	var err error
	n.once.Do(func() { err = n.teardown() })
	return err
}
