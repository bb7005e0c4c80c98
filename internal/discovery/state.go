// Package discovery scans a domain's node registry and classifies every
// entry by what its residue proves: a held liveness lock, a readable
// details document, or neither. Consumers walk the census through a
// callback and decide per node whether the scan continues.
package discovery

import (
	"github.com/memlink-ipc/memlink/internal/node"
)

// Progression is the callback's verdict after seeing one node.
type Progression int

const (
	// Continue visits the remaining nodes.
	Continue Progression = iota

	// Stop ends the scan early; already-visited nodes stay visited.
	Stop
)

// NodeState is one classified registry entry. It is sealed: the only
// implementations are Alive, Dead, Inaccessible and Undefined.
type NodeState interface {
	isNodeState()

	// ID returns the node the state describes.
	ID() node.ID
}

// Alive is a node whose liveness lock is held by a running process. Its
// details are optional; a node observed mid-registration has none yet.
type Alive struct {
	id      node.ID
	details *node.Details
}

func (Alive) isNodeState() {}

// ID implements NodeState.
func (a Alive) ID() node.ID { return a.id }

// Details returns the node's details document, if it was readable.
func (a Alive) Details() (node.Details, bool) {
	if a.details == nil {
		return node.Details{}, false
	}
	return *a.details, true
}

// Dead is a node whose liveness lock is no longer held: its process is
// gone but its registry entry remains. Its details survive the process
// and are optional for the same reason as Alive's.
type Dead struct {
	id      node.ID
	details *node.Details
}

func (Dead) isNodeState() {}

// ID implements NodeState.
func (d Dead) ID() node.ID { return d.id }

// Details returns the node's details document, if it was readable.
func (d Dead) Details() (node.Details, bool) {
	if d.details == nil {
		return node.Details{}, false
	}
	return *d.details, true
}

// Inaccessible is a registry entry whose liveness cannot be judged, for
// example because the probing process lacks permissions or the entry is
// missing its liveness resource.
type Inaccessible struct {
	id node.ID
}

func (Inaccessible) isNodeState() {}

// ID implements NodeState.
func (i Inaccessible) ID() node.ID { return i.id }

// Undefined is an entry that disappeared between being listed and being
// probed, or whose residue is too inconsistent to classify.
type Undefined struct {
	id node.ID
}

func (Undefined) isNodeState() {}

// ID implements NodeState.
func (u Undefined) ID() node.ID { return u.id }
