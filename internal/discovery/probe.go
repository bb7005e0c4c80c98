package discovery

import (
	"github.com/memlink-ipc/memlink/internal/node"
)

// ProbeResult is the raw evidence a probe gathered about one registry
// entry, before classification.
type ProbeResult struct {
	// Exists reports whether the entry was still present when probed.
	Exists bool

	// Accessible reports whether the entry's liveness resource could be
	// judged at all.
	Accessible bool

	// LockedByLiveProcess reports whether the liveness lock is currently
	// held. Meaningful only when Exists and Accessible.
	LockedByLiveProcess bool

	// DetailsReadable reports whether the details document was read.
	DetailsReadable bool

	// Details is the parsed document. Meaningful only when
	// DetailsReadable.
	Details node.Details
}

// lister enumerates candidate node IDs from a registry.
type lister interface {
	listIDs() ([]node.ID, error)
}

// prober gathers liveness evidence for a single candidate.
type prober interface {
	probe(id node.ID) (ProbeResult, error)
}

// classify turns probe evidence into a NodeState.
func classify(id node.ID, r ProbeResult) NodeState {
	switch {
	case !r.Exists:
		return Undefined{id: id}
	case !r.Accessible:
		return Inaccessible{id: id}
	case r.LockedByLiveProcess:
		a := Alive{id: id}
		if r.DetailsReadable {
			d := r.Details
			a.details = &d
		}
		return a
	default:
		d := Dead{id: id}
		if r.DetailsReadable {
			dd := r.Details
			d.details = &dd
		}
		return d
	}
}
