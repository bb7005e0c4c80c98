// Package node implements node identity and registration: every
// participating process registers one directory entry per node under the
// domain's node directory, holding a flock-guarded liveness file and a
// details document. The discovery scanner classifies nodes from exactly
// this residue.
package node

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/memlink-ipc/memlink/internal/names"
)

// ID is the unique system identity of a node. It doubles as the node's
// registry directory name, so it is constrained to the file name family.
type ID struct {
	name names.FileName
}

// NewID generates a fresh unique node ID.
func NewID() ID {
	// A generated UUID is always a valid file name.
	return ID{name: names.FileNameUnchecked([]byte(uuid.NewString()))}
}

// ParseID validates raw as a node ID read from a registry directory entry.
func ParseID(raw []byte) (ID, error) {
	n, err := names.NewFileName(raw)
	if err != nil {
		return ID{}, fmt.Errorf("parsing node id: %w", err)
	}
	return ID{name: n}, nil
}

// IDFromName wraps an already-validated file name.
func IDFromName(n names.FileName) ID { return ID{name: n} }

// String returns the ID's textual form.
func (id ID) String() string { return id.name.String() }

// Name returns the underlying identifier.
func (id ID) Name() names.FileName { return id.name }

// Key returns the normalized map key for the ID.
func (id ID) Key() string { return id.name.Key() }
