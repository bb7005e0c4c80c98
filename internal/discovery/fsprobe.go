package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/log"
	"github.com/memlink-ipc/memlink/internal/node"
)

// fsRegistry lists and probes the on-disk node registry of a domain.
type fsRegistry struct {
	cfg config.Config
}

func (f fsRegistry) listIDs() ([]node.ID, error) {
	entries, err := os.ReadDir(f.cfg.NodeDir())
	if err != nil {
		if os.IsNotExist(err) {
			// No node ever registered in this domain.
			return nil, nil
		}
		return nil, err
	}

	ids := make([]node.ID, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := node.ParseID([]byte(entry.Name()))
		if err != nil {
			// Foreign directories in the registry are not node entries.
			log.Warn(log.CatDiscovery, "skipping unparsable registry entry", "name", entry.Name())
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// probe judges one entry from its liveness lock. Taking a shared lock on
// the liveness file succeeds only once the registering process has died,
// because registration holds the exclusive lock for the node's lifetime.
func (f fsRegistry) probe(id node.ID) (ProbeResult, error) {
	dir := filepath.Join(f.cfg.NodeDir(), id.String())

	liveness, err := os.Open(filepath.Join(dir, node.LivenessFile))
	if err != nil {
		switch {
		case os.IsNotExist(err):
			if _, statErr := os.Stat(filepath.Join(dir, node.DetailsFile)); statErr == nil {
				// Something describes the node but its liveness cannot
				// be judged.
				return ProbeResult{Exists: true}, nil
			}
			// Nothing describes the entry: it disappeared since listing,
			// or only its empty directory ever existed.
			return ProbeResult{}, nil
		case os.IsPermission(err):
			return ProbeResult{Exists: true}, nil
		default:
			return ProbeResult{}, err
		}
	}
	defer liveness.Close()

	result := ProbeResult{Exists: true, Accessible: true}
	switch err := syscall.Flock(int(liveness.Fd()), syscall.LOCK_SH|syscall.LOCK_NB); {
	case err == nil:
		// Nobody holds the exclusive lock; the owning process is gone.
		_ = syscall.Flock(int(liveness.Fd()), syscall.LOCK_UN)
	case errors.Is(err, syscall.EWOULDBLOCK):
		result.LockedByLiveProcess = true
	default:
		return ProbeResult{}, err
	}

	if details, err := node.ReadDetails(filepath.Join(dir, node.DetailsFile)); err == nil {
		result.DetailsReadable = true
		result.Details = details
	}
	return result, nil
}

// memRegistry adapts the in-process registry to the probe interfaces.
// Entries are alive as long as they are present; the registry cannot
// outlive the process that owns it.
type memRegistry struct {
	reg *node.LocalRegistry
}

func (m memRegistry) listIDs() ([]node.ID, error) {
	return m.reg.Snapshot(), nil
}

func (m memRegistry) probe(id node.ID) (ProbeResult, error) {
	details, ok := m.reg.Lookup(id)
	if !ok {
		return ProbeResult{}, nil
	}
	return ProbeResult{
		Exists:              true,
		Accessible:          true,
		LockedByLiveProcess: true,
		DetailsReadable:     true,
		Details:             details,
	}, nil
}
