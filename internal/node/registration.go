package node

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/log"
)

// Registration is a node's on-disk presence: the registry directory, the
// details document and the held liveness lock. Dropping the lock without
// removing the files is exactly what a crash leaves behind, and what the
// scanner later classifies as a dead node.
type Registration struct {
	id       ID
	dir      string
	liveness *os.File
}

// Register materializes the node under the domain's node directory. The
// liveness file is created and exclusively flock'ed before the details
// document appears, so a concurrent scan never sees details without a
// liveness resource.
func Register(cfg config.Config, id ID, details Details) (*Registration, error) {
	dir := filepath.Join(cfg.NodeDir(), id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: every domain participant reads the registry
		return nil, fmt.Errorf("creating node directory: %w", err)
	}

	liveness, err := os.OpenFile(filepath.Join(dir, LivenessFile), os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // G302: every domain participant probes this file
	if err != nil {
		return nil, fmt.Errorf("creating liveness file: %w", err)
	}
	if err := syscall.Flock(int(liveness.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = liveness.Close()
		return nil, fmt.Errorf("acquiring liveness lock (node id collision?): %w", err)
	}

	if err := WriteDetails(filepath.Join(dir, DetailsFile), details); err != nil {
		_ = liveness.Close()
		return nil, err
	}

	log.Debug(log.CatNode, "node registered", "id", id, "dir", dir)
	return &Registration{id: id, dir: dir, liveness: liveness}, nil
}

// ID returns the registered node's ID.
func (r *Registration) ID() ID { return r.id }

// Dir returns the node's registry directory.
func (r *Registration) Dir() string { return r.dir }

// Close releases the liveness lock and removes the node's registry entry.
// The lock is released implicitly by closing the file, so even a partial
// failure here degrades to the crash case the scanner already handles.
func (r *Registration) Close() error {
	if r.liveness == nil {
		return nil
	}
	closeErr := r.liveness.Close()
	r.liveness = nil

	if err := os.RemoveAll(r.dir); err != nil {
		return fmt.Errorf("removing node directory: %w", err)
	}
	log.Debug(log.CatNode, "node deregistered", "id", r.id)
	return closeErr
}

// sweepDeadResidue removes registry entries whose liveness lock nobody
// holds. It runs at node creation when the domain enables it. Best-effort:
// entries that resist probing or removal are left for the next sweep.
func sweepDeadResidue(cfg config.Config) {
	entries, err := os.ReadDir(cfg.NodeDir())
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := ParseID([]byte(entry.Name()))
		if err != nil {
			continue
		}
		liveness, err := os.Open(filepath.Join(cfg.NodeDir(), entry.Name(), LivenessFile))
		if err != nil {
			continue
		}
		// A shared lock succeeding means the owner is gone.
		if syscall.Flock(int(liveness.Fd()), syscall.LOCK_SH|syscall.LOCK_NB) == nil {
			_ = syscall.Flock(int(liveness.Fd()), syscall.LOCK_UN)
			_ = liveness.Close()
			if err := RemoveResidue(cfg, id); err == nil {
				log.Info(log.CatNode, "swept dead node at creation", "id", id)
			}
			continue
		}
		_ = liveness.Close()
	}
}

// RemoveResidue deletes the registry entry of a node that is no longer
// alive. It is best-effort; the entry may already be gone.
func RemoveResidue(cfg config.Config, id ID) error {
	dir := filepath.Join(cfg.NodeDir(), id.String())
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing dead node residue: %w", err)
	}
	log.Debug(log.CatNode, "dead node residue removed", "id", id)
	return nil
}
