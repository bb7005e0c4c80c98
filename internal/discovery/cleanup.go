package discovery

import (
	"context"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/log"
	"github.com/memlink-ipc/memlink/internal/node"
	"github.com/memlink-ipc/memlink/internal/service"
)

// CleanupDead scans the on-disk registry and removes the residue of every
// dead node it finds. It returns how many entries were removed. Removal is
// best-effort per node; the first removal failure aborts the sweep.
func CleanupDead(ctx context.Context, cfg config.Config, opts ...Option) (int, error) {
	removed := 0
	var removeErr error

	_, err := List[service.InterProcess](ctx, cfg, func(state NodeState) Progression {
		dead, ok := state.(Dead)
		if !ok {
			return Continue
		}
		if err := node.RemoveResidue(cfg, dead.ID()); err != nil {
			removeErr = err
			return Stop
		}
		if details, ok := dead.Details(); ok {
			log.Info(log.CatDiscovery, "removed dead node",
				"id", dead.ID(), "name", details.Name.String(), "pid", details.Pid)
		} else {
			log.Info(log.CatDiscovery, "removed dead node", "id", dead.ID())
		}
		removed++
		return Continue
	}, opts...)

	if removeErr != nil {
		return removed, removeErr
	}
	return removed, err
}
