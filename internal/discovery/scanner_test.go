package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/names"
	"github.com/memlink-ipc/memlink/internal/node"
	"github.com/memlink-ipc/memlink/internal/service"
	"github.com/memlink-ipc/memlink/internal/tracing"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Global.RootPath = t.TempDir()
	return cfg
}

// plantDeadNode leaves the residue a crashed process leaves: a liveness
// file nobody holds a lock on, next to a readable details document.
func plantDeadNode(t *testing.T, cfg config.Config, name string) node.ID {
	t.Helper()
	id := node.NewID()
	dir := filepath.Join(cfg.NodeDir(), id.String())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, node.LivenessFile), nil, 0o644))

	nodeName, err := names.NewNodeName([]byte(name))
	require.NoError(t, err)
	details := node.Details{Name: nodeName, Config: cfg, Pid: 4242}
	require.NoError(t, node.WriteDetails(filepath.Join(dir, node.DetailsFile), details))
	return id
}

// plantBareEntry leaves a registry directory without a liveness resource.
func plantBareEntry(t *testing.T, cfg config.Config) node.ID {
	t.Helper()
	id := node.NewID()
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.NodeDir(), id.String()), 0o755))
	return id
}

// plantDetailsOnly leaves a details document with no liveness resource, the
// shape of an entry whose liveness cannot be judged.
func plantDetailsOnly(t *testing.T, cfg config.Config) node.ID {
	t.Helper()
	id := node.NewID()
	dir := filepath.Join(cfg.NodeDir(), id.String())
	require.NoError(t, os.MkdirAll(dir, 0o755))

	name, err := names.NewNodeName([]byte("half registered"))
	require.NoError(t, err)
	require.NoError(t, node.WriteDetails(filepath.Join(dir, node.DetailsFile),
		node.Details{Name: name, Config: cfg, Pid: 99}))
	return id
}

func collect(t *testing.T, cfg config.Config) map[string]NodeState {
	t.Helper()
	states := make(map[string]NodeState)
	_, err := List[service.InterProcess](context.Background(), cfg, func(s NodeState) Progression {
		states[s.ID().Key()] = s
		return Continue
	})
	require.NoError(t, err)
	return states
}

func TestScanEmptyRegistry(t *testing.T) {
	visited, err := List[service.InterProcess](context.Background(), testConfig(t),
		func(NodeState) Progression { return Continue })
	require.NoError(t, err)
	require.Zero(t, visited)
}

func TestScanClassifiesAliveNode(t *testing.T) {
	cfg := testConfig(t)
	name, err := names.NewNodeName([]byte("running node"))
	require.NoError(t, err)

	n, err := node.Create[service.InterProcess](node.NewBuilder().Name(name).Config(cfg))
	require.NoError(t, err)
	defer n.Close()

	states := collect(t, cfg)
	require.Len(t, states, 1)

	alive, ok := states[n.ID().Key()].(Alive)
	require.True(t, ok, "expected Alive, got %T", states[n.ID().Key()])

	details, ok := alive.Details()
	require.True(t, ok)
	require.Equal(t, "running node", details.Name.String())
	require.Equal(t, os.Getpid(), details.Pid)
}

func TestScanClassifiesDeadNode(t *testing.T) {
	cfg := testConfig(t)
	id := plantDeadNode(t, cfg, "crashed node")

	states := collect(t, cfg)
	require.Len(t, states, 1)

	dead, ok := states[id.Key()].(Dead)
	require.True(t, ok, "expected Dead, got %T", states[id.Key()])

	details, ok := dead.Details()
	require.True(t, ok)
	require.Equal(t, "crashed node", details.Name.String())
	require.Equal(t, 4242, details.Pid)
}

func TestScanClassifiesDetailsWithoutLiveness(t *testing.T) {
	cfg := testConfig(t)
	id := plantDetailsOnly(t, cfg)

	states := collect(t, cfg)
	require.Len(t, states, 1)
	require.IsType(t, Inaccessible{}, states[id.Key()])
}

func TestScanClassifiesBareEntryAsUndefined(t *testing.T) {
	cfg := testConfig(t)
	id := plantBareEntry(t, cfg)

	// A directory nothing describes: observed, but unexplained.
	states := collect(t, cfg)
	require.Len(t, states, 1)
	require.IsType(t, Undefined{}, states[id.Key()])
}

func TestScanMixedCensus(t *testing.T) {
	cfg := testConfig(t)

	n, err := node.Create[service.InterProcess](node.NewBuilder().Config(cfg))
	require.NoError(t, err)
	defer n.Close()
	deadID := plantDeadNode(t, cfg, "crashed node")
	halfID := plantDetailsOnly(t, cfg)

	states := collect(t, cfg)
	require.Len(t, states, 3)
	require.IsType(t, Alive{}, states[n.ID().Key()])
	require.IsType(t, Dead{}, states[deadID.Key()])
	require.IsType(t, Inaccessible{}, states[halfID.Key()])
}

func TestScanStopsOnCallbackVerdict(t *testing.T) {
	cfg := testConfig(t)
	for i := 0; i < 4; i++ {
		plantDeadNode(t, cfg, "crashed node")
	}

	visited, err := List[service.InterProcess](context.Background(), cfg,
		func(NodeState) Progression { return Stop })
	require.NoError(t, err)
	require.Equal(t, 1, visited)
}

func TestScanCancelledContextReportsInterrupt(t *testing.T) {
	cfg := testConfig(t)
	plantDeadNode(t, cfg, "crashed node")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := List[service.InterProcess](ctx, cfg, func(NodeState) Progression { return Continue })
	require.ErrorIs(t, err, ErrInterrupt)
}

func TestScanIgnoresForeignDirectories(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.NodeDir(), "not a node"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.NodeDir(), "stray-file"), nil, 0o644))

	visited, err := List[service.InterProcess](context.Background(), cfg,
		func(NodeState) Progression { return Continue })
	require.NoError(t, err)
	require.Zero(t, visited)
}

func TestScanUnreadableRegistryFails(t *testing.T) {
	cfg := testConfig(t)

	// A regular file where the node directory should be: the listing
	// itself fails, and the visitor is never invoked.
	require.NoError(t, os.MkdirAll(cfg.Root(), 0o755))
	require.NoError(t, os.WriteFile(cfg.NodeDir(), nil, 0o644))

	visited, err := List[service.InterProcess](context.Background(), cfg,
		func(NodeState) Progression { return Continue })
	require.ErrorIs(t, err, ErrInternalError)
	require.Zero(t, visited)
}

func TestProbeOfVanishedEntryIsUndefined(t *testing.T) {
	cfg := testConfig(t)
	registry := fsRegistry{cfg: cfg}

	// The entry was listed but is gone by probe time.
	result, err := registry.probe(node.NewID())
	require.NoError(t, err)
	require.False(t, result.Exists)
	require.IsType(t, Undefined{}, classify(node.NewID(), result))
}

func TestScanLocalBackend(t *testing.T) {
	cfg := testConfig(t)

	n, err := node.Create[service.IntraProcess](node.NewBuilder().Config(cfg))
	require.NoError(t, err)
	defer n.Close()

	found := false
	_, err = List[service.IntraProcess](context.Background(), cfg, func(s NodeState) Progression {
		if s.ID().Key() != n.ID().Key() {
			// Other tests may have local nodes registered concurrently.
			return Continue
		}
		found = true
		alive, ok := s.(Alive)
		require.True(t, ok, "expected Alive, got %T", s)
		details, ok := alive.Details()
		require.True(t, ok)
		require.Equal(t, os.Getpid(), details.Pid)
		return Stop
	})
	require.NoError(t, err)
	require.True(t, found)
}

func TestCleanupDead(t *testing.T) {
	cfg := testConfig(t)

	n, err := node.Create[service.InterProcess](node.NewBuilder().Config(cfg))
	require.NoError(t, err)
	defer n.Close()
	deadA := plantDeadNode(t, cfg, "crashed a")
	deadB := plantDeadNode(t, cfg, "crashed b")

	removed, err := CleanupDead(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	require.NoDirExists(t, filepath.Join(cfg.NodeDir(), deadA.String()))
	require.NoDirExists(t, filepath.Join(cfg.NodeDir(), deadB.String()))
	require.DirExists(t, filepath.Join(cfg.NodeDir(), n.ID().String()))

	// A second sweep finds nothing left to remove.
	removed, err = CleanupDead(context.Background(), cfg)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestScanRecordsSpan(t *testing.T) {
	cfg := testConfig(t)
	plantDeadNode(t, cfg, "crashed node")

	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   tracePath,
		SampleRate: 1.0,
	})
	require.NoError(t, err)

	visited, err := List[service.InterProcess](context.Background(), cfg,
		func(NodeState) Progression { return Continue },
		WithTracer(provider.Tracer()))
	require.NoError(t, err)
	require.Equal(t, 1, visited)

	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)

	var record tracing.SpanRecord
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	require.Equal(t, "discovery.scan", record.Name)
	require.Equal(t, "ipc", record.Attributes[tracing.AttrRegistryBackend])
	require.Equal(t, cfg.NodeDir(), record.Attributes[tracing.AttrRegistryNodeDir])
	require.Equal(t, "1", record.Attributes[tracing.AttrRegistryVisited])
}
