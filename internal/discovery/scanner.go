package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/log"
	"github.com/memlink-ipc/memlink/internal/node"
	"github.com/memlink-ipc/memlink/internal/service"
	"github.com/memlink-ipc/memlink/internal/tracing"
)

// Scan failures, stable across releases. Everything the underlying
// platform reports is folded into one of these three.
var (
	// ErrInterrupt reports a scan cut short by a signal.
	ErrInterrupt = errors.New("scan was interrupted by a signal")

	// ErrInsufficientPermissions reports a registry the scanning process
	// may not read.
	ErrInsufficientPermissions = errors.New("insufficient permissions to scan the node registry")

	// ErrInternalError reports any other platform failure.
	ErrInternalError = errors.New("internal failure while scanning the node registry")
)

// Callback receives one classified node per call and decides whether the
// scan visits the rest.
type Callback func(NodeState) Progression

type scanOptions struct {
	tracer trace.Tracer
}

// Option customizes a scan.
type Option func(*scanOptions)

// WithTracer records the scan as a span on the given tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *scanOptions) { o.tracer = t }
}

// registryFor selects the registry views for a backend.
func registryFor[B service.Backend](cfg config.Config) (lister, prober) {
	var backend B
	switch any(backend).(type) {
	case service.InterProcess:
		r := fsRegistry{cfg: cfg}
		return r, r
	default:
		r := memRegistry{reg: node.DefaultLocal}
		return r, r
	}
}

// List scans backend B's node registry in the domain described by cfg and
// hands every entry's state to fn. It returns how many nodes were visited.
// A Stop verdict ends the scan without error; errors from the underlying
// registry abort it.
func List[B service.Backend](ctx context.Context, cfg config.Config, fn Callback, opts ...Option) (int, error) {
	options := scanOptions{tracer: noop.NewTracerProvider().Tracer("noop")}
	for _, opt := range opts {
		opt(&options)
	}

	var backend B
	ctx, span := options.tracer.Start(ctx, tracing.SpanPrefixDiscovery+"scan",
		trace.WithAttributes(
			attribute.String(tracing.AttrRegistryBackend, backend.BackendName()),
			attribute.String(tracing.AttrRegistryNodeDir, cfg.NodeDir()),
		))
	defer span.End()

	ls, pr := registryFor[B](cfg)

	ids, err := ls.listIDs()
	if err != nil {
		return 0, classifyScanError(err)
	}

	visited := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			span.SetAttributes(attribute.Int(tracing.AttrRegistryVisited, visited))
			return visited, fmt.Errorf("%w: %v", ErrInterrupt, err)
		}

		result, err := pr.probe(id)
		if err != nil {
			span.SetAttributes(attribute.Int(tracing.AttrRegistryVisited, visited))
			return visited, classifyScanError(err)
		}

		visited++
		if fn(classify(id, result)) == Stop {
			log.Debug(log.CatDiscovery, "scan stopped by callback", "visited", visited)
			break
		}
	}

	span.SetAttributes(attribute.Int(tracing.AttrRegistryVisited, visited))
	return visited, nil
}

// classifyScanError folds platform errors into the stable scan failures.
func classifyScanError(err error) error {
	switch {
	case errors.Is(err, syscall.EINTR):
		return fmt.Errorf("%w: %v", ErrInterrupt, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %v", ErrInsufficientPermissions, err)
	default:
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
}
