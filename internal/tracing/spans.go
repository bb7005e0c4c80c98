package tracing

// Span attribute keys for registry tracing. These constants define the
// semantic conventions for span attributes across memlink.
const (
	// Registry scan attributes
	AttrRegistryBackend = "registry.backend"
	AttrRegistryNodeDir = "registry.node_dir"
	AttrRegistryVisited = "registry.visited"

	// Node attributes
	AttrNodeID   = "node.id"
	AttrNodeName = "node.name"

	// Service attributes
	AttrServiceName    = "service.name"
	AttrServicePattern = "service.pattern"
	AttrServiceBackend = "service.backend"

	// Error attributes
	AttrErrorCode = "error.code"
)

// Span name prefixes per subsystem.
const (
	SpanPrefixDiscovery = "discovery."
	SpanPrefixNode      = "node."
	SpanPrefixService   = "service."
)
