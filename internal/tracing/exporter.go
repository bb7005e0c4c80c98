package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// FileExporter appends spans to a JSONL file, one SpanRecord per line.
// It implements sdktrace.SpanExporter and is the default way to inspect
// what the registry operations did on a developer machine.
type FileExporter struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileExporter opens (or creates) the trace file at path, creating
// parent directories as needed. Existing content is appended to, so one
// file can collect spans across CLI invocations.
func NewFileExporter(path string) (*FileExporter, error) {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 -- path is cleaned above
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &FileExporter{file: file}, nil
}

// ExportSpans writes one line per span.
func (e *FileExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	encoder := json.NewEncoder(e.file)
	for _, span := range spans {
		if err := encoder.Encode(recordOf(span)); err != nil {
			return fmt.Errorf("encode span: %w", err)
		}
	}
	return nil
}

// Shutdown closes the trace file.
func (e *FileExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file != nil {
		err := e.file.Close()
		e.file = nil
		return err
	}
	return nil
}

// SpanRecord is one exported span. Attribute keys follow the Attr*
// vocabulary in this package (registry.*, node.*, service.*), values are
// rendered as strings so the file stays greppable and jq-friendly.
type SpanRecord struct {
	Trace      string            `json:"trace"`
	Span       string            `json:"span"`
	Parent     string            `json:"parent,omitempty"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind,omitempty"`
	Start      time.Time         `json:"start"`
	DurationUS int64             `json:"duration_us"`
	Error      string            `json:"error,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Events     []EventRecord     `json:"events,omitempty"`
}

// EventRecord is one span event.
type EventRecord struct {
	Name       string            `json:"name"`
	Time       time.Time         `json:"time"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func recordOf(span sdktrace.ReadOnlySpan) SpanRecord {
	sc := span.SpanContext()

	record := SpanRecord{
		Trace:      sc.TraceID().String(),
		Span:       sc.SpanID().String(),
		Name:       span.Name(),
		Start:      span.StartTime(),
		DurationUS: span.EndTime().Sub(span.StartTime()).Microseconds(),
		Attributes: attributesOf(span),
	}
	if span.Parent().IsValid() {
		record.Parent = span.Parent().SpanID().String()
	}
	// All memlink spans are internal; anything else is worth surfacing.
	if kind := span.SpanKind(); kind.String() != "internal" {
		record.Kind = strings.ToLower(kind.String())
	}
	if status := span.Status(); status.Code == codes.Error {
		record.Error = status.Description
		if record.Error == "" {
			record.Error = "unspecified"
		}
	}
	for _, event := range span.Events() {
		attrs := make(map[string]string, len(event.Attributes))
		for _, kv := range event.Attributes {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		record.Events = append(record.Events, EventRecord{
			Name:       event.Name,
			Time:       event.Time,
			Attributes: attrs,
		})
	}
	return record
}

func attributesOf(span sdktrace.ReadOnlySpan) map[string]string {
	if len(span.Attributes()) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(span.Attributes()))
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}
