package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/log"
	"github.com/memlink-ipc/memlink/internal/names"
	"github.com/memlink-ipc/memlink/internal/tracing"
)

// Default limits applied when a builder setter is not called.
const (
	DefaultMaxNotifiers = 16
	DefaultMaxListeners = 2
	DefaultEventIDMax   = uint64(4294967295)

	DefaultMaxPublishers           = 2
	DefaultMaxSubscribers          = 8
	DefaultHistorySize             = 0
	DefaultSubscriberMaxBufferSize = 2
)

// Builder is the entry point for acquiring a service. It carries only the
// target name and domain; it must be specialized with Event or
// PublishSubscribe before anything can be created or opened.
//
// A Builder is single-use. Specializing it a second time panics: the two
// specializations would otherwise race for the same registration.
type Builder[B Backend] struct {
	cfg      config.Config
	name     names.ServiceName
	tracer   trace.Tracer
	consumed bool
}

// NewBuilder starts building a service with the given name inside the
// domain described by cfg.
func NewBuilder[B Backend](cfg config.Config, name names.ServiceName) *Builder[B] {
	return &Builder[B]{
		cfg:    cfg,
		name:   name,
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
}

// Tracer records create and open calls as spans on t. The tracer carries
// through specialization.
func (b *Builder[B]) Tracer(t trace.Tracer) *Builder[B] {
	b.tracer = t
	return b
}

func (b *Builder[B]) consume() {
	if b.consumed {
		panic("service builder specialized twice")
	}
	b.consumed = true
}

// Event specializes a builder for the event messaging pattern. The base
// builder is consumed and must not be used again.
func Event[B Backend](b *Builder[B]) *EventBuilder[B] {
	b.consume()
	return &EventBuilder[B]{
		cfg:    b.cfg,
		name:   b.name,
		tracer: b.tracer,
		limits: EventConfig{
			MaxNotifiers: DefaultMaxNotifiers,
			MaxListeners: DefaultMaxListeners,
			EventIDMax:   DefaultEventIDMax,
		},
	}
}

// PublishSubscribe specializes a builder for the publish-subscribe
// messaging pattern with the given payload type. The base builder is
// consumed and must not be used again.
func PublishSubscribe[B Backend, Payload any](b *Builder[B]) *PubSubBuilder[B] {
	b.consume()
	return &PubSubBuilder[B]{
		cfg:    b.cfg,
		name:   b.name,
		tracer: b.tracer,
		limits: PubSubConfig{
			MaxPublishers:           DefaultMaxPublishers,
			MaxSubscribers:          DefaultMaxSubscribers,
			HistorySize:             DefaultHistorySize,
			SubscriberMaxBufferSize: DefaultSubscriberMaxBufferSize,
			Payload:                 DetailOf[Payload](TypeVariantFixedSize),
		},
	}
}

// WithUserHeader attaches a user header type to a publish-subscribe
// builder. Openers must declare the same header layout.
func WithUserHeader[B Backend, H any](pb *PubSubBuilder[B]) *PubSubBuilder[B] {
	pb.limits.UserHeader = DetailOf[H](TypeVariantFixedSize)
	return pb
}

// EventBuilder configures and acquires an event service.
type EventBuilder[B Backend] struct {
	cfg    config.Config
	name   names.ServiceName
	tracer trace.Tracer
	limits EventConfig
	attrs  Attributes
}

// MaxNotifiers caps how many notifiers the service supports.
func (b *EventBuilder[B]) MaxNotifiers(n int) *EventBuilder[B] {
	b.limits.MaxNotifiers = n
	return b
}

// MaxListeners caps how many listeners the service supports.
func (b *EventBuilder[B]) MaxListeners(n int) *EventBuilder[B] {
	b.limits.MaxListeners = n
	return b
}

// EventIDMax sets the largest event ID a notifier may emit.
func (b *EventBuilder[B]) EventIDMax(id uint64) *EventBuilder[B] {
	b.limits.EventIDMax = id
	return b
}

// Attributes sets the attributes stored with the service on create.
func (b *EventBuilder[B]) Attributes(attrs Attributes) *EventBuilder[B] {
	b.attrs = attrs
	return b
}

func (b *EventBuilder[B]) static() StaticConfig {
	limits := b.limits
	return StaticConfig{
		ServiceID:  IDFor(b.name),
		Name:       b.name.String(),
		Backend:    backendOf[B]().BackendName(),
		Pattern:    PatternEvent,
		Attributes: b.attrs,
		Event:      &limits,
	}
}

// Create registers the service, failing with ErrAlreadyExists if another
// participant got there first.
func (b *EventBuilder[B]) Create() (*Service[B], error) {
	return create[B](b.tracer, b.cfg, b.static())
}

// Open attaches to an existing service, verifying it speaks the event
// pattern and satisfies the given attribute requirements.
func (b *EventBuilder[B]) Open(v *Verifier) (*Service[B], error) {
	sc, err := open[B](b.tracer, b.cfg, b.name, PatternEvent, v)
	if err != nil {
		return nil, err
	}
	return &Service[B]{static: sc, st: storeFor[B](b.cfg)}, nil
}

// OpenOrCreate opens the service if it exists and creates it otherwise.
// Attribute requirements apply only on the open path.
func (b *EventBuilder[B]) OpenOrCreate(v *Verifier) (*Service[B], error) {
	for {
		svc, err := b.Open(v)
		if !errors.Is(err, ErrDoesNotExist) {
			return svc, err
		}
		svc, err = b.Create()
		if !errors.Is(err, ErrAlreadyExists) {
			return svc, err
		}
		// Lost both races back to back; another participant created and
		// removed the service in between. Start over.
	}
}

// PubSubBuilder configures and acquires a publish-subscribe service.
type PubSubBuilder[B Backend] struct {
	cfg    config.Config
	name   names.ServiceName
	tracer trace.Tracer
	limits PubSubConfig
	attrs  Attributes
}

// MaxPublishers caps how many publishers the service supports.
func (b *PubSubBuilder[B]) MaxPublishers(n int) *PubSubBuilder[B] {
	b.limits.MaxPublishers = n
	return b
}

// MaxSubscribers caps how many subscribers the service supports.
func (b *PubSubBuilder[B]) MaxSubscribers(n int) *PubSubBuilder[B] {
	b.limits.MaxSubscribers = n
	return b
}

// HistorySize sets how many past samples a late subscriber receives.
func (b *PubSubBuilder[B]) HistorySize(n int) *PubSubBuilder[B] {
	b.limits.HistorySize = n
	return b
}

// SubscriberMaxBufferSize caps each subscriber's sample buffer.
func (b *PubSubBuilder[B]) SubscriberMaxBufferSize(n int) *PubSubBuilder[B] {
	b.limits.SubscriberMaxBufferSize = n
	return b
}

// Attributes sets the attributes stored with the service on create.
func (b *PubSubBuilder[B]) Attributes(attrs Attributes) *PubSubBuilder[B] {
	b.attrs = attrs
	return b
}

func (b *PubSubBuilder[B]) static() StaticConfig {
	limits := b.limits
	return StaticConfig{
		ServiceID:  IDFor(b.name),
		Name:       b.name.String(),
		Backend:    backendOf[B]().BackendName(),
		Pattern:    PatternPublishSubscribe,
		Attributes: b.attrs,
		PubSub:     &limits,
	}
}

// Create registers the service, failing with ErrAlreadyExists if another
// participant got there first.
func (b *PubSubBuilder[B]) Create() (*Service[B], error) {
	return create[B](b.tracer, b.cfg, b.static())
}

// Open attaches to an existing service, verifying pattern, payload and
// header layout, and the given attribute requirements.
func (b *PubSubBuilder[B]) Open(v *Verifier) (*Service[B], error) {
	sc, err := open[B](b.tracer, b.cfg, b.name, PatternPublishSubscribe, v)
	if err != nil {
		return nil, err
	}
	if sc.PubSub == nil || !sc.PubSub.Payload.Equal(b.limits.Payload) {
		return nil, fmt.Errorf("service %q payload: %w", b.name.String(), ErrIncompatibleTypes)
	}
	if !sc.PubSub.UserHeader.Equal(b.limits.UserHeader) {
		return nil, fmt.Errorf("service %q user header: %w", b.name.String(), ErrIncompatibleTypes)
	}
	return &Service[B]{static: sc, st: storeFor[B](b.cfg)}, nil
}

// OpenOrCreate opens the service if it exists and creates it otherwise.
func (b *PubSubBuilder[B]) OpenOrCreate(v *Verifier) (*Service[B], error) {
	for {
		svc, err := b.Open(v)
		if !errors.Is(err, ErrDoesNotExist) {
			return svc, err
		}
		svc, err = b.Create()
		if !errors.Is(err, ErrAlreadyExists) {
			return svc, err
		}
	}
}

func create[B Backend](tr trace.Tracer, cfg config.Config, sc StaticConfig) (*Service[B], error) {
	_, span := tr.Start(context.Background(), tracing.SpanPrefixService+"create",
		trace.WithAttributes(
			attribute.String(tracing.AttrServiceName, sc.Name),
			attribute.String(tracing.AttrServicePattern, sc.Pattern.String()),
			attribute.String(tracing.AttrServiceBackend, sc.Backend),
		))
	defer span.End()

	st := storeFor[B](cfg)
	if err := st.create(sc); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	log.Debug(log.CatService, "service created",
		"name", sc.Name, "pattern", sc.Pattern.String(), "backend", sc.Backend)
	return &Service[B]{static: sc, st: st}, nil
}

func open[B Backend](tr trace.Tracer, cfg config.Config, name names.ServiceName, pattern MessagingPattern, v *Verifier) (StaticConfig, error) {
	_, span := tr.Start(context.Background(), tracing.SpanPrefixService+"open",
		trace.WithAttributes(
			attribute.String(tracing.AttrServiceName, name.String()),
			attribute.String(tracing.AttrServicePattern, pattern.String()),
			attribute.String(tracing.AttrServiceBackend, backendOf[B]().BackendName()),
		))
	defer span.End()

	sc, err := openStatic[B](cfg, name, pattern, v)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return StaticConfig{}, err
	}
	return sc, nil
}

func openStatic[B Backend](cfg config.Config, name names.ServiceName, pattern MessagingPattern, v *Verifier) (StaticConfig, error) {
	st := storeFor[B](cfg)
	sc, err := st.read(IDFor(name))
	if err != nil {
		if errors.Is(err, ErrDoesNotExist) {
			return StaticConfig{}, fmt.Errorf("service %q: %w", name.String(), ErrDoesNotExist)
		}
		return StaticConfig{}, err
	}
	if sc.Pattern != pattern {
		return StaticConfig{}, fmt.Errorf("service %q is %s: %w",
			name.String(), sc.Pattern.String(), ErrIncompatibleMessagingPattern)
	}
	if err := v.Verify(sc.Attributes); err != nil {
		return StaticConfig{}, err
	}
	return sc, nil
}
