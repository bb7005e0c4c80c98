// Package pubsub provides the generic publish/subscribe broker that backs
// the intra-process service backend and in-process lifecycle notifications.
package pubsub

import (
	"context"
	"time"
)

// EventType labels what happened to the payload.
type EventType string

// Registry lifecycle events published by the in-process registry and the
// logging subsystem.
const (
	NodeRegistered   EventType = "node-registered"
	NodeDeregistered EventType = "node-deregistered"
	ServiceCreated   EventType = "service-created"
	ServiceRemoved   EventType = "service-removed"
	SamplePublished  EventType = "sample-published"
	EventNotified    EventType = "event-notified"
	EntryLogged      EventType = "entry-logged"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
