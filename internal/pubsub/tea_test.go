package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListenCmd_ReturnsEvent(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx := context.Background()
	ch := broker.Subscribe(ctx)

	broker.Publish(NodeRegistered, "node-1")

	cmd := ListenCmd(ctx, ch)
	msg := cmd()

	event, ok := msg.(Event[string])
	require.True(t, ok)
	require.Equal(t, "node-1", event.Payload)
}

func TestListenCmd_NilOnCancelledContext(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	cmd := ListenCmd(ctx, ch)
	require.Nil(t, cmd())
}

func TestContinuousListener_RearmsAcrossEvents(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewContinuousListener(ctx, broker)

	go func() {
		broker.Publish(EventNotified, 1)
		time.Sleep(10 * time.Millisecond)
		broker.Publish(EventNotified, 2)
	}()

	first := listener.Listen()()
	second := listener.Listen()()

	require.Equal(t, 1, first.(Event[int]).Payload)
	require.Equal(t, 2, second.(Event[int]).Payload)
}
