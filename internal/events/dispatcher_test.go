package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var seen []string

	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		seen = append(seen, "first:"+event.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		seen = append(seen, "second:"+event.TicketID)
		return nil
	})
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		seen = append(seen, "wrong-type")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"})
	require.NoError(t, err)
	require.Equal(t, []string{"first:t-1", "second:t-1"}, seen)
}

func TestPublishSurvivesHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var reached bool

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		return errors.New("subscriber blew up")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
	require.NoError(t, err)
	require.True(t, reached)
}

func TestPublishAsyncDelivers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var mu sync.Mutex
	var delivered bool

	d.Subscribe(EventTicketAutoResolved, func(context.Context, Event) error {
		mu.Lock()
		delivered = true
		mu.Unlock()
		return nil
	})

	d.PublishAsync(Event{Type: EventTicketAutoResolved})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered
	}, time.Second, time.Millisecond)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketQueued}))
}
