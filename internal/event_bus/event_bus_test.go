package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("delivers in subscription order", func(t *testing.T) {
		bus := NewEventBus()
		calls := make([]int, 0)
		for i := 1; i <= 5; i++ {
			n := i
			bus.Subscribe(InputKeyPressed, func(Event) error {
				calls = append(calls, n)
				return nil
			})
		}

		err := bus.Publish(NewEvent(context.Background(), InputKeyPressed, nil))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
	})

	t.Run("unsubscribe removes only that handler", func(t *testing.T) {
		bus := NewEventBus()
		first, second := 0, 0
		unsubFirst := bus.Subscribe(InputPointerMoved, func(Event) error { first++; return nil })
		bus.Subscribe(InputPointerMoved, func(Event) error { second++; return nil })

		unsubFirst()
		unsubFirst()
		require.NoError(t, bus.Publish(NewEvent(context.Background(), InputPointerMoved, nil)))

		assert.Equal(t, 0, first)
		assert.Equal(t, 1, second)
		assert.Equal(t, 1, bus.SubscriberCount(InputPointerMoved))
	})

	t.Run("collects handler errors and recovers panics", func(t *testing.T) {
		bus := NewEventBus()
		reached := false
		bus.Subscribe(SessionExpired, func(Event) error { return errors.New("boom") })
		bus.Subscribe(SessionExpired, func(Event) error { panic("bad handler") })
		bus.Subscribe(SessionExpired, func(Event) error { reached = true; return nil })

		err := bus.Publish(NewEvent(context.Background(), SessionExpired, nil))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 handler(s) failed")
		assert.True(t, reached)
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		bus.Subscribe(InputKeyPressed, func(Event) error { called = true; return nil })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.Publish(NewEvent(ctx, InputKeyPressed, nil))

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var got []SessionChange
	unsub := SubscribeTyped(bus, SessionExpired, func(e EventT[SessionChange]) error {
		got = append(got, e.Data)
		return nil
	})
	defer unsub()

	require.NoError(t, bus.Publish(NewEvent(context.Background(), SessionExpired, "not a session change")))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), SessionExpired, nil)))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), SessionExpired,
		SessionChange{Reason: ReasonIdleTimeout, Notice: "bye"})))

	require.Len(t, got, 1)
	assert.Equal(t, ReasonIdleTimeout, got[0].Reason)
	assert.Equal(t, "bye", got[0].Notice)
}

func TestSubscribeTyped_KeepsEventID(t *testing.T) {
	bus := NewEventBus()
	var got string
	unsub := SubscribeTyped(bus, SessionLoggedIn, func(e EventT[SessionChange]) error {
		got = e.ID
		return nil
	})
	defer unsub()
	event := NewEvent(context.Background(), SessionLoggedIn, SessionChange{})

	require.NoError(t, bus.Publish(event))

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, event.ID, got)
	assert.NotEqual(t, event.ID, NewEvent(context.Background(), SessionLoggedIn, nil).ID)
}
