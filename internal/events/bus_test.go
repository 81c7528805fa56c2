package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe()
	ch2, cancel2 := bus.Subscribe()
	defer cancel1()
	defer cancel2()

	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(Event{Type: TypeScanStarted, RunID: "run-1"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			assert.Equal(t, TypeScanStarted, evt.Type)
			assert.Equal(t, "run-1", evt.RunID)
			assert.False(t, evt.Timestamp.IsZero(), "publish must stamp a timestamp")
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBusPublishDropsWhenBufferFull(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	defer cancel()

	// Fill the buffer and keep publishing; none of it may block
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			bus.Publish(Event{Type: TypeCoinAnalyzed})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The subscriber still sees a full buffer of events
	require.Len(t, ch, 64)
}

func TestBusCancelClosesChannelOnce(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	cancel()
	assert.Zero(t, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// A second cancel is a no-op, not a double close
	assert.NotPanics(t, cancel)
}

func TestBusPublishAfterCancel(t *testing.T) {
	bus := NewBus()

	_, cancel := bus.Subscribe()
	cancel()

	assert.NotPanics(t, func() {
		bus.Publish(Event{Type: TypeScanFinished})
	})
}
