package events

import (
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventActivityCreated)

	bus.Publish(EventActivityCreated, Payload{"trip_id": "t1", "activity_id": "a1"})

	select {
	case payload := <-sub:
		if payload["trip_id"] != "t1" {
			t.Fatalf("expected trip_id t1, got %v", payload["trip_id"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusPublishSkipsSlowSubscribers(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventVoteCast)

	// Fill the channel buffer; further publishes must not block.
	for i := 0; i < 20; i++ {
		bus.Publish(EventVoteCast, Payload{"n": i})
	}

	drained := 0
	for {
		select {
		case <-sub:
			drained++
		default:
			if drained == 0 {
				t.Fatal("expected at least one buffered event")
			}
			return
		}
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventTripUpdated)
	bus.Unsubscribe(EventTripUpdated, sub)

	if _, ok := <-sub; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(EventTripUpdated, Payload{"trip_id": "t1"})
}
