package events

import (
	"testing"
	"time"
)

const testEventType EventType = "test_event"

type testEvent struct {
	BaseEvent
	Payload string
}

func newTestEvent(payload string) *testEvent {
	return &testEvent{BaseEvent: NewBase(testEventType), Payload: payload}
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	ch := bus.Subscribe(testEventType)
	bus.Publish(newTestEvent("hello"))

	select {
	case received := <-ch:
		ev, ok := received.(*testEvent)
		if !ok {
			t.Fatal("Expected testEvent")
		}
		if ev.Payload != "hello" {
			t.Errorf("Expected payload 'hello', got '%s'", ev.Payload)
		}
		if ev.Type() != testEventType {
			t.Errorf("Expected type %s, got %s", testEventType, ev.Type())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(testEventType)
	ch2 := bus.Subscribe(testEventType)

	bus.Publish(newTestEvent("broadcast"))

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Subscriber %d did not receive the event", i+1)
		}
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	all := bus.Subscribe(testEventType)
	other := bus.SubscribeAll()

	bus.Publish(newTestEvent("one"))
	bus.Publish(&testEvent{BaseEvent: NewBase("other_event"), Payload: "two"})

	// The typed subscriber sees only its type.
	select {
	case ev := <-all:
		if ev.Type() != testEventType {
			t.Errorf("Typed subscriber got %s", ev.Type())
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Typed subscriber timed out")
	}

	// The catch-all subscriber sees both.
	for i := 0; i < 2; i++ {
		select {
		case <-other:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Catch-all subscriber missed event %d", i+1)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	ch := bus.Subscribe(testEventType)
	bus.Unsubscribe(testEventType, ch)

	bus.Publish(newTestEvent("ignored"))

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Received event after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_NonBlockingPublishDrops(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	bus.Subscribe(testEventType) // never drained

	// Fill the buffer, then overflow it. Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.Publish(newTestEvent("burst"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if got := bus.DroppedEventCount(); got == 0 {
		t.Error("Expected dropped events to be counted")
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(10)
	ch := bus.Subscribe(testEventType)
	bus.Close()

	// Must not panic.
	bus.Publish(newTestEvent("late"))

	if _, ok := <-ch; ok {
		t.Error("Subscriber channel not closed on bus close")
	}
}
