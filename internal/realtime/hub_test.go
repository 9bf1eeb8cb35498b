package realtime

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func receiveEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before event arrived")
		}
		return event
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func TestHubPublishReachesAllSubscribers(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown()

	chA, cancelA := hub.Subscribe("user-a")
	defer cancelA()
	chB, cancelB := hub.Subscribe("user-b")
	defer cancelB()

	hub.Publish(Event{Table: "posts", Action: ActionInsert})

	for _, ch := range []<-chan Event{chA, chB} {
		event := receiveEvent(t, ch)
		if event.Table != "posts" || event.Action != ActionInsert {
			t.Fatalf("unexpected event: %+v", event)
		}
	}
}

func TestHubPublishToTargetsOneUser(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown()

	chA, cancelA := hub.Subscribe("user-a")
	defer cancelA()
	chB, cancelB := hub.Subscribe("user-b")
	defer cancelB()

	hub.PublishTo("user-a", SessionRevokedEvent())

	event := receiveEvent(t, chA)
	if event.Table != "sessions" || event.Action != ActionDelete {
		t.Fatalf("unexpected event: %+v", event)
	}

	select {
	case event := <-chB:
		t.Fatalf("user-b should not receive targeted event, got %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown()

	ch, cancel := hub.Subscribe("user-a")
	cancel()
	cancel() // idempotent

	hub.Publish(Event{Table: "comments", Action: ActionInsert})

	select {
	case event, ok := <-ch:
		if ok {
			t.Fatalf("cancelled subscriber received event: %+v", event)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := newTestHub()
	defer hub.Shutdown()

	ch, cancel := hub.Subscribe("user-a")
	defer cancel()

	// Fill the buffer plus one to force the drop path.
	for i := 0; i < cap(ch)+1; i++ {
		hub.Publish(Event{Table: "likes", Action: ActionInsert})
	}

	drained := 0
	for range ch {
		drained++
	}
	if drained != cap(ch) {
		t.Fatalf("expected %d buffered events before close, drained %d", cap(ch), drained)
	}
}

func TestHubShutdownClosesSubscribers(t *testing.T) {
	hub := newTestHub()

	ch, cancel := hub.Subscribe("user-a")
	defer cancel()

	hub.Shutdown()

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after shutdown")
	}

	late, lateCancel := hub.Subscribe("user-b")
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Fatalf("expected subscription after shutdown to be closed")
	}
}
