package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEventBroadcaster_SubscribeAndBroadcast(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch)

	event := ProgressEvent{
		JobID:       "job-1",
		State:       StateRunning,
		Generation:  3,
		BestFitness: 12.5,
		Timestamp:   time.Now(),
	}
	eb.Broadcast(event)

	select {
	case got := <-ch:
		if got.Generation != 3 || got.BestFitness != 12.5 {
			t.Errorf("Unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestEventBroadcaster_LastEventReplay(t *testing.T) {
	eb := NewEventBroadcaster()

	eb.Broadcast(ProgressEvent{JobID: "job-r", Generation: 5, BestFitness: 2})

	// A client subscribing after the fact still sees the latest state.
	ch := eb.Subscribe("job-r")
	defer eb.Unsubscribe("job-r", ch)

	select {
	case got := <-ch:
		if got.Generation != 5 {
			t.Errorf("Generation = %d, want replayed 5", got.Generation)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected last event replay on subscribe")
	}
}

func TestEventBroadcaster_IsolatesJobs(t *testing.T) {
	eb := NewEventBroadcaster()

	chA := eb.Subscribe("job-a")
	defer eb.Unsubscribe("job-a", chA)
	chB := eb.Subscribe("job-b")
	defer eb.Unsubscribe("job-b", chB)

	eb.Broadcast(ProgressEvent{JobID: "job-a", Generation: 1})

	select {
	case <-chA:
	case <-time.After(time.Second):
		t.Fatal("job-a subscriber should receive its event")
	}

	select {
	case got := <-chB:
		t.Errorf("job-b subscriber received foreign event: %+v", got)
	default:
	}
}

func TestEventBroadcaster_Unsubscribe(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-u")
	eb.Unsubscribe("job-u", ch)

	// Channel is closed on unsubscribe.
	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after unsubscribe")
	}

	// Broadcasting after unsubscribe must not panic.
	eb.Broadcast(ProgressEvent{JobID: "job-u", Generation: 1})
}

func TestEventBroadcaster_CleanupJob(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-c")
	eb.Broadcast(ProgressEvent{JobID: "job-c", Generation: 2})
	<-ch

	eb.CleanupJob("job-c")

	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after cleanup")
	}

	// Cached last event is gone, so a new subscriber sees nothing.
	fresh := eb.Subscribe("job-c")
	defer eb.Unsubscribe("job-c", fresh)
	select {
	case got := <-fresh:
		t.Errorf("Expected no replay after cleanup, got %+v", got)
	default:
	}
}

func TestWriteSSEEvent_Format(t *testing.T) {
	w := httptest.NewRecorder()

	event := ProgressEvent{JobID: "j", State: StateRunning, Generation: 1}
	if err := writeSSEEvent(w, event); err != nil {
		t.Fatalf("writeSSEEvent failed: %v", err)
	}

	out := w.Body.String()
	if !strings.HasPrefix(out, "data: ") {
		t.Errorf("Output should start with data prefix: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Output should end with blank line: %q", out)
	}
	if !strings.Contains(out, `"generation":1`) {
		t.Errorf("Output should contain event JSON: %q", out)
	}
}
