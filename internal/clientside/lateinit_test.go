package clientside

import (
	"testing"

	"xwaylandbridge/internal/store"
)

// Events buffered before the key is assigned must come back out in
// arrival order, exactly once.
func TestLateInitFlushOrder(t *testing.T) {
	l := &LateInitObjectKey{}
	l.Push("tool-type")
	l.Push("tool-hwid")
	l.Push("tool-done")

	out := l.init(store.ObjectKey{})
	if len(out) != 3 {
		t.Fatalf("got %d buffered events, want 3", len(out))
	}
	for i, want := range []string{"tool-type", "tool-hwid", "tool-done"} {
		if out[i] != want {
			t.Fatalf("event %d = %v, want %q", i, out[i], want)
		}
	}

	if again := l.init(store.ObjectKey{}); len(again) != 0 {
		t.Fatalf("second flush returned %d events, want 0", len(again))
	}
}

func TestQueueEventOrdering(t *testing.T) {
	q := &Queue{}
	s := store.New()
	k1 := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{}))
	k2 := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{}))

	q.Push(k1, "first")
	q.Push(k2, "second")
	q.Push(k1, "third")

	evs := q.TakeEvents()
	if len(evs) != 3 {
		t.Fatalf("got %d events, want 3", len(evs))
	}
	if evs[0].Key != k1 || evs[0].Data != "first" || evs[2].Data != "third" {
		t.Fatalf("events out of order: %+v", evs)
	}

	if more := q.TakeEvents(); more != nil {
		t.Fatalf("TakeEvents after drain returned %d events", len(more))
	}
}

func TestAdvertisedVersionCapsAtBridgeMax(t *testing.T) {
	q := &Queue{}
	if got := q.AdvertisedVersion("wl_seat", 12); got != BridgeMaxVersion["wl_seat"] {
		t.Fatalf("got %d, want the bridge cap %d", got, BridgeMaxVersion["wl_seat"])
	}
	if got := q.AdvertisedVersion("wl_seat", 3); got != 3 {
		t.Fatalf("got %d, want the host's lower version 3", got)
	}
	if got := q.AdvertisedVersion("unknown_interface", 7); got != 7 {
		t.Fatalf("got %d, want passthrough 7 for an uncapped interface", got)
	}
}
