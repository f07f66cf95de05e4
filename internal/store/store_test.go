package store_test

import (
	"testing"

	"xwaylandbridge/internal/store"
)

func TestInsertGetRemove(t *testing.T) {
	s := store.New()
	key := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{Name: "seat0"}))

	obj, ok := s.Get(key)
	if !ok {
		t.Fatal("expected live key to be found")
	}
	if got := store.Must[store.SeatData](obj, store.KindSeat).Name; got != "seat0" {
		t.Fatalf("got name %q, want seat0", got)
	}

	if !s.Remove(key) {
		t.Fatal("Remove on a live key must report true")
	}
	if _, ok := s.Get(key); ok {
		t.Fatal("lookup after Remove must return absence")
	}
}

// Removing an already-stale key is idempotent.
func TestRemoveIdempotent(t *testing.T) {
	s := store.New()
	key := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{}))
	if !s.Remove(key) {
		t.Fatal("first Remove must report true")
	}
	if s.Remove(key) {
		t.Fatal("second Remove of a stale key must report false")
	}
}

// A reused slot must not alias a stale handle still held by a caller.
func TestGenerationPreventsAliasing(t *testing.T) {
	s := store.New()
	first := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{Name: "first"}))
	s.Remove(first)

	second := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{Name: "second"}))

	if first == second {
		t.Fatal("reused slot must not compare equal to the stale key")
	}
	if _, ok := s.Get(first); ok {
		t.Fatal("stale key must not resolve to the new occupant")
	}
	obj, ok := s.Get(second)
	if !ok {
		t.Fatal("new key must resolve")
	}
	if got := store.Must[store.SeatData](obj, store.KindSeat).Name; got != "second" {
		t.Fatalf("got %q, want second", got)
	}
}

func TestMustPanicsOnWrongVariant(t *testing.T) {
	s := store.New()
	key := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{}))
	obj, _ := s.Get(key)

	defer func() {
		if recover() == nil {
			t.Fatal("expected Must to panic on a variant mismatch")
		}
	}()
	store.Must[store.PointerData](obj, store.KindPointer)
}

func TestAsOKFailsQuietlyOnWrongVariant(t *testing.T) {
	s := store.New()
	key := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{}))
	obj, _ := s.Get(key)

	if _, ok := store.As[store.PointerData](obj, store.KindPointer); ok {
		t.Fatal("As must report false on a variant mismatch, not panic")
	}
}

func TestInsertFromOtherObjectsAtomic(t *testing.T) {
	s := store.New()
	seatKey := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{Name: "seat0"}))

	newKey, ok := s.InsertFromOtherObjects([]store.ObjectKey{seatKey}, func(inputs []store.Object, nk store.ObjectKey) store.Object {
		seat := store.Must[store.SeatData](inputs[0], store.KindSeat)
		return store.NewPointer(nk, store.PointerData{Seat: seatKey, ClientPointer: seat.ClientSeat})
	})
	if !ok {
		t.Fatal("InsertFromOtherObjects should succeed with a live input")
	}

	// The withdrawn input must be reinstated afterward.
	if _, ok := s.Get(seatKey); !ok {
		t.Fatal("input object must be reinstated after construction")
	}
	if _, ok := s.Get(newKey); !ok {
		t.Fatal("new object must be present")
	}
	if s.Len() != 2 {
		t.Fatalf("got %d live objects, want 2", s.Len())
	}
}

func TestInsertFromOtherObjectsFailsOnStaleInput(t *testing.T) {
	s := store.New()
	seatKey := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{}))
	s.Remove(seatKey)

	before := s.Len()
	_, ok := s.InsertFromOtherObjects([]store.ObjectKey{seatKey}, func(inputs []store.Object, nk store.ObjectKey) store.Object {
		t.Fatal("constructor must not run when an input is stale")
		return store.Object{}
	})
	if ok {
		t.Fatal("expected failure when an input key is stale")
	}
	if s.Len() != before {
		t.Fatalf("store must be unchanged on failure, got %d want %d", s.Len(), before)
	}
}

func TestInsertWithKey(t *testing.T) {
	s := store.New()
	var captured store.ObjectKey
	key := s.InsertWithKey(func(k store.ObjectKey) store.Object {
		captured = k
		return store.NewSeat(k, store.SeatData{Name: "bound"})
	})
	if captured != key {
		t.Fatal("InsertWithKey must hand the constructor the same key it returns")
	}
	obj, ok := s.Get(key)
	if !ok || store.Must[store.SeatData](obj, store.KindSeat).Name != "bound" {
		t.Fatal("object constructed by InsertWithKey must be retrievable")
	}
}

func TestMutate(t *testing.T) {
	s := store.New()
	key := s.Insert(store.NewSeat(store.ObjectKey{}, store.SeatData{Name: "old"}))

	if !s.Mutate(key, func(o store.Object) store.Object {
		d := store.Must[store.SeatData](o, store.KindSeat)
		d.Name = "new"
		return store.NewSeat(key, d)
	}) {
		t.Fatal("Mutate on a live key must report true")
	}
	obj, _ := s.Get(key)
	if got := store.Must[store.SeatData](obj, store.KindSeat).Name; got != "new" {
		t.Fatalf("got %q, want new", got)
	}

	s.Remove(key)
	if s.Mutate(key, func(o store.Object) store.Object { return o }) {
		t.Fatal("Mutate on a stale key must report false")
	}
}

func TestZeroKeyNeverValid(t *testing.T) {
	s := store.New()
	if _, ok := s.Get(store.ObjectKey{}); ok {
		t.Fatal("the zero ObjectKey must never resolve to a live object")
	}
	if !(store.ObjectKey{}).Zero() {
		t.Fatal("ObjectKey{}.Zero() must be true")
	}
}
