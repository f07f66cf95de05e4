// Package store implements the Object Store: a slot-allocated entity
// store mapping opaque ObjectKeys to heterogeneous per-object state.
// Both the server-facing and client-facing protocol handles for the
// same logical object carry an ObjectKey as user data, enabling O(1)
// cross lookup between the two sides of the bridge.
package store

import "sync"

// ObjectKey is an opaque, stable-for-lifetime-of-object handle into
// the store. It uses slot-map semantics (a generational index) so
// that a reused slot cannot alias a stale handle still held by either
// side of the bridge.
type ObjectKey struct {
	index      uint32
	generation uint32
}

// Zero reports whether k is the zero value (never returned by Insert).
func (k ObjectKey) Zero() bool { return k.generation == 0 && k.index == 0 }

type slot struct {
	generation uint32
	occupied   bool
	object     Object
}

// Store is the slot-allocated entity store. The zero value is not
// usable; use New.
type Store struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
}

func New() *Store {
	// Slot 0/generation 0 is reserved so the zero ObjectKey is never valid.
	return &Store{slots: []slot{{}}}
}

// Insert allocates a new key and stores obj under it.
func (s *Store) Insert(obj Object) ObjectKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(obj)
}

func (s *Store) insertLocked(obj Object) ObjectKey {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}
	sl := &s.slots[idx]
	sl.occupied = true
	sl.object = obj
	return ObjectKey{index: idx, generation: sl.generation}
}

// InsertWithKey constructs an object using its own about-to-be-assigned
// key (needed for objects that must carry their key as wire user data
// from the moment they are created, e.g. wl_surface.create).
func (s *Store) InsertWithKey(f func(ObjectKey) Object) ObjectKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	var idx uint32
	var gen uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
		gen = s.slots[idx].generation
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}
	key := ObjectKey{index: idx, generation: gen}
	s.slots[idx].occupied = true
	s.slots[idx].object = f(key)
	return key
}

// Get returns the object stored under key, or ok=false if the key is
// stale (already removed) — the normal case when racing X-side
// destruction against host-side lookups.
func (s *Store) Get(key ObjectKey) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

func (s *Store) getLocked(key ObjectKey) (Object, bool) {
	if int(key.index) >= len(s.slots) {
		return Object{}, false
	}
	sl := &s.slots[key.index]
	if !sl.occupied || sl.generation != key.generation {
		return Object{}, false
	}
	return sl.object, true
}

// Mutate looks up key and, if present, replaces its stored Object with
// the result of f, reporting whether the key was live.
func (s *Store) Mutate(key ObjectKey, f func(Object) Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.getLocked(key)
	if !ok {
		return false
	}
	s.slots[key.index].object = f(obj)
	return true
}

// Remove deletes the entry for key. It is idempotent: removing an
// already-stale key is a no-op that reports false. A live object's
// destruction path must call Remove exactly once.
func (s *Store) Remove(key ObjectKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.getLocked(key); !ok {
		return false
	}
	sl := &s.slots[key.index]
	sl.occupied = false
	sl.object = Object{}
	sl.generation++
	s.free = append(s.free, key.index)
	return true
}

// InsertFromOtherObjects temporarily withdraws the objects at keys,
// constructs a new object from them via f, reinstates the withdrawn
// objects, and inserts the new object — atomically with respect to
// other callers of Store (the whole operation holds the store's lock).
//
// This exists for relays that must construct an Object referencing
// sibling objects already in the store (e.g. a tablet Tool that needs
// to read its parent TabletSeat's client-side handle while building
// its own Object) without exposing a lock-free window where the
// siblings look removed.
func (s *Store) InsertFromOtherObjects(keys []ObjectKey, f func(inputs []Object, newKey ObjectKey) Object) (ObjectKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputs := make([]Object, len(keys))
	withdrawn := make([]slot, len(keys))
	for i, k := range keys {
		obj, ok := s.getLocked(k)
		if !ok {
			// Restore anything already withdrawn before bailing.
			for j := 0; j < i; j++ {
				s.slots[keys[j].index] = withdrawn[j]
			}
			return ObjectKey{}, false
		}
		inputs[i] = obj
		withdrawn[i] = s.slots[k.index]
		s.slots[k.index].occupied = false
	}

	newKey := s.allocLocked()
	newObj := f(inputs, newKey)

	for i, k := range keys {
		s.slots[k.index] = withdrawn[i]
	}
	s.slots[newKey.index].object = newObj
	return newKey, true
}

func (s *Store) allocLocked() ObjectKey {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		sl := &s.slots[idx]
		sl.occupied = true
		return ObjectKey{index: idx, generation: sl.generation}
	}
	idx := uint32(len(s.slots))
	s.slots = append(s.slots, slot{occupied: true})
	return ObjectKey{index: idx, generation: 0}
}

// Len reports the number of live objects. Used by tests only.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sl := range s.slots {
		if sl.occupied {
			n++
		}
	}
	return n
}
