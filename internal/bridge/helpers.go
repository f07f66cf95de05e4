package bridge

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// surfaceKeyFor, pointerProxyFor, seatProxyFor, and bufferScaleFor
// resolve a server-side resource Xwayland just referenced in a
// request back to the bridge's own bookkeeping: either an
// internal/store ObjectKey (for surfaces and seats) or a bound
// client-side proxy directly (for pointers, which carry no
// relay-specific state of their own).
//
// Kept as a handful of small maps on Bridge rather than folded into
// internal/store, since these are server-resource-identity lookups the
// relay/store layers have no reason to know about.

func (b *Bridge) surfaceKeyFor(s *server.Surface) (store.ObjectKey, bool) {
	key, ok := b.surfaceKeys[s]
	return key, ok
}

func (b *Bridge) surfaceProxyFor(s *server.Surface) (*client.Surface, bool) {
	key, ok := b.surfaceKeys[s]
	if !ok {
		return nil, false
	}
	o, ok := b.store.Get(key)
	if !ok {
		return nil, false
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok || sd.ClientSurface == nil {
		return nil, false
	}
	return sd.ClientSurface, true
}

func (b *Bridge) bufferScaleFor(s *server.Surface) int32 {
	key, ok := b.surfaceKeys[s]
	if !ok {
		return 1
	}
	o, ok := b.store.Get(key)
	if !ok {
		return 1
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok || sd.BufferScale < 1 {
		return 1
	}
	return sd.BufferScale
}

func (b *Bridge) pointerProxyFor(p *server.Pointer) (*client.Pointer, bool) {
	cp, ok := b.pointers[p]
	return cp, ok
}

func (b *Bridge) seatProxyFor(s *server.Seat) (store.ObjectKey, *client.Seat, bool) {
	st, ok := b.seatsByResource[s]
	if !ok {
		return store.ObjectKey{}, nil, false
	}
	return st.key, st.clientSeat, true
}
