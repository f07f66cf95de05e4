package bridge

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// bindCompositor implements wl_compositor's two requests for one
// Xwayland client: create_surface (a keyed Object) and create_region
// (pure passthrough).
func (b *Bridge) bindCompositor(c *server.Client, version uint32, id uint32) {
	hostComp, err := b.passthrough.Compositor.Get()
	if err != nil {
		b.log.Error("bridge: wl_compositor passthrough unavailable: %s", err)
		return
	}
	comp := server.NewCompositor(c, version, id)
	comp.SetCreateSurfaceHandler(func(ev server.CompositorCreateSurfaceEvent) {
		serverSurface := server.NewSurface(c, version, ev.Id)
		key := b.relay.HandleCreateSurface(&relay.Compositor{Client: hostComp}, serverSurface)
		b.trackSurface(key, serverSurface)
		b.wireSurface(key, serverSurface)
	})
	comp.SetCreateRegionHandler(func(ev server.CompositorCreateRegionEvent) {
		serverRegion := server.NewRegion(c, version, ev.Id)
		clientRegion, err := hostComp.CreateRegion()
		if err != nil {
			b.log.Warn("bridge: wl_compositor.create_region failed: %s", err)
			return
		}
		b.wireRegion(serverRegion, clientRegion)
	})
}

// wireSurface installs the server-side wl_surface request handlers
// that forward into the Relay Engine's per-surface methods.
func (b *Bridge) wireSurface(key store.ObjectKey, s *server.Surface) {
	s.SetAttachHandler(func(ev server.SurfaceAttachEvent) {
		buf, _ := b.bufferFor(ev.Buffer)
		b.relay.HandleAttach(key, buf, ev.X, ev.Y)
	})
	s.SetDamageBufferHandler(func(ev server.SurfaceDamageBufferEvent) {
		b.relay.HandleDamageBuffer(key, ev.X, ev.Y, ev.Width, ev.Height)
	})
	s.SetFrameHandler(func(ev server.SurfaceFrameEvent) {
		serverCb := server.NewCallback(s.Client(), s.Version(), ev.Callback)
		b.relay.HandleFrame(key, serverCb)
	})
	s.SetCommitHandler(func(server.SurfaceCommitEvent) {
		b.relay.HandleCommit(key)
	})
	s.SetSetBufferScaleHandler(func(ev server.SurfaceSetBufferScaleEvent) {
		b.relay.HandleSetBufferScale(key, ev.Scale)
	})
	s.SetSetInputRegionHandler(func(ev server.SurfaceSetInputRegionEvent) {
		region, _ := b.regionFor(ev.Region)
		b.relay.HandleSetInputRegion(key, region)
	})
	s.SetDestroyHandler(func(server.SurfaceDestroyEvent) {
		b.untrackSurface(key, s)
	})
}

// trackSurface/untrackSurface maintain the server.Surface<->ObjectKey
// and client.Surface<->ObjectKey side tables helpers.go and the seat
// pointer relay resolve resources through. Kept out of internal/store:
// the client.Surface pointer itself lives on relay.SurfaceData,
// fetched here once at creation/destruction.
func (b *Bridge) trackSurface(key store.ObjectKey, s *server.Surface) {
	b.surfaceKeys[s] = key
	if o, ok := b.store.Get(key); ok {
		if sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface); ok && sd.ClientSurface != nil {
			b.clientSurfaceKeys[sd.ClientSurface] = key
		}
	}
}

// untrackSurface runs on wl_surface.destroy: forward the destruction
// to the host, drop the side tables, and remove the store entry — the
// single removal point for a surface's ObjectKey.
func (b *Bridge) untrackSurface(key store.ObjectKey, s *server.Surface) {
	delete(b.surfaceKeys, s)
	if o, ok := b.store.Get(key); ok {
		if sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface); ok && sd.ClientSurface != nil {
			delete(b.clientSurfaceKeys, sd.ClientSurface)
			sd.ClientSurface.Destroy()
		}
	}
	b.store.Remove(key)
}

// wireRegion forwards wl_region.add/subtract onto the already-bound
// client-side region, per relay.RegionOp's pure-passthrough handling.
func (b *Bridge) wireRegion(s *server.Region, clientRegion *client.Region) {
	b.trackRegion(s, clientRegion)
	s.SetAddHandler(func(ev server.RegionAddEvent) {
		b.relay.HandleRegionAdd(clientRegion, relay.RegionOp{X: ev.X, Y: ev.Y, Width: ev.Width, Height: ev.Height})
	})
	s.SetSubtractHandler(func(ev server.RegionSubtractEvent) {
		b.relay.HandleRegionSubtract(clientRegion, relay.RegionOp{X: ev.X, Y: ev.Y, Width: ev.Width, Height: ev.Height})
	})
	s.SetDestroyHandler(func(server.RegionDestroyEvent) {
		b.untrackRegion(s)
		clientRegion.Destroy()
	})
}

// bufferFor and regionFor resolve a raw server-side resource id back
// to the client-side proxy the bridge bound it to. wl_buffer needs no
// relay-specific state (the host's buffer commit protocol is the same
// one the X client already drives), so it is never stored in
// internal/store; a small side table here is enough.
func (b *Bridge) bufferFor(serverBuf *server.Buffer) (*client.Buffer, bool) {
	if serverBuf == nil {
		return nil, false
	}
	buf, ok := b.buffers[serverBuf]
	return buf, ok
}

func (b *Bridge) regionFor(serverRegion *server.Region) (*client.Region, bool) {
	if serverRegion == nil {
		return nil, false
	}
	r, ok := b.regions[serverRegion]
	return r, ok
}

func (b *Bridge) trackRegion(s *server.Region, r *client.Region) {
	b.regions[s] = r
}

func (b *Bridge) untrackRegion(s *server.Region) {
	delete(b.regions, s)
}
