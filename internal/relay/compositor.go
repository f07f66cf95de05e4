package relay

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// Compositor wraps the passthrough wl_compositor global. create_surface
// is the one request on this interface that needs relay-specific
// behavior: it allocates an ObjectKey up front so the new host surface
// can be created carrying that key as user data from birth.
type Compositor struct {
	Client *client.Compositor
}

// HandleCreateSurface implements wl_compositor.create_surface.
func (e *Engine) HandleCreateSurface(comp *Compositor, serverSurface *server.Surface) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		clientSurface, err := comp.Client.CreateSurface()
		if err != nil {
			e.Log.Error("relay: wl_compositor.create_surface failed: %s", err)
			clientSurface = nil
		}
		sd := &SurfaceData{
			Key:           key,
			ServerSurface: serverSurface,
			ClientSurface: clientSurface,
			BufferScale:   1,
		}
		return store.New(key, store.KindSurface, sd)
	})
}
