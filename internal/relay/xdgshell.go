package relay

import (
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
)

// ConfigureWindowFunc pushes host-assigned geometry to the paired X
// window. hasPosition is true for popups, whose configure carries a
// parent-relative position alongside the size; toplevels only ever
// receive a size. Supplied by internal/xwm so the relay layer can
// resize/move X windows without importing it.
type ConfigureWindowFunc func(win xproto.Window, x, y, width, height int32, hasPosition bool)

// XdgWmBaseMinVersion and XdgWmBaseWantVersion gate the xdg_wm_base
// bind: version >= 2 is required, >= 3 is desired for popup
// repositioning.
const (
	XdgWmBaseMinVersion  = 2
	XdgWmBaseWantVersion = 3
)

// RequestXdgSurface creates the xdg_surface for the surface at key
// and wires its configure handler. The caller (internal/xwm's
// coordinator) is responsible for the null attach + commit before
// calling this.
func (e *Engine) RequestXdgSurface(wmBase *client.XdgWmBase, key store.ObjectKey) (*client.XdgSurface, error) {
	sd := e.surface(key)
	xdgSurface, err := wmBase.GetXdgSurface(sd.ClientSurface)
	if err != nil {
		return nil, err
	}
	xdgSurface.SetConfigureHandler(func(ev client.XdgSurfaceConfigureEvent) {
		e.onXdgSurfaceConfigure(key, xdgSurface, ev.Serial)
	})
	return xdgSurface, nil
}

// onXdgSurfaceConfigure handles xdg_surface.configure: ack
// immediately, mark the role configured, apply pending
// {x,y,width,height} scaled by the surface's scale factor, then flush
// buffered attach/frame.
func (e *Engine) onXdgSurfaceConfigure(key store.ObjectKey, xdgSurface *client.XdgSurface, serial uint32) {
	xdgSurface.AckConfigure(serial)
	e.applyPendingConfigure(key)
	e.ReplayPending(key)
}

// applyPendingConfigure marks the role configured and pushes any
// recorded pending geometry to the paired X window. The host speaks in
// logical coordinates; the X side speaks in pixels, so pending values
// are multiplied by the surface's scale factor on the way through.
// Pending state is consumed: each xdg_surface.configure applies at
// most one recorded batch.
func (e *Engine) applyPendingConfigure(key store.ObjectKey) {
	var (
		win                 xproto.Window
		x, y, width, height int32
		hasPosition         bool
		apply               bool
	)

	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*SurfaceData](o, store.KindSurface)
		scale := sd.BufferScale
		if scale < 1 {
			scale = 1
		}
		switch sd.Role {
		case RoleToplevel:
			t := sd.Toplevel
			t.Configured = true
			if t.PendingWidth > 0 && t.PendingHeight > 0 && sd.HasWindow {
				win = sd.Window
				width, height = t.PendingWidth*scale, t.PendingHeight*scale
				apply = true
			}
			t.PendingWidth, t.PendingHeight = 0, 0
		case RolePopup:
			p := sd.Popup
			p.Configured = true
			if p.PendingWidth > 0 && p.PendingHeight > 0 && sd.HasWindow {
				win = sd.Window
				x, y = p.PendingX*scale, p.PendingY*scale
				width, height = p.PendingWidth*scale, p.PendingHeight*scale
				hasPosition = true
				apply = true
			}
			p.PendingX, p.PendingY = 0, 0
			p.PendingWidth, p.PendingHeight = 0, 0
		}
		return o
	})

	if apply && e.OnConfigure != nil {
		e.OnConfigure(win, x, y, width, height, hasPosition)
	}
}

// HandleToplevelConfigure handles xdg_toplevel.configure: a
// Fullscreen toggle in the states list is recorded for the X-state
// machine to push as _NET_WM_STATE_FULLSCREEN; the pending size is
// recorded for application on the next xdg_surface configure.
func (e *Engine) HandleToplevelConfigure(key store.ObjectKey, width, height int32, states []uint32) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*SurfaceData](o, store.KindSurface)
		if sd.Role != RoleToplevel {
			return o
		}
		t := sd.Toplevel
		wasFullscreen := t.PendingFullscreen
		isFullscreen := false
		for _, s := range states {
			if client.XdgToplevelState(s) == client.XdgToplevelStateFullscreen {
				isFullscreen = true
				break
			}
		}
		t.FullscreenChanged = isFullscreen != wasFullscreen
		t.PendingFullscreen = isFullscreen
		if width > 0 {
			t.PendingWidth = width
		}
		if height > 0 {
			t.PendingHeight = height
		}
		return o
	})
}

// HandlePopupConfigure records a popup's pending (x, y, width,
// height), applied on the next xdg_surface configure.
func (e *Engine) HandlePopupConfigure(key store.ObjectKey, x, y, width, height int32) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*SurfaceData](o, store.KindSurface)
		if sd.Role != RolePopup {
			return o
		}
		p := sd.Popup
		p.PendingX, p.PendingY = x, y
		p.PendingWidth, p.PendingHeight = width, height
		return o
	})
}

// PopupDoneFunc is supplied by internal/xwm so the relay layer can
// request an X window unmap without importing internal/xwm (which
// depends on relay).
type PopupDoneFunc func(key store.ObjectKey)

// HandlePopupDone implements xdg_popup.popup_done: unmap the
// corresponding X window.
func (e *Engine) HandlePopupDone(key store.ObjectKey, unmap PopupDoneFunc) {
	unmap(key)
}
