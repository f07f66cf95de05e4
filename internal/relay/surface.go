// Package relay is the Relay Engine: for every bridged interface pair
// (server-side resource <-> client-side proxy), it translates requests
// and events with the correct reference rewrites, and owns global
// advertisement.
package relay

import (
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// Role tags the host-protocol role assigned to a surface.
type Role int

const (
	RoleNone Role = iota
	RoleToplevel
	RolePopup
)

// PendingAttach records a buffer attach that arrived before the
// surface's role was configured, to be replayed on first ack.
type PendingAttach struct {
	Buffer *client.Buffer
	X, Y   int32
}

// ToplevelRole holds the xdg_surface+xdg_toplevel wire handles and the
// toplevel-specific pending configure state.
type ToplevelRole struct {
	XdgSurface  *client.XdgSurface
	XdgToplevel *client.XdgToplevel
	Configured  bool

	// Pending size/state recorded by an xdg_toplevel.configure,
	// applied on the next xdg_surface.configure ack.
	PendingWidth, PendingHeight int32
	PendingFullscreen           bool
	FullscreenChanged           bool
}

// PopupRole holds the xdg_surface+xdg_popup wire handles and the
// popup-specific pending configure state.
type PopupRole struct {
	XdgSurface *client.XdgSurface
	XdgPopup   *client.XdgPopup
	Positioner *client.XdgPositioner
	Configured bool

	PendingX, PendingY          int32
	PendingWidth, PendingHeight int32
}

// SurfaceData is the per-surface bridged state.
type SurfaceData struct {
	Key store.ObjectKey

	ServerSurface *server.Surface
	ClientSurface *client.Surface

	// SerialLo/SerialHi is the [lo, hi] pair from WL_SURFACE_SERIAL,
	// used to pair this surface with its X window.
	SerialLo, SerialHi uint32
	HasSerial          bool

	PendingAttach *PendingAttach
	PendingFrame  *server.Callback

	Role     Role
	Toplevel *ToplevelRole
	Popup    *PopupRole

	// Window is the paired X window, set at most once per incarnation
	// of the window by the coordinator.
	Window    xproto.Window
	HasWindow bool

	// Output is the output this surface last entered, used by
	// internal/output to track the surface's current offset/scale.
	Output    store.ObjectKey
	HasOutput bool

	BufferScale int32

	// InputRegionSet mirrors whether set_input_region has been called
	// with a non-null region, purely for relay bookkeeping (a null
	// region forwards as null).
	InputRegionSet bool
}

// configured reports whether the surface's role (if any) has acked its
// first configure. A surface with no role yet is never "configured"
// for the purposes of the commit-buffering rule.
func (s *SurfaceData) configured() bool {
	switch s.Role {
	case RoleToplevel:
		return s.Toplevel != nil && s.Toplevel.Configured
	case RolePopup:
		return s.Popup != nil && s.Popup.Configured
	default:
		return false
	}
}

// Engine holds the cross-cutting state the surface-relay handlers need:
// the object store and logger. Per-interface-pair files below are
// methods on Engine.
type Engine struct {
	Store *store.Store
	Log   *xlog.Logger

	// OnConfigure applies host-assigned geometry to the paired X
	// window once its role's configure is acked (xdgshell.go).
	OnConfigure ConfigureWindowFunc
}

// HandleAttach implements the server-side wl_surface.attach request
// relay: while the role is unconfigured, the attach is recorded as
// pending rather than forwarded.
func (e *Engine) HandleAttach(key store.ObjectKey, buf *client.Buffer, x, y int32) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*SurfaceData](o, store.KindSurface)
		if !sd.configured() {
			sd.PendingAttach = &PendingAttach{Buffer: buf, X: x, Y: y}
			return o
		}
		sd.ClientSurface.Attach(buf, x, y)
		return o
	})
}

// HandleDamageBuffer implements wl_surface.damage_buffer. Dropped
// while unconfigured.
func (e *Engine) HandleDamageBuffer(key store.ObjectKey, x, y, w, h int32) {
	sd := e.surface(key)
	if sd == nil || !sd.configured() {
		return
	}
	sd.ClientSurface.DamageBuffer(x, y, w, h)
}

// HandleFrame implements wl_surface.frame. While unconfigured, the
// callback object is recorded and forwarded once the role configures.
func (e *Engine) HandleFrame(key store.ObjectKey, serverCb *server.Callback) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*SurfaceData](o, store.KindSurface)
		if !sd.configured() {
			sd.PendingFrame = serverCb
			return o
		}
		e.forwardFrame(sd, serverCb)
		return o
	})
}

func (e *Engine) forwardFrame(sd *SurfaceData, serverCb *server.Callback) {
	cb, err := sd.ClientSurface.Frame()
	if err != nil {
		e.Log.Warn("relay: wl_surface.frame failed: %s", err)
		return
	}
	cb.SetDoneHandler(func(ev client.CallbackDoneEvent) {
		serverCb.SendDoneEvent(ev.CallbackData)
		serverCb.Destroy()
	})
}

// HandleCommit implements wl_surface.commit. Dropped while
// unconfigured: a commit may only be forwarded once the configure for
// the surface's role has been acked.
func (e *Engine) HandleCommit(key store.ObjectKey) {
	sd := e.surface(key)
	if sd == nil || !sd.configured() {
		return
	}
	sd.ClientSurface.Commit()
}

// HandleSetBufferScale implements wl_surface.set_buffer_scale.
func (e *Engine) HandleSetBufferScale(key store.ObjectKey, scale int32) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*SurfaceData](o, store.KindSurface)
		sd.BufferScale = scale
		sd.ClientSurface.SetBufferScale(scale)
		return o
	})
}

// HandleSetInputRegion implements wl_surface.set_input_region. A null
// region (region == nil) is forwarded as null.
func (e *Engine) HandleSetInputRegion(key store.ObjectKey, region *client.Region) {
	sd := e.surface(key)
	if sd == nil {
		return
	}
	sd.ClientSurface.SetInputRegion(region)
	sd.InputRegionSet = region != nil
}

// ReplayPending flushes a surface's buffered attach and frame once its
// role has just acked its first configure.
func (e *Engine) ReplayPending(key store.ObjectKey) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*SurfaceData](o, store.KindSurface)
		if pa := sd.PendingAttach; pa != nil {
			sd.ClientSurface.Attach(pa.Buffer, pa.X, pa.Y)
			sd.PendingAttach = nil
		}
		if cb := sd.PendingFrame; cb != nil {
			e.forwardFrame(sd, cb)
			sd.PendingFrame = nil
		}
		return o
	})
}

func (e *Engine) surface(key store.ObjectKey) *SurfaceData {
	o, ok := e.Store.Get(key)
	if !ok {
		return nil
	}
	sd, ok := store.As[*SurfaceData](o, store.KindSurface)
	if !ok {
		return nil
	}
	return sd
}
