package xwm

import (
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/store"
)

// onClientMessage dispatches on message type.
func (f *Frontend) onClientMessage(ev xproto.ClientMessageEvent) {
	wlSurfaceSerial, _ := f.Atoms.Get(atomWlSurfaceSerial)
	netWmState, _ := f.Atoms.Get("_NET_WM_STATE")
	netActiveWindow, _ := f.Atoms.Get("_NET_ACTIVE_WINDOW")
	netWmMoveresize, _ := f.Atoms.Get(atomNetWmMoveresize)
	wmProtocols, _ := f.Atoms.Get(atomWmProtocols)

	switch ev.Type {
	case wlSurfaceSerial:
		f.onWlSurfaceSerial(ev)
	case netWmState:
		f.onNetWmState(ev)
	case netActiveWindow:
		f.ActivateWindow(ev.Window)
	case netWmMoveresize:
		f.onNetWmMoveresize(ev)
	case wmProtocols:
		f.onWmProtocols(ev)
	}
}

// onWmProtocols handles WM_PROTOCOLS client messages. The only one the
// bridge participates in is _NET_WM_PING: the reply a client sends to
// its own window is echoed to the root window, where ping initiators
// listen for it per EWMH.
func (f *Frontend) onWmProtocols(ev xproto.ClientMessageEvent) {
	ping, err := f.Atoms.Get(atomNetWmPing)
	if err != nil {
		return
	}
	data := ev.Data.Data32
	if len(data) < 1 || xproto.Atom(data[0]) != ping {
		return
	}
	xproto.SendEventChecked(f.Conn, false, f.Root,
		xproto.EventMaskSubstructureNotify|xproto.EventMaskSubstructureRedirect,
		string(ev.Bytes())).Check()
}

// onWlSurfaceSerial stores the [lo, hi] pair carried by the
// WL_SURFACE_SERIAL client message on the window. Xwayland splits the
// 64-bit serial across data[0] (lo) and data[1] (hi).
func (f *Frontend) onWlSurfaceSerial(ev xproto.ClientMessageEvent) {
	data := ev.Data.Data32
	if len(data) < 2 {
		return
	}
	f.coordinator.SetWindowSerial(ev.Window, data[0], data[1])
}

// onNetWmState drives fullscreen add/remove/toggle. Per EWMH, data[0]
// is the action (0=remove, 1=add, 2=toggle), data[1]/data[2] are the
// up-to-two state atoms.
func (f *Frontend) onNetWmState(ev xproto.ClientMessageEvent) {
	const (
		actionRemove = 0
		actionAdd    = 1
		actionToggle = 2
	)
	fullscreen, _ := f.Atoms.Get("_NET_WM_STATE_FULLSCREEN")

	data := ev.Data.Data32
	if len(data) < 2 {
		return
	}
	action := data[0]
	isFullscreenReq := xproto.Atom(data[1]) == fullscreen || (len(data) > 2 && xproto.Atom(data[2]) == fullscreen)
	if !isFullscreenReq {
		return
	}

	wd, ok := f.coordinator.Window(ev.Window)
	if !ok || !wd.HasSurfaceKey {
		return
	}
	o, ok := f.coordinator.store.Get(wd.SurfaceKey)
	if !ok {
		return
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok || sd.Toplevel == nil {
		return
	}

	var wantFullscreen bool
	switch action {
	case actionRemove:
		wantFullscreen = false
	case actionAdd:
		wantFullscreen = true
	case actionToggle:
		wantFullscreen = !sd.Toplevel.PendingFullscreen
	default:
		return
	}

	if wantFullscreen {
		sd.Toplevel.XdgToplevel.SetFullscreen(nil)
	} else {
		sd.Toplevel.XdgToplevel.UnsetFullscreen()
	}
}

// onNetWmMoveresize initiates move or resize via the host
// xdg_toplevel interactive operations. Per EWMH, data[2] is the
// direction (8 = move; 0-7 and 9-11 are resize edges) and data[3] is
// the triggering button.
func (f *Frontend) onNetWmMoveresize(ev xproto.ClientMessageEvent) {
	const (
		moveresizeMove = 8
	)
	data := ev.Data.Data32
	if len(data) < 4 {
		return
	}
	button := data[3]
	if button != 1 { // only left-button interactive ops are supported
		return
	}

	wd, ok := f.coordinator.Window(ev.Window)
	if !ok || !wd.HasSurfaceKey {
		return
	}
	o, ok := f.coordinator.store.Get(wd.SurfaceKey)
	if !ok {
		return
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok || sd.Role != relay.RoleToplevel || sd.Toplevel == nil {
		return
	}

	seat := f.coordinator.ActiveSeat
	if seat == nil {
		return
	}
	serial := f.coordinator.LastPointerSerial

	if data[2] == moveresizeMove {
		sd.Toplevel.XdgToplevel.Move(seat, serial)
	} else {
		sd.Toplevel.XdgToplevel.Resize(seat, serial, edgeFor(data[2]))
	}
}

func edgeFor(direction uint32) uint32 {
	// EWMH _NET_WM_MOVERESIZE direction -> xdg_toplevel.resize_edge,
	// per the wm-spec's documented numbering (0=top-left .. 7=left).
	switch direction {
	case 0:
		return uint32(client.XdgToplevelResizeEdgeTopLeft)
	case 1:
		return uint32(client.XdgToplevelResizeEdgeTop)
	case 2:
		return uint32(client.XdgToplevelResizeEdgeTopRight)
	case 3:
		return uint32(client.XdgToplevelResizeEdgeRight)
	case 4:
		return uint32(client.XdgToplevelResizeEdgeBottomRight)
	case 5:
		return uint32(client.XdgToplevelResizeEdgeBottom)
	case 6:
		return uint32(client.XdgToplevelResizeEdgeBottomLeft)
	case 7:
		return uint32(client.XdgToplevelResizeEdgeLeft)
	default:
		return uint32(client.XdgToplevelResizeEdgeNone)
	}
}

// ActivateWindow handles a _NET_ACTIVE_WINDOW request: raise and
// focus the window on the X side. The host-facing half of activation
// (keyboard enter) happens through the host compositor, not here;
// this path is for X clients that ask to be activated directly (e.g.
// via wmctrl).
func (f *Frontend) ActivateWindow(win xproto.Window) {
	wd, ok := f.coordinator.Window(win)
	if !ok {
		return
	}
	xproto.ConfigureWindowChecked(f.Conn, win, xproto.ConfigWindowStackMode,
		[]uint32{uint32(xproto.StackModeAbove)}).Check()
	if wd.WantsInputFocus() {
		xproto.SetInputFocusChecked(f.Conn, xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime).Check()
	}
	f.setActiveWindow(win)
}
