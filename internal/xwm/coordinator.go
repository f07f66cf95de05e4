package xwm

import (
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/store"
)

// Coordinator reconciles a newly mapped X window with the host
// surface the same X client has just created, then assigns the
// surface its role.
type Coordinator struct {
	store         *store.Store
	relay         *relay.Engine
	log           *xlog.Logger
	wmBase        *client.XdgWmBase
	wmBaseVersion uint32

	windows        map[xproto.Window]*WindowData
	surfaces       map[uint64]store.ObjectKey // serial -> surface key, for pairing before cross-ref exists
	pendingWindows map[uint64]*WindowData     // serial -> window, the other half of the same protocol

	closeHandler CloseHandler

	// LastHovered and LastFocusedToplevel back the override-redirect
	// popup-parent heuristic.
	LastHovered            xproto.Window
	HasLastHovered         bool
	LastFocusedToplevel    xproto.Window
	HasLastFocusedToplevel bool

	// CurrentOffset and MatchesOutputSize let role-creation ask "does
	// this window's size match an output's size" for the fullscreen
	// heuristic, and "what offset is currently applied" for popup
	// anchor math. Both are supplied by internal/output via callbacks
	// so xwm doesn't need to import it directly.
	CurrentOffset     func() (x, y int32)
	MatchesOutputSize func(w, h int16) bool

	// ActiveSeat and LastPointerSerial back _NET_WM_MOVERESIZE and
	// internal/decoration's click-to-move handler: both need a wl_seat
	// and a recent pointer-button-press serial to start an
	// xdg_toplevel.move/resize.
	ActiveSeat        *client.Seat
	LastPointerSerial uint32

	// OnToplevelCreated lets internal/bridge attach a CSD titlebar
	// (internal/decoration) to a newly created toplevel without xwm
	// importing internal/decoration directly.
	OnToplevelCreated func(wd *WindowData, sd *relay.SurfaceData)
}

// SetOnToplevelCreated installs the toplevel-creation callback.
func (c *Coordinator) SetOnToplevelCreated(h func(wd *WindowData, sd *relay.SurfaceData)) {
	c.OnToplevelCreated = h
}

// RecordPointerSerial is called by the seat relay on every pointer
// button event so interactive move/resize always has a recent serial
// to present to the host, per the xdg-shell protocol's requirement
// that move/resize be driven by a serial from the triggering input
// event.
func (c *Coordinator) RecordPointerSerial(serial uint32) {
	c.LastPointerSerial = serial
}

func NewCoordinator(st *store.Store, eng *relay.Engine, log *xlog.Logger, wmBase *client.XdgWmBase, wmBaseVersion uint32) *Coordinator {
	return &Coordinator{
		store:         st,
		relay:         eng,
		log:           log,
		wmBase:        wmBase,
		wmBaseVersion: wmBaseVersion,
		windows:       make(map[xproto.Window]*WindowData),
		surfaces:      make(map[uint64]store.ObjectKey),
	}
}

func serialOf(lo, hi uint32) uint64 { return uint64(hi)<<32 | uint64(lo) }

// CreateWindow handles CreateNotify.
func (c *Coordinator) CreateWindow(win xproto.Window) *WindowData {
	wd := NewWindowData(win)
	c.windows[win] = wd
	return wd
}

// DestroyWindow handles DestroyNotify. Any pairing record the window
// left behind is purged with it, so a surface serial arriving after
// the window died pairs with nothing instead of a dangling record.
func (c *Coordinator) DestroyWindow(win xproto.Window) {
	if wd, ok := c.windows[win]; ok && wd.HasSurfaceSerial {
		delete(c.pendingWindows, serialOf(wd.SurfaceSerialLo, wd.SurfaceSerialHi))
	}
	delete(c.windows, win)
}

func (c *Coordinator) Window(win xproto.Window) (*WindowData, bool) {
	wd, ok := c.windows[win]
	return wd, ok
}

// Windows returns every currently tracked WindowData, for the main
// loop's per-iteration fullscreen-state and decoration sync
// (host-initiated fullscreen toggles have no event of their own on the
// X side to hang off of, so they are swept once per iteration
// instead).
func (c *Coordinator) Windows() []*WindowData {
	out := make([]*WindowData, 0, len(c.windows))
	for _, wd := range c.windows {
		out = append(out, wd)
	}
	return out
}

// ToplevelFullscreenState returns the surface's current
// post-configure-ack fullscreen state and whether it just changed,
// clearing the changed flag so callers only observe a transition once.
func (c *Coordinator) ToplevelFullscreenState(wd *WindowData) (fullscreen, changed bool) {
	if !wd.HasSurfaceKey {
		return false, false
	}
	o, ok := c.store.Get(wd.SurfaceKey)
	if !ok {
		return false, false
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok || sd.Role != relay.RoleToplevel || sd.Toplevel == nil {
		return false, false
	}
	t := sd.Toplevel
	changed = t.FullscreenChanged
	t.FullscreenChanged = false
	return t.PendingFullscreen, changed
}

// SetWindowSerial stores the WL_SURFACE_SERIAL pair on the window
// (from the X client message handler) and attempts pairing.
func (c *Coordinator) SetWindowSerial(win xproto.Window, lo, hi uint32) {
	wd, ok := c.windows[win]
	if !ok {
		return
	}
	wd.SurfaceSerialLo, wd.SurfaceSerialHi = lo, hi
	wd.HasSurfaceSerial = true

	serial := serialOf(lo, hi)
	if key, ok := c.surfaces[serial]; ok {
		c.pair(wd, key)
		delete(c.surfaces, serial)
	} else {
		// Record so the surface side can find us when its serial
		// arrives (the other half of the pairing protocol).
		if c.pendingWindows == nil {
			c.pendingWindows = make(map[uint64]*WindowData)
		}
		c.pendingWindows[serial] = wd
	}
}

// SetSurfaceSerial stores the serial pair on the SurfaceData (from the
// xwayland-shell extension handler) and attempts pairing.
func (c *Coordinator) SetSurfaceSerial(key store.ObjectKey, lo, hi uint32) {
	c.store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*relay.SurfaceData](o, store.KindSurface)
		sd.SerialLo, sd.SerialHi = lo, hi
		sd.HasSerial = true
		return o
	})

	serial := serialOf(lo, hi)
	if wd, ok := c.pendingWindows[serial]; ok {
		c.pair(wd, key)
		delete(c.pendingWindows, serial)
	} else {
		c.surfaces[serial] = key
	}
}

// pair records the cross-reference in both directions and, if the
// window is already mapped, proceeds straight to role creation.
func (c *Coordinator) pair(wd *WindowData, key store.ObjectKey) {
	wd.SurfaceKey = key
	wd.HasSurfaceKey = true
	c.store.Mutate(key, func(o store.Object) store.Object {
		sd := store.Must[*relay.SurfaceData](o, store.KindSurface)
		sd.Window = wd.Window
		sd.HasWindow = true
		return o
	})
	if wd.Mapped {
		c.CreateRole(wd)
	}
}

// MapWindow handles MapNotify's eventual call into the coordinator
// (after the X front-end has refreshed properties): mark mapped and,
// if paired, create the role.
func (c *Coordinator) MapWindow(wd *WindowData) {
	wd.Mapped = true
	if wd.HasSurfaceKey {
		c.CreateRole(wd)
	}
}

// UnmapWindow destroys the role but preserves the SurfaceData; the
// surface itself outlives any number of map/unmap cycles.
func (c *Coordinator) UnmapWindow(wd *WindowData) {
	wd.Mapped = false
	if !wd.HasSurfaceKey {
		return
	}
	c.store.Mutate(wd.SurfaceKey, func(o store.Object) store.Object {
		sd := store.Must[*relay.SurfaceData](o, store.KindSurface)
		c.destroyRoleLocked(sd)
		return o
	})
}

func (c *Coordinator) destroyRoleLocked(sd *relay.SurfaceData) {
	switch sd.Role {
	case relay.RoleToplevel:
		if sd.Toplevel != nil {
			sd.Toplevel.XdgToplevel.Destroy()
			sd.Toplevel.XdgSurface.Destroy()
		}
	case relay.RolePopup:
		if sd.Popup != nil {
			sd.Popup.XdgPopup.Destroy()
			sd.Popup.XdgSurface.Destroy()
		}
	}
	sd.Role = relay.RoleNone
	sd.Toplevel = nil
	sd.Popup = nil
}

// pickOverrideRedirectParent prefers LastHovered, else
// LastFocusedToplevel, else the window is promoted to a toplevel
// (reported via ok=false).
func (c *Coordinator) pickOverrideRedirectParent() (xproto.Window, bool) {
	if c.HasLastHovered {
		if _, ok := c.windows[c.LastHovered]; ok {
			return c.LastHovered, true
		}
	}
	if c.HasLastFocusedToplevel {
		if _, ok := c.windows[c.LastFocusedToplevel]; ok {
			return c.LastFocusedToplevel, true
		}
	}
	return 0, false
}

// CreateRole runs the role-creation protocol: a null attach + commit
// to satisfy the unconfigured-role rules, then an xdg_surface and
// either a popup or a toplevel role on top of it.
func (c *Coordinator) CreateRole(wd *WindowData) {
	if !wd.HasSurfaceKey {
		return
	}
	o, ok := c.store.Get(wd.SurfaceKey)
	if !ok {
		c.log.Warn("xwm: surface %v vanished before role creation for window %d", wd.SurfaceKey, wd.Window)
		return
	}
	sd := store.Must[*relay.SurfaceData](o, store.KindSurface)
	if sd.Role != relay.RoleNone {
		return // role already created for this incarnation
	}
	if sd.ClientSurface == nil {
		c.log.Warn("xwm: window %d paired with a surface that has no host twin", wd.Window)
		return
	}

	// Null attach + commit before any role object exists.
	sd.ClientSurface.Attach(nil, 0, 0)
	sd.ClientSurface.Commit()

	parent, hasParent := wd.Attrs.PopupFor, wd.Attrs.HasPopupFor
	if !hasParent && wd.Attrs.OverrideRedirect {
		parent, hasParent = c.pickOverrideRedirectParent()
	}

	xdgSurface, err := c.relay.RequestXdgSurface(c.wmBase, wd.SurfaceKey)
	if err != nil {
		c.log.Error("xwm: get_xdg_surface failed for window %d: %s", wd.Window, err)
		return
	}

	if hasParent {
		c.createPopup(wd, sd, xdgSurface, parent)
	} else {
		c.createToplevel(wd, sd, xdgSurface)
	}
}

func (c *Coordinator) createPopup(wd *WindowData, sd *relay.SurfaceData, xdgSurface *client.XdgSurface, parentWin xproto.Window) {
	parentWd, ok := c.windows[parentWin]
	if !ok || !parentWd.HasSurfaceKey {
		c.log.Warn("xwm: popup parent %d for window %d has no surface", parentWin, wd.Window)
		return
	}
	parentObj, ok := c.store.Get(parentWd.SurfaceKey)
	if !ok {
		return
	}
	parentSd := store.Must[*relay.SurfaceData](parentObj, store.KindSurface)
	var parentXdgSurface *client.XdgSurface
	switch parentSd.Role {
	case relay.RoleToplevel:
		parentXdgSurface = parentSd.Toplevel.XdgSurface
	case relay.RolePopup:
		parentXdgSurface = parentSd.Popup.XdgSurface
	default:
		c.log.Warn("xwm: popup parent %d has no xdg_surface yet", parentWin)
		return
	}

	offX, offY := int32(0), int32(0)
	if c.CurrentOffset != nil {
		offX, offY = c.CurrentOffset()
	}

	positioner, err := c.wmBase.CreatePositioner()
	if err != nil {
		c.log.Error("xwm: create_positioner failed: %s", err)
		return
	}
	positioner.SetSize(int32(wd.Attrs.Width), int32(wd.Attrs.Height))
	positioner.SetAnchorRect(0, 0, int32(parentWd.Attrs.Width), int32(parentWd.Attrs.Height))
	positioner.SetAnchor(client.XdgPositionerAnchorTopLeft)
	positioner.SetGravity(client.XdgPositionerGravityBottomRight)
	dx := int32(wd.Attrs.X) - int32(parentWd.Attrs.X) - offX
	dy := int32(wd.Attrs.Y) - int32(parentWd.Attrs.Y) - offY
	positioner.SetOffset(dx, dy)

	popup, err := xdgSurface.GetPopup(parentXdgSurface, positioner)
	if err != nil {
		c.log.Error("xwm: get_popup failed for window %d: %s", wd.Window, err)
		return
	}
	popup.SetConfigureHandler(func(ev client.XdgPopupConfigureEvent) {
		c.relay.HandlePopupConfigure(wd.SurfaceKey, ev.X, ev.Y, ev.Width, ev.Height)
	})
	popup.SetPopupDoneHandler(func(client.XdgPopupPopupDoneEvent) {
		c.relay.HandlePopupDone(wd.SurfaceKey, func(store.ObjectKey) {
			if wd.Mapped {
				c.UnmapWindow(wd)
			}
		})
	})

	sd.Role = relay.RolePopup
	sd.Popup = &relay.PopupRole{XdgSurface: xdgSurface, XdgPopup: popup, Positioner: positioner}
}

func (c *Coordinator) createToplevel(wd *WindowData, sd *relay.SurfaceData, xdgSurface *client.XdgSurface) {
	toplevel, err := xdgSurface.GetToplevel()
	if err != nil {
		c.log.Error("xwm: get_toplevel failed for window %d: %s", wd.Window, err)
		return
	}
	toplevel.SetConfigureHandler(func(ev client.XdgToplevelConfigureEvent) {
		c.relay.HandleToplevelConfigure(wd.SurfaceKey, ev.Width, ev.Height, ev.States)
	})
	toplevel.SetCloseHandler(func(client.XdgToplevelCloseEvent) {
		c.onToplevelClose(wd)
	})

	if wd.Attrs.Title != "" {
		toplevel.SetTitle(wd.Attrs.Title)
	}
	if wd.Attrs.Class != "" {
		toplevel.SetAppId(wd.Attrs.Class)
	}
	if wd.Attrs.HasSizeHints {
		toplevel.SetMinSize(wd.Attrs.MinWidth, wd.Attrs.MinHeight)
		toplevel.SetMaxSize(wd.Attrs.MaxWidth, wd.Attrs.MaxHeight)
	}

	sd.Role = relay.RoleToplevel
	sd.Toplevel = &relay.ToplevelRole{XdgSurface: xdgSurface, XdgToplevel: toplevel}

	if c.MatchesOutputSize != nil && c.MatchesOutputSize(wd.Attrs.Width, wd.Attrs.Height) {
		toplevel.SetFullscreen(nil)
	}

	if c.OnToplevelCreated != nil {
		c.OnToplevelCreated(wd, sd)
	}
}

// CloseHandler lets internal/bridge observe xdg_toplevel.close without
// xwm depending on the X client-message-sending code directly.
type CloseHandler func(win xproto.Window)

// SetCloseHandler installs the callback invoked on xdg_toplevel.close,
// which internal/bridge uses to send a WM_DELETE_WINDOW
// ClientMessage.
func (c *Coordinator) SetCloseHandler(h CloseHandler) { c.closeHandler = h }

func (c *Coordinator) onToplevelClose(wd *WindowData) {
	if c.closeHandler != nil {
		c.closeHandler(wd.Window)
	}
}

// Reconfigure handles an X-side ConfigureNotify that changed the
// window's dimensions: unmapped windows just record the new size,
// popups reposition (given a new enough xdg_wm_base), toplevels cannot
// reposition under the host protocol.
func (c *Coordinator) Reconfigure(wd *WindowData, width, height int16, wmBaseAtLeast3 bool) {
	wd.Attrs.Width, wd.Attrs.Height = width, height
	if !wd.Mapped {
		return // (b): unmapped windows just record the new dims
	}
	if !wd.HasSurfaceKey {
		return
	}
	o, ok := c.store.Get(wd.SurfaceKey)
	if !ok {
		return
	}
	sd := store.Must[*relay.SurfaceData](o, store.KindSurface)
	switch sd.Role {
	case relay.RolePopup:
		if !wmBaseAtLeast3 {
			c.log.Info("xwm: popup reposition needs xdg_wm_base >= 3, window %d unchanged", wd.Window)
			return
		}
		c.repositionPopup(wd, sd)
	case relay.RoleToplevel:
		c.log.Info("xwm: toplevel %d cannot reposition under the host protocol, ignoring ConfigureNotify resize", wd.Window)
	}
}

func (c *Coordinator) repositionPopup(wd *WindowData, sd *relay.SurfaceData) {
	if sd.Popup == nil {
		return
	}
	parentWin, ok := c.popupParentOf(wd)
	if !ok {
		return
	}
	parentWd := c.windows[parentWin]

	offX, offY := int32(0), int32(0)
	if c.CurrentOffset != nil {
		offX, offY = c.CurrentOffset()
	}

	positioner, err := c.wmBase.CreatePositioner()
	if err != nil {
		c.log.Error("xwm: create_positioner failed during reposition: %s", err)
		return
	}
	positioner.SetSize(int32(wd.Attrs.Width), int32(wd.Attrs.Height))
	positioner.SetAnchorRect(0, 0, int32(parentWd.Attrs.Width), int32(parentWd.Attrs.Height))
	positioner.SetAnchor(client.XdgPositionerAnchorTopLeft)
	positioner.SetGravity(client.XdgPositionerGravityBottomRight)
	dx := int32(wd.Attrs.X) - int32(parentWd.Attrs.X) - offX
	dy := int32(wd.Attrs.Y) - int32(parentWd.Attrs.Y) - offY
	positioner.SetOffset(dx, dy)
	positioner.SetReactive()

	sd.Popup.XdgPopup.Reposition(positioner, 0)
	sd.Popup.Positioner = positioner
}

func (c *Coordinator) popupParentOf(wd *WindowData) (xproto.Window, bool) {
	if wd.Attrs.HasPopupFor {
		return wd.Attrs.PopupFor, true
	}
	return c.pickOverrideRedirectParent()
}
