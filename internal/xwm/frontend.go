package xwm

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/res"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/ewmh"

	xlog "xwaylandbridge/internal/log"
)

// atomCache maintains a mapping of strings to X11 atoms to avoid
// re-requesting atoms from the X server repeatedly.
type atomCache struct {
	conn *xgb.Conn
	data map[string]xproto.Atom
	mx   sync.RWMutex
}

func newAtomCache(conn *xgb.Conn) *atomCache {
	return &atomCache{conn: conn, data: make(map[string]xproto.Atom)}
}

func (c *atomCache) Get(name string) (xproto.Atom, error) {
	c.mx.RLock()
	if atom, ok := c.data[name]; ok {
		c.mx.RUnlock()
		return atom, nil
	}
	c.mx.RUnlock()

	reply, err := xproto.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	c.mx.Lock()
	defer c.mx.Unlock()
	c.data[name] = reply.Atom
	return reply.Atom, nil
}

// Atom names the front-end needs, beyond what xgbutil/ewmh and
// xgbutil/icccm already intern internally.
const (
	atomWlSurfaceSerial = "WL_SURFACE_SERIAL"
	atomNetWmMoveresize = "_NET_WM_MOVERESIZE"
	atomNetWmPing       = "_NET_WM_PING"
	atomNetStartupID    = "_NET_STARTUP_ID"
	atomWmProtocols     = "WM_PROTOCOLS"
	atomWmDeleteWindow  = "WM_DELETE_WINDOW"
	atomWmState         = "WM_STATE"
	atomMotifWmHints    = "_MOTIF_WM_HINTS"
	atomWmTransientFor  = "WM_TRANSIENT_FOR"
	atomWmClientLeader  = "WM_CLIENT_LEADER"
)

// Frontend owns the X connection and root-window substructure
// management: it is the substructure manager on root, translates X
// events into coordinator calls, and presents the EWMH surface
// well-behaved X clients expect.
type Frontend struct {
	Conn *xgb.Conn
	Root xproto.Window
	Atoms *atomCache

	log         *xlog.Logger
	coordinator *Coordinator

	xutil *xgbutil.XUtil

	wmCheckWindow xproto.Window

	// focusedWindow mirrors _NET_ACTIVE_WINDOW: on unmap, if this
	// matches the unmapped window, focus is cleared.
	focusedWindow    xproto.Window
	hasFocusedWindow bool

	// clientList backs _NET_CLIENT_LIST maintenance on root.
	clientList []xproto.Window

	// configureSerial identifies the current configure batch, bumped
	// once per main-loop iteration via NextConfigureBatch. Windows
	// stamp it when the host assigns them geometry so offset
	// reconciliation in the same batch doesn't move them twice.
	configureSerial uint32

	// primaryOutput and randrRescan are supplied by internal/bridge's
	// wiring of internal/output, so xwm never imports it directly.
	primaryOutput func(win xproto.Window)
	randrRescan   func()

	// fullscreenChanged is supplied by internal/bridge to hide/show a
	// toplevel's decoration when the host pushes a fullscreen toggle.
	fullscreenChanged func(win xproto.Window, fullscreen bool)

	// decorationSync and decorationClosed let internal/bridge keep a
	// toplevel's client-side titlebar in step with X-side geometry and
	// title changes without xwm importing internal/decoration.
	decorationSync   func(wd *WindowData)
	decorationClosed func(win xproto.Window)
}

// SetDecorationHandlers installs the callbacks used to keep a
// toplevel's client-side decoration in sync with X-side width/title
// changes (sync) and torn down on window destroy (closed).
func (f *Frontend) SetDecorationHandlers(sync func(wd *WindowData), closed func(win xproto.Window)) {
	f.decorationSync = sync
	f.decorationClosed = closed
}

// SetFullscreenChangedHandler installs the callback invoked from
// SyncFullscreenStates whenever a toplevel's host-acked fullscreen
// state changes.
func (f *Frontend) SetFullscreenChangedHandler(h func(win xproto.Window, fullscreen bool)) {
	f.fullscreenChanged = h
}

// SyncFullscreenStates pushes host-acked fullscreen toggles to the X
// side as _NET_WM_STATE_FULLSCREEN. The host protocol offers no X
// event to hang this transition off of, so internal/bridge's main loop
// calls this once per iteration to sweep every mapped window for a
// pending change.
func (f *Frontend) SyncFullscreenStates() {
	for _, wd := range f.coordinator.Windows() {
		if !wd.Mapped {
			continue
		}
		fullscreen, changed := f.coordinator.ToplevelFullscreenState(wd)
		if !changed {
			continue
		}
		f.pushFullscreenState(wd.Window, fullscreen)
		if f.fullscreenChanged != nil {
			f.fullscreenChanged(wd.Window, fullscreen)
		}
	}
}

func (f *Frontend) pushFullscreenState(win xproto.Window, fullscreen bool) {
	xu, err := f.xu()
	if err != nil {
		return
	}
	states := []string{}
	if fullscreen {
		states = append(states, "_NET_WM_STATE_FULLSCREEN")
	}
	if err := ewmh.WmStateSet(xu, win, states); err != nil {
		f.log.Warn("xwm: set _NET_WM_STATE on %d failed: %s", win, err)
	}
}

// NewFrontend wraps an existing connection to the nested X server,
// takes substructure redirection on root, and sets up the EWMH and
// RandR state. Atoms are interned on first use.
func NewFrontend(conn *xgb.Conn, root xproto.Window, log *xlog.Logger, coordinator *Coordinator) (*Frontend, error) {
	f := &Frontend{
		Conn:        conn,
		Root:        root,
		Atoms:       newAtomCache(conn),
		log:         log,
		coordinator: coordinator,
	}

	if err := xproto.ChangeWindowAttributesChecked(conn, root, xproto.CwEventMask, []uint32{
		uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange),
	}).Check(); err != nil {
		return nil, fmt.Errorf("xwm: take substructure redirect on root: %w", err)
	}

	if err := f.setupEWMH(); err != nil {
		return nil, err
	}
	f.setupRandr()
	if err := res.Init(conn); err != nil {
		log.Warn("xwm: X-Resource extension unavailable, pid lookup disabled: %s", err)
	}
	return f, nil
}

// setupRandr registers the RandR extension and asks for
// resource-change notifications on root. A failure here is non-fatal:
// the notifications only drive the best-effort output-list refresh.
func (f *Frontend) setupRandr() {
	if err := randr.Init(f.Conn); err != nil {
		f.log.Warn("xwm: RandR extension unavailable: %s", err)
		return
	}
	randr.SelectInputChecked(f.Conn, f.Root,
		randr.NotifyMaskScreenChange|randr.NotifyMaskOutputChange|randr.NotifyMaskCrtcChange).Check()
}

// Dispatch handles one X event, translating it into coordinator and
// EWMH-state calls.
func (f *Frontend) Dispatch(event xgb.Event) {
	switch ev := event.(type) {
	case xproto.CreateNotifyEvent:
		f.onCreateNotify(ev)
	case xproto.ReparentNotifyEvent:
		f.onReparentNotify(ev)
	case xproto.DestroyNotifyEvent:
		f.onDestroyNotify(ev)
	case xproto.MapRequestEvent:
		f.onMapRequest(ev)
	case xproto.MapNotifyEvent:
		f.onMapNotify(ev)
	case xproto.ConfigureRequestEvent:
		f.onConfigureRequest(ev)
	case xproto.ConfigureNotifyEvent:
		f.onConfigureNotify(ev)
	case xproto.UnmapNotifyEvent:
		f.onUnmapNotify(ev)
	case xproto.PropertyNotifyEvent:
		f.onPropertyNotify(ev)
	case xproto.ClientMessageEvent:
		f.onClientMessage(ev)
	default:
		f.dispatchRandr(event)
	}
}

// onCreateNotify creates the WindowData and records the owning
// client's pid via the X-Resource extension.
func (f *Frontend) onCreateNotify(ev xproto.CreateNotifyEvent) {
	if ev.Window == f.wmCheckWindow {
		return
	}
	wd := f.coordinator.CreateWindow(ev.Window)
	wd.Attrs.OverrideRedirect = ev.OverrideRedirect
	wd.Attrs.X, wd.Attrs.Y = ev.X, ev.Y
	wd.Attrs.Width, wd.Attrs.Height = int16(ev.Width), int16(ev.Height)

	if pid, err := f.lookupPid(ev.Window); err == nil {
		wd.Pid = pid
	}
}

// onReparentNotify: a reparent to root is treated as a create; any
// other reparent takes the window out of the bridge's management.
func (f *Frontend) onReparentNotify(ev xproto.ReparentNotifyEvent) {
	if ev.Parent == f.Root {
		if _, ok := f.coordinator.Window(ev.Window); !ok {
			wd := f.coordinator.CreateWindow(ev.Window)
			wd.Attrs.OverrideRedirect = ev.OverrideRedirect
		}
		return
	}
	f.coordinator.DestroyWindow(ev.Window)
}

func (f *Frontend) onDestroyNotify(ev xproto.DestroyNotifyEvent) {
	f.removeFromClientList(ev.Window)
	if f.decorationClosed != nil {
		f.decorationClosed(ev.Window)
	}
	f.coordinator.DestroyWindow(ev.Window)
}

// onMapRequest stacks the window below and maps it.
func (f *Frontend) onMapRequest(ev xproto.MapRequestEvent) {
	xproto.ConfigureWindowChecked(f.Conn, ev.Window, xproto.ConfigWindowStackMode,
		[]uint32{uint32(xproto.StackModeBelow)}).Check()
	xproto.MapWindowChecked(f.Conn, ev.Window).Check()
}

// onMapNotify subscribes to PROPERTY_CHANGE on the window, refreshes
// its properties, then marks it mapped in the coordinator.
func (f *Frontend) onMapNotify(ev xproto.MapNotifyEvent) {
	wd, ok := f.coordinator.Window(ev.Window)
	if !ok {
		wd = f.coordinator.CreateWindow(ev.Window)
	}

	xproto.ChangeWindowAttributesChecked(f.Conn, ev.Window, xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskPropertyChange)}).Check()

	f.refreshAllProperties(wd)
	f.setWMState(wd, WMStateNormal)
	f.addToClientList(ev.Window)

	f.coordinator.MapWindow(wd)
}

// onConfigureRequest passes through width/height and, if the window is
// not yet mapped or is override_redirect, x/y as well.
func (f *Frontend) onConfigureRequest(ev xproto.ConfigureRequestEvent) {
	wd, _ := f.coordinator.Window(ev.Window)

	var mask uint16
	var values []uint32
	passXY := wd == nil || !wd.Mapped || wd.Attrs.OverrideRedirect

	if passXY && ev.ValueMask&xproto.ConfigWindowX != 0 {
		mask |= xproto.ConfigWindowX
		values = append(values, uint32(int32(ev.X)))
	}
	if passXY && ev.ValueMask&xproto.ConfigWindowY != 0 {
		mask |= xproto.ConfigWindowY
		values = append(values, uint32(int32(ev.Y)))
	}
	if ev.ValueMask&xproto.ConfigWindowWidth != 0 {
		mask |= xproto.ConfigWindowWidth
		values = append(values, uint32(ev.Width))
	}
	if ev.ValueMask&xproto.ConfigWindowHeight != 0 {
		mask |= xproto.ConfigWindowHeight
		values = append(values, uint32(ev.Height))
	}
	if ev.ValueMask&xproto.ConfigWindowBorderWidth != 0 {
		mask |= xproto.ConfigWindowBorderWidth
		values = append(values, uint32(ev.BorderWidth))
	}
	if ev.ValueMask&xproto.ConfigWindowStackMode != 0 {
		mask |= xproto.ConfigWindowStackMode
		values = append(values, uint32(ev.StackMode))
	}

	if mask != 0 {
		xproto.ConfigureWindowChecked(f.Conn, ev.Window, mask, values).Check()
	}
}

// onConfigureNotify feeds the coordinator's reconfiguration handling.
// Only a dimension change reconfigures: that keeps the echo of a
// host-applied configure (same dims, delivered back as a
// ConfigureNotify) from bouncing a popup reposition straight back to
// the host.
func (f *Frontend) onConfigureNotify(ev xproto.ConfigureNotifyEvent) {
	wd, ok := f.coordinator.Window(ev.Window)
	if !ok {
		return
	}
	dimsChanged := wd.Attrs.Width != int16(ev.Width) || wd.Attrs.Height != int16(ev.Height)
	wd.Attrs.X, wd.Attrs.Y = ev.X, ev.Y
	if !dimsChanged {
		return
	}
	f.coordinator.Reconfigure(wd, int16(ev.Width), int16(ev.Height), f.coordinator.wmBaseVersion >= 3)
	if f.decorationSync != nil {
		f.decorationSync(wd)
	}
}

// onUnmapNotify unmaps in the coordinator and, if this window held
// _NET_ACTIVE_WINDOW, clears focus.
func (f *Frontend) onUnmapNotify(ev xproto.UnmapNotifyEvent) {
	wd, ok := f.coordinator.Window(ev.Window)
	if !ok {
		return
	}
	f.coordinator.UnmapWindow(wd)
	f.setWMState(wd, WMStateWithdrawn)
	f.removeFromClientList(ev.Window)

	if f.hasFocusedWindow && f.focusedWindow == ev.Window {
		f.ClearFocus()
	}
}

// onPropertyNotify re-resolves the changed property only; a property
// is never deleted on change.
func (f *Frontend) onPropertyNotify(ev xproto.PropertyNotifyEvent) {
	if ev.State == xproto.PropertyDelete {
		return
	}
	wd, ok := f.coordinator.Window(ev.Window)
	if !ok {
		return
	}
	f.refreshProperty(wd, ev.Atom)
}

func (f *Frontend) lookupPid(win xproto.Window) (int, error) {
	spec := res.ClientIdSpec{Client: uint32(win), Mask: res.ClientIdMaskLocalClientPID}
	reply, err := res.QueryClientIds(f.Conn, 1, []res.ClientIdSpec{spec}).Reply()
	if err != nil {
		return 0, err
	}
	for _, id := range reply.Ids {
		if len(id.Value) > 0 {
			return int(id.Value[0]), nil
		}
	}
	return 0, fmt.Errorf("xwm: no pid reported for window %d", win)
}

func (f *Frontend) addToClientList(win xproto.Window) {
	for _, w := range f.clientList {
		if w == win {
			return
		}
	}
	f.clientList = append(f.clientList, win)
	f.syncClientList()
}

func (f *Frontend) removeFromClientList(win xproto.Window) {
	out := f.clientList[:0]
	for _, w := range f.clientList {
		if w != win {
			out = append(out, w)
		}
	}
	f.clientList = out
	f.syncClientList()
}
