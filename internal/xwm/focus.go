package xwm

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil/ewmh"
)

// FocusSurface reacts to the host moving keyboard focus onto a
// surface: find the associated X window, SetInputFocus if ICCCM
// WM_HINTS.input is true or absent, raise the window, update
// _NET_ACTIVE_WINDOW and WM_STATE to Normal, and pass the window to the
// callback installed by SetPrimaryOutputHandler. The RandR primary
// output is not changed on this path.
func (f *Frontend) FocusSurface(win xproto.Window) {
	wd, ok := f.coordinator.Window(win)
	if !ok {
		return
	}

	if wd.WantsInputFocus() {
		xproto.SetInputFocusChecked(f.Conn, xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime).Check()
	}
	xproto.ConfigureWindowChecked(f.Conn, win, xproto.ConfigWindowStackMode,
		[]uint32{uint32(xproto.StackModeAbove)}).Check()

	f.setActiveWindow(win)
	f.setWMState(wd, WMStateNormal)

	if wd.HasSurfaceKey {
		f.coordinator.LastFocusedToplevel = win
		f.coordinator.HasLastFocusedToplevel = true
	}

	if f.primaryOutput != nil {
		f.primaryOutput(win)
	}
}

// ClearFocus is the symmetric half: when the host moves focus away
// and the bridge's record of the focused window still matches, focus
// is cleared on the X side.
func (f *Frontend) ClearFocus() {
	if !f.hasFocusedWindow {
		return
	}
	xproto.SetInputFocusChecked(f.Conn, xproto.InputFocusPointerRoot, f.Root, xproto.TimeCurrentTime).Check()
	f.hasFocusedWindow = false

	xu, err := f.xu()
	if err != nil {
		return
	}
	if err := ewmh.ActiveWindowSet(xu, 0); err != nil {
		f.log.Warn("xwm: clear _NET_ACTIVE_WINDOW failed: %s", err)
	}
}

func (f *Frontend) setActiveWindow(win xproto.Window) {
	f.focusedWindow = win
	f.hasFocusedWindow = true
	xu, err := f.xu()
	if err != nil {
		return
	}
	if err := ewmh.ActiveWindowSet(xu, win); err != nil {
		f.log.Warn("xwm: set _NET_ACTIVE_WINDOW failed: %s", err)
	}
}

// SetPrimaryOutputHandler installs the callback FocusSurface hands each
// newly focused window to, without internal/output needing to import
// internal/xwm.
func (f *Frontend) SetPrimaryOutputHandler(h func(win xproto.Window)) {
	f.primaryOutput = h
}

// dispatchRandr handles RandR resource-change notifications. The
// bridge only cares that something changed; the authoritative output
// geometry still comes from the host protocol (internal/output), so
// this just triggers a re-scan callback.
func (f *Frontend) dispatchRandr(event xgb.Event) {
	switch event.(type) {
	case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
		if f.randrRescan != nil {
			f.randrRescan()
		}
	}
}

// SetRandrRescanHandler installs the callback invoked on a RandR
// resource-change notification.
func (f *Frontend) SetRandrRescanHandler(h func()) {
	f.randrRescan = h
}

// SetPrimaryOutput issues RRSetOutputPrimary for the given RandR output
// on screenRoot. Nothing in the bridge calls it, and no RandR output id
// is resolved for a host output.
func (f *Frontend) SetPrimaryOutput(screenRoot xproto.Window, output randr.Output) {
	randr.SetOutputPrimaryChecked(f.Conn, screenRoot, output).Check()
}
