// Package xwm is the X-side window manager: it owns the X connection,
// is the substructure manager on root, and reconciles X windows with
// the host surfaces created by the same X client.
package xwm

import (
	"github.com/jezek/xgb/xproto"

	"xwaylandbridge/internal/store"
)

// DecorationMode records whether a toplevel gets a bridge-drawn title
// bar: ServerSide when the window's _MOTIF_WM_HINTS turn decorations
// off (no titlebar is drawn), ClientSide once the bridge has attached
// one, Unknown otherwise.
type DecorationMode int

const (
	DecorationUnknown DecorationMode = iota
	DecorationServerSide
	DecorationClientSide
)

// TitleSource distinguishes ICCCM WM_NAME from EWMH _NET_WM_NAME;
// _NET_WM_NAME wins when both are set, since it is UTF-8 and
// EWMH-preferred.
type TitleSource int

const (
	TitleNone TitleSource = iota
	TitleICCCM
	TitleEWMH
)

// WindowAttributes bundles the X11 properties WindowData tracks.
type WindowAttributes struct {
	OverrideRedirect bool
	PopupFor         xproto.Window
	HasPopupFor      bool

	X, Y, Width, Height int16

	MinWidth, MinHeight int32
	MaxWidth, MaxHeight int32
	HasSizeHints        bool

	Title       string
	TitleSource TitleSource

	Class string

	// StartupID carries _NET_STARTUP_ID when the launching environment
	// set one. Recorded and logged only; no startup-notification
	// protocol runs on top of it.
	StartupID string

	// Group is WM_CLIENT_LEADER / WM_HINTS.window_group, used to
	// relate transient helper windows to their owning application.
	Group xproto.Window

	Decoration DecorationMode

	// InputHint mirrors ICCCM WM_HINTS.input: true or absent means the
	// window wants X input focus.
	InputHint    bool
	HasInputHint bool
}

// WMState is the ICCCM WM_STATE value: Withdrawn/Normal/Iconic.
type WMState int32

const (
	WMStateWithdrawn WMState = 0
	WMStateNormal    WMState = 1
	WMStateIconic    WMState = 3
)

// WindowOutputOffset is the per-window offset applied when reconciling
// global output geometry.
type WindowOutputOffset struct {
	X, Y int32
}

// WindowData is the per-X-window bridged state.
type WindowData struct {
	Window xproto.Window

	// SurfaceSerialLo/Hi is the [lo, hi] pair set by the X client via
	// WL_SURFACE_SERIAL, used to pair this window with its surface.
	SurfaceSerialLo, SurfaceSerialHi uint32
	HasSurfaceSerial                 bool

	// SurfaceKey is set at most once per incarnation of the window,
	// when a surface is found with the matching serial.
	SurfaceKey    store.ObjectKey
	HasSurfaceKey bool

	Mapped bool

	Attrs WindowAttributes

	WMState WMState

	Offset WindowOutputOffset

	Pid int

	// lastConfigureSerial is the configure batch (Frontend's
	// configureSerial) in which the host last assigned this window
	// geometry. AdjustForOutputOffset skips windows stamped with the
	// current batch so a host configure and an offset shift landing
	// together don't move the window twice.
	lastConfigureSerial uint32
}

func NewWindowData(win xproto.Window) *WindowData {
	return &WindowData{Window: win, Attrs: WindowAttributes{}}
}

// EffectiveTitle returns Title if set, else the class name as a
// fallback for window managers that need *some* label.
func (w *WindowData) EffectiveTitle() string {
	if w.Attrs.Title != "" {
		return w.Attrs.Title
	}
	return w.Attrs.Class
}

// WantsInputFocus reports whether focus may be assigned to the
// window: ICCCM WM_HINTS.input is true or absent.
func (w *WindowData) WantsInputFocus() bool {
	if !w.Attrs.HasInputHint {
		return true
	}
	return w.Attrs.InputHint
}
