package relay

import (
	"io"
	"testing"

	"github.com/jezek/xgb/xproto"

	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/store"
)

func newEngine() (*Engine, *store.Store) {
	st := store.New()
	return &Engine{Store: st, Log: xlog.New(xlog.ERROR, io.Discard)}, st
}

func insertSurface(st *store.Store, sd *SurfaceData) store.ObjectKey {
	return st.InsertWithKey(func(k store.ObjectKey) store.Object {
		sd.Key = k
		return store.New(k, store.KindSurface, sd)
	})
}

// A toplevel's pending size is logical host units; the X window must
// receive it multiplied by the surface's scale factor.
func TestApplyPendingConfigureScalesToplevelUp(t *testing.T) {
	e, st := newEngine()
	key := insertSurface(st, &SurfaceData{
		Role:        RoleToplevel,
		Toplevel:    &ToplevelRole{PendingWidth: 100, PendingHeight: 50},
		BufferScale: 2,
		Window:      xproto.Window(7),
		HasWindow:   true,
	})

	var gotWin xproto.Window
	var gotW, gotH int32
	var gotPos bool
	calls := 0
	e.OnConfigure = func(win xproto.Window, x, y, w, h int32, hasPosition bool) {
		calls++
		gotWin, gotW, gotH, gotPos = win, w, h, hasPosition
	}

	e.applyPendingConfigure(key)

	if calls != 1 {
		t.Fatalf("got %d configure calls, want 1", calls)
	}
	if gotWin != 7 || gotW != 200 || gotH != 100 {
		t.Fatalf("got window %d size %dx%d, want window 7 size 200x100", gotWin, gotW, gotH)
	}
	if gotPos {
		t.Fatal("a toplevel configure must not carry a position")
	}

	obj, _ := st.Get(key)
	sd := store.Must[*SurfaceData](obj, store.KindSurface)
	if !sd.Toplevel.Configured {
		t.Fatal("role must be marked configured")
	}
	if sd.Toplevel.PendingWidth != 0 || sd.Toplevel.PendingHeight != 0 {
		t.Fatal("pending size must be consumed by application")
	}

	// A second configure with nothing pending must not re-apply.
	e.applyPendingConfigure(key)
	if calls != 1 {
		t.Fatalf("got %d configure calls after an empty configure, want 1", calls)
	}
}

// A popup's pending geometry carries a parent-relative position; both
// position and size scale to X pixels.
func TestApplyPendingConfigureScalesPopup(t *testing.T) {
	e, st := newEngine()
	key := insertSurface(st, &SurfaceData{
		Role:        RolePopup,
		Popup:       &PopupRole{PendingX: 10, PendingY: -5, PendingWidth: 50, PendingHeight: 50},
		BufferScale: 2,
		Window:      xproto.Window(9),
		HasWindow:   true,
	})

	var gotX, gotY, gotW, gotH int32
	var gotPos bool
	e.OnConfigure = func(_ xproto.Window, x, y, w, h int32, hasPosition bool) {
		gotX, gotY, gotW, gotH, gotPos = x, y, w, h, hasPosition
	}

	e.applyPendingConfigure(key)

	if !gotPos {
		t.Fatal("a popup configure must carry its position")
	}
	if gotX != 20 || gotY != -10 || gotW != 100 || gotH != 100 {
		t.Fatalf("got (%d,%d) %dx%d, want (20,-10) 100x100", gotX, gotY, gotW, gotH)
	}
}

// A configure for a surface that has no paired X window still marks
// the role configured without calling out.
func TestApplyPendingConfigureWithoutWindow(t *testing.T) {
	e, st := newEngine()
	key := insertSurface(st, &SurfaceData{
		Role:     RoleToplevel,
		Toplevel: &ToplevelRole{PendingWidth: 640, PendingHeight: 480},
	})

	e.OnConfigure = func(xproto.Window, int32, int32, int32, int32, bool) {
		t.Fatal("configure must not be pushed for an unpaired surface")
	}

	e.applyPendingConfigure(key)

	obj, _ := st.Get(key)
	sd := store.Must[*SurfaceData](obj, store.KindSurface)
	if !sd.Toplevel.Configured {
		t.Fatal("role must still be marked configured")
	}
}
