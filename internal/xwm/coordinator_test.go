package xwm_test

import (
	"io"
	"testing"

	"github.com/jezek/xgb/xproto"

	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/store"
	"xwaylandbridge/internal/xwm"
)

func newCoordinator() (*xwm.Coordinator, *store.Store) {
	st := store.New()
	log := xlog.New(xlog.ERROR, io.Discard)
	eng := &relay.Engine{Store: st, Log: log}
	// wmBase is never dereferenced unless CreateRole runs a role
	// creation, which these tests avoid (windows stay unmapped).
	return xwm.NewCoordinator(st, eng, log, nil, 3), st
}

// Pairing protocol, window-serial-first ordering: the window's
// WL_SURFACE_SERIAL client message arrives before the surface's
// xwayland-shell serial.
func TestPairingWindowFirst(t *testing.T) {
	c, st := newCoordinator()
	win := xproto.Window(100)
	wd := c.CreateWindow(win)

	c.SetWindowSerial(win, 1, 2)
	if wd.HasSurfaceKey {
		t.Fatal("window must not be paired before the surface side arrives")
	}

	key := st.InsertWithKey(func(k store.ObjectKey) store.Object {
		return store.New[*relay.SurfaceData](k, store.KindSurface, &relay.SurfaceData{})
	})
	c.SetSurfaceSerial(key, 1, 2)

	if !wd.HasSurfaceKey || wd.SurfaceKey != key {
		t.Fatal("expected window to be paired with the surface after matching serials")
	}
	obj, ok := st.Get(key)
	if !ok {
		t.Fatal("surface must still be present")
	}
	sd := store.Must[*relay.SurfaceData](obj, store.KindSurface)
	if !sd.HasWindow || sd.Window != win {
		t.Fatal("expected surface to record the cross-reference back to the window")
	}
}

// Pairing protocol, surface-serial-first ordering: the reverse order
// must also pair correctly: the protocol is symmetric in which side
// arrives first.
func TestPairingSurfaceFirst(t *testing.T) {
	c, st := newCoordinator()
	win := xproto.Window(200)
	wd := c.CreateWindow(win)

	key := st.InsertWithKey(func(k store.ObjectKey) store.Object {
		return store.New[*relay.SurfaceData](k, store.KindSurface, &relay.SurfaceData{})
	})
	c.SetSurfaceSerial(key, 5, 6)
	if wd.HasSurfaceKey {
		t.Fatal("window must not be paired before its own serial arrives")
	}

	c.SetWindowSerial(win, 5, 6)
	if !wd.HasSurfaceKey || wd.SurfaceKey != key {
		t.Fatal("expected window to be paired once both serials match")
	}
}

// A window destroyed before its MapNotify (and before pairing) must
// not panic, and any lookup for it must return absence afterward.
func TestStaleWindowDestroyedBeforeMap(t *testing.T) {
	c, st := newCoordinator()
	win := xproto.Window(300)
	c.CreateWindow(win)
	c.SetWindowSerial(win, 9, 9) // serial arrives but never pairs

	c.DestroyWindow(win)

	if _, ok := c.Window(win); ok {
		t.Fatal("expected absence after DestroyWindow")
	}

	// The surface side showing up afterward (matching serial 9,9) must
	// not panic, resurrect the destroyed window, or pair the surface
	// with the dead window's record.
	key := st.InsertWithKey(func(k store.ObjectKey) store.Object {
		return store.New[*relay.SurfaceData](k, store.KindSurface, &relay.SurfaceData{})
	})
	c.SetSurfaceSerial(key, 9, 9)

	if _, ok := c.Window(win); ok {
		t.Fatal("destroyed window must not reappear after a late-arriving serial")
	}
	obj, ok := st.Get(key)
	if !ok {
		t.Fatal("surface must survive the failed pairing")
	}
	sd := store.Must[*relay.SurfaceData](obj, store.KindSurface)
	if sd.HasWindow {
		t.Fatal("surface must not pair with a destroyed window")
	}
}

func TestWindowsListsAllTracked(t *testing.T) {
	c, _ := newCoordinator()
	c.CreateWindow(1)
	c.CreateWindow(2)
	c.CreateWindow(3)

	if got := len(c.Windows()); got != 3 {
		t.Fatalf("got %d windows, want 3", got)
	}

	c.DestroyWindow(2)
	if got := len(c.Windows()); got != 2 {
		t.Fatalf("got %d windows after destroy, want 2", got)
	}
}

// Reconfigure on an unmapped window must just record the new
// dimensions without touching any surface state.
func TestReconfigureUnmappedRecordsDimsOnly(t *testing.T) {
	c, _ := newCoordinator()
	win := xproto.Window(400)
	wd := c.CreateWindow(win)

	c.Reconfigure(wd, 640, 480, true)
	if wd.Attrs.Width != 640 || wd.Attrs.Height != 480 {
		t.Fatalf("got dims (%d,%d), want (640,480)", wd.Attrs.Width, wd.Attrs.Height)
	}
}
