package bridge

import (
	"github.com/jezek/xgb/xproto"

	"xwaylandbridge/internal/decoration"
	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/xwm"
)

// onToplevelCreated is the Coordinator's OnToplevelCreated callback:
// it paints a client-side titlebar for toplevels left
// client-side-decorated (approximated by _MOTIF_WM_HINTS, since no
// zxdg-decoration-manager global is wired), and keeps it resized to
// the window's current title and width.
func (b *Bridge) onToplevelCreated(wd *xwm.WindowData, sd *relay.SurfaceData) {
	if !b.cfg.Decoration.Enabled || wd.Attrs.Decoration == xwm.DecorationServerSide {
		return
	}
	wd.Attrs.Decoration = xwm.DecorationClientSide

	compositor, err := b.passthrough.Compositor.Get()
	if err != nil {
		b.log.Warn("bridge: decoration: wl_compositor unavailable: %s", err)
		return
	}
	subcompositor, err := b.passthrough.Subcompositor.Get()
	if err != nil {
		b.log.Warn("bridge: decoration: wl_subcompositor unavailable: %s", err)
		return
	}
	shm, err := b.passthrough.Shm.Get()
	if err != nil {
		b.log.Warn("bridge: decoration: wl_shm unavailable: %s", err)
		return
	}

	dec, err := decoration.New(b.log, compositor, subcompositor, shm, sd.ClientSurface, b.cfg.Decoration.Colors())
	if err != nil {
		b.log.Warn("bridge: decoration: create failed: %s", err)
		return
	}
	win := wd.Window
	dec.CloseRequested = func() {
		b.frontend.SendDeleteWindow(win)
	}
	dec.MoveRequested = func() {
		b.frontend.RequestInteractiveMove(win)
	}
	if err := dec.Resize(int32(wd.Attrs.Width), wd.EffectiveTitle()); err != nil {
		b.log.Warn("bridge: decoration: initial paint failed: %s", err)
	}
	b.decorations[win] = dec
	b.decorationsByClientSurface[dec.Surface()] = dec
}

// onToplevelClosed is the Coordinator's CloseHandler, invoked on a
// host xdg_toplevel.close event. It produces a
// WM_PROTOCOLS/WM_DELETE_WINDOW ClientMessage rather than destroying
// the X window directly; X11 clients handle their own shutdown.
func (b *Bridge) onToplevelClosed(win xproto.Window) {
	b.frontend.SendDeleteWindow(win)
}

// refreshDecoration keeps a toplevel's titlebar in sync with its
// current width/title, called whenever ConfigureNotify or a property
// change updates either.
func (b *Bridge) refreshDecoration(wd *xwm.WindowData) {
	dec, ok := b.decorations[wd.Window]
	if !ok {
		return
	}
	if err := dec.Resize(int32(wd.Attrs.Width), wd.EffectiveTitle()); err != nil {
		b.log.Warn("bridge: decoration: resize failed: %s", err)
	}
}

// setDecorationFullscreen hides the decoration while the toplevel is
// fullscreen and restores it afterward.
func (b *Bridge) setDecorationFullscreen(win xproto.Window, fullscreen bool) {
	dec, ok := b.decorations[win]
	if !ok {
		return
	}
	if fullscreen {
		dec.Hide()
	} else {
		dec.Show()
	}
}

// destroyDecoration releases a toplevel's titlebar resources, called
// when its role (or the window itself) is destroyed.
func (b *Bridge) destroyDecoration(win xproto.Window) {
	dec, ok := b.decorations[win]
	if !ok {
		return
	}
	delete(b.decorations, win)
	delete(b.decorationsByClientSurface, dec.Surface())
	dec.Destroy()
}
