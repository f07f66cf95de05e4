// Package decoration paints client-side decorations: a 25px titlebar
// subsurface for toplevels whose host decoration negotiation leaves
// them client-side-decorated.
package decoration

import (
	"fmt"
	"os"
	"syscall"

	"github.com/rajveermalviya/go-wayland/wayland/client"

	xlog "xwaylandbridge/internal/log"
)

// TitlebarHeight is the fixed titlebar height; the subsurface is
// anchored at (0, -TitlebarHeight) on the toplevel surface.
const TitlebarHeight = 25

// closeButtonWidth is the right-anchored square the close glyph is
// drawn in.
const closeButtonWidth = TitlebarHeight

// Colors configures the decoration's palette, overridable via
// internal/config.
type Colors struct {
	Background [4]byte // BGRA, matches ARGB8888 byte order on little-endian
	Title      [4]byte
	CloseGlyph [4]byte
	CloseHover [4]byte
}

// DefaultColors is the plain look: white background, dark title text
// in the left margin, a dark close glyph in a right-anchored square.
var DefaultColors = Colors{
	Background: [4]byte{0xff, 0xff, 0xff, 0xff},
	Title:      [4]byte{0x20, 0x20, 0x20, 0xff},
	CloseGlyph: [4]byte{0x20, 0x20, 0x20, 0xff},
	CloseHover: [4]byte{0xff, 0xff, 0xff, 0xff},
}

// Decoration is the per-toplevel CSD state.
type Decoration struct {
	log    *xlog.Logger
	colors Colors

	subsurface *client.Subsurface
	surface    *client.Surface
	shm        *client.Shm

	width int32
	title string

	buffer    *client.Buffer
	pool      *client.ShmPool
	pixels    []byte
	mmapFile  *os.File

	hoveringClose bool

	// MoveRequested and CloseRequested are observed by internal/bridge
	// to drive xdg_toplevel.move and the WM_DELETE_WINDOW
	// ClientMessage: clicks on the close glyph close the window,
	// clicks elsewhere start an interactive move.
	MoveRequested  func()
	CloseRequested func()
}

// New creates the decoration subsurface on the toplevel surface.
func New(log *xlog.Logger, compositor *client.Compositor, subcompositor *client.Subcompositor, shm *client.Shm, toplevelSurface *client.Surface, colors Colors) (*Decoration, error) {
	surface, err := compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("decoration: create_surface failed: %w", err)
	}
	sub, err := subcompositor.GetSubsurface(surface, toplevelSurface)
	if err != nil {
		return nil, fmt.Errorf("decoration: get_subsurface failed: %w", err)
	}
	sub.SetPosition(0, -TitlebarHeight)
	sub.SetDesync()

	d := &Decoration{
		log:        log,
		colors:     colors,
		subsurface: sub,
		surface:    surface,
		shm:        shm,
	}

	surface.SetEnterHandler(func(client.SurfaceEnterEvent) {})
	return d, nil
}

// Resize repaints the titlebar for a toplevel of the given width and
// title, allocating a fresh SHM buffer.
func (d *Decoration) Resize(width int32, title string) error {
	if width == d.width && title == d.title && d.buffer != nil {
		return nil
	}
	d.width = width
	d.title = title

	stride := width * 4
	size := stride * TitlebarHeight

	fd, err := memfd(size)
	if err != nil {
		return fmt.Errorf("decoration: allocate shm buffer: %w", err)
	}
	f := os.NewFile(uintptr(fd), "decoration-shm")

	pool, err := d.shm.CreatePool(fd, size)
	if err != nil {
		f.Close()
		return fmt.Errorf("decoration: create_pool failed: %w", err)
	}
	buf, err := pool.CreateBuffer(0, width, TitlebarHeight, stride, uint32(client.ShmFormatArgb8888))
	if err != nil {
		pool.Destroy()
		f.Close()
		return fmt.Errorf("decoration: create_buffer failed: %w", err)
	}

	pixels := make([]byte, size)
	d.paint(pixels, width, title)
	if _, err := f.WriteAt(pixels, 0); err != nil {
		buf.Destroy()
		pool.Destroy()
		f.Close()
		return fmt.Errorf("decoration: write shm contents: %w", err)
	}

	if d.buffer != nil {
		d.buffer.Destroy()
	}
	if d.pool != nil {
		d.pool.Destroy()
	}
	if d.mmapFile != nil {
		d.mmapFile.Close()
	}
	d.buffer, d.pool, d.mmapFile, d.pixels = buf, pool, f, pixels

	d.surface.Attach(buf, 0, 0)
	d.surface.DamageBuffer(0, 0, width, TitlebarHeight)
	d.surface.Commit()
	return nil
}

// titleMargin is the left inset the title text is drawn at.
const titleMargin = 6

// paint fills the ARGB8888 pixel buffer: white background, a left
// -margin title rendered via the package's bitmap font (font.go), and
// a right-anchored close square.
func (d *Decoration) paint(pixels []byte, width int32, title string) {
	for y := int32(0); y < TitlebarHeight; y++ {
		for x := int32(0); x < width; x++ {
			off := (y*width + x) * 4
			c := d.colors.Background
			if x >= width-closeButtonWidth {
				if d.hoveringClose {
					c = d.colors.CloseHover
				}
			}
			pixels[off+0] = c[0]
			pixels[off+1] = c[1]
			pixels[off+2] = c[2]
			pixels[off+3] = c[3]
		}
	}
	var textY int32 = (TitlebarHeight - glyphHeight) / 2
	maxWidth := width - closeButtonWidth - titleMargin
	drawText(pixels, width, titleMargin, textY, truncateTitle(title, maxWidth), d.colors.Title)
	d.drawCloseGlyph(pixels, width)
}

// truncateTitle trims s so it fits within maxWidth pixels at the
// font's fixed advance, so a long X window title never paints over
// the close button.
func truncateTitle(s string, maxWidth int32) string {
	if maxWidth <= 0 {
		return ""
	}
	maxChars := int(maxWidth / (glyphWidth + glyphGap))
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars <= 1 {
		return ""
	}
	return string(runes[:maxChars-1]) + "…"
}

// drawCloseGlyph draws a simple X using two diagonals across the
// close-button square, avoiding a font dependency for a single glyph.
func (d *Decoration) drawCloseGlyph(pixels []byte, width int32) {
	const margin = 8
	x0 := width - closeButtonWidth + margin
	x1 := width - margin
	y0 := int32(margin)
	y1 := int32(TitlebarHeight - margin)
	set := func(x, y int32) {
		if x < 0 || x >= width || y < 0 || y >= TitlebarHeight {
			return
		}
		off := (y*width + x) * 4
		pixels[off+0] = d.colors.CloseGlyph[0]
		pixels[off+1] = d.colors.CloseGlyph[1]
		pixels[off+2] = d.colors.CloseGlyph[2]
		pixels[off+3] = d.colors.CloseGlyph[3]
	}
	span := x1 - x0
	if span <= 0 {
		return
	}
	for i := int32(0); i <= span; i++ {
		t := float64(i) / float64(span)
		set(x0+i, y0+int32(t*float64(y1-y0)))
		set(x0+i, y1-int32(t*float64(y1-y0)))
	}
}

// Surface returns the decoration's own client-side wl_surface, used by
// internal/bridge to recognize a host pointer/enter event landing on
// the titlebar rather than on an Xwayland-owned surface.
func (d *Decoration) Surface() *client.Surface {
	return d.surface
}

// HandlePointerMotion tracks pointer motion over the titlebar. Pointer
// entry to the decoration is never forwarded to the X side — the
// caller (seat relay) diverts those events here instead — so the only
// work is close-button hover state for repainting.
func (d *Decoration) HandlePointerMotion(x, y float64) {
	hovering := x >= float64(d.width-closeButtonWidth)
	if hovering != d.hoveringClose {
		d.hoveringClose = hovering
		d.forceRepaint()
	}
}

func (d *Decoration) forceRepaint() {
	if d.pixels == nil {
		return
	}
	d.paint(d.pixels, d.width, d.title)
	if d.mmapFile != nil {
		d.mmapFile.WriteAt(d.pixels, 0)
	}
	if d.buffer != nil {
		d.surface.Attach(d.buffer, 0, 0)
		d.surface.DamageBuffer(0, 0, d.width, TitlebarHeight)
		d.surface.Commit()
	}
}

// HandlePointerButton routes a press: the close-glyph square closes
// the window, anywhere else starts an interactive move.
func (d *Decoration) HandlePointerButton(x, y float64, pressed bool) {
	if !pressed {
		return
	}
	if x >= float64(d.width-closeButtonWidth) {
		if d.CloseRequested != nil {
			d.CloseRequested()
		}
		return
	}
	if d.MoveRequested != nil {
		d.MoveRequested()
	}
}

// Hide detaches the decoration's buffer while the toplevel is
// fullscreen.
func (d *Decoration) Hide() {
	d.surface.Attach(nil, 0, 0)
	d.surface.Commit()
}

// Show re-attaches the last painted buffer after Hide.
func (d *Decoration) Show() {
	if d.buffer == nil {
		return
	}
	d.surface.Attach(d.buffer, 0, 0)
	d.surface.DamageBuffer(0, 0, d.width, TitlebarHeight)
	d.surface.Commit()
}

// Destroy releases the decoration's wire objects and shared memory.
func (d *Decoration) Destroy() {
	if d.buffer != nil {
		d.buffer.Destroy()
	}
	if d.pool != nil {
		d.pool.Destroy()
	}
	if d.mmapFile != nil {
		d.mmapFile.Close()
	}
	d.subsurface.Destroy()
	d.surface.Destroy()
}

// memfd creates an anonymous shared memory file truncated to size,
// suitable for wl_shm, the same primitive the host compositor expects
// any wl_shm client to use. No file seals are applied.
func memfd(size int32) (int, error) {
	fd, err := unixMemfdCreate("xwaylandbridge-decoration")
	if err != nil {
		return -1, err
	}
	if err := syscall.Ftruncate(fd, int64(size)); err != nil {
		syscall.Close(fd)
		return -1, err
	}
	return fd, nil
}
