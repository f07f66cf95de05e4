package xwm

import "github.com/jezek/xgb/xproto"

// NextConfigureBatch opens a new configure batch. internal/bridge
// calls this once per main-loop iteration; windows configured by the
// host within the current batch are skipped by AdjustForOutputOffset,
// since their freshly applied position already reflects the current
// offset.
func (f *Frontend) NextConfigureBatch() {
	f.configureSerial++
}

// ApplyHostConfigure pushes host-assigned geometry to an X window: the
// size a toplevel's configure carried, or the parent-relative position
// and size of a popup's. Values arrive already scaled to X pixels by
// the relay layer.
func (f *Frontend) ApplyHostConfigure(win xproto.Window, x, y, width, height int32, hasPosition bool) {
	wd, ok := f.coordinator.Window(win)
	if !ok {
		return
	}

	var mask uint16
	var values []uint32
	if hasPosition {
		// Popup positions are relative to the parent; the X screen
		// wants absolute coordinates.
		if parentWin, ok := f.coordinator.popupParentOf(wd); ok {
			if parentWd, ok := f.coordinator.Window(parentWin); ok {
				x += int32(parentWd.Attrs.X)
				y += int32(parentWd.Attrs.Y)
			}
		}
		mask |= xproto.ConfigWindowX | xproto.ConfigWindowY
		values = append(values, uint32(x), uint32(y))
		wd.Attrs.X, wd.Attrs.Y = int16(x), int16(y)
	}
	mask |= xproto.ConfigWindowWidth | xproto.ConfigWindowHeight
	values = append(values, uint32(width), uint32(height))
	wd.Attrs.Width, wd.Attrs.Height = int16(width), int16(height)

	wd.lastConfigureSerial = f.configureSerial
	xproto.ConfigureWindowChecked(f.Conn, win, mask, values).Check()

	if f.decorationSync != nil {
		f.decorationSync(wd)
	}
}

// AdjustForOutputOffset shifts every known window on the X screen by
// the delta the global output offset just moved by, so each window's
// position relative to its host output stays constant; the recorded
// WindowOutputOffset moves with it. Windows the host configured in the
// same batch keep the position just applied for them.
func (f *Frontend) AdjustForOutputOffset(dx, dy int32) {
	if dx == 0 && dy == 0 {
		return
	}
	for _, wd := range f.coordinator.windows {
		wd.Offset.X += dx
		wd.Offset.Y += dy

		if wd.lastConfigureSerial == f.configureSerial && f.configureSerial != 0 {
			continue
		}

		newX := int32(wd.Attrs.X) - dx
		newY := int32(wd.Attrs.Y) - dy
		wd.Attrs.X, wd.Attrs.Y = int16(newX), int16(newY)

		if !wd.Mapped {
			continue
		}
		xproto.ConfigureWindowChecked(f.Conn, wd.Window,
			xproto.ConfigWindowX|xproto.ConfigWindowY,
			[]uint32{uint32(newX), uint32(newY)}).Check()
	}
}
