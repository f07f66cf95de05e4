package bridge

import (
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// bindSeat wires wl_seat: a keyed Object per bound instance, since its
// pointer/keyboard/touch children carry the event streams the focus
// model and the decoration hit-testing both depend on. Mirrors
// bindDrm's bind-fresh-proxy shape rather than the PassthroughGlobals
// registry, since each seat instance has its own event stream.
func (b *Bridge) bindSeat(hostName uint32, c *server.Client, version uint32, id uint32) {
	hostReg := b.queue.Registry()
	pg, ok := b.globalsByName[hostName]
	if !ok {
		return
	}
	clientSeat := client.NewSeat(hostReg.Context())
	if err := hostReg.Bind(pg.hostName, pg.iface, pg.version, clientSeat); err != nil {
		b.log.Warn("bridge: wl_seat bind failed: %s", err)
		return
	}
	serverSeat := server.NewSeat(c, version, id)

	seatKey := b.relay.HandleSeatBind(clientSeat, func(store.ObjectKey) any { return serverSeat })
	st := &seatState{key: seatKey, clientSeat: clientSeat}
	b.seats[seatKey] = st
	b.seatsByResource[serverSeat] = st

	// The most recently bound seat drives interactive move/resize and
	// selection publication.
	b.coordinator.ActiveSeat = clientSeat
	b.attachSelectionDevices(st)

	serverSeat.SetGetPointerHandler(func(ev server.SeatGetPointerEvent) {
		b.bindPointer(c, version, ev.Id, clientSeat)
	})
	serverSeat.SetGetKeyboardHandler(func(ev server.SeatGetKeyboardEvent) {
		b.bindKeyboard(c, version, ev.Id, clientSeat)
	})
	serverSeat.SetGetTouchHandler(func(ev server.SeatGetTouchEvent) {
		b.bindTouch(c, version, ev.Id, clientSeat)
	})
	serverSeat.SetReleaseHandler(func(server.SeatReleaseEvent) {
		delete(b.seatsByResource, serverSeat)
		delete(b.seats, seatKey)
		b.store.Remove(seatKey)
	})
}

// attachSelectionDevices binds the host data-device (and, when the
// host offers one, primary-selection device) for the seat and hands
// them to the selection bridge. Bind failure for either manager
// disables the corresponding selection direction rather than failing
// the seat.
func (b *Bridge) attachSelectionDevices(st *seatState) {
	reg := b.queue.Registry()
	pg, ok := b.seenGlobals["wl_data_device_manager"]
	if !ok {
		b.log.Warn("bridge: host offers no wl_data_device_manager, clipboard bridging disabled")
		return
	}
	mgr := client.NewDataDeviceManager(reg.Context())
	if err := reg.Bind(pg.hostName, pg.iface, pg.version, mgr); err != nil {
		b.log.Warn("bridge: wl_data_device_manager bind failed, clipboard bridging disabled: %s", err)
		return
	}

	var primaryMgr *client.ZwpPrimarySelectionDeviceManagerV1
	if pg, ok := b.seenGlobals["zwp_primary_selection_device_manager_v1"]; ok {
		primaryMgr = client.NewZwpPrimarySelectionDeviceManagerV1(reg.Context())
		if err := reg.Bind(pg.hostName, pg.iface, pg.version, primaryMgr); err != nil {
			b.log.Warn("bridge: primary-selection bind failed, feature disabled: %s", err)
			primaryMgr = nil
		}
	}

	dd, err := b.relay.BindDataDevice(mgr, primaryMgr, st.clientSeat)
	if err != nil {
		b.log.Warn("bridge: get_data_device failed, clipboard bridging disabled: %s", err)
		return
	}
	st.dataDevice = dd
	b.selection.AttachDataDevice(mgr, primaryMgr, dd.DataDevice, dd.PrimarySelectionDevice)
}

// bindPointer relays wl_pointer, diverting events that land on a
// decoration's own titlebar surface into internal/decoration's hit
// testing instead of forwarding them to Xwayland.
func (b *Bridge) bindPointer(c *server.Client, version uint32, id uint32, clientSeat *client.Seat) {
	clientPointer, err := clientSeat.GetPointer()
	if err != nil {
		b.log.Warn("bridge: wl_seat.get_pointer failed: %s", err)
		return
	}
	serverPointer := server.NewPointer(c, version, id)
	b.pointers[serverPointer] = clientPointer

	var currentSurfaceKey store.ObjectKey
	var currentDecoration *decorationRef
	var decX, decY float64

	clientPointer.SetEnterHandler(func(ev client.PointerEnterEvent) {
		b.coordinator.RecordPointerSerial(ev.Serial)

		if dec, ok := b.decorationsByClientSurface[ev.Surface]; ok {
			currentDecoration = &decorationRef{dec}
			decX, decY = ev.SurfaceX, ev.SurfaceY
			dec.HandlePointerMotion(decX, decY)
			return
		}
		currentDecoration = nil

		key, ok := b.clientSurfaceKeys[ev.Surface]
		if !ok {
			return
		}
		currentSurfaceKey = key
		serverSurface := b.serverSurfaceFor(key)
		b.relay.HandlePointerEnter(ev.Serial, key, ev.SurfaceX, ev.SurfaceY, func(_ store.ObjectKey, x, y float64) {
			if serverSurface != nil {
				serverPointer.SendEnterEvent(ev.Serial, serverSurface, x, y)
			}
		})
		b.setLastHoveredFromSurface(key)
	})

	clientPointer.SetMotionHandler(func(ev client.PointerMotionEvent) {
		if currentDecoration != nil {
			decX, decY = ev.SurfaceX, ev.SurfaceY
			currentDecoration.dec.HandlePointerMotion(decX, decY)
			return
		}
		scale := b.surfaceScaleFor(currentSurfaceKey)
		serverPointer.SendMotionEvent(ev.Time, ev.SurfaceX*scale, ev.SurfaceY*scale)
	})

	clientPointer.SetButtonHandler(func(ev client.PointerButtonEvent) {
		b.relay.HandlePointerButton(ev.Serial, func(serial uint32) {
			b.coordinator.RecordPointerSerial(serial)
		})
		if currentDecoration != nil {
			currentDecoration.dec.HandlePointerButton(decX, decY, ev.State == wlPointerButtonStatePressed)
			return
		}
		serverPointer.SendButtonEvent(ev.Serial, ev.Time, ev.Button, ev.State)
	})

	clientPointer.SetLeaveHandler(func(ev client.PointerLeaveEvent) {
		if currentDecoration == nil {
			if serverSurface := b.serverSurfaceFor(currentSurfaceKey); serverSurface != nil {
				serverPointer.SendLeaveEvent(ev.Serial, serverSurface)
			}
		}
		currentDecoration = nil
	})

	clientPointer.SetAxisHandler(func(ev client.PointerAxisEvent) {
		if currentDecoration != nil {
			return
		}
		serverPointer.SendAxisEvent(ev.Time, ev.Axis, ev.Value)
	})

	clientPointer.SetFrameHandler(func(client.PointerFrameEvent) {
		serverPointer.SendFrameEvent()
	})
}

// wlPointerButtonStatePressed is wl_pointer.button_state's wire value
// for "pressed" — used directly since PointerButtonEvent.State (like
// every other enum-typed wire field in these generated events) comes
// through as the raw uint32, with the named enum type reserved for
// outgoing request parameters.
const wlPointerButtonStatePressed = 1

// decorationRef boxes a *decoration.Decoration so the pointer handler
// closures above can hold a typed nilable reference without importing
// internal/decoration's type name directly at every call site.
type decorationRef struct {
	dec interface {
		HandlePointerMotion(x, y float64)
		HandlePointerButton(x, y float64, pressed bool)
	}
}

// surfaceScaleFor returns the scale factor pointer/touch coordinates
// landing on the surface must be multiplied by before delivery to the
// X side.
func (b *Bridge) surfaceScaleFor(key store.ObjectKey) float64 {
	o, ok := b.store.Get(key)
	if !ok {
		return 1
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok || sd.BufferScale < 1 {
		return 1
	}
	return float64(sd.BufferScale)
}

// bindKeyboard relays wl_keyboard, driving X-side focus on enter/leave
// while forwarding keymap/key/modifiers as plain passthrough (no
// surface-specific rewriting needed). Every serial that passes through
// here is remembered for the selection bridge: set_selection on the
// host demands a recent keyboard serial.
func (b *Bridge) bindKeyboard(c *server.Client, version uint32, id uint32, clientSeat *client.Seat) {
	clientKeyboard, err := clientSeat.GetKeyboard()
	if err != nil {
		b.log.Warn("bridge: wl_seat.get_keyboard failed: %s", err)
		return
	}
	serverKeyboard := server.NewKeyboard(c, version, id)

	clientKeyboard.SetKeymapHandler(func(ev client.KeyboardKeymapEvent) {
		serverKeyboard.SendKeymapEvent(ev.Format, ev.Fd, ev.Size)
	})
	clientKeyboard.SetEnterHandler(func(ev client.KeyboardEnterEvent) {
		b.selection.LastKeyboardSerial = ev.Serial
		key, ok := b.clientSurfaceKeys[ev.Surface]
		if !ok {
			return
		}
		serverSurface := b.serverSurfaceFor(key)
		b.relay.HandleKeyboardEnter(key, func(sk store.ObjectKey) {
			if serverSurface != nil {
				serverKeyboard.SendEnterEvent(ev.Serial, serverSurface, ev.Keys)
			}
			if win, ok := b.windowForSurface(sk); ok {
				b.frontend.FocusSurface(win)
			}
		})
	})
	clientKeyboard.SetLeaveHandler(func(ev client.KeyboardLeaveEvent) {
		key, ok := b.clientSurfaceKeys[ev.Surface]
		if ok {
			b.relay.HandleKeyboardLeave(key, func(store.ObjectKey) {
				if serverSurface := b.serverSurfaceFor(key); serverSurface != nil {
					serverKeyboard.SendLeaveEvent(ev.Serial, serverSurface)
				}
			})
		}
		b.frontend.ClearFocus()
	})
	clientKeyboard.SetKeyHandler(func(ev client.KeyboardKeyEvent) {
		b.selection.LastKeyboardSerial = ev.Serial
		serverKeyboard.SendKeyEvent(ev.Serial, ev.Time, ev.Key, ev.State)
	})
	clientKeyboard.SetModifiersHandler(func(ev client.KeyboardModifiersEvent) {
		serverKeyboard.SendModifiersEvent(ev.Serial, ev.ModsDepressed, ev.ModsLatched, ev.ModsLocked, ev.Group)
	})
	clientKeyboard.SetRepeatInfoHandler(func(ev client.KeyboardRepeatInfoEvent) {
		serverKeyboard.SendRepeatInfoEvent(ev.Rate, ev.Delay)
	})
}

// bindTouch is pure passthrough beyond the usual surface reference
// rewrite and coordinate scaling.
func (b *Bridge) bindTouch(c *server.Client, version uint32, id uint32, clientSeat *client.Seat) {
	clientTouch, err := clientSeat.GetTouch()
	if err != nil {
		b.log.Warn("bridge: wl_seat.get_touch failed: %s", err)
		return
	}
	serverTouch := server.NewTouch(c, version, id)

	var currentKey store.ObjectKey
	clientTouch.SetDownHandler(func(ev client.TouchDownEvent) {
		key, ok := b.clientSurfaceKeys[ev.Surface]
		if !ok {
			return
		}
		currentKey = key
		serverSurface := b.serverSurfaceFor(key)
		if serverSurface == nil {
			return
		}
		scale := b.surfaceScaleFor(key)
		serverTouch.SendDownEvent(ev.Serial, ev.Time, serverSurface, ev.Id, ev.X*scale, ev.Y*scale)
	})
	clientTouch.SetUpHandler(func(ev client.TouchUpEvent) {
		serverTouch.SendUpEvent(ev.Serial, ev.Time, ev.Id)
	})
	clientTouch.SetMotionHandler(func(ev client.TouchMotionEvent) {
		scale := b.surfaceScaleFor(currentKey)
		serverTouch.SendMotionEvent(ev.Time, ev.Id, ev.X*scale, ev.Y*scale)
	})
	clientTouch.SetFrameHandler(func(client.TouchFrameEvent) {
		serverTouch.SendFrameEvent()
	})
	clientTouch.SetCancelHandler(func(client.TouchCancelEvent) {
		serverTouch.SendCancelEvent()
	})
}

// serverSurfaceFor resolves an ObjectKey back to its server-side
// wl_surface, the symmetric counterpart of clientSurfaceKeys.
func (b *Bridge) serverSurfaceFor(key store.ObjectKey) *server.Surface {
	o, ok := b.store.Get(key)
	if !ok {
		return nil
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok {
		return nil
	}
	return sd.ServerSurface
}

// windowForSurface resolves an ObjectKey to its paired X window, set
// once by the Coordinator when the surface's role was created.
func (b *Bridge) windowForSurface(key store.ObjectKey) (xproto.Window, bool) {
	o, ok := b.store.Get(key)
	if !ok {
		return 0, false
	}
	sd, ok := store.As[*relay.SurfaceData](o, store.KindSurface)
	if !ok || !sd.HasWindow {
		return 0, false
	}
	return sd.Window, true
}

// setLastHoveredFromSurface maintains the override-redirect
// popup-parent heuristic's record of the most recently pointer-hovered
// window.
func (b *Bridge) setLastHoveredFromSurface(key store.ObjectKey) {
	win, ok := b.windowForSurface(key)
	if !ok {
		return
	}
	b.coordinator.LastHovered = win
	b.coordinator.HasLastHovered = true
}
