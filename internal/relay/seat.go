package relay

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// HandleSeatBind creates the key-bound Object for one bound wl_seat
// instance: seats produce events (capabilities, name) that must reach
// the paired server-side seat.
func (e *Engine) HandleSeatBind(clientSeat *client.Seat, serverSeatFactory func(store.ObjectKey) any) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		serverSeat := serverSeatFactory(key)
		clientSeat.SetCapabilitiesHandler(func(ev client.SeatCapabilitiesEvent) {
			e.onSeatCapabilities(key, ev.Capabilities)
		})
		clientSeat.SetNameHandler(func(ev client.SeatNameEvent) {
			e.onSeatName(key, ev.Name)
		})
		return store.NewSeat(key, store.SeatData{
			ServerSeat: serverSeat,
			ClientSeat: clientSeat,
		})
	})
}

func (e *Engine) onSeatCapabilities(key store.ObjectKey, caps uint32) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd, ok := store.AsSeat(o)
		if !ok {
			return o
		}
		sd.Caps = caps
		if ss, ok := sd.ServerSeat.(*server.Seat); ok {
			ss.SendCapabilitiesEvent(caps)
		}
		return store.NewSeat(key, sd)
	})
}

func (e *Engine) onSeatName(key store.ObjectKey, name string) {
	e.Store.Mutate(key, func(o store.Object) store.Object {
		sd, ok := store.AsSeat(o)
		if !ok {
			return o
		}
		sd.Name = name
		if ss, ok := sd.ServerSeat.(*server.Seat); ok {
			ss.SendNameEvent(name)
		}
		return store.NewSeat(key, sd)
	})
}

// HandlePointerEnter relays wl_pointer.enter, scaling the surface-local
// coordinates by the entered surface's scale factor before they reach
// the X side.
func (e *Engine) HandlePointerEnter(serial uint32, surfaceKey store.ObjectKey, x, y float64, onEnter func(store.ObjectKey, float64, float64)) {
	sd := e.surface(surfaceKey)
	scale := int32(1)
	if sd != nil && sd.BufferScale > 0 {
		scale = sd.BufferScale
	}
	onEnter(surfaceKey, x*float64(scale), y*float64(scale))
}

// PointerButtonFunc lets internal/xwm remember the most recent
// pointer-button serial: interactive move/resize and decoration clicks
// must present the host with a serial from a real input event.
type PointerButtonFunc func(serial uint32)

// HandlePointerButton relays wl_pointer.button, additionally invoking
// onButton so the caller can record the triggering serial.
func (e *Engine) HandlePointerButton(serial uint32, onButton PointerButtonFunc) {
	if onButton != nil {
		onButton(serial)
	}
}

// KeyboardFocusFunc lets internal/xwm react to wl_keyboard.enter/leave
// focus movement without relay importing xwm.
type KeyboardFocusFunc func(surfaceKey store.ObjectKey)

// HandleKeyboardEnter relays wl_keyboard.enter: the host just moved
// keyboard focus to surfaceKey.
func (e *Engine) HandleKeyboardEnter(surfaceKey store.ObjectKey, onEnter KeyboardFocusFunc) {
	if onEnter != nil {
		onEnter(surfaceKey)
	}
}

// HandleKeyboardLeave relays wl_keyboard.leave: the host just moved
// keyboard focus away from surfaceKey.
func (e *Engine) HandleKeyboardLeave(surfaceKey store.ObjectKey, onLeave KeyboardFocusFunc) {
	if onLeave != nil {
		onLeave(surfaceKey)
	}
}
