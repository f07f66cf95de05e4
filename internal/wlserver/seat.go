package wlserver

const (
	seatRequestGetPointer  = 0
	seatRequestGetKeyboard = 1
	seatRequestGetTouch    = 2
	seatRequestRelease     = 3

	seatEventCapabilities = 0
	seatEventName         = 1

	pointerEventEnter  = 0
	pointerEventLeave  = 1
	pointerEventMotion = 2
	pointerEventButton = 3
	pointerEventAxis   = 4
	pointerEventFrame  = 5

	keyboardEventKeymap     = 0
	keyboardEventEnter      = 1
	keyboardEventLeave      = 2
	keyboardEventKey        = 3
	keyboardEventModifiers  = 4
	keyboardEventRepeatInfo = 5

	touchEventDown   = 0
	touchEventUp     = 1
	touchEventMotion = 2
	touchEventFrame  = 3
	touchEventCancel = 4
)

// Seat is a bound wl_seat.
type Seat struct {
	proxyObject

	getPointerHandler  func(SeatGetPointerEvent)
	getKeyboardHandler func(SeatGetKeyboardEvent)
	getTouchHandler    func(SeatGetTouchEvent)
	releaseHandler     func(SeatReleaseEvent)
}

type SeatGetPointerEvent struct{ Id uint32 }
type SeatGetKeyboardEvent struct{ Id uint32 }
type SeatGetTouchEvent struct{ Id uint32 }
type SeatReleaseEvent struct{}

func NewSeat(c *Client, version uint32, id uint32) *Seat {
	s := &Seat{proxyObject: proxyObject{id: id, version: version, client: c}}
	s.register(s)
	return s
}

func (s *Seat) SetGetPointerHandler(f func(SeatGetPointerEvent)) { s.getPointerHandler = f }
func (s *Seat) SetGetKeyboardHandler(f func(SeatGetKeyboardEvent)) { s.getKeyboardHandler = f }
func (s *Seat) SetGetTouchHandler(f func(SeatGetTouchEvent)) { s.getTouchHandler = f }
func (s *Seat) SetReleaseHandler(f func(SeatReleaseEvent)) { s.releaseHandler = f }

func (s *Seat) SendCapabilitiesEvent(caps uint32) {
	e := &encoder{}
	e.putUint32(caps)
	s.send(seatEventCapabilities, e)
}

func (s *Seat) SendNameEvent(name string) {
	e := &encoder{}
	e.putString(name)
	s.send(seatEventName, e)
}

func (s *Seat) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case seatRequestGetPointer, seatRequestGetKeyboard, seatRequestGetTouch:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		switch opcode {
		case seatRequestGetPointer:
			if s.getPointerHandler != nil {
				s.getPointerHandler(SeatGetPointerEvent{Id: id})
			}
		case seatRequestGetKeyboard:
			if s.getKeyboardHandler != nil {
				s.getKeyboardHandler(SeatGetKeyboardEvent{Id: id})
			}
		case seatRequestGetTouch:
			if s.getTouchHandler != nil {
				s.getTouchHandler(SeatGetTouchEvent{Id: id})
			}
		}
	case seatRequestRelease:
		if s.releaseHandler != nil {
			s.releaseHandler(SeatReleaseEvent{})
		}
		s.unregister()
	}
	return nil
}

// Pointer is a bound wl_pointer.
type Pointer struct {
	proxyObject
}

func NewPointer(c *Client, version uint32, id uint32) *Pointer {
	p := &Pointer{proxyObject{id: id, version: version, client: c}}
	p.register(p)
	return p
}

func (p *Pointer) dispatch(uint16, *decoder) error { return nil }

func (p *Pointer) SendEnterEvent(serial uint32, surface *Surface, x, y float64) {
	if surface == nil {
		return
	}
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(surface.ID())
	e.putFixed(FixedFromFloat(x))
	e.putFixed(FixedFromFloat(y))
	p.send(pointerEventEnter, e)
}

func (p *Pointer) SendLeaveEvent(serial uint32, surface *Surface) {
	if surface == nil {
		return
	}
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(surface.ID())
	p.send(pointerEventLeave, e)
}

func (p *Pointer) SendMotionEvent(time uint32, x, y float64) {
	e := &encoder{}
	e.putUint32(time)
	e.putFixed(FixedFromFloat(x))
	e.putFixed(FixedFromFloat(y))
	p.send(pointerEventMotion, e)
}

func (p *Pointer) SendButtonEvent(serial, time, button, state uint32) {
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(time)
	e.putUint32(button)
	e.putUint32(state)
	p.send(pointerEventButton, e)
}

func (p *Pointer) SendAxisEvent(time uint32, axis uint32, value float64) {
	e := &encoder{}
	e.putUint32(time)
	e.putUint32(axis)
	e.putFixed(FixedFromFloat(value))
	p.send(pointerEventAxis, e)
}

func (p *Pointer) SendFrameEvent() {
	if p.Version() < 5 {
		return
	}
	p.send(pointerEventFrame, &encoder{})
}

// Keyboard is a bound wl_keyboard.
type Keyboard struct {
	proxyObject
}

func NewKeyboard(c *Client, version uint32, id uint32) *Keyboard {
	k := &Keyboard{proxyObject{id: id, version: version, client: c}}
	k.register(k)
	return k
}

func (k *Keyboard) dispatch(uint16, *decoder) error { return nil }

func (k *Keyboard) SendKeymapEvent(format uint32, fd uintptr, size uint32) {
	e := &encoder{}
	e.putUint32(format)
	e.putFD(int(fd))
	e.putUint32(size)
	k.send(keyboardEventKeymap, e)
}

func (k *Keyboard) SendEnterEvent(serial uint32, surface *Surface, keys []byte) {
	if surface == nil {
		return
	}
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(surface.ID())
	e.putArray(keys)
	k.send(keyboardEventEnter, e)
}

func (k *Keyboard) SendLeaveEvent(serial uint32, surface *Surface) {
	if surface == nil {
		return
	}
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(surface.ID())
	k.send(keyboardEventLeave, e)
}

func (k *Keyboard) SendKeyEvent(serial, time, key, state uint32) {
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(time)
	e.putUint32(key)
	e.putUint32(state)
	k.send(keyboardEventKey, e)
}

func (k *Keyboard) SendModifiersEvent(serial, depressed, latched, locked, group uint32) {
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(depressed)
	e.putUint32(latched)
	e.putUint32(locked)
	e.putUint32(group)
	k.send(keyboardEventModifiers, e)
}

func (k *Keyboard) SendRepeatInfoEvent(rate, delay int32) {
	if k.Version() < 4 {
		return
	}
	e := &encoder{}
	e.putInt32(rate)
	e.putInt32(delay)
	k.send(keyboardEventRepeatInfo, e)
}

// Touch is a bound wl_touch.
type Touch struct {
	proxyObject
}

func NewTouch(c *Client, version uint32, id uint32) *Touch {
	t := &Touch{proxyObject{id: id, version: version, client: c}}
	t.register(t)
	return t
}

func (t *Touch) dispatch(uint16, *decoder) error { return nil }

func (t *Touch) SendDownEvent(serial, time uint32, surface *Surface, id int32, x, y float64) {
	if surface == nil {
		return
	}
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(time)
	e.putUint32(surface.ID())
	e.putInt32(id)
	e.putFixed(FixedFromFloat(x))
	e.putFixed(FixedFromFloat(y))
	t.send(touchEventDown, e)
}

func (t *Touch) SendUpEvent(serial, time uint32, id int32) {
	e := &encoder{}
	e.putUint32(serial)
	e.putUint32(time)
	e.putInt32(id)
	t.send(touchEventUp, e)
}

func (t *Touch) SendMotionEvent(time uint32, id int32, x, y float64) {
	e := &encoder{}
	e.putUint32(time)
	e.putInt32(id)
	e.putFixed(FixedFromFloat(x))
	e.putFixed(FixedFromFloat(y))
	t.send(touchEventMotion, e)
}

func (t *Touch) SendFrameEvent() {
	t.send(touchEventFrame, &encoder{})
}

func (t *Touch) SendCancelEvent() {
	t.send(touchEventCancel, &encoder{})
}
