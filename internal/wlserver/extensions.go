package wlserver

// Request/event opcodes for the extension interfaces the bridge
// advertises beyond the core protocol.
const (
	drmRequestAuthenticate = 0

	drmEventDevice        = 0
	drmEventFormat        = 1
	drmEventAuthenticated = 2
	drmEventCapabilities  = 3

	viewporterRequestDestroy     = 0
	viewporterRequestGetViewport = 1

	viewportRequestDestroy        = 0
	viewportRequestSetSource      = 1
	viewportRequestSetDestination = 2

	dmabufRequestDestroy            = 0
	dmabufRequestCreateParams       = 1
	dmabufRequestGetDefaultFeedback = 2
	dmabufRequestGetSurfaceFeedback = 3

	relPointerMgrRequestDestroy            = 0
	relPointerMgrRequestGetRelativePointer = 1

	relPointerEventRelativeMotion = 0

	constraintsRequestDestroy        = 0
	constraintsRequestLockPointer    = 1
	constraintsRequestConfinePointer = 2

	lockedPointerEventLocked   = 0
	lockedPointerEventUnlocked = 1

	confinedPointerEventConfined   = 0
	confinedPointerEventUnconfined = 1

	tabletManagerRequestGetTabletSeat = 0
	tabletManagerRequestDestroy       = 1

	xwaylandShellRequestDestroy            = 0
	xwaylandShellRequestGetXwaylandSurface = 1

	xwaylandSurfaceRequestSetSerial = 0
	xwaylandSurfaceRequestDestroy   = 1
)

// Drm is a bound wl_drm.
type Drm struct {
	proxyObject

	authenticateHandler func(DrmAuthenticateEvent)
}

type DrmAuthenticateEvent struct{ Id uint32 }

func NewDrm(c *Client, version uint32, id uint32) *Drm {
	d := &Drm{proxyObject: proxyObject{id: id, version: version, client: c}}
	d.register(d)
	return d
}

func (dr *Drm) SetAuthenticateHandler(f func(DrmAuthenticateEvent)) { dr.authenticateHandler = f }

func (dr *Drm) SendDeviceEvent(name string) {
	e := &encoder{}
	e.putString(name)
	dr.send(drmEventDevice, e)
}

func (dr *Drm) SendFormatEvent(format uint32) {
	e := &encoder{}
	e.putUint32(format)
	dr.send(drmEventFormat, e)
}

func (dr *Drm) SendAuthenticatedEvent() {
	dr.send(drmEventAuthenticated, &encoder{})
}

func (dr *Drm) SendCapabilitiesEvent(value uint32) {
	e := &encoder{}
	e.putUint32(value)
	dr.send(drmEventCapabilities, e)
}

func (dr *Drm) dispatch(opcode uint16, d *decoder) error {
	if opcode == drmRequestAuthenticate {
		id, err := d.uint32()
		if err != nil {
			return err
		}
		if dr.authenticateHandler != nil {
			dr.authenticateHandler(DrmAuthenticateEvent{Id: id})
		}
	}
	return nil
}

// WpViewporter is a bound wp_viewporter.
type WpViewporter struct {
	proxyObject

	getViewportHandler func(WpViewporterGetViewportEvent)
}

type WpViewporterGetViewportEvent struct {
	Id      uint32
	Surface *Surface
}

func NewWpViewporter(c *Client, version uint32, id uint32) *WpViewporter {
	v := &WpViewporter{proxyObject: proxyObject{id: id, version: version, client: c}}
	v.register(v)
	return v
}

func (v *WpViewporter) SetGetViewportHandler(f func(WpViewporterGetViewportEvent)) {
	v.getViewportHandler = f
}

func (v *WpViewporter) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case viewporterRequestDestroy:
		v.unregister()
	case viewporterRequestGetViewport:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		surfaceID, err := d.uint32()
		if err != nil {
			return err
		}
		if v.getViewportHandler != nil {
			v.getViewportHandler(WpViewporterGetViewportEvent{
				Id:      id,
				Surface: lookup[*Surface](v.client, surfaceID),
			})
		}
	}
	return nil
}

// WpViewport is a bound wp_viewport.
type WpViewport struct {
	proxyObject

	setSourceHandler      func(WpViewportSetSourceEvent)
	setDestinationHandler func(WpViewportSetDestinationEvent)
}

type WpViewportSetSourceEvent struct{ X, Y, Width, Height float64 }

type WpViewportSetDestinationEvent struct{ Width, Height int32 }

func NewWpViewport(c *Client, version uint32, id uint32) *WpViewport {
	v := &WpViewport{proxyObject: proxyObject{id: id, version: version, client: c}}
	v.register(v)
	return v
}

func (v *WpViewport) SetSetSourceHandler(f func(WpViewportSetSourceEvent)) { v.setSourceHandler = f }
func (v *WpViewport) SetSetDestinationHandler(f func(WpViewportSetDestinationEvent)) {
	v.setDestinationHandler = f
}

func (v *WpViewport) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case viewportRequestDestroy:
		v.unregister()
	case viewportRequestSetSource:
		var args [4]Fixed
		for i := range args {
			f, err := d.fixed()
			if err != nil {
				return err
			}
			args[i] = f
		}
		if v.setSourceHandler != nil {
			v.setSourceHandler(WpViewportSetSourceEvent{
				X: args[0].Float(), Y: args[1].Float(),
				Width: args[2].Float(), Height: args[3].Float(),
			})
		}
	case viewportRequestSetDestination:
		w, err := d.int32()
		if err != nil {
			return err
		}
		h, err := d.int32()
		if err != nil {
			return err
		}
		if v.setDestinationHandler != nil {
			v.setDestinationHandler(WpViewportSetDestinationEvent{Width: w, Height: h})
		}
	}
	return nil
}

// ZwpLinuxDmabufV1 is a bound zwp_linux_dmabuf_v1.
type ZwpLinuxDmabufV1 struct {
	proxyObject

	getDefaultFeedbackHandler func(ZwpLinuxDmabufV1GetDefaultFeedbackEvent)
	getSurfaceFeedbackHandler func(ZwpLinuxDmabufV1GetSurfaceFeedbackEvent)
}

type ZwpLinuxDmabufV1GetDefaultFeedbackEvent struct{ Id uint32 }

type ZwpLinuxDmabufV1GetSurfaceFeedbackEvent struct {
	Id      uint32
	Surface *Surface
}

func NewZwpLinuxDmabufV1(c *Client, version uint32, id uint32) *ZwpLinuxDmabufV1 {
	m := &ZwpLinuxDmabufV1{proxyObject: proxyObject{id: id, version: version, client: c}}
	m.register(m)
	return m
}

func (m *ZwpLinuxDmabufV1) SetGetDefaultFeedbackHandler(f func(ZwpLinuxDmabufV1GetDefaultFeedbackEvent)) {
	m.getDefaultFeedbackHandler = f
}

func (m *ZwpLinuxDmabufV1) SetGetSurfaceFeedbackHandler(f func(ZwpLinuxDmabufV1GetSurfaceFeedbackEvent)) {
	m.getSurfaceFeedbackHandler = f
}

func (m *ZwpLinuxDmabufV1) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case dmabufRequestDestroy:
		m.unregister()
	case dmabufRequestGetDefaultFeedback:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		if m.getDefaultFeedbackHandler != nil {
			m.getDefaultFeedbackHandler(ZwpLinuxDmabufV1GetDefaultFeedbackEvent{Id: id})
		}
	case dmabufRequestGetSurfaceFeedback:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		surfaceID, err := d.uint32()
		if err != nil {
			return err
		}
		if m.getSurfaceFeedbackHandler != nil {
			m.getSurfaceFeedbackHandler(ZwpLinuxDmabufV1GetSurfaceFeedbackEvent{
				Id:      id,
				Surface: lookup[*Surface](m.client, surfaceID),
			})
		}
	}
	return nil
}

// ZwpRelativePointerManagerV1 is a bound zwp_relative_pointer_manager_v1.
type ZwpRelativePointerManagerV1 struct {
	proxyObject

	getRelativePointerHandler func(ZwpRelativePointerManagerV1GetRelativePointerEvent)
}

type ZwpRelativePointerManagerV1GetRelativePointerEvent struct {
	Id      uint32
	Pointer *Pointer
}

func NewZwpRelativePointerManagerV1(c *Client, version uint32, id uint32) *ZwpRelativePointerManagerV1 {
	m := &ZwpRelativePointerManagerV1{proxyObject: proxyObject{id: id, version: version, client: c}}
	m.register(m)
	return m
}

func (m *ZwpRelativePointerManagerV1) SetGetRelativePointerHandler(f func(ZwpRelativePointerManagerV1GetRelativePointerEvent)) {
	m.getRelativePointerHandler = f
}

func (m *ZwpRelativePointerManagerV1) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case relPointerMgrRequestDestroy:
		m.unregister()
	case relPointerMgrRequestGetRelativePointer:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		pointerID, err := d.uint32()
		if err != nil {
			return err
		}
		if m.getRelativePointerHandler != nil {
			m.getRelativePointerHandler(ZwpRelativePointerManagerV1GetRelativePointerEvent{
				Id:      id,
				Pointer: lookup[*Pointer](m.client, pointerID),
			})
		}
	}
	return nil
}

// ZwpRelativePointerV1 is a bound zwp_relative_pointer_v1.
type ZwpRelativePointerV1 struct {
	proxyObject
}

func NewZwpRelativePointerV1(c *Client, version uint32, id uint32) *ZwpRelativePointerV1 {
	p := &ZwpRelativePointerV1{proxyObject{id: id, version: version, client: c}}
	p.register(p)
	return p
}

func (p *ZwpRelativePointerV1) dispatch(opcode uint16, d *decoder) error {
	if opcode == 0 { // destroy
		p.unregister()
	}
	return nil
}

func (p *ZwpRelativePointerV1) SendRelativeMotionEvent(utimeHi, utimeLo uint32, dx, dy, dxUnaccel, dyUnaccel float64) {
	e := &encoder{}
	e.putUint32(utimeHi)
	e.putUint32(utimeLo)
	e.putFixed(FixedFromFloat(dx))
	e.putFixed(FixedFromFloat(dy))
	e.putFixed(FixedFromFloat(dxUnaccel))
	e.putFixed(FixedFromFloat(dyUnaccel))
	p.send(relPointerEventRelativeMotion, e)
}

// ZwpPointerConstraintsV1 is a bound zwp_pointer_constraints_v1.
type ZwpPointerConstraintsV1 struct {
	proxyObject

	lockPointerHandler    func(ZwpPointerConstraintsV1LockPointerEvent)
	confinePointerHandler func(ZwpPointerConstraintsV1ConfinePointerEvent)
}

type ZwpPointerConstraintsV1LockPointerEvent struct {
	Id       uint32
	Surface  *Surface
	Pointer  *Pointer
	Region   *Region
	Lifetime uint32
}

type ZwpPointerConstraintsV1ConfinePointerEvent struct {
	Id       uint32
	Surface  *Surface
	Pointer  *Pointer
	Region   *Region
	Lifetime uint32
}

func NewZwpPointerConstraintsV1(c *Client, version uint32, id uint32) *ZwpPointerConstraintsV1 {
	m := &ZwpPointerConstraintsV1{proxyObject: proxyObject{id: id, version: version, client: c}}
	m.register(m)
	return m
}

func (m *ZwpPointerConstraintsV1) SetLockPointerHandler(f func(ZwpPointerConstraintsV1LockPointerEvent)) {
	m.lockPointerHandler = f
}

func (m *ZwpPointerConstraintsV1) SetConfinePointerHandler(f func(ZwpPointerConstraintsV1ConfinePointerEvent)) {
	m.confinePointerHandler = f
}

func (m *ZwpPointerConstraintsV1) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case constraintsRequestDestroy:
		m.unregister()
	case constraintsRequestLockPointer, constraintsRequestConfinePointer:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		surfaceID, err := d.uint32()
		if err != nil {
			return err
		}
		pointerID, err := d.uint32()
		if err != nil {
			return err
		}
		regionID, err := d.uint32()
		if err != nil {
			return err
		}
		lifetime, err := d.uint32()
		if err != nil {
			return err
		}
		surface := lookup[*Surface](m.client, surfaceID)
		pointer := lookup[*Pointer](m.client, pointerID)
		region := lookup[*Region](m.client, regionID)
		if opcode == constraintsRequestLockPointer {
			if m.lockPointerHandler != nil {
				m.lockPointerHandler(ZwpPointerConstraintsV1LockPointerEvent{
					Id: id, Surface: surface, Pointer: pointer, Region: region, Lifetime: lifetime,
				})
			}
		} else if m.confinePointerHandler != nil {
			m.confinePointerHandler(ZwpPointerConstraintsV1ConfinePointerEvent{
				Id: id, Surface: surface, Pointer: pointer, Region: region, Lifetime: lifetime,
			})
		}
	}
	return nil
}

// ZwpLockedPointerV1 is a bound zwp_locked_pointer_v1.
type ZwpLockedPointerV1 struct {
	proxyObject
}

func NewZwpLockedPointerV1(c *Client, version uint32, id uint32) *ZwpLockedPointerV1 {
	p := &ZwpLockedPointerV1{proxyObject{id: id, version: version, client: c}}
	p.register(p)
	return p
}

func (p *ZwpLockedPointerV1) dispatch(opcode uint16, d *decoder) error {
	if opcode == 0 { // destroy
		p.unregister()
	}
	return nil
}

func (p *ZwpLockedPointerV1) SendLockedEvent() { p.send(lockedPointerEventLocked, &encoder{}) }
func (p *ZwpLockedPointerV1) SendUnlockedEvent() { p.send(lockedPointerEventUnlocked, &encoder{}) }

// ZwpConfinedPointerV1 is a bound zwp_confined_pointer_v1.
type ZwpConfinedPointerV1 struct {
	proxyObject
}

func NewZwpConfinedPointerV1(c *Client, version uint32, id uint32) *ZwpConfinedPointerV1 {
	p := &ZwpConfinedPointerV1{proxyObject{id: id, version: version, client: c}}
	p.register(p)
	return p
}

func (p *ZwpConfinedPointerV1) dispatch(opcode uint16, d *decoder) error {
	if opcode == 0 { // destroy
		p.unregister()
	}
	return nil
}

func (p *ZwpConfinedPointerV1) SendConfinedEvent() { p.send(confinedPointerEventConfined, &encoder{}) }
func (p *ZwpConfinedPointerV1) SendUnconfinedEvent() { p.send(confinedPointerEventUnconfined, &encoder{}) }

// ZwpTabletManagerV2 is a bound zwp_tablet_manager_v2.
type ZwpTabletManagerV2 struct {
	proxyObject

	getTabletSeatHandler func(ZwpTabletManagerV2GetTabletSeatEvent)
}

type ZwpTabletManagerV2GetTabletSeatEvent struct {
	Id   uint32
	Seat *Seat
}

func NewZwpTabletManagerV2(c *Client, version uint32, id uint32) *ZwpTabletManagerV2 {
	m := &ZwpTabletManagerV2{proxyObject: proxyObject{id: id, version: version, client: c}}
	m.register(m)
	return m
}

func (m *ZwpTabletManagerV2) SetGetTabletSeatHandler(f func(ZwpTabletManagerV2GetTabletSeatEvent)) {
	m.getTabletSeatHandler = f
}

func (m *ZwpTabletManagerV2) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case tabletManagerRequestGetTabletSeat:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		seatID, err := d.uint32()
		if err != nil {
			return err
		}
		if m.getTabletSeatHandler != nil {
			m.getTabletSeatHandler(ZwpTabletManagerV2GetTabletSeatEvent{
				Id:   id,
				Seat: lookup[*Seat](m.client, seatID),
			})
		}
	case tabletManagerRequestDestroy:
		m.unregister()
	}
	return nil
}

// XwaylandShellV1 is a bound xwayland_shell_v1, the extension Xwayland
// itself uses to tag a wl_surface with the serial that pairs it to an
// X window.
type XwaylandShellV1 struct {
	proxyObject

	getXwaylandSurfaceHandler func(XwaylandShellV1GetXwaylandSurfaceEvent)
}

type XwaylandShellV1GetXwaylandSurfaceEvent struct {
	Id      uint32
	Surface *Surface
}

func NewXwaylandShellV1(c *Client, version uint32, id uint32) *XwaylandShellV1 {
	s := &XwaylandShellV1{proxyObject: proxyObject{id: id, version: version, client: c}}
	s.register(s)
	return s
}

func (s *XwaylandShellV1) SetGetXwaylandSurfaceHandler(f func(XwaylandShellV1GetXwaylandSurfaceEvent)) {
	s.getXwaylandSurfaceHandler = f
}

func (s *XwaylandShellV1) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case xwaylandShellRequestDestroy:
		s.unregister()
	case xwaylandShellRequestGetXwaylandSurface:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		surfaceID, err := d.uint32()
		if err != nil {
			return err
		}
		if s.getXwaylandSurfaceHandler != nil {
			s.getXwaylandSurfaceHandler(XwaylandShellV1GetXwaylandSurfaceEvent{
				Id:      id,
				Surface: lookup[*Surface](s.client, surfaceID),
			})
		}
	}
	return nil
}

// XwaylandSurfaceV1 is a bound xwayland_surface_v1.
type XwaylandSurfaceV1 struct {
	proxyObject

	setSerialHandler func(XwaylandSurfaceV1SetSerialEvent)
	destroyHandler   func(XwaylandSurfaceV1DestroyEvent)
}

type XwaylandSurfaceV1SetSerialEvent struct{ SerialLo, SerialHi uint32 }

type XwaylandSurfaceV1DestroyEvent struct{}

func NewXwaylandSurfaceV1(c *Client, version uint32, id uint32) *XwaylandSurfaceV1 {
	s := &XwaylandSurfaceV1{proxyObject: proxyObject{id: id, version: version, client: c}}
	s.register(s)
	return s
}

func (s *XwaylandSurfaceV1) SetSetSerialHandler(f func(XwaylandSurfaceV1SetSerialEvent)) {
	s.setSerialHandler = f
}

func (s *XwaylandSurfaceV1) SetDestroyHandler(f func(XwaylandSurfaceV1DestroyEvent)) {
	s.destroyHandler = f
}

func (s *XwaylandSurfaceV1) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case xwaylandSurfaceRequestSetSerial:
		lo, err := d.uint32()
		if err != nil {
			return err
		}
		hi, err := d.uint32()
		if err != nil {
			return err
		}
		if s.setSerialHandler != nil {
			s.setSerialHandler(XwaylandSurfaceV1SetSerialEvent{SerialLo: lo, SerialHi: hi})
		}
	case xwaylandSurfaceRequestDestroy:
		if s.destroyHandler != nil {
			s.destroyHandler(XwaylandSurfaceV1DestroyEvent{})
		}
		s.unregister()
	}
	return nil
}
