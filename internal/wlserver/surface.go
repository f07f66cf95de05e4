package wlserver

// wl_compositor, wl_surface, and wl_region request opcodes, per the
// core protocol.
const (
	compositorRequestCreateSurface = 0
	compositorRequestCreateRegion  = 1

	surfaceRequestDestroy            = 0
	surfaceRequestAttach             = 1
	surfaceRequestDamage             = 2
	surfaceRequestFrame              = 3
	surfaceRequestSetOpaqueRegion    = 4
	surfaceRequestSetInputRegion     = 5
	surfaceRequestCommit             = 6
	surfaceRequestSetBufferTransform = 7
	surfaceRequestSetBufferScale     = 8
	surfaceRequestDamageBuffer       = 9

	surfaceEventEnter = 0
	surfaceEventLeave = 1

	regionRequestDestroy  = 0
	regionRequestAdd      = 1
	regionRequestSubtract = 2
)

// Compositor is a bound wl_compositor.
type Compositor struct {
	proxyObject

	createSurfaceHandler func(CompositorCreateSurfaceEvent)
	createRegionHandler  func(CompositorCreateRegionEvent)
}

type CompositorCreateSurfaceEvent struct{ Id uint32 }
type CompositorCreateRegionEvent struct{ Id uint32 }

func NewCompositor(c *Client, version uint32, id uint32) *Compositor {
	comp := &Compositor{proxyObject: proxyObject{id: id, version: version, client: c}}
	comp.register(comp)
	return comp
}

func (comp *Compositor) SetCreateSurfaceHandler(f func(CompositorCreateSurfaceEvent)) {
	comp.createSurfaceHandler = f
}

func (comp *Compositor) SetCreateRegionHandler(f func(CompositorCreateRegionEvent)) {
	comp.createRegionHandler = f
}

func (comp *Compositor) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case compositorRequestCreateSurface:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		if comp.createSurfaceHandler != nil {
			comp.createSurfaceHandler(CompositorCreateSurfaceEvent{Id: id})
		}
	case compositorRequestCreateRegion:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		if comp.createRegionHandler != nil {
			comp.createRegionHandler(CompositorCreateRegionEvent{Id: id})
		}
	}
	return nil
}

// Surface is a bound wl_surface.
type Surface struct {
	proxyObject

	attachHandler         func(SurfaceAttachEvent)
	damageBufferHandler   func(SurfaceDamageBufferEvent)
	frameHandler          func(SurfaceFrameEvent)
	setInputRegionHandler func(SurfaceSetInputRegionEvent)
	commitHandler         func(SurfaceCommitEvent)
	setBufferScaleHandler func(SurfaceSetBufferScaleEvent)
	destroyHandler        func(SurfaceDestroyEvent)
}

type SurfaceAttachEvent struct {
	Buffer *Buffer
	X, Y   int32
}

type SurfaceDamageBufferEvent struct{ X, Y, Width, Height int32 }

type SurfaceFrameEvent struct{ Callback uint32 }

type SurfaceSetInputRegionEvent struct{ Region *Region }

type SurfaceCommitEvent struct{}

type SurfaceSetBufferScaleEvent struct{ Scale int32 }

type SurfaceDestroyEvent struct{}

func NewSurface(c *Client, version uint32, id uint32) *Surface {
	s := &Surface{proxyObject: proxyObject{id: id, version: version, client: c}}
	s.register(s)
	return s
}

func (s *Surface) SetAttachHandler(f func(SurfaceAttachEvent)) { s.attachHandler = f }

func (s *Surface) SetDamageBufferHandler(f func(SurfaceDamageBufferEvent)) {
	s.damageBufferHandler = f
}

func (s *Surface) SetFrameHandler(f func(SurfaceFrameEvent)) { s.frameHandler = f }

func (s *Surface) SetSetInputRegionHandler(f func(SurfaceSetInputRegionEvent)) {
	s.setInputRegionHandler = f
}

func (s *Surface) SetCommitHandler(f func(SurfaceCommitEvent)) { s.commitHandler = f }

func (s *Surface) SetSetBufferScaleHandler(f func(SurfaceSetBufferScaleEvent)) {
	s.setBufferScaleHandler = f
}

func (s *Surface) SetDestroyHandler(f func(SurfaceDestroyEvent)) { s.destroyHandler = f }

func (s *Surface) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case surfaceRequestDestroy:
		if s.destroyHandler != nil {
			s.destroyHandler(SurfaceDestroyEvent{})
		}
		s.unregister()
	case surfaceRequestAttach:
		bufID, err := d.uint32()
		if err != nil {
			return err
		}
		x, err := d.int32()
		if err != nil {
			return err
		}
		y, err := d.int32()
		if err != nil {
			return err
		}
		if s.attachHandler != nil {
			s.attachHandler(SurfaceAttachEvent{Buffer: lookup[*Buffer](s.client, bufID), X: x, Y: y})
		}
	case surfaceRequestDamage, surfaceRequestDamageBuffer:
		// Surface-coordinate damage is folded into buffer damage: the
		// bridge only ever relays whole-damage rectangles and Xwayland
		// attaches buffers at scale 1 on this path.
		x, err := d.int32()
		if err != nil {
			return err
		}
		y, err := d.int32()
		if err != nil {
			return err
		}
		w, err := d.int32()
		if err != nil {
			return err
		}
		h, err := d.int32()
		if err != nil {
			return err
		}
		if s.damageBufferHandler != nil {
			s.damageBufferHandler(SurfaceDamageBufferEvent{X: x, Y: y, Width: w, Height: h})
		}
	case surfaceRequestFrame:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		if s.frameHandler != nil {
			s.frameHandler(SurfaceFrameEvent{Callback: id})
		}
	case surfaceRequestSetInputRegion:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		if s.setInputRegionHandler != nil {
			s.setInputRegionHandler(SurfaceSetInputRegionEvent{Region: lookup[*Region](s.client, id)})
		}
	case surfaceRequestCommit:
		if s.commitHandler != nil {
			s.commitHandler(SurfaceCommitEvent{})
		}
	case surfaceRequestSetBufferScale:
		scale, err := d.int32()
		if err != nil {
			return err
		}
		if s.setBufferScaleHandler != nil {
			s.setBufferScaleHandler(SurfaceSetBufferScaleEvent{Scale: scale})
		}
	}
	return nil
}

// Region is a bound wl_region.
type Region struct {
	proxyObject

	addHandler      func(RegionAddEvent)
	subtractHandler func(RegionSubtractEvent)
	destroyHandler  func(RegionDestroyEvent)
}

type RegionAddEvent struct{ X, Y, Width, Height int32 }
type RegionSubtractEvent struct{ X, Y, Width, Height int32 }
type RegionDestroyEvent struct{}

func NewRegion(c *Client, version uint32, id uint32) *Region {
	r := &Region{proxyObject: proxyObject{id: id, version: version, client: c}}
	r.register(r)
	return r
}

func (r *Region) SetAddHandler(f func(RegionAddEvent)) { r.addHandler = f }
func (r *Region) SetSubtractHandler(f func(RegionSubtractEvent)) { r.subtractHandler = f }
func (r *Region) SetDestroyHandler(f func(RegionDestroyEvent)) { r.destroyHandler = f }

func (r *Region) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case regionRequestDestroy:
		if r.destroyHandler != nil {
			r.destroyHandler(RegionDestroyEvent{})
		}
		r.unregister()
	case regionRequestAdd, regionRequestSubtract:
		x, err := d.int32()
		if err != nil {
			return err
		}
		y, err := d.int32()
		if err != nil {
			return err
		}
		w, err := d.int32()
		if err != nil {
			return err
		}
		h, err := d.int32()
		if err != nil {
			return err
		}
		if opcode == regionRequestAdd {
			if r.addHandler != nil {
				r.addHandler(RegionAddEvent{X: x, Y: y, Width: w, Height: h})
			}
		} else if r.subtractHandler != nil {
			r.subtractHandler(RegionSubtractEvent{X: x, Y: y, Width: w, Height: h})
		}
	}
	return nil
}
