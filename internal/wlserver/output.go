package wlserver

const (
	outputRequestRelease = 0

	outputEventGeometry = 0
	outputEventMode     = 1
	outputEventDone     = 2
	outputEventScale    = 3

	xdgOutputManagerRequestDestroy      = 0
	xdgOutputManagerRequestGetXdgOutput = 1

	xdgOutputRequestDestroy = 0

	xdgOutputEventLogicalPosition = 0
	xdgOutputEventLogicalSize     = 1
	xdgOutputEventDone            = 2
	xdgOutputEventName            = 3
)

// Output is a bound wl_output.
type Output struct {
	proxyObject

	releaseHandler func(OutputReleaseEvent)
}

type OutputReleaseEvent struct{}

func NewOutput(c *Client, version uint32, id uint32) *Output {
	o := &Output{proxyObject: proxyObject{id: id, version: version, client: c}}
	o.register(o)
	return o
}

func (o *Output) SetReleaseHandler(f func(OutputReleaseEvent)) { o.releaseHandler = f }

func (o *Output) SendGeometryEvent(x, y, physWidth, physHeight, subpixel int32, make, model string, transform int32) {
	e := &encoder{}
	e.putInt32(x)
	e.putInt32(y)
	e.putInt32(physWidth)
	e.putInt32(physHeight)
	e.putInt32(subpixel)
	e.putString(make)
	e.putString(model)
	e.putInt32(transform)
	o.send(outputEventGeometry, e)
}

func (o *Output) SendModeEvent(flags uint32, width, height, refresh int32) {
	e := &encoder{}
	e.putUint32(flags)
	e.putInt32(width)
	e.putInt32(height)
	e.putInt32(refresh)
	o.send(outputEventMode, e)
}

func (o *Output) SendScaleEvent(factor int32) {
	if o.Version() < 2 {
		return
	}
	e := &encoder{}
	e.putInt32(factor)
	o.send(outputEventScale, e)
}

func (o *Output) SendDoneEvent() {
	if o.Version() < 2 {
		return
	}
	o.send(outputEventDone, &encoder{})
}

func (o *Output) dispatch(opcode uint16, d *decoder) error {
	if opcode == outputRequestRelease && o.Version() >= 3 {
		if o.releaseHandler != nil {
			o.releaseHandler(OutputReleaseEvent{})
		}
		o.unregister()
	}
	return nil
}

// ZxdgOutputManagerV1 is a bound zxdg_output_manager_v1.
type ZxdgOutputManagerV1 struct {
	proxyObject

	getXdgOutputHandler func(ZxdgOutputManagerV1GetXdgOutputEvent)
}

type ZxdgOutputManagerV1GetXdgOutputEvent struct {
	Id     uint32
	Output *Output
}

func NewZxdgOutputManagerV1(c *Client, version uint32, id uint32) *ZxdgOutputManagerV1 {
	m := &ZxdgOutputManagerV1{proxyObject: proxyObject{id: id, version: version, client: c}}
	m.register(m)
	return m
}

func (m *ZxdgOutputManagerV1) SetGetXdgOutputHandler(f func(ZxdgOutputManagerV1GetXdgOutputEvent)) {
	m.getXdgOutputHandler = f
}

func (m *ZxdgOutputManagerV1) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case xdgOutputManagerRequestDestroy:
		m.unregister()
	case xdgOutputManagerRequestGetXdgOutput:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		outputID, err := d.uint32()
		if err != nil {
			return err
		}
		if m.getXdgOutputHandler != nil {
			m.getXdgOutputHandler(ZxdgOutputManagerV1GetXdgOutputEvent{
				Id:     id,
				Output: lookup[*Output](m.client, outputID),
			})
		}
	}
	return nil
}

// ZxdgOutputV1 is a bound zxdg_output_v1.
type ZxdgOutputV1 struct {
	proxyObject
}

func NewZxdgOutputV1(c *Client, version uint32, id uint32) *ZxdgOutputV1 {
	o := &ZxdgOutputV1{proxyObject{id: id, version: version, client: c}}
	o.register(o)
	return o
}

func (o *ZxdgOutputV1) dispatch(opcode uint16, d *decoder) error {
	if opcode == xdgOutputRequestDestroy {
		o.unregister()
	}
	return nil
}

func (o *ZxdgOutputV1) SendLogicalPositionEvent(x, y int32) {
	e := &encoder{}
	e.putInt32(x)
	e.putInt32(y)
	o.send(xdgOutputEventLogicalPosition, e)
}

func (o *ZxdgOutputV1) SendLogicalSizeEvent(width, height int32) {
	e := &encoder{}
	e.putInt32(width)
	e.putInt32(height)
	o.send(xdgOutputEventLogicalSize, e)
}

func (o *ZxdgOutputV1) SendNameEvent(name string) {
	if o.Version() < 2 {
		return
	}
	e := &encoder{}
	e.putString(name)
	o.send(xdgOutputEventName, e)
}

func (o *ZxdgOutputV1) SendDoneEvent() {
	// Deprecated at version 3 in favor of wl_output.done; the bridge
	// still sends it to older binders.
	if o.Version() >= 3 {
		return
	}
	o.send(xdgOutputEventDone, &encoder{})
}
