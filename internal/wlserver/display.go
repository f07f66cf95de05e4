package wlserver

// wl_display is object 1 on every connection; it is never bound.
const displayID = 1

const (
	displayRequestSync        = 0
	displayRequestGetRegistry = 1

	displayEventError    = 0
	displayEventDeleteID = 1
)

const (
	registryRequestBind = 0

	registryEventGlobal       = 0
	registryEventGlobalRemove = 1
)

const callbackEventDone = 0

// BindFunc is invoked when the client binds an advertised global,
// carrying the version it asked for and the new_id it allocated. The
// callee constructs the matching resource with New<Interface>.
type BindFunc func(c *Client, version uint32, id uint32)

// Global is one advertised registry entry.
type Global struct {
	name    uint32
	iface   string
	version uint32
	bind    BindFunc
}

// Display owns the global registry for one connection.
type Display struct {
	ctx      *Context
	nextName uint32

	globals    map[uint32]*Global
	registries []*Registry
}

// NewDisplay stands up wl_display for ctx.
func NewDisplay(ctx *Context) *Display {
	d := &Display{ctx: ctx, nextName: 1, globals: make(map[uint32]*Global)}
	ctx.display = d
	return d
}

// CreateGlobal advertises a new global to the client, announcing it on
// every registry the client has already bound.
func (d *Display) CreateGlobal(iface string, version uint32, bind BindFunc) *Global {
	g := &Global{name: d.nextName, iface: iface, version: version, bind: bind}
	d.nextName++
	d.globals[g.name] = g
	for _, r := range d.registries {
		r.sendGlobal(g)
	}
	return g
}

// RemoveGlobal withdraws a previously advertised global.
func (d *Display) RemoveGlobal(g *Global) {
	if g == nil {
		return
	}
	if _, ok := d.globals[g.name]; !ok {
		return
	}
	delete(d.globals, g.name)
	for _, r := range d.registries {
		e := &encoder{}
		e.putUint32(g.name)
		r.send(registryEventGlobalRemove, e)
	}
}

func (d *Display) dispatch(opcode uint16, dec *decoder) error {
	switch opcode {
	case displayRequestSync:
		id, err := dec.uint32()
		if err != nil {
			return err
		}
		cb := NewCallback(d.ctx.client, 1, id)
		cb.SendDoneEvent(d.ctx.NextSerial())
		cb.Destroy()
	case displayRequestGetRegistry:
		id, err := dec.uint32()
		if err != nil {
			return err
		}
		r := &Registry{proxyObject: proxyObject{id: id, version: 1, client: d.ctx.client}, display: d}
		r.register(r)
		d.registries = append(d.registries, r)
		for _, g := range d.globals {
			r.sendGlobal(g)
		}
	}
	return nil
}

// Registry is the client's view of the global registry.
type Registry struct {
	proxyObject
	display *Display
}

func (r *Registry) sendGlobal(g *Global) {
	e := &encoder{}
	e.putUint32(g.name)
	e.putString(g.iface)
	e.putUint32(g.version)
	r.send(registryEventGlobal, e)
}

func (r *Registry) dispatch(opcode uint16, d *decoder) error {
	if opcode != registryRequestBind {
		return nil
	}
	name, err := d.uint32()
	if err != nil {
		return err
	}
	if _, err := d.str(); err != nil { // interface name, informational
		return err
	}
	version, err := d.uint32()
	if err != nil {
		return err
	}
	id, err := d.uint32()
	if err != nil {
		return err
	}
	g, ok := r.display.globals[name]
	if !ok {
		// A bind race against RemoveGlobal; the id stays dangling until
		// the client notices the global_remove.
		return nil
	}
	g.bind(r.client, version, id)
	return nil
}

// Callback is a server-side wl_callback, used for wl_surface.frame
// relays and wl_display.sync.
type Callback struct {
	proxyObject
}

func NewCallback(c *Client, version uint32, id uint32) *Callback {
	cb := &Callback{proxyObject{id: id, version: version, client: c}}
	cb.register(cb)
	return cb
}

func (cb *Callback) dispatch(uint16, *decoder) error { return nil }

// SendDoneEvent fires the callback and, per the protocol, makes it
// dead: callers follow with Destroy to release the id.
func (cb *Callback) SendDoneEvent(data uint32) {
	e := &encoder{}
	e.putUint32(data)
	cb.send(callbackEventDone, e)
}

// Destroy releases the callback's id back to the client.
func (cb *Callback) Destroy() {
	cb.unregister()
}
