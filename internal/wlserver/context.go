package wlserver

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// resource is the behavior every bound protocol object shares: it can
// be dispatched a request by opcode.
type resource interface {
	dispatch(opcode uint16, d *decoder) error
	object() *proxyObject
}

// proxyObject is the per-object bookkeeping embedded in every concrete
// resource type.
type proxyObject struct {
	id      uint32
	version uint32
	client  *Client
}

func (o *proxyObject) object() *proxyObject { return o }

// ID returns the object's wire id.
func (o *proxyObject) ID() uint32 { return o.id }

// Version returns the version the object was bound at.
func (o *proxyObject) Version() uint32 { return o.version }

// Client returns the owning client connection.
func (o *proxyObject) Client() *Client { return o.client }

// register enters the object into its client's object table. Every
// New<Interface> constructor calls this; the id comes from the client's
// new_id request argument.
func (o *proxyObject) register(r resource) {
	o.client.objects[o.id] = r
}

// unregister removes the object and tells the client the id may be
// reused, via wl_display.delete_id.
func (o *proxyObject) unregister() {
	if _, ok := o.client.objects[o.id]; !ok {
		return
	}
	delete(o.client.objects, o.id)
	o.client.ctx.sendDeleteID(o.id)
}

// send writes one event on this object.
func (o *proxyObject) send(opcode uint16, e *encoder) {
	o.client.ctx.send(o.id, opcode, e)
}

// Client is one connected Wayland client. The bridge only ever serves
// the single Xwayland connection, but the bind-callback signature keeps
// the client explicit the way every per-client resource needs it.
type Client struct {
	ctx     *Context
	objects map[uint32]resource
}

// Context owns the server side of one accepted connection: the object
// table, partial-read buffering, the received-fd queue, and event
// serials.
type Context struct {
	conn *net.UnixConn

	client  *Client
	display *Display

	readBuf []byte // undecoded bytes carried between Dispatch calls
	fds     []int  // received SCM_RIGHTS fds not yet claimed by an argument

	serial uint32

	err error
}

// NewContext wraps an accepted connection. The connection must be
// unix-domain: file-descriptor arguments cannot be carried otherwise.
func NewContext(conn net.Conn) *Context {
	uc, _ := conn.(*net.UnixConn)
	ctx := &Context{conn: uc}
	ctx.client = &Client{ctx: ctx, objects: make(map[uint32]resource)}
	return ctx
}

// NextSerial returns a fresh event serial.
func (ctx *Context) NextSerial() uint32 {
	ctx.serial++
	return ctx.serial
}

// Close tears down the connection.
func (ctx *Context) Close() error {
	for _, fd := range ctx.fds {
		unix.Close(fd)
	}
	ctx.fds = nil
	if ctx.conn == nil {
		return nil
	}
	return ctx.conn.Close()
}

func (ctx *Context) takeFD() (int, error) {
	if len(ctx.fds) == 0 {
		return -1, fmt.Errorf("wlserver: request names an fd argument but none was received")
	}
	fd := ctx.fds[0]
	ctx.fds = ctx.fds[1:]
	return fd, nil
}

// Dispatch reads whatever is available on the connection and runs every
// complete request in arrival order. It is the single entry point the
// bridge's poll loop calls when the Xwayland socket is readable; request
// handlers run to completion before the next request is decoded.
func (ctx *Context) Dispatch() error {
	if ctx.conn == nil {
		return fmt.Errorf("wlserver: connection is not unix-domain")
	}
	if ctx.err != nil {
		return ctx.err
	}

	buf := make([]byte, maxMessageSize)
	oob := make([]byte, unix.CmsgSpace(16*4))
	n, oobn, _, _, err := ctx.conn.ReadMsgUnix(buf, oob)
	if err != nil {
		ctx.err = fmt.Errorf("wlserver: read: %w", err)
		return ctx.err
	}
	if oobn > 0 {
		if err := ctx.parseRights(oob[:oobn]); err != nil {
			ctx.err = err
			return err
		}
	}
	ctx.readBuf = append(ctx.readBuf, buf[:n]...)

	for {
		if len(ctx.readBuf) < headerSize {
			return nil
		}
		objectID := binary.LittleEndian.Uint32(ctx.readBuf[0:4])
		sizeOpcode := binary.LittleEndian.Uint32(ctx.readBuf[4:8])
		size := int(sizeOpcode >> 16)
		opcode := uint16(sizeOpcode & 0xffff)
		if size < headerSize || size > maxMessageSize {
			ctx.err = fmt.Errorf("wlserver: object %d sent a malformed header (size %d)", objectID, size)
			return ctx.err
		}
		if len(ctx.readBuf) < size {
			return nil
		}
		args := ctx.readBuf[headerSize:size]
		d := &decoder{buf: args, ctx: ctx}

		if objectID == displayID {
			if err := ctx.display.dispatch(opcode, d); err != nil {
				ctx.err = err
				return err
			}
		} else if res, ok := ctx.client.objects[objectID]; ok {
			if err := res.dispatch(opcode, d); err != nil {
				ctx.err = err
				return err
			}
		}
		// Requests for ids the bridge no longer tracks race normally
		// against destruction; they are dropped.

		ctx.readBuf = ctx.readBuf[size:]
	}
}

func (ctx *Context) parseRights(oob []byte) error {
	cmsgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return fmt.Errorf("wlserver: parse control message: %w", err)
	}
	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			continue
		}
		ctx.fds = append(ctx.fds, fds...)
	}
	return nil
}

// send marshals and writes one event. Write errors are latched into
// ctx.err and surface from the next Dispatch, keeping event senders
// (which have no error return, matching the wire protocol's fire-and-
// forget event model) simple.
func (ctx *Context) send(objectID uint32, opcode uint16, e *encoder) {
	if ctx.err != nil || ctx.conn == nil {
		return
	}
	total := headerSize + len(e.buf)
	if total > maxMessageSize {
		ctx.err = errMessageTooLarge
		return
	}
	msg := make([]byte, headerSize, total)
	binary.LittleEndian.PutUint32(msg[0:4], objectID)
	binary.LittleEndian.PutUint32(msg[4:8], uint32(total)<<16|uint32(opcode))
	msg = append(msg, e.buf...)

	var rights []byte
	if len(e.fds) > 0 {
		rights = unix.UnixRights(e.fds...)
	}
	if _, _, err := ctx.conn.WriteMsgUnix(msg, rights, nil); err != nil {
		ctx.err = fmt.Errorf("wlserver: write: %w", err)
	}
}

func (ctx *Context) sendDeleteID(id uint32) {
	e := &encoder{}
	e.putUint32(id)
	ctx.send(displayID, displayEventDeleteID, e)
}

// lookup resolves an object-id argument to its live resource, nil for
// the null object or a stale id.
func lookup[T resource](c *Client, id uint32) T {
	var zero T
	if id == 0 {
		return zero
	}
	res, ok := c.objects[id]
	if !ok {
		return zero
	}
	typed, ok := res.(T)
	if !ok {
		return zero
	}
	return typed
}
