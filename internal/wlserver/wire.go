// Package wlserver implements the Xwayland-facing half of the bridge's
// wire protocol: a Wayland server speaking over the single private
// socket the launched X server connects back on. Only the interfaces
// the bridge advertises are implemented; everything else a client
// might name is rejected at bind time by never being advertised.
//
// Messages are length-delimited (object id, then a size/opcode word),
// little-endian, with file descriptors carried out-of-band via
// SCM_RIGHTS. Unknown opcodes on a known object are skipped: the size
// field makes that safe, and Xwayland legitimately issues requests
// (set_opaque_region, set_buffer_transform) the bridge has no use for.
package wlserver

import (
	"encoding/binary"
	"errors"
)

// Fixed is a Wayland 24.8 fixed-point number.
type Fixed int32

func FixedFromFloat(f float64) Fixed { return Fixed(f * 256.0) }

func (f Fixed) Float() float64 { return float64(f) / 256.0 }

const headerSize = 8

// maxMessageSize is the wire-format ceiling: the size field is 16 bits.
const maxMessageSize = 64 * 1024

var (
	errMessageTooLarge = errors.New("wlserver: message exceeds maximum size")
	errShortMessage    = errors.New("wlserver: truncated message")
	errBadString       = errors.New("wlserver: malformed string argument")
)

// encoder builds one outbound event's argument block.
type encoder struct {
	buf []byte
	fds []int
}

func (e *encoder) putInt32(v int32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v)) }
func (e *encoder) putUint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) putFixed(v Fixed) { e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v)) }
func (e *encoder) putFD(fd int) { e.fds = append(e.fds, fd) }

func (e *encoder) putString(s string) {
	length := uint32(len(s) + 1) // includes the null terminator
	e.buf = binary.LittleEndian.AppendUint32(e.buf, length)
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
	for i := 0; i < pad4(int(length)); i++ {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) putArray(data []byte) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(data)))
	e.buf = append(e.buf, data...)
	for i := 0; i < pad4(len(data)); i++ {
		e.buf = append(e.buf, 0)
	}
}

// decoder walks one inbound request's argument block. Fds are consumed
// in order from the connection's pending SCM_RIGHTS queue.
type decoder struct {
	buf    []byte
	offset int
	ctx    *Context
}

func (d *decoder) uint32() (uint32, error) {
	if d.offset+4 > len(d.buf) {
		return 0, errShortMessage
	}
	v := binary.LittleEndian.Uint32(d.buf[d.offset:])
	d.offset += 4
	return v, nil
}

func (d *decoder) int32() (int32, error) {
	v, err := d.uint32()
	return int32(v), err
}

func (d *decoder) fixed() (Fixed, error) {
	v, err := d.uint32()
	return Fixed(v), err
}

func (d *decoder) str() (string, error) {
	length, err := d.uint32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	padded := int(length) + pad4(int(length))
	if d.offset+padded > len(d.buf) || d.buf[d.offset+int(length)-1] != 0 {
		return "", errBadString
	}
	s := string(d.buf[d.offset : d.offset+int(length)-1])
	d.offset += padded
	return s, nil
}

func (d *decoder) fd() (int, error) {
	return d.ctx.takeFD()
}

func pad4(n int) int {
	return (4 - n%4) % 4
}
