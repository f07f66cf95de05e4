package wlserver

const (
	shmRequestCreatePool = 0
	shmEventFormat       = 0

	shmPoolRequestCreateBuffer = 0
	shmPoolRequestDestroy      = 1
	shmPoolRequestResize       = 2

	bufferRequestDestroy = 0
	bufferEventRelease   = 0
)

// Shm is a bound wl_shm.
type Shm struct {
	proxyObject

	createPoolHandler func(ShmCreatePoolEvent)
}

type ShmCreatePoolEvent struct {
	Id   uint32
	Fd   int32
	Size int32
}

func NewShm(c *Client, version uint32, id uint32) *Shm {
	s := &Shm{proxyObject: proxyObject{id: id, version: version, client: c}}
	s.register(s)
	return s
}

func (s *Shm) SetCreatePoolHandler(f func(ShmCreatePoolEvent)) { s.createPoolHandler = f }

// SendFormatEvent advertises one supported pixel format.
func (s *Shm) SendFormatEvent(format uint32) {
	e := &encoder{}
	e.putUint32(format)
	s.send(shmEventFormat, e)
}

func (s *Shm) dispatch(opcode uint16, d *decoder) error {
	if opcode != shmRequestCreatePool {
		return nil
	}
	id, err := d.uint32()
	if err != nil {
		return err
	}
	fd, err := d.fd()
	if err != nil {
		return err
	}
	size, err := d.int32()
	if err != nil {
		return err
	}
	if s.createPoolHandler != nil {
		s.createPoolHandler(ShmCreatePoolEvent{Id: id, Fd: int32(fd), Size: size})
	}
	return nil
}

// ShmPool is a bound wl_shm_pool.
type ShmPool struct {
	proxyObject

	createBufferHandler func(ShmPoolCreateBufferEvent)
	destroyHandler      func(ShmPoolDestroyEvent)
	resizeHandler       func(ShmPoolResizeEvent)
}

type ShmPoolCreateBufferEvent struct {
	Id                            uint32
	Offset, Width, Height, Stride int32
	Format                        uint32
}

type ShmPoolDestroyEvent struct{}

type ShmPoolResizeEvent struct{ Size int32 }

func NewShmPool(c *Client, version uint32, id uint32) *ShmPool {
	p := &ShmPool{proxyObject: proxyObject{id: id, version: version, client: c}}
	p.register(p)
	return p
}

func (p *ShmPool) SetCreateBufferHandler(f func(ShmPoolCreateBufferEvent)) { p.createBufferHandler = f }
func (p *ShmPool) SetDestroyHandler(f func(ShmPoolDestroyEvent)) { p.destroyHandler = f }
func (p *ShmPool) SetResizeHandler(f func(ShmPoolResizeEvent)) { p.resizeHandler = f }

func (p *ShmPool) dispatch(opcode uint16, d *decoder) error {
	switch opcode {
	case shmPoolRequestCreateBuffer:
		id, err := d.uint32()
		if err != nil {
			return err
		}
		var args [5]int32
		for i := range args {
			if args[i], err = d.int32(); err != nil {
				return err
			}
		}
		if p.createBufferHandler != nil {
			p.createBufferHandler(ShmPoolCreateBufferEvent{
				Id: id, Offset: args[0], Width: args[1], Height: args[2],
				Stride: args[3], Format: uint32(args[4]),
			})
		}
	case shmPoolRequestDestroy:
		if p.destroyHandler != nil {
			p.destroyHandler(ShmPoolDestroyEvent{})
		}
		p.unregister()
	case shmPoolRequestResize:
		size, err := d.int32()
		if err != nil {
			return err
		}
		if p.resizeHandler != nil {
			p.resizeHandler(ShmPoolResizeEvent{Size: size})
		}
	}
	return nil
}

// Buffer is a bound wl_buffer.
type Buffer struct {
	proxyObject

	destroyHandler func(BufferDestroyEvent)
}

type BufferDestroyEvent struct{}

func NewBuffer(c *Client, version uint32, id uint32) *Buffer {
	b := &Buffer{proxyObject: proxyObject{id: id, version: version, client: c}}
	b.register(b)
	return b
}

func (b *Buffer) SetDestroyHandler(f func(BufferDestroyEvent)) { b.destroyHandler = f }

// SendReleaseEvent tells the client the compositor is done reading the
// buffer.
func (b *Buffer) SendReleaseEvent() {
	b.send(bufferEventRelease, &encoder{})
}

func (b *Buffer) dispatch(opcode uint16, d *decoder) error {
	if opcode == bufferRequestDestroy {
		if b.destroyHandler != nil {
			b.destroyHandler(BufferDestroyEvent{})
		}
		b.unregister()
	}
	return nil
}
