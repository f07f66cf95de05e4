package relay

import (
	"sync"

	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// Passthrough holds a client-side proxy for a global with no
// relay-specific per-instance data: requests on the matching
// server-side global are forwarded directly to it. The global is bound
// lazily, the first time an X-side client actually binds the server
// global, and reused for every subsequent bind.
type Passthrough[T any] struct {
	once  sync.Once
	value T
	err   error
	bind  func() (T, error)
}

// NewPassthrough returns a Passthrough that binds lazily via bind.
func NewPassthrough[T any](bind func() (T, error)) *Passthrough[T] {
	return &Passthrough[T]{bind: bind}
}

// Get returns the bound proxy, binding it on first use.
func (p *Passthrough[T]) Get() (T, error) {
	p.once.Do(func() {
		p.value, p.err = p.bind()
	})
	return p.value, p.err
}

// PassthroughGlobals is the set of passthrough globals the bridge
// forwards unmodified: wp_viewporter-style managers with no
// per-instance state of their own. Seat, Output, and Drm are NOT here:
// they produce key-bound Objects and live in seat.go / output.go /
// drm.go respectively.
type PassthroughGlobals struct {
	Compositor    *Passthrough[*client.Compositor]
	Subcompositor *Passthrough[*client.Subcompositor]
	Shm           *Passthrough[*client.Shm]
	XdgWmBase     *Passthrough[*client.XdgWmBase]
	DmabufManager *Passthrough[*client.ZwpLinuxDmabufV1]
	Viewporter    *Passthrough[*client.WpViewporter]
	XdgOutputMgr  *Passthrough[*client.ZxdgOutputManagerV1]
	RelPointerMgr *Passthrough[*client.ZwpRelativePointerManagerV1]
	ConstraintMgr *Passthrough[*client.ZwpPointerConstraintsV1]
	TabletMgr     *Passthrough[*client.ZwpTabletManagerV2]
}
