package relay

import "github.com/rajveermalviya/go-wayland/wayland/client"

// RegionOp is the mechanical Add/Subtract relay for wl_region, built
// on the event-shunt Identity helper since both requests are pure
// passthrough once the resource argument (the region itself) has been
// resolved to its client-side proxy. Re-issuing the same op against
// the same region is idempotent; the host enforces the same region
// semantics the X side would have.
type RegionOp struct {
	X, Y, Width, Height int32
}

func (e *Engine) HandleRegionAdd(region *client.Region, op RegionOp) {
	Forward(Identity[RegionOp](), op, func(op RegionOp) {
		region.Add(op.X, op.Y, op.Width, op.Height)
	})
}

func (e *Engine) HandleRegionSubtract(region *client.Region, op RegionOp) {
	Forward(Identity[RegionOp](), op, func(op RegionOp) {
		region.Subtract(op.X, op.Y, op.Width, op.Height)
	})
}

// HandleViewportSetDestination relays wp_viewport.set_destination:
// the destination is the surface dimensions divided by its scale
// factor.
func (e *Engine) HandleViewportSetDestination(viewport *client.WpViewport, width, height int32, scale int32) {
	s := Scale(1)
	if scale > 1 {
		s = Shunt[[2]int32, [2]int32]{Transform: func(in [2]int32) [2]int32 {
			return [2]int32{in[0] / scale, in[1] / scale}
		}}
	}
	Forward(s, [2]int32{width, height}, func(dims [2]int32) {
		viewport.SetDestination(dims[0], dims[1])
	})
}
