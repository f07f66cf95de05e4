// Package output reconciles host output offsets into a non-negative X
// screen layout, keeps per-window offsets in sync, and owns the
// scale-factor lookup used by the relay layer's coordinate scaling.
package output

import (
	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/store"
)

// Info is the per-output geometry the tracker maintains: host
// position/size, transform, and the derived scale factor.
type Info struct {
	Key store.ObjectKey

	HostX, HostY        int32
	Width, Height       int32
	Transform           int32
	IntegerScale        int32
	PreferredFractional int32 // 120ths of a unit; 0 if unset

	Name uint32
}

// EffectiveSize returns the output's logical size, swapping
// width/height when the transform rotates by 90 or 270 degrees.
func (i Info) EffectiveSize() (w, h int32) {
	if i.Transform == transform90 || i.Transform == transform270 {
		return i.Height, i.Width
	}
	return i.Width, i.Height
}

// Scale returns the output's effective scale factor: the fractional
// preference if advertised, else the integer scale.
func (i Info) Scale() int32 {
	if i.PreferredFractional > 0 {
		s := i.PreferredFractional / 120
		if s < 1 {
			return 1
		}
		return s
	}
	if i.IntegerScale < 1 {
		return 1
	}
	return i.IntegerScale
}

const (
	transformNormal = 0
	transform90     = 1
	transform180    = 2
	transform270    = 3
)

// GlobalOffset records, per axis, the minimum coordinate across all
// known outputs and which output owns it.
type GlobalOffset struct {
	X, Y           int32
	OwnerX, OwnerY store.ObjectKey
	HasOwnerX      bool
	HasOwnerY      bool
}

// Tracker owns per-output Info and the reconciled GlobalOffset, and
// notifies callers when the offset moves so windows already placed on
// the X screen can be shifted by the same delta.
type Tracker struct {
	log *xlog.Logger

	outputs map[store.ObjectKey]*Info
	offset  GlobalOffset

	// OnOffsetChanged is invoked with the delta (new - old) on each
	// axis whenever the reconciled offset moves, so the X WM front-end
	// can shift already-mapped windows by the same amount.
	OnOffsetChanged func(dx, dy int32)

	// OnOutputsChanged is invoked whenever any output's advertised (X-
	// side) geometry changes, for RandR output-list refresh.
	OnOutputsChanged func()
}

func NewTracker(log *xlog.Logger) *Tracker {
	return &Tracker{log: log, outputs: make(map[store.ObjectKey]*Info)}
}

func (t *Tracker) infoFor(key store.ObjectKey) *Info {
	info, ok := t.outputs[key]
	if !ok {
		info = &Info{Key: key, IntegerScale: 1}
		t.outputs[key] = info
	}
	return info
}

// OnGeometry is the relay.OutputGeometryFunc the relay layer's output
// bind wires in: a transform of -1 is the mode-event sentinel (w/h
// only); otherwise it's a geometry event (x, y, transform).
func (t *Tracker) OnGeometry(key store.ObjectKey, x, y, w, h int32, transform int32) {
	info := t.infoFor(key)
	if transform == -1 {
		if w > 0 {
			info.Width = w
		}
		if h > 0 {
			info.Height = h
		}
	} else {
		info.HostX, info.HostY = x, y
		info.Transform = transform
	}
	t.reconcile()
	if t.OnOutputsChanged != nil {
		t.OnOutputsChanged()
	}
}

// SetScale records the integer wl_output scale for an output.
func (t *Tracker) SetScale(key store.ObjectKey, integerScale int32) {
	t.infoFor(key).IntegerScale = integerScale
}

// SetPreferredFractionalScale records the preferred fractional scale
// (wp_fractional_scale style, 120ths of a unit) for an output.
func (t *Tracker) SetPreferredFractionalScale(key store.ObjectKey, scale120 int32) {
	t.infoFor(key).PreferredFractional = scale120
}

// Remove drops an output that was unbound/destroyed and re-reconciles,
// since the removed output may have been the current offset owner on
// either axis.
func (t *Tracker) Remove(key store.ObjectKey) {
	delete(t.outputs, key)
	t.reconcile()
}

// reconcile recomputes the per-axis minimum and its owner. A full
// rescan on every update is simplest and correct; output counts stay
// well under a dozen.
func (t *Tracker) reconcile() {
	oldX, oldY := t.offset.X, t.offset.Y

	var (
		minX, minY     int32
		haveX, haveY   bool
		ownerX, ownerY store.ObjectKey
	)
	for key, info := range t.outputs {
		if !haveX || info.HostX < minX {
			minX, ownerX, haveX = info.HostX, key, true
		}
		if !haveY || info.HostY < minY {
			minY, ownerY, haveY = info.HostY, key, true
		}
	}

	t.offset = GlobalOffset{X: minX, Y: minY, OwnerX: ownerX, OwnerY: ownerY, HasOwnerX: haveX, HasOwnerY: haveY}

	dx, dy := t.offset.X-oldX, t.offset.Y-oldY
	if (dx != 0 || dy != 0) && t.OnOffsetChanged != nil {
		t.OnOffsetChanged(dx, dy)
	}
}

// Offset returns the current reconciled offset, for the coordinator's
// popup-anchor math and the advertised output positions.
func (t *Tracker) Offset() (x, y int32) { return t.offset.X, t.offset.Y }

// AdvertisedPosition returns host position minus the global offset,
// guaranteeing non-negative X coordinates.
func (t *Tracker) AdvertisedPosition(key store.ObjectKey) (x, y int32) {
	info, ok := t.outputs[key]
	if !ok {
		return 0, 0
	}
	return info.HostX - t.offset.X, info.HostY - t.offset.Y
}

// MatchesSize reports whether some output's logical size equals
// (w, h) exactly; a toplevel coming up at full output size starts
// fullscreen.
func (t *Tracker) MatchesSize(w, h int16) bool {
	for _, info := range t.outputs {
		ew, eh := info.EffectiveSize()
		if int32(w) == ew && int32(h) == eh {
			return true
		}
	}
	return false
}

// OutputAt returns the output key whose advertised X-side bounds
// contain the point (px, py), used to resolve which host output a
// focused window sits on.
func (t *Tracker) OutputAt(px, py int32) (store.ObjectKey, bool) {
	for key, info := range t.outputs {
		ax, ay := t.AdvertisedPosition(key)
		ew, eh := info.EffectiveSize()
		if px >= ax && px < ax+ew && py >= ay && py < ay+eh {
			return key, true
		}
	}
	return store.ObjectKey{}, false
}

// Info returns the tracked geometry for key, if any.
func (t *Tracker) Info(key store.ObjectKey) (Info, bool) {
	info, ok := t.outputs[key]
	if !ok {
		return Info{}, false
	}
	return *info, ok
}

// Len reports the number of tracked outputs, for the
// "advertised >= 0; at least one output on each axis has position 0
// unless there are no outputs" invariant's test harness.
func (t *Tracker) Len() int { return len(t.outputs) }
