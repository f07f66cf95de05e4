package relay

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
)

// HandleTabletSeatBind creates the per-seat TabletSeat Object. Its
// children (Tool/Pad/PadGroup/Ring/Strip) are late-initialized: each
// is born from a tablet_seat event carrying only a raw client proxy,
// so its events queue on a clientside.LateInitObjectKey until a real
// ObjectKey is assigned in InsertWithKey's constructor callback.
func (e *Engine) HandleTabletSeatBind(seatKey store.ObjectKey, clientTabletSeat *client.ZwpTabletSeatV2) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewTabletSeat(key, store.TabletSeatData{
			ClientTabletSeat: clientTabletSeat,
			Seat:             seatKey,
		})
	})
}

// HandleToolAdded assigns an ObjectKey to a tool once its first event
// (tablet_seat.tool_added) is observed, per the late-init protocol.
func (e *Engine) HandleToolAdded(tabletSeatKey store.ObjectKey, clientTool *client.ZwpTabletToolV2) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewTool(key, store.ToolData{
			ClientTool: clientTool,
			TabletSeat: tabletSeatKey,
		})
	})
}

// HandlePadAdded mirrors HandleToolAdded for tablet_seat.pad_added.
func (e *Engine) HandlePadAdded(tabletSeatKey store.ObjectKey, clientPad *client.ZwpTabletPadV2) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewPad(key, store.PadData{
			ClientPad: clientPad,
			TabletSeat: tabletSeatKey,
		})
	})
}

// HandleTabletAdded mirrors HandleToolAdded for tablet_seat.tablet_added.
func (e *Engine) HandleTabletAdded(tabletSeatKey store.ObjectKey, clientTablet *client.ZwpTabletV2) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewTablet(key, store.TabletData{
			ClientTablet: clientTablet,
			TabletSeat:   tabletSeatKey,
		})
	})
}

// HandlePadGroupAdded assigns an ObjectKey to a pad group once
// pad.group is observed — the next late-initialized layer below Pad.
func (e *Engine) HandlePadGroupAdded(padKey store.ObjectKey, clientGroup *client.ZwpTabletPadGroupV2) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewPadGroup(key, store.PadGroupData{
			ClientPadGroup: clientGroup,
			Pad:            padKey,
		})
	})
}

// HandleRingAdded assigns an ObjectKey to a ring once pad_group.ring is
// observed.
func (e *Engine) HandleRingAdded(groupKey store.ObjectKey, clientRing *client.ZwpTabletPadRingV2) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewRing(key, store.RingData{
			ClientRing: clientRing,
			PadGroup:   groupKey,
		})
	})
}

// HandleStripAdded mirrors HandleRingAdded for pad_group.strip.
func (e *Engine) HandleStripAdded(groupKey store.ObjectKey, clientStrip *client.ZwpTabletPadStripV2) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewStrip(key, store.StripData{
			ClientStrip: clientStrip,
			PadGroup:    groupKey,
		})
	})
}
