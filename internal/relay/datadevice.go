package relay

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// DataDevice holds the per-seat data-device and primary-selection
// device client proxies used by internal/selection to publish X-owned
// selections to the host and receive host-owned selections. Kept in
// internal/relay rather than internal/selection because it is bound
// the same way as any other per-seat relay object, even though its
// requests/events are entirely consumed by the selection bridge
// rather than relayed verbatim.
type DataDevice struct {
	Seat                   *client.Seat
	DataDevice             *client.DataDevice
	PrimarySelectionDevice *client.ZwpPrimarySelectionDeviceV1
}

// BindDataDevice gets a wl_data_device (and, if available, a
// zwp_primary_selection_device_v1) for seat.
func (e *Engine) BindDataDevice(mgr *client.DataDeviceManager, primaryMgr *client.ZwpPrimarySelectionDeviceManagerV1, seat *client.Seat) (*DataDevice, error) {
	dd := &DataDevice{Seat: seat}
	dev, err := mgr.GetDataDevice(seat)
	if err != nil {
		return nil, err
	}
	dd.DataDevice = dev
	if primaryMgr != nil {
		pdev, err := primaryMgr.GetDevice(seat)
		if err == nil {
			dd.PrimarySelectionDevice = pdev
		} else {
			e.Log.Warn("relay: primary-selection bind failed, feature disabled: %s", err)
		}
	}
	return dd, nil
}
