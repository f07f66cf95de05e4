package relay

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
)

// HandleDrmBind creates the keyed Object for one bound wl_drm
// instance: wl_drm emits a `device` event the X side needs to resolve
// its render node, so each bind gets its own Object rather than a
// shared Passthrough.
func (e *Engine) HandleDrmBind(clientDrm *client.Drm, onDevice func(store.ObjectKey, string)) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		clientDrm.SetDeviceHandler(func(ev client.DrmDeviceEvent) {
			onDevice(key, ev.Name)
		})
		return store.NewDrm(key, store.DrmData{ClientDrm: clientDrm})
	})
}

// HandleDmabufFeedbackBind wires a per-surface or default
// linux-dmabuf feedback object. Bound per-instance because each
// feedback stream is its own sequence of format-table/tranche events
// terminated by `done`.
func (e *Engine) HandleDmabufFeedbackBind(clientFeedback *client.ZwpLinuxDmabufFeedbackV1) store.ObjectKey {
	return e.Store.InsertWithKey(func(key store.ObjectKey) store.Object {
		return store.NewDmabufFeedback(key, store.DmabufFeedbackData{ClientFeedback: clientFeedback})
	})
}
