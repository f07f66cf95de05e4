package bridge

import (
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// outputBinding pairs one host output with the server-side resources
// Xwayland bound for it. Positions pushed to the X side always go
// through the output tracker's advertised (offset-reconciled)
// coordinates, never the raw host position.
type outputBinding struct {
	key          store.ObjectKey
	hostName     uint32
	clientOutput *client.Output
	serverOutput *server.Output
	serverXdg    *server.ZxdgOutputV1

	width, height int32
	refresh       int32
	scale         int32
	transform     int32
}

// bindOutput wires one wl_output global: a keyed Object per bound
// instance, since outputs produce the geometry/mode/done event stream
// both the X side and the output tracker consume.
func (b *Bridge) bindOutput(hostName uint32, c *server.Client, version uint32, id uint32) {
	reg := b.queue.Registry()
	pg, ok := b.globalsByName[hostName]
	if !ok {
		return
	}
	clientOutput := client.NewOutput(reg.Context())
	if err := reg.Bind(pg.hostName, pg.iface, pg.version, clientOutput); err != nil {
		b.log.Warn("bridge: wl_output bind failed: %s", err)
		return
	}
	serverOutput := server.NewOutput(c, version, id)

	binding := &outputBinding{hostName: hostName, clientOutput: clientOutput, serverOutput: serverOutput, scale: 1}
	key := b.relay.HandleOutputBind(hostName, clientOutput,
		func(k store.ObjectKey, x, y, w, h, transform int32) {
			if transform == -1 {
				binding.width, binding.height = w, h
			} else {
				binding.transform = transform
			}
			b.outputs.OnGeometry(k, x, y, w, h, transform)
		},
		func(k store.ObjectKey, factor int32) {
			binding.scale = factor
			b.outputs.SetScale(k, factor)
		},
		func(k store.ObjectKey) {
			b.pushOutputToX(binding)
		})
	binding.key = key
	b.outputBindings[key] = binding
	b.outputKeysByResource[serverOutput] = key

	serverOutput.SetReleaseHandler(func(server.OutputReleaseEvent) {
		b.removeOutputBinding(binding)
	})
}

// removeOutputBinding tears down one output: tracker entry, store
// entry, and side tables. Reached from both directions — an X-side
// wl_output.release and a host-side global withdrawal.
func (b *Bridge) removeOutputBinding(binding *outputBinding) {
	delete(b.outputBindings, binding.key)
	delete(b.outputKeysByResource, binding.serverOutput)
	b.outputs.Remove(binding.key)
	b.store.Remove(binding.key)
}

// removeOutputsForGlobal prunes the binding for a withdrawn host
// wl_output global.
func (b *Bridge) removeOutputsForGlobal(hostName uint32) {
	for _, binding := range b.outputBindings {
		if binding.hostName == hostName {
			b.removeOutputBinding(binding)
			return
		}
	}
}

// pushOutputToX re-advertises one output to Xwayland at its reconciled
// position: host coordinates minus the global offset, so the X screen
// layout stays non-negative.
func (b *Bridge) pushOutputToX(binding *outputBinding) {
	ax, ay := b.outputs.AdvertisedPosition(binding.key)

	const subpixelUnknown = 0
	binding.serverOutput.SendGeometryEvent(ax, ay, 0, 0, subpixelUnknown, "bridge", "bridge", binding.transform)
	if binding.width > 0 && binding.height > 0 {
		const modeCurrent = 1
		binding.serverOutput.SendModeEvent(modeCurrent, binding.width, binding.height, binding.refresh)
	}
	binding.serverOutput.SendScaleEvent(binding.scale)
	if binding.serverXdg != nil {
		binding.serverXdg.SendLogicalPositionEvent(ax, ay)
		if info, ok := b.outputs.Info(binding.key); ok {
			w, h := info.EffectiveSize()
			scale := info.Scale()
			binding.serverXdg.SendLogicalSizeEvent(w/scale, h/scale)
		}
		binding.serverXdg.SendDoneEvent()
	}
	binding.serverOutput.SendDoneEvent()
}

// syncAdvertisedOutputs replays every output's advertised geometry,
// called when the global offset moves or RandR asks for a refresh.
func (b *Bridge) syncAdvertisedOutputs() {
	for _, binding := range b.outputBindings {
		b.pushOutputToX(binding)
	}
}

// onOutputOffsetChanged shifts every mapped X window by the offset
// delta so each window's position relative to its output is preserved,
// then re-advertises the outputs themselves at their new positions.
func (b *Bridge) onOutputOffsetChanged(dx, dy int32) {
	b.frontend.AdjustForOutputOffset(dx, dy)
	b.syncAdvertisedOutputs()
}

// onFocusedWindowOutput resolves which host output the newly focused
// window sits on, by the window's advertised position, and logs it.
// The RandR primary output is left unchanged.
func (b *Bridge) onFocusedWindowOutput(win xproto.Window) {
	wd, ok := b.coordinator.Window(win)
	if !ok {
		return
	}
	key, ok := b.outputs.OutputAt(int32(wd.Attrs.X), int32(wd.Attrs.Y))
	if !ok {
		return
	}
	b.log.Debug("bridge: focused window %d is on output %v", win, key)
}

// bindXdgOutputManager wires zxdg_output_manager_v1.get_xdg_output,
// pairing each zxdg_output_v1 with the wl_output it describes.
func (b *Bridge) bindXdgOutputManager(c *server.Client, version uint32, id uint32) {
	hostMgr, err := b.passthrough.XdgOutputMgr.Get()
	if err != nil {
		b.log.Error("bridge: zxdg_output_manager_v1 passthrough unavailable: %s", err)
		return
	}
	mgr := server.NewZxdgOutputManagerV1(c, version, id)
	mgr.SetGetXdgOutputHandler(func(ev server.ZxdgOutputManagerV1GetXdgOutputEvent) {
		key, ok := b.outputKeysByResource[ev.Output]
		if !ok {
			return
		}
		binding, ok := b.outputBindings[key]
		if !ok {
			return
		}
		clientXdg, err := hostMgr.GetXdgOutput(binding.clientOutput)
		if err != nil {
			b.log.Warn("bridge: get_xdg_output failed: %s", err)
			return
		}
		b.relay.HandleXdgOutputBind(key, clientXdg)
		binding.serverXdg = server.NewZxdgOutputV1(c, version, ev.Id)
		clientXdg.SetLogicalSizeHandler(func(ev client.ZxdgOutputV1LogicalSizeEvent) {
			binding.serverXdg.SendLogicalSizeEvent(ev.Width, ev.Height)
		})
		clientXdg.SetLogicalPositionHandler(func(client.ZxdgOutputV1LogicalPositionEvent) {
			ax, ay := b.outputs.AdvertisedPosition(key)
			binding.serverXdg.SendLogicalPositionEvent(ax, ay)
		})
		clientXdg.SetNameHandler(func(ev client.ZxdgOutputV1NameEvent) {
			binding.serverXdg.SendNameEvent(ev.Name)
		})
	})
}
