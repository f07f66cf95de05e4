package bridge

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
)

// bindShm implements wl_shm passthrough: create_pool allocates a
// matching client-side pool over the same fd Xwayland handed the
// bridge; file descriptors pass through by borrowed duplication.
func (b *Bridge) bindShm(c *server.Client, version uint32, id uint32) {
	hostShm, err := b.passthrough.Shm.Get()
	if err != nil {
		b.log.Error("bridge: wl_shm passthrough unavailable: %s", err)
		return
	}
	shm := server.NewShm(c, version, id)
	shm.SetCreatePoolHandler(func(ev server.ShmCreatePoolEvent) {
		pool, err := hostShm.CreatePool(ev.Fd, ev.Size)
		if err != nil {
			b.log.Warn("bridge: wl_shm.create_pool failed: %s", err)
			return
		}
		serverPool := server.NewShmPool(c, version, ev.Id)
		b.pools[serverPool] = pool
		serverPool.SetCreateBufferHandler(func(ev server.ShmPoolCreateBufferEvent) {
			buf, err := pool.CreateBuffer(ev.Offset, ev.Width, ev.Height, ev.Stride, client.ShmFormat(ev.Format))
			if err != nil {
				b.log.Warn("bridge: wl_shm_pool.create_buffer failed: %s", err)
				return
			}
			serverBuf := server.NewBuffer(c, version, ev.Id)
			b.buffers[serverBuf] = buf
			serverBuf.SetDestroyHandler(func(server.BufferDestroyEvent) {
				delete(b.buffers, serverBuf)
				buf.Destroy()
			})
		})
		serverPool.SetDestroyHandler(func(server.ShmPoolDestroyEvent) {
			delete(b.pools, serverPool)
			pool.Destroy()
		})
		serverPool.SetResizeHandler(func(ev server.ShmPoolResizeEvent) {
			pool.Resize(ev.Size)
		})
	})
}

// bindDrm wires wl_drm so Xwayland can resolve the host's render node
// for dmabuf-backed EGL/GLX clients; the `device` event stream makes
// each bind its own keyed Object.
func (b *Bridge) bindDrm(hostName uint32, c *server.Client, version uint32, id uint32) {
	hostReg := b.queue.Registry()
	pg, ok := b.globalsByName[hostName]
	if !ok {
		return
	}
	clientDrm := client.NewDrm(hostReg.Context())
	if err := hostReg.Bind(pg.hostName, pg.iface, pg.version, clientDrm); err != nil {
		b.log.Warn("bridge: wl_drm bind failed: %s", err)
		return
	}
	serverDrm := server.NewDrm(c, version, id)
	b.relay.HandleDrmBind(clientDrm, func(_ store.ObjectKey, node string) {
		serverDrm.SendDeviceEvent(node)
	})
	serverDrm.SetAuthenticateHandler(func(ev server.DrmAuthenticateEvent) {
		clientDrm.Authenticate(ev.Id)
	})
	clientDrm.SetAuthenticatedHandler(func(client.DrmAuthenticatedEvent) {
		serverDrm.SendAuthenticatedEvent()
	})
	clientDrm.SetFormatHandler(func(ev client.DrmFormatEvent) {
		serverDrm.SendFormatEvent(ev.Format)
	})
	clientDrm.SetCapabilitiesHandler(func(ev client.DrmCapabilitiesEvent) {
		serverDrm.SendCapabilitiesEvent(ev.Value)
	})
}

// bindDmabuf wires zwp_linux_dmabuf_v1: get_surface_feedback and
// get_default_feedback each create their own keyed feedback Object,
// since each is its own format-table/tranche event stream.
func (b *Bridge) bindDmabuf(c *server.Client, version uint32, id uint32) {
	hostDmabuf, err := b.passthrough.DmabufManager.Get()
	if err != nil {
		b.log.Error("bridge: zwp_linux_dmabuf_v1 passthrough unavailable: %s", err)
		return
	}
	dmabuf := server.NewZwpLinuxDmabufV1(c, version, id)
	dmabuf.SetGetDefaultFeedbackHandler(func(ev server.ZwpLinuxDmabufV1GetDefaultFeedbackEvent) {
		clientFeedback, err := hostDmabuf.GetDefaultFeedback()
		if err != nil {
			b.log.Warn("bridge: dmabuf get_default_feedback failed: %s", err)
			return
		}
		b.relay.HandleDmabufFeedbackBind(clientFeedback)
	})
	dmabuf.SetGetSurfaceFeedbackHandler(func(ev server.ZwpLinuxDmabufV1GetSurfaceFeedbackEvent) {
		clientSurface, ok := b.surfaceProxyFor(ev.Surface)
		if !ok {
			return
		}
		clientFeedback, err := hostDmabuf.GetSurfaceFeedback(clientSurface)
		if err != nil {
			b.log.Warn("bridge: dmabuf get_surface_feedback failed: %s", err)
			return
		}
		b.relay.HandleDmabufFeedbackBind(clientFeedback)
	})
}

// bindViewporter wires wp_viewporter.get_viewport, with
// set_destination divided by the owning surface's buffer scale so the
// host sees logical dimensions.
func (b *Bridge) bindViewporter(c *server.Client, version uint32, id uint32) {
	hostViewporter, err := b.passthrough.Viewporter.Get()
	if err != nil {
		b.log.Error("bridge: wp_viewporter passthrough unavailable: %s", err)
		return
	}
	vp := server.NewWpViewporter(c, version, id)
	vp.SetGetViewportHandler(func(ev server.WpViewporterGetViewportEvent) {
		clientSurface, ok := b.surfaceProxyFor(ev.Surface)
		if !ok {
			return
		}
		clientViewport, err := hostViewporter.GetViewport(clientSurface)
		if err != nil {
			b.log.Warn("bridge: wp_viewporter.get_viewport failed: %s", err)
			return
		}
		scale := b.bufferScaleFor(ev.Surface)
		serverViewport := server.NewWpViewport(c, version, ev.Id)
		serverViewport.SetSetDestinationHandler(func(ev server.WpViewportSetDestinationEvent) {
			b.relay.HandleViewportSetDestination(clientViewport, ev.Width, ev.Height, scale)
		})
		serverViewport.SetSetSourceHandler(func(ev server.WpViewportSetSourceEvent) {
			clientViewport.SetSource(ev.X, ev.Y, ev.Width, ev.Height)
		})
	})
}

// bindRelativePointerManager forwards zwp_relative_pointer_manager_v1
// as pure passthrough: relative-motion events need no reference
// rewriting beyond the pointer they're attached to.
func (b *Bridge) bindRelativePointerManager(c *server.Client, version uint32, id uint32) {
	hostMgr, err := b.passthrough.RelPointerMgr.Get()
	if err != nil {
		b.log.Error("bridge: zwp_relative_pointer_manager_v1 passthrough unavailable: %s", err)
		return
	}
	mgr := server.NewZwpRelativePointerManagerV1(c, version, id)
	mgr.SetGetRelativePointerHandler(func(ev server.ZwpRelativePointerManagerV1GetRelativePointerEvent) {
		clientPointer, ok := b.pointerProxyFor(ev.Pointer)
		if !ok {
			return
		}
		clientRel, err := hostMgr.GetRelativePointer(clientPointer)
		if err != nil {
			b.log.Warn("bridge: get_relative_pointer failed: %s", err)
			return
		}
		serverRel := server.NewZwpRelativePointerV1(c, version, ev.Id)
		clientRel.SetRelativeMotionHandler(func(ev client.ZwpRelativePointerV1RelativeMotionEvent) {
			serverRel.SendRelativeMotionEvent(ev.UtimeHi, ev.UtimeLo, ev.Dx, ev.Dy, ev.DxUnaccel, ev.DyUnaccel)
		})
	})
}

// bindPointerConstraints forwards zwp_pointer_constraints_v1's
// confine_pointer/lock_pointer as passthrough, rewriting only the
// surface/pointer/region references.
func (b *Bridge) bindPointerConstraints(c *server.Client, version uint32, id uint32) {
	hostMgr, err := b.passthrough.ConstraintMgr.Get()
	if err != nil {
		b.log.Error("bridge: zwp_pointer_constraints_v1 passthrough unavailable: %s", err)
		return
	}
	mgr := server.NewZwpPointerConstraintsV1(c, version, id)
	mgr.SetLockPointerHandler(func(ev server.ZwpPointerConstraintsV1LockPointerEvent) {
		clientSurface, ok1 := b.surfaceProxyFor(ev.Surface)
		clientPointer, ok2 := b.pointerProxyFor(ev.Pointer)
		clientRegion, _ := b.regionFor(ev.Region)
		if !ok1 || !ok2 {
			return
		}
		clientLock, err := hostMgr.LockPointer(clientSurface, clientPointer, clientRegion, client.PointerConstraintsV1Lifetime(ev.Lifetime))
		if err != nil {
			b.log.Warn("bridge: lock_pointer failed: %s", err)
			return
		}
		serverLock := server.NewZwpLockedPointerV1(c, version, ev.Id)
		clientLock.SetLockedHandler(func(client.ZwpLockedPointerV1LockedEvent) { serverLock.SendLockedEvent() })
		clientLock.SetUnlockedHandler(func(client.ZwpLockedPointerV1UnlockedEvent) { serverLock.SendUnlockedEvent() })
	})
	mgr.SetConfinePointerHandler(func(ev server.ZwpPointerConstraintsV1ConfinePointerEvent) {
		clientSurface, ok1 := b.surfaceProxyFor(ev.Surface)
		clientPointer, ok2 := b.pointerProxyFor(ev.Pointer)
		clientRegion, _ := b.regionFor(ev.Region)
		if !ok1 || !ok2 {
			return
		}
		clientConfine, err := hostMgr.ConfinePointer(clientSurface, clientPointer, clientRegion, client.PointerConstraintsV1Lifetime(ev.Lifetime))
		if err != nil {
			b.log.Warn("bridge: confine_pointer failed: %s", err)
			return
		}
		serverConfine := server.NewZwpConfinedPointerV1(c, version, ev.Id)
		clientConfine.SetConfinedHandler(func(client.ZwpConfinedPointerV1ConfinedEvent) { serverConfine.SendConfinedEvent() })
		clientConfine.SetUnconfinedHandler(func(client.ZwpConfinedPointerV1UnconfinedEvent) { serverConfine.SendUnconfinedEvent() })
	})
}

// bindTabletManager wires zwp_tablet_manager_v2.get_tablet_seat, the
// root of the late-initialized tablet object subtree:
// internal/relay/tablet.go assigns ObjectKeys as tool_added/pad_added
// events arrive.
func (b *Bridge) bindTabletManager(c *server.Client, version uint32, id uint32) {
	hostMgr, err := b.passthrough.TabletMgr.Get()
	if err != nil {
		b.log.Error("bridge: zwp_tablet_manager_v2 passthrough unavailable: %s", err)
		return
	}
	mgr := server.NewZwpTabletManagerV2(c, version, id)
	mgr.SetGetTabletSeatHandler(func(ev server.ZwpTabletManagerV2GetTabletSeatEvent) {
		seatKey, clientSeat, ok := b.seatProxyFor(ev.Seat)
		if !ok {
			return
		}
		clientTabletSeat, err := hostMgr.GetTabletSeat(clientSeat)
		if err != nil {
			b.log.Warn("bridge: get_tablet_seat failed: %s", err)
			return
		}
		tabletSeatKey := b.relay.HandleTabletSeatBind(seatKey, clientTabletSeat)

		// Tool/tablet/pad objects are born from these events before any
		// ObjectKey exists for them; their own description events buffer
		// on a late-init handle until the key is assigned, then flush
		// into the main event stream in arrival order.
		clientTabletSeat.SetToolAddedHandler(func(ev client.ZwpTabletSeatV2ToolAddedEvent) {
			late := b.queue.LateInit(ev.Id)
			ev.Id.SetDoneHandler(func(dev client.ZwpTabletToolV2DoneEvent) {
				b.queue.PushOrBuffer(ev.Id, late, dev)
			})
			key := b.relay.HandleToolAdded(tabletSeatKey, ev.Id)
			b.queue.ResolveLateInit(ev.Id, key)
		})
		clientTabletSeat.SetTabletAddedHandler(func(ev client.ZwpTabletSeatV2TabletAddedEvent) {
			late := b.queue.LateInit(ev.Id)
			ev.Id.SetDoneHandler(func(dev client.ZwpTabletV2DoneEvent) {
				b.queue.PushOrBuffer(ev.Id, late, dev)
			})
			key := b.relay.HandleTabletAdded(tabletSeatKey, ev.Id)
			b.queue.ResolveLateInit(ev.Id, key)
		})
		clientTabletSeat.SetPadAddedHandler(func(ev client.ZwpTabletSeatV2PadAddedEvent) {
			late := b.queue.LateInit(ev.Id)
			ev.Id.SetDoneHandler(func(dev client.ZwpTabletPadV2DoneEvent) {
				b.queue.PushOrBuffer(ev.Id, late, dev)
			})
			padKey := b.relay.HandlePadAdded(tabletSeatKey, ev.Id)
			b.queue.ResolveLateInit(ev.Id, padKey)
			b.wireTabletPad(padKey, ev.Id)
		})
	})
}

// wireTabletPad completes the pad's late-initialized children: the
// group, which in turn carries rings and strips.
func (b *Bridge) wireTabletPad(padKey store.ObjectKey, clientPad *client.ZwpTabletPadV2) {
	clientPad.SetGroupHandler(func(ev client.ZwpTabletPadV2GroupEvent) {
		groupKey := b.relay.HandlePadGroupAdded(padKey, ev.PadGroup)
		ev.PadGroup.SetRingAddedHandler(func(ev client.ZwpTabletPadGroupV2RingAddedEvent) {
			b.relay.HandleRingAdded(groupKey, ev.Ring)
		})
		ev.PadGroup.SetStripAddedHandler(func(ev client.ZwpTabletPadGroupV2StripAddedEvent) {
			b.relay.HandleStripAdded(groupKey, ev.Strip)
		})
	})
}

// bindXwaylandShell wires xwayland_shell_v1, the protocol Xwayland
// itself (rather than any X11 client) uses to tag a freshly created
// wl_surface with the [serial_lo, serial_hi] pair carried by the
// matching WL_SURFACE_SERIAL client message, closing the other half of
// the window<->surface pairing protocol.
func (b *Bridge) bindXwaylandShell(c *server.Client, version uint32, id uint32) {
	shell := server.NewXwaylandShellV1(c, version, id)
	shell.SetGetXwaylandSurfaceHandler(func(ev server.XwaylandShellV1GetXwaylandSurfaceEvent) {
		surfaceKey, ok := b.surfaceKeyFor(ev.Surface)
		if !ok {
			return
		}
		xwlSurface := server.NewXwaylandSurfaceV1(c, version, ev.Id)
		xwlSurface.SetSetSerialHandler(func(ev server.XwaylandSurfaceV1SetSerialEvent) {
			b.coordinator.SetSurfaceSerial(surfaceKey, ev.SerialLo, ev.SerialHi)
		})
		xwlSurface.SetDestroyHandler(func(server.XwaylandSurfaceV1DestroyEvent) {})
	})
}
