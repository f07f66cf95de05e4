package bridge

import (
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/relay"
	server "xwaylandbridge/internal/wlserver"
)

// pendingGlobal remembers a host-advertised global until Xwayland
// actually binds the matching server-side global; the host-side bind
// happens lazily, the first time an X-side bind arrives.
type pendingGlobal struct {
	hostName uint32
	iface    string
	version  uint32
}

// installPassthroughGlobals installs the PassthroughGlobals registry.
// Each entry binds lazily on first Get, reading the matching
// seenGlobals record at that point, so installation can happen before
// the registry burst has arrived.
func (b *Bridge) installPassthroughGlobals() {
	reg := b.queue.Registry()

	b.passthrough = relay.PassthroughGlobals{
		Compositor: relay.NewPassthrough(func() (*client.Compositor, error) {
			proxy := client.NewCompositor(reg.Context())
			pg := b.seenGlobals["wl_compositor"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		Subcompositor: relay.NewPassthrough(func() (*client.Subcompositor, error) {
			proxy := client.NewSubcompositor(reg.Context())
			pg := b.seenGlobals["wl_subcompositor"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		Shm: relay.NewPassthrough(func() (*client.Shm, error) {
			proxy := client.NewShm(reg.Context())
			pg := b.seenGlobals["wl_shm"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		XdgWmBase: relay.NewPassthrough(func() (*client.XdgWmBase, error) {
			proxy := client.NewXdgWmBase(reg.Context())
			pg := b.seenGlobals["xdg_wm_base"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		DmabufManager: relay.NewPassthrough(func() (*client.ZwpLinuxDmabufV1, error) {
			proxy := client.NewZwpLinuxDmabufV1(reg.Context())
			pg := b.seenGlobals["zwp_linux_dmabuf_v1"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		Viewporter: relay.NewPassthrough(func() (*client.WpViewporter, error) {
			proxy := client.NewWpViewporter(reg.Context())
			pg := b.seenGlobals["wp_viewporter"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		XdgOutputMgr: relay.NewPassthrough(func() (*client.ZxdgOutputManagerV1, error) {
			proxy := client.NewZxdgOutputManagerV1(reg.Context())
			pg := b.seenGlobals["zxdg_output_manager_v1"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		RelPointerMgr: relay.NewPassthrough(func() (*client.ZwpRelativePointerManagerV1, error) {
			proxy := client.NewZwpRelativePointerManagerV1(reg.Context())
			pg := b.seenGlobals["zwp_relative_pointer_manager_v1"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		ConstraintMgr: relay.NewPassthrough(func() (*client.ZwpPointerConstraintsV1, error) {
			proxy := client.NewZwpPointerConstraintsV1(reg.Context())
			pg := b.seenGlobals["zwp_pointer_constraints_v1"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
		TabletMgr: relay.NewPassthrough(func() (*client.ZwpTabletManagerV2, error) {
			proxy := client.NewZwpTabletManagerV2(reg.Context())
			pg := b.seenGlobals["zwp_tablet_manager_v2"]
			return proxy, reg.Bind(pg.hostName, pg.iface, pg.version, proxy)
		}),
	}
}

// processGlobals drains newly (un)advertised host globals, recording
// each and advertising (or withdrawing) the matching server-side
// global to Xwayland at min(host_version, bridge_max). Called once per
// main-loop iteration.
func (b *Bridge) processGlobals() {
	for _, g := range b.queue.TakeGlobals() {
		if g.Removed {
			delete(b.globalsByName, g.Name)
			b.removeOutputsForGlobal(g.Name)
			if sg, ok := b.advertised[g.Name]; ok {
				b.serverDisplay.RemoveGlobal(sg)
				delete(b.advertised, g.Name)
			}
			continue
		}
		pg := pendingGlobal{hostName: g.Name, iface: g.Interface, version: g.Version}
		b.seenGlobals[g.Interface] = pg
		b.globalsByName[g.Name] = pg
		version := b.queue.AdvertisedVersion(g.Interface, g.Version)
		if sg, ok := b.advertiseGlobal(g.Name, g.Interface, version); ok {
			b.advertised[g.Name] = sg
		}
	}
}

// advertiseGlobal installs one server-side global for iface, dispatching
// Xwayland's eventual bind request to the matching bind entry point.
// Notably absent: xdg_wm_base (bound from the host only, to drive role
// creation; Xwayland itself never sees xdg-shell) and
// wl_data_device_manager (the X-side selection surface is pure X11
// atoms; internal/selection talks to the host's data device directly,
// never relayed to Xwayland). Unrecognized interfaces are already
// filtered by clientside's supported set before reaching TakeGlobals.
func (b *Bridge) advertiseGlobal(hostName uint32, iface string, version uint32) (*server.Global, bool) {
	switch iface {
	case "wl_compositor":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindCompositor), true
	case "wl_shm":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindShm), true
	case "wl_seat":
		return b.serverDisplay.CreateGlobal(iface, version, func(c *server.Client, v, id uint32) {
			b.bindSeat(hostName, c, v, id)
		}), true
	case "wl_output":
		return b.serverDisplay.CreateGlobal(iface, version, func(c *server.Client, v, id uint32) {
			b.bindOutput(hostName, c, v, id)
		}), true
	case "zxdg_output_manager_v1":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindXdgOutputManager), true
	case "wl_drm":
		return b.serverDisplay.CreateGlobal(iface, version, func(c *server.Client, v, id uint32) {
			b.bindDrm(hostName, c, v, id)
		}), true
	case "zwp_linux_dmabuf_v1":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindDmabuf), true
	case "wp_viewporter":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindViewporter), true
	case "zwp_relative_pointer_manager_v1":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindRelativePointerManager), true
	case "zwp_pointer_constraints_v1":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindPointerConstraints), true
	case "zwp_tablet_manager_v2":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindTabletManager), true
	case "xwayland_shell_v1":
		return b.serverDisplay.CreateGlobal(iface, version, b.bindXwaylandShell), true
	default:
		return nil, false
	}
}
