// Package bridge wires every other internal package into the running
// system: it owns the host-facing Clientside Queue, the Xwayland-facing
// Wayland listener, the nested X connection, and the single cooperative
// poll loop that drives all three.
package bridge

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	"xwaylandbridge/internal/clientside"
	"xwaylandbridge/internal/config"
	"xwaylandbridge/internal/decoration"
	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/output"
	"xwaylandbridge/internal/relay"
	"xwaylandbridge/internal/selection"
	"xwaylandbridge/internal/store"
	server "xwaylandbridge/internal/wlserver"
	"xwaylandbridge/internal/xserver"
	"xwaylandbridge/internal/xsettings"
	"xwaylandbridge/internal/xwm"
)

// Options configures one bridge run, sourced from cmd/bridge's parsed
// CLI arguments.
type Options struct {
	DisplayName string
	ListenFDs   []int
}

// Bridge is the top-level state: one Object Store, one Clientside
// Queue, one Relay Engine, one Surface/Window Coordinator, one X WM
// Frontend, one Selection Bridge, one Output Tracker, plus
// per-toplevel decorations. All of it is owned and mutated by the main
// thread only.
type Bridge struct {
	log *xlog.Logger
	cfg config.Config

	store *store.Store
	queue *clientside.Queue
	relay *relay.Engine

	passthrough relay.PassthroughGlobals
	seats       map[store.ObjectKey]*seatState

	// seenGlobals/globalsByName/advertised back the lazy-bind and
	// add/remove bookkeeping in globals.go. seenGlobals collapses by interface name and serves
	// the singleton passthrough globals; globalsByName keeps every
	// instance, which matters for wl_output and wl_seat where several
	// globals of the same interface can coexist.
	seenGlobals   map[string]pendingGlobal
	globalsByName map[uint32]pendingGlobal
	advertised    map[uint32]*server.Global

	// outputBindings/outputKeysByResource track the server-side
	// resources Xwayland bound for each host output (output.go).
	outputBindings       map[store.ObjectKey]*outputBinding
	outputKeysByResource map[*server.Output]store.ObjectKey

	serverCtx      *server.Context
	serverDisplay  *server.Display
	serverConnFile *os.File
	socketPath     string
	socketListen   net.Listener

	xserv *xserver.Server
	xconn *xgb.Conn
	root  xproto.Window

	coordinator *xwm.Coordinator
	frontend    *xwm.Frontend
	selection   *selection.Bridge
	outputs     *output.Tracker

	decorations map[xproto.Window]*decoration.Decoration

	// buffers/regions/pools map server-side resources with no
	// relay-specific per-instance state back to the client-side proxy
	// they were bound to. wl_buffer and wl_region never need an
	// ObjectKey: nothing else in the bridge ever looks one up by key,
	// only by its own server-side identity.
	buffers map[*server.Buffer]*client.Buffer
	regions map[*server.Region]*client.Region
	pools   map[*server.ShmPool]*client.ShmPool

	// surfaceKeys/clientSurfaceKeys resolve a surface resource back to
	// its ObjectKey from either side of the relay: the server side
	// (Xwayland's own requests name a server.Surface) and the client
	// side (host pointer/keyboard events name the paired client.Surface).
	surfaceKeys       map[*server.Surface]store.ObjectKey
	clientSurfaceKeys map[*client.Surface]store.ObjectKey

	// pointers/seatsByResource mirror buffers/regions/pools for wl_seat
	// and its pointer sub-object, which internal/bridge's seat.go needs
	// to resolve from the server-side resource Xwayland references in
	// e.g. zwp_relative_pointer_manager_v1.get_relative_pointer.
	pointers        map[*server.Pointer]*client.Pointer
	seatsByResource map[*server.Seat]*seatState

	// decorationsByClientSurface lets pointer event relay recognize a
	// host pointer enter/motion/button landing on a decoration's own
	// titlebar surface rather than an Xwayland-owned one.
	decorationsByClientSurface map[*client.Surface]*decoration.Decoration

	serial uint32 // xsettings property serial, bumped on every re-encode

	quitR, quitW *os.File
}

// seatState tracks the per-seat wiring (data device, tablet seat) that
// isn't itself store-resident.
type seatState struct {
	key        store.ObjectKey
	clientSeat *client.Seat
	dataDevice *relay.DataDevice
}

// New performs the startup sequence: connect to the host compositor,
// open the bridge's own private Wayland socket, launch Xwayland
// against it, wait for its display to come up, then connect as its X
// Window Manager.
func New(cfg config.Config, log *xlog.Logger, opts Options) (*Bridge, error) {
	st := store.New()

	queue, err := clientside.Connect(log)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		log:           log,
		cfg:           cfg,
		store:         st,
		queue:         queue,
		relay:         &relay.Engine{Store: st, Log: log},
		seats:         make(map[store.ObjectKey]*seatState),
		decorations:   make(map[xproto.Window]*decoration.Decoration),
		seenGlobals:   make(map[string]pendingGlobal),
		globalsByName: make(map[uint32]pendingGlobal),
		advertised:    make(map[uint32]*server.Global),
		buffers:       make(map[*server.Buffer]*client.Buffer),
		regions:       make(map[*server.Region]*client.Region),
		pools:         make(map[*server.ShmPool]*client.ShmPool),

		outputBindings:       make(map[store.ObjectKey]*outputBinding),
		outputKeysByResource: make(map[*server.Output]store.ObjectKey),

		surfaceKeys:       make(map[*server.Surface]store.ObjectKey),
		clientSurfaceKeys: make(map[*client.Surface]store.ObjectKey),
		pointers:          make(map[*server.Pointer]*client.Pointer),
		seatsByResource:   make(map[*server.Seat]*seatState),

		decorationsByClientSurface: make(map[*client.Surface]*decoration.Decoration),
	}

	// The registry's initial global burst must land before anything
	// binds through the passthrough registry.
	b.installPassthroughGlobals()
	if err := b.queue.Roundtrip(); err != nil {
		queue.Display().Context().Close()
		return nil, fmt.Errorf("bridge: initial registry roundtrip: %w", err)
	}

	if err := b.listenForXwayland(); err != nil {
		queue.Display().Context().Close()
		return nil, err
	}

	xs, err := xserver.Launch(log, xserver.Options{
		DisplayName:    opts.DisplayName,
		ListenFDs:      opts.ListenFDs,
		WaylandDisplay: filepath.Base(b.socketPath),
	})
	if err != nil {
		b.socketListen.Close()
		return nil, err
	}
	b.xserv = xs

	displayName, err := xs.WaitReady()
	if err != nil {
		return nil, fmt.Errorf("bridge: Xwayland did not become ready: %w", err)
	}
	log.Info("bridge: Xwayland ready on %s", displayName)

	if err := b.acceptXwaylandConn(); err != nil {
		return nil, err
	}
	// Advertise the collected host globals to the freshly connected
	// Xwayland; later additions flow through the main loop's
	// processGlobals.
	b.processGlobals()

	xconn, err := xgb.NewConnDisplay(displayName)
	if err != nil {
		return nil, fmt.Errorf("bridge: connect to nested X display: %w", err)
	}
	b.xconn = xconn
	b.root = xproto.Setup(xconn).DefaultScreen(xconn).Root

	if err := b.setupCoordinatorAndFrontend(); err != nil {
		return nil, err
	}

	// The selection bridge reuses the front-end's supporting-wm-check
	// window, found through _NET_SUPPORTING_WM_CHECK on root; root is
	// used only if that property cannot be read.
	selWin := b.root
	if checkAtom, err := b.frontend.Atoms.Get("_NET_SUPPORTING_WM_CHECK"); err == nil {
		reply, err := xproto.GetProperty(xconn, false, b.root, checkAtom, xproto.AtomWindow, 0, 1).Reply()
		if err == nil && reply != nil && len(reply.Value) >= 4 {
			selWin = xproto.Window(xgb.Get32(reply.Value))
		}
	}
	sel, err := selection.New(xconn, selWin, b.frontend.Atoms, log)
	if err != nil {
		return nil, fmt.Errorf("bridge: selection bridge setup: %w", err)
	}
	b.selection = sel

	b.outputs = output.NewTracker(log)
	b.coordinator.CurrentOffset = b.outputs.Offset
	b.coordinator.MatchesOutputSize = b.outputs.MatchesSize
	b.outputs.OnOffsetChanged = b.onOutputOffsetChanged
	b.outputs.OnOutputsChanged = b.syncAdvertisedOutputs

	b.frontend.SetPrimaryOutputHandler(b.onFocusedWindowOutput)
	b.frontend.SetRandrRescanHandler(b.syncAdvertisedOutputs)
	b.frontend.SetFullscreenChangedHandler(b.setDecorationFullscreen)
	b.frontend.SetDecorationHandlers(b.refreshDecoration, b.destroyDecoration)

	if err := b.publishXSettings(); err != nil {
		log.Warn("bridge: publish XSETTINGS failed: %s", err)
	}

	quitR, quitW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("bridge: create quit pipe: %w", err)
	}
	b.quitR, b.quitW = quitR, quitW

	if ok, _ := daemon.SdNotify(false, daemon.SdNotifyReady); ok {
		log.Debug("bridge: notified systemd readiness")
	}

	return b, nil
}

// listenForXwayland opens the bridge's own Wayland server socket under
// XDG_RUNTIME_DIR; Xwayland is pointed at it via WAYLAND_DISPLAY (set
// by xserver.Launch).
func (b *Bridge) listenForXwayland() error {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	name := fmt.Sprintf("xwayland-bridge-%d", os.Getpid())
	path := filepath.Join(dir, name)
	os.Remove(path)

	l, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("bridge: listen on %s: %w", path, err)
	}
	b.socketPath = path
	b.socketListen = l
	return nil
}

// acceptXwaylandConn blocks for Xwayland's single inbound connection
// to the bridge's private socket and stands up the server-side
// wl_display for it.
func (b *Bridge) acceptXwaylandConn() error {
	conn, err := b.socketListen.Accept()
	if err != nil {
		return fmt.Errorf("bridge: accept Xwayland connection: %w", err)
	}
	if err := b.captureServerConnFd(conn); err != nil {
		return err
	}
	ctx := server.NewContext(conn)
	disp := server.NewDisplay(ctx)
	b.serverCtx = ctx
	b.serverDisplay = disp
	return nil
}

func (b *Bridge) setupCoordinatorAndFrontend() error {
	wmBase, err := b.passthrough.XdgWmBase.Get()
	if err != nil {
		return fmt.Errorf("bridge: bind xdg_wm_base: %w", err)
	}
	wmBase.SetPingHandler(func(ev client.XdgWmBasePingEvent) {
		wmBase.Pong(ev.Serial)
	})
	b.coordinator = xwm.NewCoordinator(b.store, b.relay, b.log, wmBase, relay.XdgWmBaseWantVersion)
	b.coordinator.SetOnToplevelCreated(b.onToplevelCreated)
	b.coordinator.SetCloseHandler(b.onToplevelClosed)

	frontend, err := xwm.NewFrontend(b.xconn, b.root, b.log, b.coordinator)
	if err != nil {
		return fmt.Errorf("bridge: X WM front-end setup: %w", err)
	}
	b.frontend = frontend
	b.relay.OnConfigure = frontend.ApplyHostConfigure
	return nil
}

// publishXSettings (re-)encodes the bridge's XSETTINGS payload and
// sets it on the _XSETTINGS_S0 selection owner window, via the same
// property-set idiom internal/xwm's ewmh.go uses.
func (b *Bridge) publishXSettings() error {
	b.serial++
	payload := xsettings.Encode(b.serial, xsettings.Settings{
		XftDPI:                 b.cfg.XSettings.XftDPI,
		GdkWindowScalingFactor: b.cfg.XSettings.GdkWindowScalingFactor,
		GdkUnscaledDPI:         b.cfg.XSettings.GdkUnscaledDPI,
	})
	return b.frontend.SetXSettingsProperty(payload)
}

// Close tears down every owned resource. Safe to call once, after Run
// returns.
func (b *Bridge) Close() {
	if b.xserv != nil {
		b.xserv.Kill()
	}
	if b.xconn != nil {
		b.xconn.Close()
	}
	if b.serverConnFile != nil {
		b.serverConnFile.Close()
	}
	if b.socketListen != nil {
		b.socketListen.Close()
		os.Remove(b.socketPath)
	}
	if b.quitW != nil {
		b.quitW.Close()
	}
	if b.quitR != nil {
		b.quitR.Close()
	}
	b.queue.Display().Context().Close()
}

// RequestQuit is called from signal handling in cmd/bridge to break
// the poll loop without touching Bridge state from another goroutine.
// It only ever writes to the quit pipe; Run, on the main thread, is
// what actually unwinds.
func (b *Bridge) RequestQuit() {
	b.quitW.Write([]byte{0})
}
