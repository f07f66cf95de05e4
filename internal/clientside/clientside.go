// Package clientside owns the bridge's connection to the host
// compositor. It dispatches inbound host events into per-object
// inboxes and surfaces newly advertised globals to the relay layer.
package clientside

import (
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"

	xlog "xwaylandbridge/internal/log"
	"xwaylandbridge/internal/store"
)

// BridgeMaxVersion caps the version advertised to Xwayland for each
// supported global, regardless of what the host offers: the effective
// version is min(host_version, bridge_max).
var BridgeMaxVersion = map[string]uint32{
	// xdg_wm_base is consumed from the host only (it drives role
	// creation); it is never advertised to the X side, which the
	// advertisement switch enforces.
	"xdg_wm_base":                             3,
	"wl_compositor":                           1,
	"wl_subcompositor":                        1,
	"wl_shm":                                  1,
	"wl_seat":                                 8,
	"wl_output":                               4,
	"zwp_linux_dmabuf_v1":                     5,
	"wp_viewporter":                           1,
	"zxdg_output_manager_v1":                  3,
	"zwp_relative_pointer_manager_v1":         1,
	"zwp_pointer_constraints_v1":              1,
	"zwp_tablet_manager_v2":                   1,
	"wl_drm":                                  2,
	"xwayland_shell_v1":                       1,
	"wl_data_device_manager":                  3,
	"zwp_primary_selection_device_manager_v1": 1,
}

// supportedGlobals is the set of interface names the bridge recognizes
// from the registry.
var supportedGlobals = map[string]bool{}

func init() {
	for name := range BridgeMaxVersion {
		supportedGlobals[name] = true
	}
}

// Event is a (key, event) pair produced by dispatching a host event
// for an object bearing a known ObjectKey.
type Event struct {
	Key  store.ObjectKey
	Data any
}

// GlobalEvent is surfaced to the relay layer's global-advertisement
// logic whenever the registry announces or withdraws a supported
// global.
type GlobalEvent struct {
	Name      uint32
	Interface string
	Version   uint32
	Removed   bool
}

// Queue is the Clientside Queue: it owns the host Display and
// Registry, and accumulates dispatched (key, event) pairs plus newly
// seen globals for the main loop to drain once per iteration.
type Queue struct {
	log      *xlog.Logger
	display  *client.Display
	registry *client.Registry
	ctx      *client.Context

	// lookup maps a raw proxy object to the ObjectKey carried as its
	// bridge-side user data.
	lookup map[client.Proxy]store.ObjectKey

	events  []Event
	globals []GlobalEvent

	// late holds tablet sub-objects that exist before the bridge has
	// assigned them an ObjectKey.
	late map[client.Proxy]*LateInitObjectKey
}

// Connect dials the host compositor's socket (WAYLAND_DISPLAY in the
// bridge's own environment — not to be confused with the socket the
// bridge itself serves to Xwayland) and binds the registry.
func Connect(log *xlog.Logger) (*Queue, error) {
	display, err := client.Connect("")
	if err != nil {
		return nil, fmt.Errorf("connect to host compositor: %w", err)
	}
	q := &Queue{
		log:     log,
		display: display,
		ctx:     display.Context(),
		lookup:  make(map[client.Proxy]store.ObjectKey),
		late:    make(map[client.Proxy]*LateInitObjectKey),
	}
	registry, err := display.GetRegistry()
	if err != nil {
		display.Context().Close()
		return nil, fmt.Errorf("get registry: %w", err)
	}
	q.registry = registry
	registry.SetGlobalHandler(q.onGlobal)
	registry.SetGlobalRemoveHandler(q.onGlobalRemove)
	return q, nil
}

func (q *Queue) onGlobal(e client.RegistryGlobalEvent) {
	if !supportedGlobals[e.Interface] {
		return
	}
	q.globals = append(q.globals, GlobalEvent{
		Name:      e.Name,
		Interface: e.Interface,
		Version:   e.Version,
	})
}

func (q *Queue) onGlobalRemove(e client.RegistryGlobalRemoveEvent) {
	q.globals = append(q.globals, GlobalEvent{Name: e.Name, Removed: true})
}

// AdvertisedVersion returns the min(host_version, bridge_max) the
// bridge should in turn advertise to the X side for iface.
func (q *Queue) AdvertisedVersion(iface string, hostVersion uint32) uint32 {
	max, ok := BridgeMaxVersion[iface]
	if !ok || hostVersion < max {
		return hostVersion
	}
	return max
}

// Registry exposes the bound registry for relay-layer Bind calls.
func (q *Queue) Registry() *client.Registry { return q.registry }

// Display exposes the host Display for Flush/Fd access from the main
// poll loop.
func (q *Queue) Display() *client.Display { return q.display }

// Track records that proxy carries key as its bridge-side identity, so
// future events on proxy are pushed to the events queue tagged with
// key.
func (q *Queue) Track(proxy client.Proxy, key store.ObjectKey) {
	q.lookup[proxy] = key
}

// Untrack removes proxy's key association. Called from each relay's
// destroy handler.
func (q *Queue) Untrack(proxy client.Proxy) {
	delete(q.lookup, proxy)
}

// KeyOf returns the ObjectKey tracked for proxy, if any.
func (q *Queue) KeyOf(proxy client.Proxy) (store.ObjectKey, bool) {
	k, ok := q.lookup[proxy]
	return k, ok
}

// Push enqueues a dispatched event for key. Relay event handlers call
// this instead of acting immediately: handlers only ever append to
// q.events, never recurse into Dispatch.
func (q *Queue) Push(key store.ObjectKey, data any) {
	q.events = append(q.events, Event{Key: key, Data: data})
}

// TakeEvents drains and returns the accumulated events, resetting the
// internal buffer. Called once per main-loop iteration.
func (q *Queue) TakeEvents() []Event {
	out := q.events
	q.events = nil
	return out
}

// TakeGlobals drains and returns newly (un)advertised globals.
func (q *Queue) TakeGlobals() []GlobalEvent {
	out := q.globals
	q.globals = nil
	return out
}

// PrepareRead, Read, and DispatchPending implement the two-phase
// cooperative read contract, so the main poll loop in internal/bridge
// can multiplex the host socket fd with the X fds instead of letting
// the client library dispatch on its own goroutine.
func (q *Queue) PrepareRead() error { return q.ctx.PrepareRead() }

func (q *Queue) Fd() uintptr { return q.ctx.Fd() }

func (q *Queue) Read() error { return q.ctx.ReadEvents() }

func (q *Queue) CancelRead() { q.ctx.CancelRead() }

func (q *Queue) DispatchPending() error { return q.ctx.DispatchPending() }

func (q *Queue) Flush() error { return q.ctx.Flush() }

// Roundtrip flushes outbound requests and blocks for one inbound
// batch, dispatching it. Used at startup to collect the registry's
// initial global burst before anything depends on it.
func (q *Queue) Roundtrip() error {
	if err := q.ctx.Flush(); err != nil {
		return err
	}
	if err := q.ctx.PrepareRead(); err != nil {
		return err
	}
	if err := q.ctx.ReadEvents(); err != nil {
		return err
	}
	return q.ctx.DispatchPending()
}

// LateInit returns (creating if absent) the LateInitObjectKey tracking
// proxy, for tablet sub-objects born before the bridge assigns them a
// real ObjectKey.
func (q *Queue) LateInit(proxy client.Proxy) *LateInitObjectKey {
	if l, ok := q.late[proxy]; ok {
		return l
	}
	l := &LateInitObjectKey{}
	q.late[proxy] = l
	return l
}

// PushOrBuffer routes an event for proxy: buffered on the late-init
// handle while no key is assigned yet, straight onto the event stream
// once ResolveLateInit has run.
func (q *Queue) PushOrBuffer(proxy client.Proxy, late *LateInitObjectKey, ev any) {
	if key, ok := q.lookup[proxy]; ok {
		q.Push(key, ev)
		return
	}
	late.Push(ev)
}

// ResolveLateInit assigns key to the pending late-init handle for
// proxy and flushes its buffered events into the main event stream,
// in order.
func (q *Queue) ResolveLateInit(proxy client.Proxy, key store.ObjectKey) {
	l, ok := q.late[proxy]
	if !ok {
		return
	}
	delete(q.late, proxy)
	q.Track(proxy, key)
	for _, ev := range l.init(key) {
		q.Push(key, ev)
	}
}
