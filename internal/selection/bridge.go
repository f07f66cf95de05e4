package selection

import (
	"fmt"
	"io"
	"os"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"
	"github.com/rajveermalviya/go-wayland/wayland/client"

	xlog "xwaylandbridge/internal/log"
)

// AtomSource is satisfied by internal/xwm's atom cache, kept as a
// narrow interface here so internal/selection doesn't need to import
// internal/xwm.
type AtomSource interface {
	Get(name string) (xproto.Atom, error)
}

// controlAtomNames are filtered out of an X TARGETS response before
// publishing the corresponding host-side MIME list: they steer the
// selection handshake itself and are not content targets. TIMESTAMP is
// probed by well-behaved clients during negotiation and is filtered
// the same way.
var controlAtomNames = map[string]bool{
	"TARGETS":      true,
	"MULTIPLE":     true,
	"SAVE_TARGETS": true,
	"TIMESTAMP":    true,
}

// state tracks one of the two mirrored selections; CLIPBOARD and
// PRIMARY are handled identically but separately.
type state struct {
	kind Kind
	atom xproto.Atom

	// ownedByBridge is true while the bridge holds X ownership of this
	// selection on behalf of a host-side foreign offer (host -> X
	// direction).
	ownedByBridge bool
	// xClientOwned is true while an X client (not the bridge) owns the
	// selection and the bridge mirrors it to the host (X -> host
	// direction).
	xClientOwned bool

	// mimes is the advertised MIME list for whichever direction is
	// currently active.
	mimes []string

	device  *client.DataDevice
	primary *client.ZwpPrimarySelectionDeviceV1

	source        *client.DataSource
	primarySource *client.ZwpPrimarySelectionSourceV1

	offer        *client.DataOffer
	primaryOffer *client.ZwpPrimarySelectionOfferV1

	// pendingOfferMimes accumulates the MIME list advertised on the
	// most recent host data offer; offer events arrive between the
	// data_offer introduction and the selection event that commits it.
	pendingOfferMimes []string

	// transfer is the in-flight host-requested target conversion.
	transfer *transfer
}

// transfer is a single in-flight X<->host content transfer, streamed
// via a pipe. While incr is set the X-side source is streaming an
// INCR transfer: each PropertyNotify(Deleted) on window triggers
// reading the next chunk.
type transfer struct {
	mime   string
	w      *os.File
	window xproto.Window
	prop   xproto.Atom
	incr   bool
}

// Bridge mirrors X11 selections and host clipboards into each other,
// for both CLIPBOARD and PRIMARY.
type Bridge struct {
	conn  *xgb.Conn
	win   xproto.Window // the bridge's own window used as selection owner/requestor
	atoms AtomSource
	log   *xlog.Logger

	clipboard state
	primary   state

	// LastKeyboardSerial is the serial from the most recent keyboard
	// event; set_selection on the host requires a recent one.
	LastKeyboardSerial uint32

	dataSourceManager        *client.DataDeviceManager
	primarySelectionManager  *client.ZwpPrimarySelectionDeviceManagerV1
}

// New creates a Bridge bound to win (typically the X WM Front-End's
// supporting-wm-check window, reused as the selection target/owner
// window) and registers XFixes selection-owner notifications.
func New(conn *xgb.Conn, win xproto.Window, atoms AtomSource, log *xlog.Logger) (*Bridge, error) {
	b := &Bridge{conn: conn, win: win, atoms: atoms, log: log}
	b.clipboard.kind = Clipboard
	b.primary.kind = Primary

	if err := xfixes.Init(conn); err != nil {
		return nil, fmt.Errorf("selection: xfixes unavailable: %w", err)
	}
	if _, err := xfixes.QueryVersion(conn, 5, 0).Reply(); err != nil {
		return nil, fmt.Errorf("selection: xfixes version handshake: %w", err)
	}
	clipAtom, err := atoms.Get("CLIPBOARD")
	if err != nil {
		return nil, err
	}
	primAtom, err := atoms.Get("PRIMARY")
	if err != nil {
		return nil, err
	}
	b.clipboard.atom = clipAtom
	b.primary.atom = primAtom

	const mask = xfixes.SelectionEventMaskSetSelectionOwner |
		xfixes.SelectionEventMaskSelectionWindowDestroy |
		xfixes.SelectionEventMaskSelectionClientClose
	xfixes.SelectSelectionInputChecked(conn, win, clipAtom, mask).Check()
	xfixes.SelectSelectionInputChecked(conn, win, primAtom, mask).Check()
	return b, nil
}

// AttachDataDevice supplies the per-seat host data-device/primary
// -selection device and the manager handles needed to create sources.
// MIME accumulation is wired at offer-introduction time: the offer's
// mime events arrive before the selection event that commits it.
func (b *Bridge) AttachDataDevice(mgr *client.DataDeviceManager, primaryMgr *client.ZwpPrimarySelectionDeviceManagerV1, device *client.DataDevice, primary *client.ZwpPrimarySelectionDeviceV1) {
	b.dataSourceManager = mgr
	b.primarySelectionManager = primaryMgr
	b.clipboard.device = device
	b.primary.primary = primary

	device.SetDataOfferHandler(func(ev client.DataDeviceDataOfferEvent) {
		b.clipboard.pendingOfferMimes = nil
		ev.Id.SetOfferHandler(func(oev client.DataOfferOfferEvent) {
			b.clipboard.pendingOfferMimes = append(b.clipboard.pendingOfferMimes, oev.MimeType)
		})
	})
	device.SetSelectionHandler(func(ev client.DataDeviceSelectionEvent) {
		b.onHostSelection(&b.clipboard, ev.Id)
	})
	if primary != nil {
		primary.SetDataOfferHandler(func(ev client.ZwpPrimarySelectionDeviceV1DataOfferEvent) {
			b.primary.pendingOfferMimes = nil
			ev.Offer.SetOfferHandler(func(oev client.ZwpPrimarySelectionOfferV1OfferEvent) {
				b.primary.pendingOfferMimes = append(b.primary.pendingOfferMimes, oev.MimeType)
			})
		})
		primary.SetSelectionHandler(func(ev client.ZwpPrimarySelectionDeviceV1SelectionEvent) {
			b.onHostPrimarySelection(&b.primary, ev.Id)
		})
	}
}

func (k Kind) pickState(b *Bridge) *state {
	if k == Primary {
		return &b.primary
	}
	return &b.clipboard
}

// OnXFixesSelectionNotify is the X->host direction's entry point: an
// X client (not the bridge) took selection ownership, so the bridge
// starts mirroring by converting TARGETS onto its own window.
func (b *Bridge) OnXFixesSelectionNotify(ev xfixes.SelectionNotifyEvent) {
	var st *state
	switch ev.Selection {
	case b.clipboard.atom:
		st = &b.clipboard
	case b.primary.atom:
		st = &b.primary
	default:
		return
	}
	if ev.Owner == b.win {
		// We just took ownership ourselves (host -> X direction); not
		// a foreign change.
		return
	}
	if ev.Owner == 0 {
		st.xClientOwned = false
		return
	}
	st.xClientOwned = true
	st.ownedByBridge = false

	targets, err := b.atoms.Get("TARGETS")
	if err != nil {
		return
	}
	xproto.ConvertSelectionChecked(b.conn, b.win, st.atom, targets, st.atom, xproto.TimeCurrentTime).Check()
}

// OnSelectionNotify handles the bridge's own ConvertSelection replies:
// target==TARGETS reads the atom list and publishes a host source;
// any other target is the reply to a host-requested conversion and is
// streamed to the waiting transfer's pipe.
func (b *Bridge) OnSelectionNotify(ev xproto.SelectionNotifyEvent) {
	var st *state
	switch ev.Selection {
	case b.clipboard.atom:
		st = &b.clipboard
	case b.primary.atom:
		st = &b.primary
	default:
		return
	}

	targets, _ := b.atoms.Get("TARGETS")
	if ev.Target == targets {
		b.onTargetsReply(st, ev.Property)
		return
	}
	b.onTargetConversionReply(st, ev.Property)
}

func (b *Bridge) onTargetsReply(st *state, prop xproto.Atom) {
	if prop == 0 {
		return
	}
	reply, err := xproto.GetProperty(b.conn, true, b.win, prop, xproto.AtomAtom, 0, (1<<32)-1).Reply()
	if err != nil || reply == nil {
		return
	}
	var mimes []string
	n := len(reply.Value) / 4
	hasUTF8String := false
	hasTextPlainUTF8 := false
	for i := 0; i < n; i++ {
		atom := xproto.Atom(xgb.Get32(reply.Value[i*4:]))
		name, err := b.atomName(atom)
		if err != nil || controlAtomNames[name] {
			continue
		}
		mimes = append(mimes, name)
		if name == "UTF8_STRING" {
			hasUTF8String = true
		}
		if name == "text/plain;charset=utf-8" {
			hasTextPlainUTF8 = true
		}
	}
	// The inverse of the UTF8_STRING synthesis applies here: if X only
	// offers UTF8_STRING, still advertise the MIME name so a host
	// client asking for text/plain works.
	if hasUTF8String && !hasTextPlainUTF8 {
		mimes = append(mimes, "text/plain;charset=utf-8")
	}
	st.mimes = mimes
	b.publishHostSource(st)
}

func (b *Bridge) atomName(atom xproto.Atom) (string, error) {
	reply, err := xproto.GetAtomName(b.conn, atom).Reply()
	if err != nil {
		return "", err
	}
	return reply.Name, nil
}

// publishHostSource creates and offers a host-side data source (or
// primary-selection source) advertising st.mimes, and calls
// set_selection using the last recorded keyboard serial.
func (b *Bridge) publishHostSource(st *state) {
	if st.kind == Clipboard {
		if b.dataSourceManager == nil || st.device == nil {
			return
		}
		src, err := b.dataSourceManager.CreateDataSource()
		if err != nil {
			b.log.Warn("selection: create_data_source failed: %s", err)
			return
		}
		for _, m := range st.mimes {
			src.Offer(m)
		}
		src.SetSendHandler(func(ev client.DataSourceSendEvent) {
			b.onHostSendRequest(st, ev.MimeType, ev.Fd)
		})
		src.SetCancelledHandler(func(client.DataSourceCancelledEvent) {
			st.source = nil
		})
		if st.source != nil {
			st.source.Destroy()
		}
		st.source = src
		if err := st.device.SetSelection(src, b.LastKeyboardSerial); err != nil {
			b.log.Warn("selection: set_selection failed: %s", err)
		}
		return
	}

	if b.primarySelectionManager == nil || st.primary == nil {
		return
	}
	src, err := b.primarySelectionManager.CreateSource()
	if err != nil {
		b.log.Warn("selection: primary create_source failed: %s", err)
		return
	}
	for _, m := range st.mimes {
		src.Offer(m)
	}
	src.SetCancelledHandler(func(client.ZwpPrimarySelectionSourceV1CancelledEvent) {
		st.primarySource = nil
	})
	if st.primarySource != nil {
		st.primarySource.Destroy()
	}
	st.primarySource = src
	st.primary.SetSelection(src, b.LastKeyboardSerial)
}

// onHostSendRequest serves a host client reading the X-owned
// selection: convert the requested target into a property on the
// bridge's window and stream the result back to the provided pipe.
// The fd becomes owned by the transfer record for its lifetime.
func (b *Bridge) onHostSendRequest(st *state, mime string, fd uintptr) {
	w := os.NewFile(fd, "selection-send")
	if w == nil {
		return
	}
	// text/plain;charset=utf-8 may be the name synthesized from
	// UTF8_STRING in the TARGETS handling; serve it from UTF8_STRING
	// whenever X offers that target.
	target := mime
	if mime == "text/plain;charset=utf-8" {
		for _, m := range st.mimes {
			if m == "UTF8_STRING" {
				target = m
			}
		}
	}
	atom, err := b.atoms.Get(target)
	if err != nil {
		w.Close()
		return
	}
	prop, err := b.atoms.Get("_BRIDGE_SEL_XFER")
	if err != nil {
		w.Close()
		return
	}
	st.transfer = &transfer{mime: mime, w: w, window: b.win, prop: prop}
	xproto.ConvertSelectionChecked(b.conn, b.win, st.atom, atom, prop, xproto.TimeCurrentTime).Check()
}

// onTargetConversionReply streams the converted property to the
// waiting transfer's pipe, switching to INCR mode when the property
// type says the content will arrive in chunks.
func (b *Bridge) onTargetConversionReply(st *state, prop xproto.Atom) {
	tr := st.transfer
	if tr == nil || prop == 0 {
		return
	}
	reply, err := xproto.GetProperty(b.conn, true, b.win, prop, xproto.AtomAny, 0, (1<<32)-1).Reply()
	if err != nil || reply == nil {
		b.finishTransfer(st)
		return
	}

	incrAtom, _ := b.atoms.Get("INCR")
	if reply.Type == incrAtom {
		tr.incr = true
		xproto.ChangeWindowAttributesChecked(b.conn, b.win, xproto.CwEventMask,
			[]uint32{uint32(xproto.EventMaskPropertyChange)}).Check()
		return
	}

	if len(reply.Value) > 0 {
		if _, err := tr.w.Write(reply.Value); err != nil {
			b.log.Warn("selection: write to host pipe failed: %s", err)
		}
	}
	if !tr.incr {
		b.finishTransfer(st)
	} else if len(reply.Value) == 0 {
		// Final zero-length property closes an INCR transfer.
		b.finishTransfer(st)
	}
}

// OnPropertyNotify drives INCR continuation: each Deleted notification
// on the transfer window means the reader consumed the chunk and the
// bridge should request the next one.
func (b *Bridge) OnPropertyNotify(ev xproto.PropertyNotifyEvent) {
	for _, st := range []*state{&b.clipboard, &b.primary} {
		tr := st.transfer
		if tr == nil || !tr.incr || ev.Window != tr.window || ev.Atom != tr.prop {
			continue
		}
		if ev.State != xproto.PropertyDelete {
			continue
		}
		b.onTargetConversionReply(st, tr.prop)
	}
}

func (b *Bridge) finishTransfer(st *state) {
	if st.transfer == nil {
		return
	}
	st.transfer.w.Close()
	st.transfer = nil
}

// --- Host -> X direction ---

// onHostSelection reacts to a host foreign selection arriving: the
// bridge takes X ownership of the corresponding atom on its window.
func (b *Bridge) onHostSelection(st *state, offer *client.DataOffer) {
	if offer == nil {
		st.ownedByBridge = false
		st.mimes = nil
		return
	}
	st.offer = offer
	st.mimes = st.pendingOfferMimes
	st.pendingOfferMimes = nil
	st.ownedByBridge = true
	st.xClientOwned = false
	xproto.SetSelectionOwnerChecked(b.conn, b.win, st.atom, xproto.TimeCurrentTime).Check()
}

func (b *Bridge) onHostPrimarySelection(st *state, offer *client.ZwpPrimarySelectionOfferV1) {
	if offer == nil {
		st.ownedByBridge = false
		st.mimes = nil
		return
	}
	st.primaryOffer = offer
	st.mimes = st.pendingOfferMimes
	st.pendingOfferMimes = nil
	st.ownedByBridge = true
	st.xClientOwned = false
	xproto.SetSelectionOwnerChecked(b.conn, b.win, st.atom, xproto.TimeCurrentTime).Check()
}

// OnSelectionRequest is the host->X direction's X-facing half: a
// TARGETS request returns the MIME list as atoms; a specific target
// receives the content from the host via a pipe and writes it as a
// property on the requestor.
func (b *Bridge) OnSelectionRequest(ev xproto.SelectionRequestEvent) {
	var st *state
	switch ev.Selection {
	case b.clipboard.atom:
		st = &b.clipboard
	case b.primary.atom:
		st = &b.primary
	default:
		b.denyRequest(ev)
		return
	}
	if !st.ownedByBridge {
		b.denyRequest(ev)
		return
	}

	targets, _ := b.atoms.Get("TARGETS")
	if ev.Target == targets {
		b.replyTargets(st, ev)
		return
	}

	name, err := b.atomName(ev.Target)
	if err != nil {
		b.denyRequest(ev)
		return
	}
	if !b.mimeAvailable(st, name) {
		b.denyRequest(ev)
		return
	}
	b.receiveAndReply(st, ev, name)
}

func (b *Bridge) mimeAvailable(st *state, mime string) bool {
	for _, m := range st.mimes {
		if m == mime {
			return true
		}
	}
	// UTF8_STRING fallback: when the host offers
	// text/plain;charset=utf-8 but not UTF8_STRING, a synthesized
	// UTF8_STRING target reads from the UTF-8 text/plain mime.
	if mime == "UTF8_STRING" {
		for _, m := range st.mimes {
			if m == "text/plain;charset=utf-8" {
				return true
			}
		}
	}
	return false
}

func (b *Bridge) replyTargets(st *state, ev xproto.SelectionRequestEvent) {
	atoms := make([]xproto.Atom, 0, len(st.mimes)+1)
	for _, m := range st.mimes {
		a, err := b.atoms.Get(m)
		if err != nil {
			continue
		}
		atoms = append(atoms, a)
	}
	if b.mimeAvailable(st, "UTF8_STRING") {
		if a, err := b.atoms.Get("UTF8_STRING"); err == nil {
			atoms = append(atoms, a)
		}
	}
	data := make([]byte, len(atoms)*4)
	for i, a := range atoms {
		xgb.Put32(data[i*4:], uint32(a))
	}
	xproto.ChangePropertyChecked(b.conn, xproto.PropModeReplace, ev.Requestor, ev.Property,
		xproto.AtomAtom, 32, uint32(len(atoms)), data).Check()
	b.notify(ev, ev.Property)
}

func (b *Bridge) receiveAndReply(st *state, ev xproto.SelectionRequestEvent, mime string) {
	requestMime := mime
	if mime == "UTF8_STRING" && !b.hasMime(st, "UTF8_STRING") {
		requestMime = "text/plain;charset=utf-8"
	}

	r, w, err := os.Pipe()
	if err != nil {
		b.denyRequest(ev)
		return
	}

	if st.kind == Clipboard && st.offer != nil {
		if err := st.offer.Receive(requestMime, w.Fd()); err != nil {
			w.Close()
			r.Close()
			b.denyRequest(ev)
			return
		}
	} else if st.kind == Primary && st.primaryOffer != nil {
		if err := st.primaryOffer.Receive(requestMime, w.Fd()); err != nil {
			w.Close()
			r.Close()
			b.denyRequest(ev)
			return
		}
	} else {
		w.Close()
		r.Close()
		b.denyRequest(ev)
		return
	}
	// The host writes into its dup of the pipe; closing ours lets
	// ReadAll observe EOF when the transfer finishes.
	w.Close()

	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		b.denyRequest(ev)
		return
	}

	targetAtom, _ := b.atoms.Get(mime)
	xproto.ChangePropertyChecked(b.conn, xproto.PropModeReplace, ev.Requestor, ev.Property,
		targetAtom, 8, uint32(len(data)), data).Check()
	b.notify(ev, ev.Property)
}

func (b *Bridge) hasMime(st *state, mime string) bool {
	for _, m := range st.mimes {
		if m == mime {
			return true
		}
	}
	return false
}

// denyRequest sends a SelectionNotify with property==None, the
// protocol's refusal.
func (b *Bridge) denyRequest(ev xproto.SelectionRequestEvent) {
	b.notify(ev, 0)
}

func (b *Bridge) notify(ev xproto.SelectionRequestEvent, property xproto.Atom) {
	notifyEv := xproto.SelectionNotifyEvent{
		Time:      ev.Time,
		Requestor: ev.Requestor,
		Selection: ev.Selection,
		Target:    ev.Target,
		Property:  property,
	}
	xproto.SendEventChecked(b.conn, false, ev.Requestor, 0, string(notifyEv.Bytes())).Check()
}

