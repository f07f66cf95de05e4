package bridge

import (
	"fmt"
	"net"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"
	"golang.org/x/sys/unix"
)

// captureServerConnFd duplicates the Xwayland connection's file descriptor
// once at accept time purely so Run can unix.Poll it; reads still go
// through serverCtx. Dup'd fds share the same underlying socket at the
// kernel level, so polling the dup observes the same readability as
// the original.
func (b *Bridge) captureServerConnFd(conn net.Conn) error {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return fmt.Errorf("bridge: Xwayland connection is not unix-domain")
	}
	f, err := uc.File()
	if err != nil {
		return fmt.Errorf("bridge: dup Xwayland connection fd: %w", err)
	}
	b.serverConnFile = f
	return nil
}

// forwardXEvents relays already-decoded X events into a channel. xgb
// has no exposed raw fd to unix.Poll (WaitForEvent blocks internally on
// its own reader goroutine regardless of what this bridge does), so
// this goroutine exists solely as plumbing; it never touches Bridge
// state. All handling happens in Run on the main thread.
func (b *Bridge) forwardXEvents(events chan<- xgb.Event, errs chan<- error) {
	for {
		ev, xerr := b.xconn.WaitForEvent()
		if xerr != nil {
			b.log.Warn("bridge: X protocol error: %s", xerr)
			continue
		}
		if ev == nil {
			errs <- fmt.Errorf("bridge: X connection closed")
			return
		}
		events <- ev
	}
}

// Run drives the single cooperative poll loop: one main thread
// multiplexing the host-protocol socket, the Xwayland server socket,
// the X11 event stream, the quit pipe, and the Xserver exit signal.
// Every event and request handler it invokes (directly, or
// transitively through DispatchPending/serverCtx dispatch) runs to
// completion before Run loops again — nothing here may itself suspend
// inside a handler.
func (b *Bridge) Run() error {
	xEvents := make(chan xgb.Event, 64)
	xErrs := make(chan error, 1)
	go b.forwardXEvents(xEvents, xErrs)

	xserverExited := b.xserv.Exited()

	hostFd := int32(b.queue.Fd())
	serverFd := int32(b.serverConnFile.Fd())
	quitFd := int32(b.quitR.Fd())

	for {
		// One configure batch per iteration: every handler that runs
		// below shares it, so a host-assigned position and an offset
		// shift landing together move a window once, not twice.
		b.frontend.NextConfigureBatch()

		select {
		case ev := <-xEvents:
			b.dispatchXEvent(ev)
			b.drainHostSideEffects()
			continue
		case err := <-xErrs:
			return err
		case err := <-xserverExited:
			if err != nil {
				return fmt.Errorf("bridge: Xwayland exited: %w", err)
			}
			return nil
		default:
		}

		if err := b.queue.Flush(); err != nil {
			return fmt.Errorf("bridge: flush host queue: %w", err)
		}
		if err := b.queue.PrepareRead(); err != nil {
			return fmt.Errorf("bridge: prepare read: %w", err)
		}

		fds := []unix.PollFd{
			{Fd: hostFd, Events: unix.POLLIN},
			{Fd: serverFd, Events: unix.POLLIN},
			{Fd: quitFd, Events: unix.POLLIN},
		}
		n, err := unix.Poll(fds, 50)
		if err != nil {
			b.queue.CancelRead()
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("bridge: poll: %w", err)
		}
		if n == 0 {
			b.queue.CancelRead()
			continue
		}

		if fds[2].Revents&unix.POLLIN != 0 {
			b.queue.CancelRead()
			return nil
		}

		if fds[0].Revents&unix.POLLIN != 0 {
			if err := b.queue.Read(); err != nil {
				return fmt.Errorf("bridge: read host events: %w", err)
			}
			if err := b.queue.DispatchPending(); err != nil {
				return fmt.Errorf("bridge: dispatch host events: %w", err)
			}
			b.drainHostSideEffects()
		} else {
			b.queue.CancelRead()
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			// serverCtx.Dispatch reads what is available and runs every
			// complete request. Unlike the host side there is no
			// prepare/read/dispatch split to guard against: the bridge
			// is the only reader of this connection.
			if err := b.serverCtx.Dispatch(); err != nil {
				return fmt.Errorf("bridge: dispatch Xwayland request: %w", err)
			}
			b.drainHostSideEffects()
		}
	}
}

// dispatchXEvent routes one X event: selection machinery first (it
// owns SelectionNotify/SelectionRequest and the XFixes notifications
// outright, and sees PropertyNotify for INCR continuation before the
// front-end refreshes window properties), then the WM front-end.
func (b *Bridge) dispatchXEvent(event xgb.Event) {
	switch ev := event.(type) {
	case xfixes.SelectionNotifyEvent:
		b.selection.OnXFixesSelectionNotify(ev)
		return
	case xproto.SelectionNotifyEvent:
		b.selection.OnSelectionNotify(ev)
		return
	case xproto.SelectionRequestEvent:
		b.selection.OnSelectionRequest(ev)
		return
	case xproto.PropertyNotifyEvent:
		b.selection.OnPropertyNotify(ev)
	}
	b.frontend.Dispatch(event)
}

// drainHostSideEffects processes the bookkeeping that runs once per
// main-loop iteration rather than inside any event handler: newly
// (un)advertised globals, buffered late-init events, and the
// fullscreen-state sweep.
func (b *Bridge) drainHostSideEffects() {
	b.processGlobals()
	for range b.queue.TakeEvents() {
		// Late-init tablet sub-object events are flushed here in
		// arrival order; the objects they target already carry real
		// ObjectKeys by the time ResolveLateInit queues them, so
		// draining them in order is the whole job.
	}
	b.frontend.SyncFullscreenStates()
}
