package clientside

import "xwaylandbridge/internal/store"

// LateInitObjectKey buffers events for a bridge object born from a
// parent event before the bridge has assigned it an ObjectKey — the
// tablet subtree (tool/pad/pad-group/ring/strip). Events queued before
// the key is assigned are flushed into the main event stream, in
// order, once it is.
type LateInitObjectKey struct {
	pending []any
}

// Push buffers ev until the key is assigned. Once Queue.ResolveLateInit
// has run for the owning proxy, events go straight to the main stream
// and this handle is discarded.
func (l *LateInitObjectKey) Push(ev any) {
	l.pending = append(l.pending, ev)
}

// init marks the handle resolved and returns the buffered events to be
// flushed, in arrival order, clearing the buffer.
func (l *LateInitObjectKey) init(store.ObjectKey) []any {
	out := l.pending
	l.pending = nil
	return out
}
