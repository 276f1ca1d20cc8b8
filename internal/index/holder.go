package index

import "sync/atomic"

// Holder is the single synchronization point between the rebuild pipeline
// and query traffic. It holds the published snapshot behind an atomic
// pointer: Publish is one atomic store, Active is one atomic load, and no
// reader ever observes a half-applied swap. Superseded snapshots stay valid
// for queries that already hold them and are reclaimed by the GC once the
// last reader drops its reference.
type Holder struct {
	active atomic.Pointer[Snapshot]
}

// NewHolder returns a holder publishing an empty snapshot.
func NewHolder() *Holder {
	h := &Holder{}
	h.active.Store(NewEmptySnapshot())
	return h
}

// Active returns the currently published snapshot. Never nil, never blocks.
func (h *Holder) Active() *Snapshot {
	return h.active.Load()
}

// Publish atomically replaces the published snapshot. Nil snapshots are
// ignored so a broken build can never unpublish the live index.
func (h *Holder) Publish(s *Snapshot) {
	if s == nil {
		return
	}
	h.active.Store(s)
}
