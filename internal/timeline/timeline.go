// Package timeline maintains the ordered set of pending events bridging
// real-time user input and simulated time, per spec section 4.1.
package timeline

import (
	"arena/internal/event"
	"arena/internal/spatial"
)

// Timeline holds events pending processing, ordered by ApparitionTime
// ascending, ties broken by (Owner ascending, insertion order).
type Timeline struct {
	list   *spatial.OrderedList[event.Event]
	seq    uint64
	lowest float64 // not read or written by any method; Add detects late events from its simTime argument
}

// New creates an empty Timeline. seed only affects internal skip-list
// balancing and never simulation outcomes.
func New(seed int64) *Timeline {
	return &Timeline{list: spatial.NewOrderedList[event.Event](seed)}
}

// Add inserts evt, keeping ascending apparition-time order. Duplicates
// are never deduplicated here; a higher layer is responsible for event
// identity if that matters. Returns true if the event's apparition time
// is strictly before simTime, i.e. it arrived LATE and the caller must
// apply the rollback contract (spec section 5).
func (t *Timeline) Add(evt event.Event, simTime float64) bool {
	t.seq++
	evt.InsertionSeq = t.seq
	key := spatial.OrderedKey{Primary: evt.ApparitionTime(), Owner: evt.Owner, Seq: evt.InsertionSeq}
	t.list.Insert(key, evt)
	return evt.ApparitionTime() < simTime
}

// DrainDue returns, in ascending apparition order, every event whose
// ApparitionTime is <= simTime+dt, and removes them from the timeline.
// Events with ApparitionTime below simTime are also returned here (this
// happens after a checkpoint rollback re-walks ticks from the past) so
// that the forward-only drain still sees them in the correct order.
func (t *Timeline) DrainDue(simTime, dt float64) []event.Event {
	return t.list.PopPrimaryLessEqual(simTime + dt)
}

// Len returns the number of pending events.
func (t *Timeline) Len() int {
	return t.list.Len()
}

// Clone returns a deep-enough copy suitable for checkpointing: a new
// Timeline containing the same pending events, safe to mutate
// independently. Checkpointing is infrequent (bounded by
// CheckpointTicks), so a pop-and-reinsert-into-both pass is acceptable.
func (t *Timeline) Clone() *Timeline {
	clone := New(1)
	clone.seq = t.seq
	all := t.list.PopAll()
	for _, evt := range all {
		key := spatial.OrderedKey{Primary: evt.ApparitionTime(), Owner: evt.Owner, Seq: evt.InsertionSeq}
		t.list.Insert(key, evt)
		clone.list.Insert(key, evt)
	}
	return clone
}
