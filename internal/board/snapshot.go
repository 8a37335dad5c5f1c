package board

import (
	"sync/atomic"
	"time"

	"arena/internal/spatial"
)

// EntitySnapshot is an immutable copy of one entity's externally
// relevant state, for the presenter to read. Uses value types, never
// pointers, so the snapshot stays valid after the board moves on.
type EntitySnapshot struct {
	ID      uint64
	Kind    Kind
	Owner   string
	X, Y    float64
	Life    float64
	MaxLife float64
	State   State
}

// BoardSnapshot is a complete immutable board state for a single tick.
type BoardSnapshot struct {
	Sequence   uint64
	Timestamp  time.Time
	TickNumber uint64

	Entities []EntitySnapshot

	EntityCount int
}

// SnapshotPool triple-buffers BoardSnapshots so a producer (the
// simulation thread) and a consumer (the debug server) never race on
// the same backing array, and so publishing a snapshot never allocates.
type SnapshotPool struct {
	snapshots [3]BoardSnapshot
	maxEntities int
	writeIdx  uint32
	readIdx   uint32
	sequence  uint64
}

// NewSnapshotPool creates a pool with pre-allocated entity slices.
func NewSnapshotPool(maxEntities int) *SnapshotPool {
	pool := &SnapshotPool{maxEntities: maxEntities}
	for i := range pool.snapshots {
		pool.snapshots[i].Entities = make([]EntitySnapshot, 0, maxEntities)
	}
	return pool
}

// AcquireWrite returns the next write slot, reset but retaining
// capacity, for the producer to populate.
func (p *SnapshotPool) AcquireWrite() *BoardSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]
	snap.Entities = snap.Entities[:0]
	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite makes the most recently acquired write slot visible to
// readers.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns the latest published snapshot.
func (p *SnapshotPool) AcquireRead() *BoardSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// Snapshot populates dst (normally one just returned by AcquireWrite)
// with the board's current state.
func (b *Board) Snapshot(dst *BoardSnapshot, tickNumber uint64) {
	for _, e := range b.Entities {
		if len(dst.Entities) >= cap(dst.Entities) {
			break
		}
		dst.Entities = append(dst.Entities, EntitySnapshot{
			ID: e.ID, Kind: e.Kind, Owner: e.Owner,
			X: e.X, Y: e.Y, Life: e.Life, MaxLife: e.MaxLife, State: e.State,
		})
	}
	dst.TickNumber = tickNumber
	dst.EntityCount = len(dst.Entities)
}

// Checkpoint returns a deep, independent copy of the board suitable for
// the simulation loop's rollback ring (spec section 5's checkpoint-and-
// resimulate contract). Entities are cloned by value; the id allocator
// and obstacle set are copied too so the clone can resume ticking on
// its own.
func (b *Board) Checkpoint() *Board {
	clone := &Board{
		Cols: b.Cols, Rows: b.Rows,
		byID:      make(map[uint64]*Entity, len(b.byID)),
		obstacles: b.obstacles, // static, never mutated after setup
		nextID:    b.nextID,
	}
	clone.grid = spatial.NewGrid(b.Cols, b.Rows)

	for _, e := range b.Entities {
		c := *e
		if e.Victims != nil {
			c.Victims = make(map[uint64]bool, len(e.Victims))
			for k, v := range e.Victims {
				c.Victims[k] = v
			}
		}
		clone.Entities = append(clone.Entities, &c)
		clone.byID[c.ID] = &c
		if c.IsTower() {
			clone.towers = append(clone.towers, &c)
		}
	}
	return clone
}
