// Package sim advances the board by fixed ticks, draining due events
// from the timeline each tick, per spec section 4.6. It also owns the
// checkpoint ring that makes late event arrival safe to resimulate
// (spec section 5, resolved Open Question 1 in DESIGN.md).
package sim

import (
	"math"

	"arena/internal/board"
	"arena/internal/event"
	"arena/internal/timeline"
)

// TickDT is the fixed simulation step: 25 ticks per synced second.
const TickDT = 1.0 / 25.0

// checkpoint is one entry in the rollback ring: a board clone and the
// timeline as it stood at that instant, paired with the sim_time they
// represent. Both must be restored together on rollback: the board
// alone is not enough, since the events due between the checkpoint and
// the rollback point have already been drained out of the live
// timeline by the time a late event triggers a resimulate.
type checkpoint struct {
	simTime  float64
	board    *board.Board
	timeline *timeline.Timeline
}

// Loop drives the board forward from real (synced) time, applying the
// catch-up formula from spec section 4.6 and the checkpoint-and-
// resimulate rollback contract from section 5.
type Loop struct {
	Board    *board.Board
	Timeline *timeline.Timeline

	simTime         float64
	tickCount       uint64
	checkpointEvery int
	checkpoints     []checkpoint
	maxCheckpoints  int
}

// NewLoop creates a simulation loop. checkpointTicks is the interval
// (in ticks) between checkpoints; the ring keeps at most eight of them
// (maxCheckpoints), which bounds how far back rollback can reach and
// keeps memory use bounded regardless of match length.
func NewLoop(b *board.Board, tl *timeline.Timeline, checkpointTicks int) *Loop {
	return &Loop{
		Board:           b,
		Timeline:        tl,
		checkpointEvery: checkpointTicks,
		maxCheckpoints:  8,
	}
}

// SimTime returns the current simulated time.
func (l *Loop) SimTime() float64 { return l.simTime }

// TickCount returns the number of ticks executed so far.
func (l *Loop) TickCount() uint64 { return l.tickCount }

// AddEvent inserts evt into the timeline. If the event arrives late
// (its apparition time has already passed), the loop rolls back to the
// latest checkpoint at or before that time and resimulates forward,
// redraining both the events pending at that checkpoint and the new
// one in their correct order.
func (l *Loop) AddEvent(evt event.Event) {
	if evt.ApparitionTime() < l.simTime {
		l.rollbackAndResimulate(evt)
		return
	}
	l.Timeline.Add(evt, l.simTime)
}

// rollbackAndResimulate restores the latest checkpoint with timestamp
// <= evt's apparition time — board AND timeline together, so events
// already drained since that checkpoint are redrained rather than
// lost — inserts evt into the restored timeline, then re-advances
// ticks up to the loop's current simTime. This reproduces the outcome
// as if evt had arrived on time.
func (l *Loop) rollbackAndResimulate(evt event.Event) {
	targetTime := evt.ApparitionTime()
	idx := -1
	for i := len(l.checkpoints) - 1; i >= 0; i-- {
		if l.checkpoints[i].simTime <= targetTime {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.Timeline.Add(evt, l.simTime) // nothing old enough to roll back to; accept the divergence risk
		return
	}

	cp := l.checkpoints[idx]
	resumeFrom := cp.simTime
	finalTime := l.simTime

	l.Board = cp.board.Checkpoint()       // resimulate on a fresh copy of the checkpoint
	l.Timeline = cp.timeline.Clone()      // and its timeline, so past events redrain too
	l.simTime = resumeFrom
	l.checkpoints = l.checkpoints[:idx]

	l.Timeline.Add(evt, l.simTime)

	for l.simTime < finalTime {
		l.advanceOneTick()
	}
}

// AdvanceTo runs as many ticks as needed so simTime reaches (but does
// not exceed) target, implementing the render-frame catch-up described
// in spec section 4.6: expected_total_ticks = floor((synced_now -
// game_start) / tick_dt).
func (l *Loop) AdvanceTo(target float64) {
	want := int64(math.Floor(target / TickDT))
	for int64(math.Round(l.simTime/TickDT)) < want {
		l.advanceOneTick()
	}
}

func (l *Loop) advanceOneTick() {
	l.simTime = float64(int64(math.Round(l.simTime/TickDT))+1) * TickDT
	l.Board.Tick(TickDT)

	for _, evt := range l.Timeline.DrainDue(l.simTime, TickDT) {
		l.applyEvent(evt)
	}

	l.tickCount++
	if l.checkpointEvery > 0 && l.tickCount%uint64(l.checkpointEvery) == 0 {
		l.pushCheckpoint()
	}
}

func (l *Loop) applyEvent(evt event.Event) {
	switch evt.EventType {
	case event.SpawnUnit:
		payload, err := evt.DecodeSpawnPayload()
		if err != nil {
			return // malformed payload is a documented no-op, spec section 7
		}
		col, row := payload.GridPosition[0], payload.GridPosition[1]
		if !l.Board.ValidPlacement(payload.PlayerID, col, row) {
			return
		}
		l.Board.Spawn(payload.EntityType, col, row, payload.PlayerID)
	}
}

func (l *Loop) pushCheckpoint() {
	l.checkpoints = append(l.checkpoints, checkpoint{
		simTime:  l.simTime,
		board:    l.Board.Checkpoint(),
		timeline: l.Timeline.Clone(),
	})
	if len(l.checkpoints) > l.maxCheckpoints {
		l.checkpoints = l.checkpoints[1:]
	}
}
