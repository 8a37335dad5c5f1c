package sim

import (
	"testing"

	"arena/internal/board"
	"arena/internal/event"
	"arena/internal/timeline"
)

func newLoop(checkpointTicks int) *Loop {
	b := board.New(18, 32)
	tl := timeline.New(1)
	return NewLoop(b, tl, checkpointTicks)
}

func spawnEvt(owner string, ts float64, col, row int) event.Event {
	evt, err := event.NewSpawnEvent(ts, event.SpawnPayload{
		EntityType:   event.Caballero,
		GridPosition: [2]int{col, row},
		PlayerID:     owner,
	})
	if err != nil {
		panic(err)
	}
	return evt
}

func TestAdvanceToAppliesOnTimeEvents(t *testing.T) {
	l := newLoop(100)
	l.AddEvent(spawnEvt("1", 0.0, 0, 0)) // apparition 0.2

	l.AdvanceTo(1.0)

	found := false
	for _, e := range l.Board.Entities {
		if e.IsTroop() {
			found = true
		}
	}
	if !found {
		t.Fatal("expected spawned troop to exist after advancing past its apparition time")
	}
}

func TestAdvanceToNeverOvershootsTarget(t *testing.T) {
	l := newLoop(100)
	l.AdvanceTo(1.0)
	if l.SimTime() > 1.0 {
		t.Fatalf("SimTime() = %v, must not exceed target 1.0", l.SimTime())
	}
	if l.TickCount() != 25 {
		t.Fatalf("TickCount() = %d, want 25 at tick rate 25", l.TickCount())
	}
}

func TestLateEventTriggersRollbackAndStillApplies(t *testing.T) {
	l := newLoop(10) // checkpoint every 10 ticks = 0.4s
	l.AdvanceTo(2.0) // establishes several checkpoints, no entities yet

	// An event whose apparition time falls well before current sim time:
	// simulates a datagram that arrived late over an unreliable network.
	late := spawnEvt("1", 0.5, 0, 0) // apparition 0.7, simTime is ~2.0
	l.AddEvent(late)

	// Advance again so the resimulated window plus any new ticks runs.
	l.AdvanceTo(2.5)

	found := false
	for _, e := range l.Board.Entities {
		if e.IsTroop() {
			found = true
		}
	}
	if !found {
		t.Fatal("late event was not applied after rollback and resimulate")
	}
}

func TestRollbackRedrainsEventsAppliedSinceCheckpoint(t *testing.T) {
	l := newLoop(1) // checkpoint every tick = 0.04s, so one precedes every drain

	// Apparition 0.2, pending (not yet due) at every checkpoint up to tick 4.
	l.AddEvent(spawnEvt("1", 0.0, 3, 3))
	l.AdvanceTo(0.24) // ticks through 0.2: this spawn drains and applies here

	before := 0
	for _, e := range l.Board.Entities {
		if e.IsTroop() {
			before++
		}
	}
	if before != 1 {
		t.Fatalf("expected 1 troop before rollback, got %d", before)
	}

	// Apparition 0.12: its rollback target lands on the checkpoint taken
	// at sim_time 0.12, BEFORE the first spawn above was drained. A
	// correct resimulate must redrain that already-applied spawn along
	// with this new one; checkpointing the board alone would restore a
	// board that never saw it and then never reapply it, since by now
	// it has already been popped out of the live timeline.
	late := spawnEvt("2", -0.08, 10, 20)
	l.AddEvent(late)
	l.AdvanceTo(0.5)

	after := 0
	for _, e := range l.Board.Entities {
		if e.IsTroop() {
			after++
		}
	}
	if after != 2 {
		t.Fatalf("expected 2 troops after rollback (original spawn redrained plus the late one), got %d", after)
	}
}

func TestUnknownSpawnKindIsSilentNoOp(t *testing.T) {
	l := newLoop(100)
	evt, err := event.NewSpawnEvent(0.0, event.SpawnPayload{
		EntityType:   event.EntityKind("not-a-real-kind"),
		GridPosition: [2]int{0, 0},
		PlayerID:     "1",
	})
	if err != nil {
		t.Fatalf("NewSpawnEvent: %v", err)
	}
	l.AddEvent(evt)
	l.AdvanceTo(1.0)

	for _, e := range l.Board.Entities {
		if e.IsTroop() {
			t.Fatal("unknown entity type should never spawn a troop")
		}
	}
}
