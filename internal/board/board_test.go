package board

import (
	"testing"

	"arena/internal/event"
)

func newTestBoard() *Board {
	return New(18, 32)
}

func TestNewBoardHasSixTowers(t *testing.T) {
	b := newTestBoard()
	count := 0
	for _, e := range b.Entities {
		if e.IsTower() {
			count++
		}
	}
	if count != 6 {
		t.Fatalf("tower count = %d, want 6", count)
	}
}

func TestValidPlacementRejectsOutOfHalf(t *testing.T) {
	b := newTestBoard()
	// Player 1 owns rows 0-15; row 20 is on player 2's half.
	if b.ValidPlacement("1", 8, 20) {
		t.Fatal("expected placement on opponent's half to be rejected")
	}
}

func TestValidPlacementRejectsObstacle(t *testing.T) {
	b := newTestBoard()
	// Row 15 is river outside the two bridge columns.
	if b.ValidPlacement("1", 8, 15) {
		t.Fatal("expected placement on river obstacle to be rejected")
	}
}

func TestValidPlacementAcceptsOwnFreeHalf(t *testing.T) {
	b := newTestBoard()
	if !b.ValidPlacement("1", 0, 0) {
		t.Fatal("expected placement on own empty half to be accepted")
	}
}

func TestValidPlacementRejectsOccupiedCell(t *testing.T) {
	b := newTestBoard()
	b.Spawn(event.Caballero, 0, 0, "1")
	if b.ValidPlacement("1", 0, 0) {
		t.Fatal("expected placement on already-occupied cell to be rejected")
	}
}

func TestSpawnUnknownKindIsNoOp(t *testing.T) {
	b := newTestBoard()
	before := len(b.Entities)
	b.Spawn(event.EntityKind("bogus"), 0, 0, "1")
	if len(b.Entities) != before {
		t.Fatalf("unknown kind spawn changed entity count: %d -> %d", before, len(b.Entities))
	}
}

func TestLifeNeverGoesNegative(t *testing.T) {
	b := newTestBoard()
	b.Spawn(event.Caballero, 0, 0, "1")
	tr := b.Entities[len(b.Entities)-1]
	tr.ReceiveDamage(tr.Life + 1000)
	if tr.Life < 0 {
		t.Fatalf("Life = %v, want >= 0", tr.Life)
	}
	if tr.Active {
		t.Fatal("entity with life <= 0 should be inactive")
	}
}

func TestMeleeKnightKillsOpposingKnight(t *testing.T) {
	b := newTestBoard()
	// Place two knights adjacent to each other, straddling the halves'
	// boundary so they are immediately in range of one another.
	b.Spawn(event.Caballero, 2, 15, "1")
	b.Spawn(event.Caballero, 2, 16, "2")

	// Let pre-activation delay elapse, then tick enough for the knights
	// to close the distance and fight to a conclusion.
	for i := 0; i < 1000; i++ {
		b.Tick(1.0 / 25.0)
	}

	aliveKnights := 0
	for _, e := range b.Entities {
		if e.IsTroop() && e.Active {
			aliveKnights++
		}
	}
	if aliveKnights >= 2 {
		t.Fatalf("expected combat to reduce knight count below 2, got %d", aliveKnights)
	}
}

func TestCentralTowerDormantUntilDamagedOrLateralFalls(t *testing.T) {
	b := newTestBoard()
	var central *Entity
	for _, e := range b.Entities {
		if e.Kind == KindTowerCentral && e.Owner == "1" {
			central = e
		}
	}
	if central == nil {
		t.Fatal("no central tower found for owner 1")
	}
	if canAttack(central, b) {
		t.Fatal("central tower should be dormant before damage or lateral tower loss")
	}

	central.ReceiveDamage(1)
	if !canAttack(central, b) {
		t.Fatal("central tower should attack once it has taken damage")
	}
}

func TestWinStateExclusiveOutcomes(t *testing.T) {
	b := newTestBoard()
	for _, e := range b.Entities {
		if e.Owner == "2" {
			e.ReceiveDamage(e.Life + 1)
		}
	}
	if b.WinState("1") != Won {
		t.Fatalf("WinState(1) = %v, want Won", b.WinState("1"))
	}
	if b.WinState("2") != Lost {
		t.Fatalf("WinState(2) = %v, want Lost", b.WinState("2"))
	}
}

func TestProjectileDeactivatesAfterMaxDuration(t *testing.T) {
	b := newTestBoard()
	b.Spawn(event.Mago, 0, 0, "1")
	wizard := b.Entities[len(b.Entities)-1]
	wizard.Delay = 0

	p := b.spawnProjectile("1", wizard.X, wizard.Y, 100, 0, 99999) // unresolvable target, zero speed
	p.HasLiveTarget = false
	b.staged = nil
	b.Entities = append(b.Entities, p)
	b.byID[p.ID] = p

	for i := 0; i < 200 && p.Active; i++ { // 200 * (1/25) = 8s > 5s max duration
		executeEntity(p, b, 1.0/25.0)
	}
	if p.Active {
		t.Fatal("projectile should have deactivated after exceeding MaxDuration")
	}
}

func TestDeterminismAcrossIdenticalEventSequences(t *testing.T) {
	run := func() []EntitySnapshot {
		b := New(18, 32)
		b.Spawn(event.Caballero, 3, 3, "1")
		b.Spawn(event.Mosquetera, 14, 14, "1")
		for i := 0; i < 300; i++ {
			b.Tick(1.0 / 25.0)
		}
		snap := &BoardSnapshot{Entities: make([]EntitySnapshot, 0, 64)}
		b.Snapshot(snap, uint64(300))
		return snap.Entities
	}

	a := run()
	c := run()
	if len(a) != len(c) {
		t.Fatalf("entity count diverged: %d vs %d", len(a), len(c))
	}
	for i := range a {
		if a[i] != c[i] {
			t.Fatalf("entity %d diverged: %+v vs %+v", i, a[i], c[i])
		}
	}
}
