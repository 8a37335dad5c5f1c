package board

import (
	"sort"

	"arena/internal/event"
	"arena/internal/spatial"
)

// WinState reports whether a given owner has won, lost, or is still in
// the fight, per spec section 4.2.
type WinState uint8

const (
	Continuing WinState = iota
	Won
	Lost
)

// obstacleCell is a blocked (col, row) cell.
type obstacleCell struct{ Col, Row int }

// Board is the authoritative simulated world.
type Board struct {
	Cols, Rows int

	Entities []*Entity          // stable spawn/ID order; append-only except at reap
	byID     map[uint64]*Entity
	towers   []*Entity // mirrored list for O(1) win-state queries

	obstacles map[obstacleCell]bool

	grid *spatial.Grid

	nextID uint64
	staged []*Entity // spawns created during Phase B, merged in Phase C
}

// New builds and sets up a board with the arena's fixed obstacle layout.
func New(cols, rows int) *Board {
	b := &Board{
		Cols:      cols,
		Rows:      rows,
		byID:      make(map[uint64]*Entity),
		obstacles: make(map[obstacleCell]bool),
		grid:      spatial.NewGrid(cols, rows),
	}
	b.setup()
	return b
}

// setup populates the six towers and the static obstacle set, per spec
// section 3 and 4.2.
func (b *Board) setup() {
	addRect := func(c0, r0, c1, r1 int) {
		for c := c0; c < c1; c++ {
			for r := r0; r < r1; r++ {
				b.obstacles[obstacleCell{c, r}] = true
			}
		}
	}

	// River occupies rows 15-16 except the two bridge strips.
	for c := 0; c < b.Cols; c++ {
		if (c >= 2 && c < 4) || (c >= 13 && c < 15) {
			continue
		}
		b.obstacles[obstacleCell{c, 15}] = true
		b.obstacles[obstacleCell{c, 16}] = true
	}

	// Lateral towers, four 3x3 footprints.
	lateral := []struct {
		c0, r0 int
		owner  string
	}{
		{2, 5, "1"},
		{13, 5, "1"},
		{2, 24, "2"},
		{13, 24, "2"},
	}
	for _, lt := range lateral {
		addRect(lt.c0, lt.r0, lt.c0+3, lt.r0+3)
		b.spawnTower(KindTowerLateral, lt.c0, lt.r0, 3, lt.owner)
	}

	// Central towers, two 4x4 footprints.
	central := []struct {
		c0, r0 int
		owner  string
	}{
		{7, 1, "1"},
		{7, 27, "2"},
	}
	for _, ct := range central {
		addRect(ct.c0, ct.r0, ct.c0+4, ct.r0+4)
		b.spawnTower(KindTowerCentral, ct.c0, ct.r0, 4, ct.owner)
	}
}

// spawnTower creates a tower entity centered on its footprint and adds
// it directly to the live set (towers exist at tick 0, before any event
// is drained).
func (b *Board) spawnTower(kind Kind, c0, r0, size int, owner string) {
	st := catalog[kind]
	e := &Entity{
		ID:       b.allocID(),
		Kind:     kind,
		Owner:    owner,
		X:        float64(c0) + float64(size)/2,
		Y:        float64(r0) + float64(size)/2,
		Active:   true,
		Life:     st.Life,
		MaxLife:  st.Life,
		Damage:   st.Damage,
		Range:    st.Range,
		HitSpeed: st.HitSpeed,
		Size:     st.Size,
	}
	b.Entities = append(b.Entities, e)
	b.byID[e.ID] = e
	b.towers = append(b.towers, e)
}

func (b *Board) allocID() uint64 {
	b.nextID++
	return b.nextID
}

// Owner's half: player "1" owns rows 0-15, player "2" owns rows 16-31.
func ownerHalf(owner string, row int) bool {
	if owner == "1" {
		return row <= 15
	}
	return row >= 16
}

// ValidPlacement reports whether (col,row) is in bounds, not an
// obstacle, in owner's half, and not already occupied at cell-center by
// another active entity.
func (b *Board) ValidPlacement(owner string, col, row int) bool {
	if col < 0 || col >= b.Cols || row < 0 || row >= b.Rows {
		return false
	}
	if b.obstacles[obstacleCell{col, row}] {
		return false
	}
	if !ownerHalf(owner, row) {
		return false
	}
	cx, cy := float64(col)+0.5, float64(row)+0.5
	for _, e := range b.Entities {
		if e.Active && e.X == cx && e.Y == cy {
			return false
		}
	}
	return true
}

// Spawn adds a new troop entity at the center of (col,row), owned by
// owner. Unknown kinds are a documented no-op (spec section 7).
func (b *Board) Spawn(kind event.EntityKind, col, row int, owner string) {
	ek, ok := entityKindForSpawn(kind)
	if !ok {
		return
	}
	st := catalog[ek]
	e := &Entity{
		ID:        b.allocID(),
		Kind:      ek,
		Owner:     owner,
		X:         float64(col) + 0.5,
		Y:         float64(row) + 0.5,
		Active:    true,
		Life:      st.Life,
		MaxLife:   st.Life,
		Damage:    st.Damage,
		Range:     st.Range,
		HitSpeed:  st.HitSpeed,
		MoveSpeed: st.MoveSpeed,
		Delay:     troopDelaySeconds,
		State:     StateIdle,
	}
	b.Entities = append(b.Entities, e)
	b.byID[e.ID] = e
}

// spawnProjectile stages a new single-target projectile for appending
// after the current tick's execute phase completes.
func (b *Board) spawnProjectile(owner string, x, y float64, damage, speed float64, targetID uint64) *Entity {
	e := &Entity{
		ID:            b.allocID(),
		Kind:          KindProjectile,
		Owner:         owner,
		X:             x,
		Y:             y,
		Active:        true,
		Damage:        damage,
		Speed:         speed,
		TargetID:      targetID,
		HasTarget:     true,
		HasLiveTarget: true,
		MaxDuration:   maxProjectileDuration,
	}
	b.staged = append(b.staged, e)
	return e
}

// spawnAreaProjectile is the AreaProjectile counterpart, additionally
// carrying a blast radius and an empty victims set.
func (b *Board) spawnAreaProjectile(owner string, x, y float64, damage, speed, radius float64, targetID uint64) *Entity {
	e := b.spawnProjectile(owner, x, y, damage, speed, targetID)
	e.Kind = KindAreaProjectile
	e.Radius = radius
	e.Victims = make(map[uint64]bool)
	return e
}

// Lookup resolves an entity by id; ok is false if the id is unknown or
// the entity has been reaped.
func (b *Board) Lookup(id uint64) (*Entity, bool) {
	e, ok := b.byID[id]
	return e, ok
}

// Tick advances the board by dt: Phase A (update), Phase B (execute),
// Phase C (reap + merge staged spawns), per spec section 4.2.
func (b *Board) Tick(dt float64) {
	b.rebuildGrid()

	for _, e := range b.Entities {
		if !e.Active {
			continue
		}
		updateEntity(e, b, dt)
	}

	for _, e := range b.Entities {
		if !e.Active {
			continue
		}
		executeEntity(e, b, dt)
	}

	b.reap()
}

func (b *Board) rebuildGrid() {
	b.grid.Clear()
	for _, e := range b.Entities {
		if e.Active {
			b.grid.Insert(uint32(e.ID), e.X, e.Y)
		}
	}
}

// reap drops inactive entities, appends staged spawns, and refreshes
// the tower mirror list.
func (b *Board) reap() {
	live := b.Entities[:0]
	for _, e := range b.Entities {
		if e.Active {
			live = append(live, e)
		} else {
			delete(b.byID, e.ID)
		}
	}
	b.Entities = live

	for _, e := range b.staged {
		b.Entities = append(b.Entities, e)
		b.byID[e.ID] = e
	}
	b.staged = nil

	towers := b.towers[:0]
	for _, e := range b.Entities {
		if e.IsTower() {
			towers = append(towers, e)
		}
	}
	b.towers = towers
}

// WinState reports the outcome for owner: Won if the opponent has no
// live tower, Lost if owner has none, Continuing otherwise.
func (b *Board) WinState(owner string) WinState {
	ownerAlive, oppAlive := false, false
	for _, t := range b.towers {
		if !t.Active {
			continue
		}
		if t.Owner == owner {
			ownerAlive = true
		} else {
			oppAlive = true
		}
	}
	if !oppAlive {
		return Won
	}
	if !ownerAlive {
		return Lost
	}
	return Continuing
}

// findNearestHostile scans the active entity set for the nearest
// targetable, owner-hostile entity within maxRange of e, breaking ties
// by ascending entity id (spec sections 4.3, 4.4, 9).
func (b *Board) findNearestHostile(e *Entity, maxRange float64) (*Entity, bool) {
	var best *Entity
	var bestDist float64
	for _, cand := range b.Entities {
		if cand == e || cand.Owner == e.Owner || !cand.Targetable() {
			continue
		}
		d := e.DistanceTo(cand)
		if d > maxRange {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && cand.ID < best.ID) {
			best = cand
			bestDist = d
		}
	}
	return best, best != nil
}

// hostilesWithinRadius returns every active, targetable, owner-hostile
// entity within radius of (x,y), sorted by ascending id for determinism.
func (b *Board) hostilesWithinRadius(owner string, x, y, radius float64) []*Entity {
	candidateIDs := b.grid.QueryRadius(x, y, radius)
	seen := make(map[uint64]bool, len(candidateIDs))
	var out []*Entity
	for _, id := range candidateIDs {
		if seen[uint64(id)] {
			continue
		}
		seen[uint64(id)] = true
		cand, ok := b.byID[uint64(id)]
		if !ok || cand.Owner == owner || !cand.Targetable() {
			continue
		}
		dx, dy := cand.X-x, cand.Y-y
		if dx*dx+dy*dy > radius*radius {
			continue
		}
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
