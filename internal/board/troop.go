package board

import "math"

// neighborOffsets are the 8 surrounding cells used for local steering
// (spec section 4.4): there is no global pathfinder, only a one-step
// greedy choice among free neighbor cells.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// updateTroop resolves the troop's state and target for this tick. It
// never mutates anything but its own state.
func updateTroop(tr *Entity, b *Board, dt float64) {
	if tr.Delay > 0 {
		tr.Delay -= dt
		tr.Cooldown = 0
		tr.State = StateIdle
		return
	}
	if tr.Life <= 0 {
		tr.Active = false
		return
	}

	if tr.HasTarget {
		cur, ok := b.Lookup(tr.TargetID)
		if !ok || !cur.Active || cur.Owner == tr.Owner {
			tr.HasTarget = false
			tr.State = StateMoving
		} else if tr.DistanceTo(cur) <= tr.Range {
			tr.State = StateAttacking
		} else {
			tr.State = StateMoving
		}
	} else {
		tr.State = StateMoving
	}

	if tr.State != StateAttacking {
		if target, found := b.findNearestHostile(tr, math.MaxFloat64); found {
			tr.TargetID = target.ID
			tr.HasTarget = true
			if tr.DistanceTo(target) <= tr.Range {
				tr.State = StateAttacking
			}
		} else {
			tr.HasTarget = false
		}
	}
}

// executeTroop attacks (emitting a projectile or melee damage) or
// advances one local-steering step toward its target, per spec
// section 4.4.
func executeTroop(tr *Entity, b *Board, dt float64) {
	if tr.Delay > 0 {
		return
	}

	switch tr.State {
	case StateAttacking:
		tr.Cooldown -= dt
		if tr.Cooldown > 0 || !tr.HasTarget {
			return
		}
		target, ok := b.Lookup(tr.TargetID)
		if !ok || !target.Active {
			return
		}
		attack(tr, target, b)
		tr.Cooldown = tr.HitSpeed

	case StateMoving:
		stepTroop(tr, b, dt)
	}
}

// attack fires a projectile for ranged troops, or applies melee damage
// directly for the Knight.
func attack(tr *Entity, target *Entity, b *Board) {
	switch tr.Kind {
	case KindKnight:
		target.ReceiveDamage(tr.Damage)
	case KindMusketeer:
		b.spawnProjectile(tr.Owner, tr.X, tr.Y, tr.Damage, projectileSpeed[KindMusketeer], target.ID)
	case KindWizard:
		b.spawnAreaProjectile(tr.Owner, tr.X, tr.Y, tr.Damage, projectileSpeed[KindWizard], areaRadius[KindWizard], target.ID)
	}
}

// stepTroop picks the 8-neighbor waypoint whose center minimizes
// distance to the target and is not obstructed, then steps toward its
// center by speed*dt, clamped so as not to overshoot.
func stepTroop(tr *Entity, b *Board, dt float64) {
	if !tr.HasTarget {
		return
	}
	target, ok := b.Lookup(tr.TargetID)
	if !ok {
		return
	}

	curCol, curRow := int(math.Floor(tr.X)), int(math.Floor(tr.Y))
	bestCol, bestRow := curCol, curRow
	bestDist := math.MaxFloat64
	found := false

	for _, off := range neighborOffsets {
		col, row := curCol+off[0], curRow+off[1]
		if !b.grid.InBounds(col, row) {
			continue
		}
		if b.obstacles[obstacleCell{col, row}] {
			continue
		}
		cx, cy := float64(col)+0.5, float64(row)+0.5
		dx, dy := target.X-cx, target.Y-cy
		d := dx*dx + dy*dy
		if !found || d < bestDist {
			bestDist = d
			bestCol, bestRow = col, row
			found = true
		}
	}
	if !found {
		return
	}

	wx, wy := float64(bestCol)+0.5, float64(bestRow)+0.5
	dx, dy := wx-tr.X, wy-tr.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	step := tr.MoveSpeed * dt
	if dist <= step || dist == 0 {
		tr.X, tr.Y = wx, wy
		return
	}
	tr.X += dx / dist * step
	tr.Y += dy / dist * step
}
