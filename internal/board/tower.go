package board

// canAttack implements spec section 4.3's gating predicate: lateral
// towers are always eligible; a central tower is eligible only once it
// has taken damage itself, or one of its own-side lateral towers has
// been destroyed.
func canAttack(t *Entity, b *Board) bool {
	if t.Kind == KindTowerLateral {
		return true
	}
	if t.everDamaged {
		return true
	}
	for _, other := range b.towers {
		if other.Kind == KindTowerLateral && other.Owner == t.Owner && !other.Active {
			return true
		}
	}
	return false
}

// updateTower resolves targeting only; it never mutates other entities.
func updateTower(t *Entity, b *Board) {
	if !canAttack(t, b) {
		t.HasTarget = false
		t.Cooldown = 0
		t.State = StateIdle
		return
	}

	if t.HasTarget {
		if cur, ok := b.Lookup(t.TargetID); ok && cur.Active && cur.Owner != t.Owner && t.DistanceTo(cur) <= t.Range {
			t.State = StateAttacking
			return
		}
	}

	if target, found := b.findNearestHostile(t, t.Range); found {
		t.TargetID = target.ID
		t.HasTarget = true
		t.State = StateAttacking
	} else {
		t.HasTarget = false
		t.State = StateIdle
	}
}

// executeTower decrements cooldown and, once it elapses with a live
// target, emits a single-target projectile and resets cooldown.
func executeTower(t *Entity, b *Board, dt float64) {
	if t.State != StateAttacking || !t.HasTarget {
		return
	}
	t.Cooldown -= dt
	if t.Cooldown > 0 {
		return
	}
	target, ok := b.Lookup(t.TargetID)
	if !ok || !target.Active || target.Life <= 0 {
		return
	}
	b.spawnProjectile(t.Owner, t.X, t.Y, t.Damage, towerProjectileSpeed, target.ID)
	t.Cooldown = t.HitSpeed
}
