package board

import "math"

const reachedTargetEpsilon = 0.05

// updateProjectile refreshes the cached target position from the live
// target entity; once the target is gone, the last-known position is
// retained (spec section 4.5). AreaProjectiles additionally accumulate
// hostile victims within blast radius while still approaching.
func updateProjectile(p *Entity, b *Board) {
	if p.HasLiveTarget {
		if target, ok := b.Lookup(p.TargetID); ok && target.Active {
			p.TargetX, p.TargetY = target.X, target.Y
		} else {
			p.HasLiveTarget = false
		}
	}

	if p.Kind == KindAreaProjectile && !p.ReachedTarget {
		dx, dy := p.TargetX-p.X, p.TargetY-p.Y
		if dx*dx+dy*dy <= p.Radius*p.Radius {
			for _, victim := range b.hostilesWithinRadius(p.Owner, p.X, p.Y, p.Radius) {
				p.Victims[victim.ID] = true
			}
		}
	}
}

// executeProjectile advances the projectile toward its cached target
// position, applies damage on arrival, and deactivates on delivery or
// on exceeding its maximum lifetime.
func executeProjectile(p *Entity, b *Board, dt float64) {
	p.Elapsed += dt
	if p.Elapsed > p.MaxDuration {
		p.Active = false
		return
	}

	dx, dy := p.TargetX-p.X, p.TargetY-p.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	step := p.Speed * dt

	if dist <= step || dist < reachedTargetEpsilon {
		p.X, p.Y = p.TargetX, p.TargetY
		p.ReachedTarget = true
		deliverDamage(p, b)
		p.Active = false
		return
	}

	p.X += dx / dist * step
	p.Y += dy / dist * step
}

// deliverDamage applies the projectile's damage on impact: a single
// target for Projectile, every recorded victim for AreaProjectile.
func deliverDamage(p *Entity, b *Board) {
	if p.Kind == KindAreaProjectile {
		for victimID := range p.Victims {
			if victim, ok := b.Lookup(victimID); ok && victim.Active {
				victim.ReceiveDamage(p.Damage)
			}
		}
		return
	}
	if target, ok := b.Lookup(p.TargetID); ok && target.Active {
		target.ReceiveDamage(p.Damage)
	}
}

// updateEntity dispatches Phase A (read-only target resolution) by kind.
func updateEntity(e *Entity, b *Board, dt float64) {
	switch {
	case e.IsTower():
		updateTower(e, b)
	case e.IsTroop():
		updateTroop(e, b, dt)
	case e.IsProjectile():
		updateProjectile(e, b)
	}
}

// executeEntity dispatches Phase B (mutating action) by kind.
func executeEntity(e *Entity, b *Board, dt float64) {
	switch {
	case e.IsTower():
		executeTower(e, b, dt)
	case e.IsTroop():
		executeTroop(e, b, dt)
	case e.IsProjectile():
		executeProjectile(e, b, dt)
	}
}
