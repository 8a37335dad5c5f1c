// Package board implements the authoritative simulated world: grid
// geometry, static obstacles, and the entity collection advanced by the
// two-phase tick described in spec section 4.2.
package board

import (
	"math"

	"arena/internal/event"
)

// Kind tags the concrete variant an Entity carries. The source's
// inheritance hierarchy (Entity -> Tower/Troop/Projectile/...; Troop ->
// Knight/Musketeer/Wizard) becomes this tagged-variant-plus-narrow-
// capability-set shape: one struct, kind-specific fields, and
// update/execute dispatching on Kind.
type Kind uint8

const (
	KindTowerCentral Kind = iota
	KindTowerLateral
	KindKnight
	KindMusketeer
	KindWizard
	KindProjectile
	KindAreaProjectile
)

// State is the coarse per-tick behavior state for towers and troops.
type State uint8

const (
	StateIdle State = iota
	StateMoving
	StateAttacking
)

// stats describes the static per-kind numbers from spec section 3.
type stats struct {
	Life      float64
	Damage    float64
	Range     float64
	HitSpeed  float64 // seconds between attacks
	MoveSpeed float64
	Size      float64 // tower footprint size, used in range tests
}

var catalog = map[Kind]stats{
	KindTowerCentral: {Life: 4824, Damage: 109, Range: 9.5, HitSpeed: 1.0, Size: 4}, // 7.5 + size/2
	KindTowerLateral: {Life: 3052, Damage: 109, Range: 9.0, HitSpeed: 0.8, Size: 3},
	KindKnight:       {Life: 1766, Damage: 202, Range: 1.0, HitSpeed: 1.2, MoveSpeed: 1.0},
	KindMusketeer:    {Life: 721, Damage: 217, Range: 6.0, HitSpeed: 1.0, MoveSpeed: 1.0},
	KindWizard:       {Life: 755, Damage: 281, Range: 5.5, HitSpeed: 1.4, MoveSpeed: 1.0},
}

// projectileSpeed is the travel speed of each troop's fired projectile.
var projectileSpeed = map[Kind]float64{
	KindMusketeer: 15,
	KindWizard:    10,
}

// areaRadius is the AreaProjectile blast radius for kinds that fire one.
var areaRadius = map[Kind]float64{
	KindWizard: 1.5,
}

const towerProjectileSpeed = 5.0
const troopDelaySeconds = 1.0
const maxProjectileDuration = 5.0

// entityKindForSpawn maps a wire spawn payload's entity type to a Kind.
func entityKindForSpawn(et event.EntityKind) (Kind, bool) {
	switch et {
	case event.Caballero:
		return KindKnight, true
	case event.Mosquetera:
		return KindMusketeer, true
	case event.Mago:
		return KindWizard, true
	default:
		return 0, false
	}
}

// Entity is every simulated object on the board: tower, troop,
// projectile, or area projectile. Fields unused by a given Kind are
// simply left at their zero value.
type Entity struct {
	ID     uint64
	Kind   Kind
	Owner  string
	X, Y   float64
	Active bool

	Life    float64
	MaxLife float64
	Damage  float64
	Range   float64
	HitSpeed float64
	MoveSpeed float64
	Size      float64

	State    State
	TargetID uint64
	HasTarget bool
	Cooldown float64
	Delay    float64 // pre-activation grace for troops

	// Tower-only.
	everDamaged   bool

	// Projectile / AreaProjectile only.
	Speed           float64
	TargetX, TargetY float64
	HasLiveTarget   bool // true while TargetID still resolves to an active entity
	Elapsed         float64
	MaxDuration     float64
	ReachedTarget   bool
	Radius          float64
	Victims         map[uint64]bool
}

// IsTower reports whether the entity is a central or lateral tower.
func (e *Entity) IsTower() bool {
	return e.Kind == KindTowerCentral || e.Kind == KindTowerLateral
}

// IsTroop reports whether the entity is a Knight/Musketeer/Wizard.
func (e *Entity) IsTroop() bool {
	return e.Kind == KindKnight || e.Kind == KindMusketeer || e.Kind == KindWizard
}

// IsProjectile reports whether the entity is a Projectile or AreaProjectile.
func (e *Entity) IsProjectile() bool {
	return e.Kind == KindProjectile || e.Kind == KindAreaProjectile
}

// Targetable reports whether other entities may acquire this one as a
// target: towers and troops only, never projectiles or spells.
func (e *Entity) Targetable() bool {
	return e.Active && (e.IsTower() || e.IsTroop())
}

// ReceiveDamage is the narrow mutating capability other entities use to
// apply damage; it never reads anything beyond the receiver's own life.
// It is subtractive only, so it commutes regardless of the order in
// which multiple attackers apply damage within the same tick.
func (e *Entity) ReceiveDamage(amount float64) {
	if e.IsTower() {
		e.everDamaged = true
	}
	e.Life -= amount
	if e.Life < 0 {
		e.Life = 0
	}
	if e.Life <= 0 {
		e.Active = false
	}
}

// DistanceTo returns the centroid distance to other, reduced by whichever
// side of the pair is a tower, treating it as a disc of radius size/2
// (spec section 4.3): a troop measuring to a tower subtracts the tower's
// own size/2, and a tower measuring to anything subtracts its own size/2.
func (e *Entity) DistanceTo(other *Entity) float64 {
	d := e.distanceToPoint(other.X, other.Y)
	if e.IsTower() {
		return d - e.Size/2
	}
	return d - other.Size/2
}

// distanceToPoint is the raw Euclidean distance from e's centroid.
func (e *Entity) distanceToPoint(x, y float64) float64 {
	dx, dy := x-e.X, y-e.Y
	return math.Sqrt(dx*dx + dy*dy)
}
