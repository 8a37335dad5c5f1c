// Package menu implements the elixir arbiter and deck, per spec
// section 4.7: a pure function of synced wall-clock time gating local
// card placements. The authoritative object crossing the wire is the
// resulting spawn event, never the card catalog itself.
package menu

import (
	"math/rand"

	"arena/internal/event"
)

// Card names one of the three playable entity kinds and its cost.
type Card struct {
	Kind event.EntityKind
	Cost float64
}

var costs = map[event.EntityKind]float64{
	event.Caballero:  3,
	event.Mosquetera: 4,
	event.Mago:       5,
}

var allowedKinds = []event.EntityKind{event.Caballero, event.Mosquetera, event.Mago}

const deckSize = 8
const visibleCards = 4

// Elixir tracks one player's accumulated and spent elixir, derived
// purely from synced wall-clock time elapsed since game start.
type Elixir struct {
	initial          float64
	max              float64
	secondsPerElixir float64

	used   float64
	wasted float64
}

// NewElixir creates an arbiter with the given constants (spec section
// 4.7: initial=7, max=10, secondsPerElixir=1.5).
func NewElixir(initial, max, secondsPerElixir float64) *Elixir {
	return &Elixir{initial: initial, max: max, secondsPerElixir: secondsPerElixir}
}

// Current returns the elixir available at elapsed seconds since game
// start: clamp(initial + elapsed/secondsPerElixir - used - wasted, 0,
// max), re-deriving wasted when the raw value would exceed max.
func (el *Elixir) Current(elapsed float64) float64 {
	generated := elapsed / el.secondsPerElixir
	raw := el.initial + generated - el.used - el.wasted
	if raw > el.max {
		el.wasted += raw - el.max
		raw = el.max
	}
	if el.wasted < 0 {
		el.wasted = 0
	}
	if raw < 0 {
		raw = 0
	}
	return raw
}

// CanAfford reports whether cost is payable at elapsed seconds.
func (el *Elixir) CanAfford(elapsed, cost float64) bool {
	return el.Current(elapsed) >= cost
}

// Spend atomically charges cost against the player's elixir. Callers
// must have already confirmed CanAfford under the same elapsed value;
// Spend itself does not re-check affordability, matching the source's
// "use_selected_card" check-then-increment contract at the call site.
func (el *Elixir) Spend(cost float64) {
	el.used += cost
}

// CostOf returns the elixir cost for kind.
func CostOf(kind event.EntityKind) float64 {
	return costs[kind]
}

// Deck is eight randomly chosen cards from the allowed set, of which
// only four are visible at a time (spec section 4.7).
type Deck struct {
	cards  [deckSize]Card
	cursor int
}

// NewDeck generates a deck from seed. Both peers MUST call this with
// the identical seed (derived from the handshake's host_time) or the
// deck diverges locally even though the spawn events stay authoritative.
func NewDeck(seed int64) *Deck {
	rng := rand.New(rand.NewSource(seed))
	d := &Deck{}
	for i := range d.cards {
		kind := allowedKinds[rng.Intn(len(allowedKinds))]
		d.cards[i] = Card{Kind: kind, Cost: costs[kind]}
	}
	return d
}

// Visible returns the currently visible cards (up to visibleCards).
func (d *Deck) Visible() []Card {
	n := visibleCards
	if n > len(d.cards) {
		n = len(d.cards)
	}
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.cards[(d.cursor+i)%len(d.cards)])
	}
	return out
}

// Play cycles the played card to the back of the deck, matching a
// cyclic eight-card hand where a played card is replaced by the next.
func (d *Deck) Play(index int) Card {
	idx := (d.cursor + index) % len(d.cards)
	card := d.cards[idx]
	d.cards[idx], d.cards[d.cursor] = d.cards[d.cursor], d.cards[idx]
	d.cursor = (d.cursor + 1) % len(d.cards)
	return card
}

// DeckSeedFromHostTime derives the shared deck seed from the
// handshake's host_time, so both peers compute the identical seed
// without adding a field to the wire protocol (spec section 6, 9).
func DeckSeedFromHostTime(hostTime float64) int64 {
	return int64(hostTime * 1e9)
}
