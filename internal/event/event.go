// Package event defines the immutable timeline event record and its
// wire encoding. An Event is {type, origin timestamp, delay, payload};
// ApparitionTime is derived, never stored independently, to keep the
// two always consistent.
package event

import "encoding/json"

// Type classifies an event's payload.
type Type string

// SpawnUnit is the only event type the wire protocol currently defines.
const SpawnUnit Type = "spawn_unit"

// EntityKind names a spawnable troop kind, matching the deck catalog.
type EntityKind string

const (
	Caballero EntityKind = "Caballero" // Knight
	Mago       EntityKind = "Mago"      // Wizard
	Mosquetera EntityKind = "Mosquetera" // Musketeer
)

// SpawnPayload is the data carried by a spawn_unit event.
type SpawnPayload struct {
	EntityType   EntityKind `json:"entity_type"`
	GridPosition [2]int     `json:"grid_position"` // [col, row]
	PlayerID     string     `json:"player_id"`
}

// Event is an immutable timeline entry. Identity for dedup purposes is
// (Timestamp, Owner, Payload) per spec section 4.1; the Timeline layer
// does not deduplicate, a higher layer is responsible if needed.
type Event struct {
	EventType Type            `json:"event_type"`
	Timestamp float64         `json:"timestamp"` // origin synced time
	Delay     float64         `json:"delay"`
	Owner     string          `json:"-"` // convenience copy of payload owner, for tie-break
	Data      json.RawMessage `json:"data"`

	// InsertionSeq is assigned by Timeline.Add and used only as the
	// final tie-break after (ApparitionTime, Owner).
	InsertionSeq uint64 `json:"-"`
}

// ApparitionTime is the simulated instant at which the event becomes
// effective: origin timestamp plus its look-ahead delay.
func (e Event) ApparitionTime() float64 {
	return e.Timestamp + e.Delay
}

// NewSpawnEvent builds a spawn_unit event with the standard 0.2s
// lockstep delay described in spec section 5.
func NewSpawnEvent(originTime float64, payload SpawnPayload) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventType: SpawnUnit,
		Timestamp: originTime,
		Delay:     0.2,
		Owner:     payload.PlayerID,
		Data:      data,
	}, nil
}

// DecodeSpawnPayload unmarshals the event's data into a SpawnPayload.
// Unknown or malformed payloads return an error; callers treat the
// event as a no-op rather than propagating (spec section 7).
func (e Event) DecodeSpawnPayload() (SpawnPayload, error) {
	var p SpawnPayload
	err := json.Unmarshal(e.Data, &p)
	return p, err
}
