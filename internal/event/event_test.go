package event

import "testing"

func TestApparitionTime(t *testing.T) {
	e := Event{Timestamp: 10, Delay: 0.2}
	if got := e.ApparitionTime(); got != 10.2 {
		t.Fatalf("ApparitionTime() = %v, want 10.2", got)
	}
}

func TestNewSpawnEventRoundTrip(t *testing.T) {
	evt, err := NewSpawnEvent(5.0, SpawnPayload{
		EntityType:   Caballero,
		GridPosition: [2]int{3, 4},
		PlayerID:     "1",
	})
	if err != nil {
		t.Fatalf("NewSpawnEvent: %v", err)
	}
	if evt.EventType != SpawnUnit {
		t.Fatalf("EventType = %v, want %v", evt.EventType, SpawnUnit)
	}
	if evt.Delay != 0.2 {
		t.Fatalf("Delay = %v, want 0.2", evt.Delay)
	}
	if evt.Owner != "1" {
		t.Fatalf("Owner = %q, want %q", evt.Owner, "1")
	}

	payload, err := evt.DecodeSpawnPayload()
	if err != nil {
		t.Fatalf("DecodeSpawnPayload: %v", err)
	}
	if payload.EntityType != Caballero || payload.GridPosition != [2]int{3, 4} || payload.PlayerID != "1" {
		t.Fatalf("decoded payload mismatch: %+v", payload)
	}
}

func TestDecodeSpawnPayloadMalformed(t *testing.T) {
	evt := Event{Data: []byte(`not json`)}
	if _, err := evt.DecodeSpawnPayload(); err == nil {
		t.Fatal("expected error decoding malformed payload")
	}
}
