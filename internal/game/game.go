// Package game wires the simulation core, transport, elixir arbiter and
// debug server into the single object a process entrypoint drives: each
// call to Advance is one render frame, running as many catch-up ticks as
// synced time calls for.
package game

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"arena/internal/board"
	"arena/internal/clock"
	"arena/internal/config"
	"arena/internal/event"
	"arena/internal/eventlog"
	"arena/internal/menu"
	"arena/internal/observe"
	"arena/internal/sim"
	"arena/internal/timeline"
	"arena/internal/transport"
)

// Game owns every moving part of one match for one peer.
type Game struct {
	cfg config.AppConfig

	SessionID string // uuid, logging/debug correlation only; never state-affecting

	Owner    string // "1" or "2"
	IsHost   bool
	Clock    *clock.Clock
	Transport *transport.Transport
	Loop     *sim.Loop

	Elixir   *menu.Elixir
	Deck     *menu.Deck
	gameStart float64 // synced time at which simulation time zero occurred

	Snapshots *board.SnapshotPool
	EventLog  *eventlog.Log
	observe   *observe.Server
}

// New assembles a Game for owner ("1" host, "2" client) around tr, the
// transport whose handshake has already completed, using cfg and the
// clock/deck seed negotiated during that handshake.
func New(cfg config.AppConfig, owner string, isHost bool, clk *clock.Clock, tr *transport.Transport, deckSeed int64, gameStart float64) *Game {
	b := board.New(cfg.Grid.Cols, cfg.Grid.Rows)
	tl := timeline.New(1)
	loop := sim.NewLoop(b, tl, cfg.Sim.CheckpointTicks)

	g := &Game{
		cfg:       cfg,
		SessionID: uuid.NewString(),
		Owner:     owner,
		IsHost:    isHost,
		Clock:     clk,
		Transport: tr,
		Loop:      loop,
		Elixir:    menu.NewElixir(cfg.Elixir.Initial, cfg.Elixir.Max, cfg.Elixir.SecondsPerElixir),
		Deck:      menu.NewDeck(deckSeed),
		gameStart: gameStart,
		Snapshots: board.NewSnapshotPool(cfg.Limits.MaxEntities),
		EventLog:  eventlog.New(),
	}

	if cfg.Observe.Enabled {
		g.observe = observe.NewServer(g.Snapshots)
	}
	return g
}

// Start begins background goroutines: the event log writer and,
// if configured, the debug/observability HTTP server. Callers still
// drive the simulation themselves via Advance.
func (g *Game) Start() error {
	if err := g.EventLog.Start(""); err != nil {
		return fmt.Errorf("start event log: %w", err)
	}
	g.EventLog.Emit(eventlog.NewEntry(eventlog.KindHandshake, 0, g.Owner, map[string]string{"session": g.SessionID}))

	if g.observe != nil {
		go func() {
			if err := g.observe.Start(g.cfg.Observe.Addr); err != nil {
				log.Printf("game: observe server exited: %v", err)
			}
		}()
	}
	return nil
}

// DrainInbox moves every event waiting in the transport inbox into the
// timeline, applying the checkpoint-and-resimulate rollback contract for
// any that arrived late (spec section 5).
func (g *Game) DrainInbox() {
	for _, evt := range g.Transport.Inbox.Drain(g.cfg.Limits.MaxEventsPerTick) {
		g.ingest(evt)
	}
}

func (g *Game) ingest(evt event.Event) {
	late := evt.ApparitionTime() < g.Loop.SimTime()
	g.Loop.AddEvent(evt)
	if late {
		g.EventLog.Emit(eventlog.NewEntry(eventlog.KindLateEvent, g.Loop.TickCount(), evt.Owner, evt))
	}
}

// Advance runs the loop forward to match syncedNow, publishes a fresh
// snapshot, and records a tick entry in the audit log.
func (g *Game) Advance(syncedNow float64) {
	g.Loop.AdvanceTo(syncedNow - g.gameStart)

	snap := g.Snapshots.AcquireWrite()
	g.Loop.Board.Snapshot(snap, g.Loop.TickCount())
	g.Snapshots.PublishWrite()

	g.EventLog.Emit(eventlog.NewEntry(eventlog.KindTick, g.Loop.TickCount(), g.Owner, nil))
}

// ElapsedElixirTime returns the seconds since game start, the input to
// the elixir formula (spec section 4.7).
func (g *Game) ElapsedElixirTime(syncedNow float64) float64 {
	return syncedNow - g.gameStart
}

// PlayCard attempts to play the card at deck index idx at grid cell
// (col,row). On success the spawn event is applied locally and sent to
// the peer; returns false if unaffordable or the placement is invalid,
// in which case nothing is spent, applied, or sent.
func (g *Game) PlayCard(idx, col, row int, syncedNow float64) bool {
	elapsed := g.ElapsedElixirTime(syncedNow)
	cards := g.Deck.Visible()
	if idx < 0 || idx >= len(cards) {
		return false
	}
	card := cards[idx]
	if !g.Elixir.CanAfford(elapsed, card.Cost) {
		return false
	}
	if !g.Loop.Board.ValidPlacement(g.Owner, col, row) {
		return false
	}

	evt, err := event.NewSpawnEvent(syncedNow, event.SpawnPayload{
		EntityType:   card.Kind,
		GridPosition: [2]int{col, row},
		PlayerID:     g.Owner,
	})
	if err != nil {
		return false
	}

	g.Elixir.Spend(card.Cost)
	g.Deck.Play(idx)
	g.ingest(evt)
	g.EventLog.Emit(eventlog.NewEntry(eventlog.KindSpawn, g.Loop.TickCount(), g.Owner, evt))

	if err := g.Transport.Send(evt); err != nil {
		log.Printf("game: send spawn event: %v", err)
	}
	return true
}

// Winner reports this peer's own win state.
func (g *Game) Winner() board.WinState {
	return g.Loop.Board.WinState(g.Owner)
}

// Close tears down sockets and the event log writer. Callers are
// responsible for signaling their own stop channels passed to the
// transport's listener goroutines before calling Close.
func (g *Game) Close() {
	g.Transport.Close()
	g.EventLog.Stop()
}
