package game

import (
	"math"
	"sync"
	"testing"
)

// recordSink captures outbound events for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	name string
	data interface{}
}

func (s *recordSink) Send(event string, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{name: event, data: data})
}

func (s *recordSink) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.name == event {
			n++
		}
	}
	return n
}

// lastRoom returns the most recent updateRoom snapshot received.
func (s *recordSink) lastRoom(t *testing.T) RoomSnapshot {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].name == EventUpdateRoom {
			return s.events[i].data.(RoomSnapshot)
		}
	}
	t.Fatal("no updateRoom event received")
	return RoomSnapshot{}
}

func newTestEngine() *Engine {
	return NewEngine(DefaultEngineConfig(), nil)
}

// joinPair joins two participants into roomID and returns their sinks.
func joinPair(t *testing.T, e *Engine, roomID string) (*recordSink, *recordSink) {
	t.Helper()
	s1, s2 := &recordSink{}, &recordSink{}
	if err := e.Join(roomID, "p1", s1); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if err := e.Join(roomID, "p2", s2); err != nil {
		t.Fatalf("second join failed: %v", err)
	}
	return s1, s2
}

// TestJoinAssignsSidesAndStart verifies spawn assignment and the started
// transition on the second join.
func TestJoinAssignsSidesAndStart(t *testing.T) {
	e := newTestEngine()
	s1, s2 := joinPair(t, e, "arena")

	snap := s2.lastRoom(t)
	if len(snap.Players) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(snap.Players))
	}
	if !snap.GameState.Started {
		t.Error("room should be started with 2 participants")
	}

	p1 := snap.Players["p1"]
	p2 := snap.Players["p2"]
	if !p1.IsPlayer1 {
		t.Error("first joiner should be player1")
	}
	if p2.IsPlayer1 {
		t.Error("second joiner should not be player1")
	}
	if p1.Position.X >= 0 {
		t.Errorf("player1 should spawn at negative x, got %v", p1.Position.X)
	}
	if p2.Position.X <= 0 {
		t.Errorf("player2 should spawn at positive x, got %v", p2.Position.X)
	}
	if p1.Health != 100 || p2.Health != 100 {
		t.Errorf("both participants should start at 100 health, got %d and %d", p1.Health, p2.Health)
	}

	// First joiner saw the waiting room, then the started one.
	if got := s1.count(EventUpdateRoom); got != 2 {
		t.Errorf("expected 2 updateRoom events for first joiner, got %d", got)
	}
}

// TestJoinRoomFull verifies the third join is rejected without mutation.
func TestJoinRoomFull(t *testing.T) {
	e := newTestEngine()
	s1, s2 := joinPair(t, e, "arena")
	before1, before2 := s1.count(EventUpdateRoom), s2.count(EventUpdateRoom)

	s3 := &recordSink{}
	if err := e.Join("arena", "p3", s3); err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}

	snap, ok := e.Snapshot("arena")
	if !ok {
		t.Fatal("room should still exist")
	}
	if len(snap.Players) != 2 {
		t.Errorf("room should still hold 2 participants, got %d", len(snap.Players))
	}
	if _, ok := snap.Players["p3"]; ok {
		t.Error("rejected joiner must not be inserted")
	}
	if s1.count(EventUpdateRoom) != before1 || s2.count(EventUpdateRoom) != before2 {
		t.Error("failed join must not broadcast to the room")
	}
	if len(s3.events) != 0 {
		t.Error("engine must not emit to the rejected joiner; the gateway owns that reply")
	}
}

// TestJoinInvalidRoomID verifies identifier validation rejects without
// creating anything.
func TestJoinInvalidRoomID(t *testing.T) {
	e := newTestEngine()

	for _, id := range []string{"", "has space", "semi;colon", string(make([]byte, 100))} {
		if err := e.Join(id, "p1", &recordSink{}); err != ErrInvalidRoomID {
			t.Errorf("Join(%q) expected ErrInvalidRoomID, got %v", id, err)
		}
	}
	if e.RoomCount() != 0 {
		t.Errorf("no rooms should exist after rejected joins, got %d", e.RoomCount())
	}
}

// TestJoinMovesConnectionBetweenRooms verifies a connection is never a
// participant of two rooms at once.
func TestJoinMovesConnectionBetweenRooms(t *testing.T) {
	e := newTestEngine()
	s := &recordSink{}
	if err := e.Join("first", "p1", s); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := e.Join("second", "p1", s); err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}

	if _, ok := e.Snapshot("first"); ok {
		t.Error("emptied first room should have been removed")
	}
	snap, ok := e.Snapshot("second")
	if !ok {
		t.Fatal("second room should exist")
	}
	if _, ok := snap.Players["p1"]; !ok {
		t.Error("connection should be a participant of the second room")
	}
}

// TestMoveRelaysVerbatim verifies move writes position and rotation as sent.
func TestMoveRelaysVerbatim(t *testing.T) {
	e := newTestEngine()
	s1, _ := joinPair(t, e, "arena")

	pos := Vec3{X: 1.5, Y: 2, Z: -3.25}
	rot := Vec3{X: 0, Y: 0.5, Z: 0}
	e.Move("arena", "p1", pos, rot)

	snap := s1.lastRoom(t)
	if snap.Players["p1"].Position != pos {
		t.Errorf("position not relayed verbatim: %+v", snap.Players["p1"].Position)
	}
	if snap.Players["p1"].Rotation != rot {
		t.Errorf("rotation not relayed verbatim: %+v", snap.Players["p1"].Rotation)
	}

	// Unknown room and unknown participant are silent no-ops.
	before := s1.count(EventUpdateRoom)
	e.Move("nowhere", "p1", pos, rot)
	e.Move("arena", "ghost", pos, rot)
	if s1.count(EventUpdateRoom) != before {
		t.Error("no-op moves must not broadcast")
	}
}

// TestAttackCooldownGate verifies attack initiation and the cooldown no-op.
func TestAttackCooldownGate(t *testing.T) {
	e := newTestEngine()
	s1, _ := joinPair(t, e, "arena")

	e.Attack("arena", "p1")
	snap := s1.lastRoom(t)
	p1 := snap.Players["p1"]
	if !p1.IsAttacking {
		t.Error("attack should set isAttacking")
	}
	if p1.AttackAnimationProgress != 0 {
		t.Errorf("attack should reset animation progress, got %v", p1.AttackAnimationProgress)
	}
	if p1.AttackCooldown != 20 {
		t.Errorf("expected cooldown 20 ticks, got %d", p1.AttackCooldown)
	}

	// Second attack during cooldown: no state change, no broadcast.
	before := s1.count(EventUpdateRoom)
	e.Attack("arena", "p1")
	if s1.count(EventUpdateRoom) != before {
		t.Error("gated attack must not broadcast")
	}
}

// TestAttackAnimationCompletes verifies the attack ends after exactly 10
// ticks at the 0.1 per-tick rate.
func TestAttackAnimationCompletes(t *testing.T) {
	e := newTestEngine()
	s1, _ := joinPair(t, e, "arena")

	e.Attack("arena", "p1")
	for i := 0; i < 9; i++ {
		e.tick()
	}
	if p := s1.lastRoom(t).Players["p1"]; !p.IsAttacking {
		t.Error("attack should still be in progress after 9 ticks")
	}

	e.tick()
	p := s1.lastRoom(t).Players["p1"]
	if p.IsAttacking {
		t.Error("attack should have ended after 10 ticks")
	}
	if p.AttackAnimationProgress < 1 {
		t.Errorf("animation progress should have reached 1, got %v", p.AttackAnimationProgress)
	}
	if p.AttackCooldown != 10 {
		t.Errorf("cooldown should have decremented to 10, got %d", p.AttackCooldown)
	}
}

// TestBlockingAnimation verifies the block reset-on-engage rule and the
// per-tick advance.
func TestBlockingAnimation(t *testing.T) {
	e := newTestEngine()
	s1, _ := joinPair(t, e, "arena")

	e.SetBlocking("arena", "p1", true)
	for i := 0; i < 4; i++ {
		e.tick()
	}
	p := s1.lastRoom(t).Players["p1"]
	if !p.IsBlocking {
		t.Fatal("participant should be blocking")
	}
	if math.Abs(p.BlockAnimationProgress-0.2) > 1e-9 {
		t.Errorf("expected block progress ~0.2 after 4 ticks, got %v", p.BlockAnimationProgress)
	}
	raised := p.BlockAnimationProgress

	// Releasing keeps the progress; re-engaging resets it.
	e.SetBlocking("arena", "p1", false)
	if p := s1.lastRoom(t).Players["p1"]; p.BlockAnimationProgress != raised {
		t.Errorf("releasing block should keep progress, got %v", p.BlockAnimationProgress)
	}
	e.SetBlocking("arena", "p1", true)
	if p := s1.lastRoom(t).Players["p1"]; p.BlockAnimationProgress != 0 {
		t.Errorf("engaging block should reset progress, got %v", p.BlockAnimationProgress)
	}
}

// TestApplyDamage covers absorption, clamping and the silent no-op cases.
func TestApplyDamage(t *testing.T) {
	t.Run("reduces health when not blocking", func(t *testing.T) {
		e := newTestEngine()
		s1, _ := joinPair(t, e, "arena")
		e.ApplyDamage("arena", "p1", "p2", 30)
		if got := s1.lastRoom(t).Players["p2"].Health; got != 70 {
			t.Errorf("expected health 70, got %d", got)
		}
	})

	t.Run("blocking absorbs the hit", func(t *testing.T) {
		e := newTestEngine()
		s1, _ := joinPair(t, e, "arena")
		e.SetBlocking("arena", "p2", true)
		e.ApplyDamage("arena", "p1", "p2", 30)
		if got := s1.lastRoom(t).Players["p2"].Health; got != 100 {
			t.Errorf("blocked hit should leave health unchanged, got %d", got)
		}
	})

	t.Run("negative damage never heals", func(t *testing.T) {
		e := newTestEngine()
		s1, _ := joinPair(t, e, "arena")
		e.ApplyDamage("arena", "p1", "p2", 40)
		e.ApplyDamage("arena", "p1", "p2", -25)
		if got := s1.lastRoom(t).Players["p2"].Health; got != 60 {
			t.Errorf("negative damage should be a no-damage hit, got health %d", got)
		}
	})

	t.Run("health clamps at zero", func(t *testing.T) {
		e := newTestEngine()
		s1, _ := joinPair(t, e, "arena")
		e.ApplyDamage("arena", "p1", "p2", 250)
		if got := s1.lastRoom(t).Players["p2"].Health; got != 0 {
			t.Errorf("health should clamp at 0, got %d", got)
		}
	})

	t.Run("unknown room or target is silent", func(t *testing.T) {
		e := newTestEngine()
		s1, _ := joinPair(t, e, "arena")
		before := s1.count(EventUpdateRoom)
		e.ApplyDamage("nowhere", "p1", "p2", 10)
		e.ApplyDamage("arena", "p1", "ghost", 10)
		if s1.count(EventUpdateRoom) != before {
			t.Error("no-op damage must not broadcast")
		}
	})
}

// TestKnockout verifies the gameOver emission and the rematch-preserving
// aftermath.
func TestKnockout(t *testing.T) {
	e := newTestEngine()
	var koRoom, koWinner string
	e.OnKnockout = func(roomID, winner, _ string) { koRoom, koWinner = roomID, winner }

	s1, s2 := joinPair(t, e, "arena")
	e.ApplyDamage("arena", "p1", "p2", 100)

	if s1.count(EventGameOver) != 1 || s2.count(EventGameOver) != 1 {
		t.Fatalf("expected exactly one gameOver per participant, got %d and %d",
			s1.count(EventGameOver), s2.count(EventGameOver))
	}
	for i := len(s1.events) - 1; i >= 0; i-- {
		if s1.events[i].name == EventGameOver {
			if winner := s1.events[i].data.(GameOverPayload).Winner; winner != "p1" {
				t.Errorf("expected winner p1, got %s", winner)
			}
			break
		}
	}
	if koRoom != "arena" || koWinner != "p1" {
		t.Errorf("knockout hook saw room=%s winner=%s", koRoom, koWinner)
	}

	snap, ok := e.Snapshot("arena")
	if !ok {
		t.Fatal("room should survive a knockout for rematch")
	}
	if snap.GameState.Started {
		t.Error("room should revert to waiting after a knockout")
	}

	// Pounding a downed participant must not re-emit gameOver.
	e.ApplyDamage("arena", "p1", "p2", 50)
	if s1.count(EventGameOver) != 1 {
		t.Error("gameOver must be emitted once per knockout")
	}
}

// TestDisconnectCleanup verifies room teardown and the surviving-participant
// broadcast.
func TestDisconnectCleanup(t *testing.T) {
	e := newTestEngine()
	s1, _ := joinPair(t, e, "arena")

	e.Disconnect("p2")
	snap, ok := e.Snapshot("arena")
	if !ok {
		t.Fatal("room with one participant left should still exist")
	}
	if len(snap.Players) != 1 {
		t.Fatalf("expected 1 participant after disconnect, got %d", len(snap.Players))
	}
	if snap.GameState.Started {
		t.Error("room should revert to waiting after a departure")
	}
	if got := s1.lastRoom(t); len(got.Players) != 1 {
		t.Error("survivor should have been told about the departure")
	}

	e.Disconnect("p1")
	if _, ok := e.Snapshot("arena"); ok {
		t.Error("empty room should be removed from the registry")
	}
	if e.RoomCount() != 0 {
		t.Errorf("registry should be empty, got %d rooms", e.RoomCount())
	}

	// Disconnecting an unknown connection is a no-op.
	e.Disconnect("ghost")
}

// TestTickWithNoRooms verifies an idle engine tick has no observable effect.
func TestTickWithNoRooms(t *testing.T) {
	e := newTestEngine()
	e.tick()
	if e.RoomCount() != 0 || e.ParticipantCount() != 0 {
		t.Error("tick with no rooms should have no effect")
	}
}

// TestTickBroadcastsOncePerRoom verifies the once-per-tick broadcast, even
// with nothing changing.
func TestTickBroadcastsOncePerRoom(t *testing.T) {
	e := newTestEngine()
	s1, s2 := joinPair(t, e, "arena")
	before1, before2 := s1.count(EventUpdateRoom), s2.count(EventUpdateRoom)

	e.tick()
	e.tick()

	if got := s1.count(EventUpdateRoom) - before1; got != 2 {
		t.Errorf("expected 2 tick broadcasts for p1, got %d", got)
	}
	if got := s2.count(EventUpdateRoom) - before2; got != 2 {
		t.Errorf("expected 2 tick broadcasts for p2, got %d", got)
	}
}

// TestCooldownConfigurable verifies the cooldown constant is tunable.
func TestCooldownConfigurable(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.AttackCooldownTicks = 30
	e := NewEngine(cfg, nil)

	s1 := &recordSink{}
	if err := e.Join("arena", "p1", s1); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	e.Attack("arena", "p1")
	if got := s1.lastRoom(t).Players["p1"].AttackCooldown; got != 30 {
		t.Errorf("expected configured cooldown 30, got %d", got)
	}
}
