package game

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EngineConfig carries the combat tuning knobs. Cooldowns and animation
// steps are expressed in ticks so every timing rule is exact at the
// configured tick rate.
type EngineConfig struct {
	TickRate            int     // ticks per second
	AttackCooldownTicks int     // ticks before another attack is permitted
	AttackAnimationStep float64 // attack animation progress added per tick
	BlockAnimationStep  float64 // block animation progress added per tick
	SpawnOffsetX        float64 // spawn distance from center along x
	SpawnHeight         float64 // spawn y
	MaxHealth           int
}

// DefaultEngineConfig returns the production tuning: 60 TPS, a 20-tick
// attack cooldown and a 10-tick attack animation.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:            60,
		AttackCooldownTicks: 20,
		AttackAnimationStep: 0.1,
		BlockAnimationStep:  0.05,
		SpawnOffsetX:        10,
		SpawnHeight:         2,
		MaxHealth:           100,
	}
}

// Engine is the session and combat synchronization core. One mutex
// serializes every inbound-event handler against the tick loop, so rooms and
// participants are only ever mutated from one logical thread of control.
type Engine struct {
	mu       sync.Mutex
	cfg      EngineConfig
	registry *Registry
	conns    map[string]string // connection id -> room id, at most one room per connection
	log      *zap.SugaredLogger

	running   bool
	ticker    *time.Ticker
	stopChan  chan struct{}
	stopOnce  sync.Once
	tickCount int64

	// OnTick and OnKnockout are optional observability hooks. Set them
	// before Start.
	OnTick     func(elapsed time.Duration)
	OnKnockout func(roomID, winner, loser string)
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(cfg EngineConfig, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		cfg:      cfg,
		registry: NewRegistry(),
		conns:    make(map[string]string),
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Start launches the fixed-rate tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.cfg.TickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				start := time.Now()
				e.tick()
				if e.OnTick != nil {
					e.OnTick(time.Since(start))
				}
			case <-e.stopChan:
				return
			}
		}
	}()

	e.log.Infow("engine started", "tickRate", e.cfg.TickRate)
}

// Stop halts the tick loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.log.Info("engine stopped")
}

// Join adds a connection to a room. The first joiner becomes player one; the
// join that brings the room to capacity starts the match. A connection that
// is already in another room leaves it first, so a connection is never a
// participant of two rooms.
//
// On failure nothing is mutated and the error is for the requester alone.
func (e *Engine) Join(roomID, connID string, sink Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.registry.GetOrCreate(roomID)
	if err != nil {
		return err
	}
	if len(room.Players) >= MaxParticipants {
		return ErrRoomFull
	}

	if prev, ok := e.conns[connID]; ok && prev != roomID {
		e.leaveLocked(connID)
	}

	first := len(room.Players) == 0
	room.Players[connID] = newPlayer(connID, first, e.cfg, sink)
	e.conns[connID] = roomID

	if len(room.Players) == MaxParticipants {
		room.Started = true
	}

	e.log.Infow("participant joined", "room", roomID, "conn", connID, "player1", first, "started", room.Started)
	room.broadcast()
	return nil
}

// Move relays a participant's position and rotation verbatim. Unknown room
// or participant is a silent no-op.
func (e *Engine) Move(roomID, connID string, position, rotation Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.registry.Get(roomID)
	if room == nil {
		return
	}
	p, ok := room.Players[connID]
	if !ok {
		return
	}
	p.Position = position
	p.Rotation = rotation
	room.broadcast()
}

// Disconnect removes the connection's participant and cleans up its room.
// The last participant leaving destroys the room; otherwise the survivor
// sees the departure in a broadcast and the match reverts to waiting.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leaveLocked(connID)
}

// leaveLocked performs the leave transition. Caller holds e.mu.
func (e *Engine) leaveLocked(connID string) {
	roomID, ok := e.conns[connID]
	if !ok {
		return
	}
	delete(e.conns, connID)

	room := e.registry.Get(roomID)
	if room == nil {
		return
	}
	delete(room.Players, connID)

	if len(room.Players) == 0 {
		e.registry.Remove(roomID)
		e.log.Infow("room removed", "room", roomID)
		return
	}

	room.Started = false
	e.log.Infow("participant left", "room", roomID, "conn", connID)
	room.broadcast()
}

// tick advances every time-dependent field and broadcasts each room exactly
// once, whether or not anything changed.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++
	e.registry.ForEach(func(room *Room) {
		for _, p := range room.Players {
			if p.AttackCooldown > 0 {
				p.AttackCooldown--
			}
			if p.IsAttacking {
				p.AttackAnimationProgress += e.cfg.AttackAnimationStep
				// Epsilon guards the accumulated-float comparison so a
				// 10-step animation finishes on tick 10, not 11.
				if p.AttackAnimationProgress+1e-9 >= 1 {
					p.AttackAnimationProgress = 1
					p.IsAttacking = false
				}
			}
			if p.IsBlocking {
				p.BlockAnimationProgress += e.cfg.BlockAnimationStep
			}
		}
		room.broadcast()
	})
}

// RoomCount reports the number of live rooms.
func (e *Engine) RoomCount() int {
	return e.registry.Len()
}

// ParticipantCount reports the number of connected participants across all
// rooms.
func (e *Engine) ParticipantCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.conns)
}

// Snapshot returns the current snapshot of one room.
func (e *Engine) Snapshot(roomID string) (RoomSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	room := e.registry.Get(roomID)
	if room == nil {
		return RoomSnapshot{}, false
	}
	return room.Snapshot(), true
}

// RoomSummary is the read-only listing row served by the HTTP API.
type RoomSummary struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Started      bool   `json:"started"`
}

// Rooms lists all live rooms.
func (e *Engine) Rooms() []RoomSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RoomSummary, 0, e.registry.Len())
	e.registry.ForEach(func(r *Room) {
		out = append(out, RoomSummary{ID: r.ID, Participants: len(r.Players), Started: r.Started})
	})
	return out
}
