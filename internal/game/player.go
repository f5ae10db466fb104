package game

import "math"

// Vec3 is a 3-component vector. Position and rotation payloads are relayed
// verbatim between clients; the server never simulates them.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Player is the authoritative combat state bound to one connection.
// All timer fields are tick-based and advanced only by the engine loop.
type Player struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Health   int    `json:"health"`

	// Combat state
	IsAttacking             bool    `json:"isAttacking"`
	IsBlocking              bool    `json:"isBlocking"`
	AttackCooldown          int     `json:"attackCooldown"`
	AttackAnimationProgress float64 `json:"attackAnimationProgress"`
	BlockAnimationProgress  float64 `json:"blockAnimationProgress"`

	// IsPlayer1 is assigned permanently at join time from join order and
	// selects the spawn side and facing.
	IsPlayer1 bool `json:"isPlayer1"`

	sink Sink
}

// newPlayer creates a participant at its deterministic spawn point.
// The first joiner spawns on the negative-x side facing forward; the second
// spawns mirrored on the positive-x side facing back.
func newPlayer(id string, first bool, cfg EngineConfig, sink Sink) *Player {
	p := &Player{
		ID:        id,
		Health:    cfg.MaxHealth,
		IsPlayer1: first,
		sink:      sink,
	}
	if first {
		p.Position = Vec3{X: -cfg.SpawnOffsetX, Y: cfg.SpawnHeight, Z: 0}
	} else {
		p.Position = Vec3{X: cfg.SpawnOffsetX, Y: cfg.SpawnHeight, Z: 0}
		p.Rotation = Vec3{X: 0, Y: math.Pi, Z: 0}
	}
	return p
}

// snapshot returns an immutable value copy for broadcasting.
func (p *Player) snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:                      p.ID,
		Position:                p.Position,
		Rotation:                p.Rotation,
		Health:                  p.Health,
		IsAttacking:             p.IsAttacking,
		IsBlocking:              p.IsBlocking,
		AttackCooldown:          p.AttackCooldown,
		AttackAnimationProgress: p.AttackAnimationProgress,
		BlockAnimationProgress:  p.BlockAnimationProgress,
		IsPlayer1:               p.IsPlayer1,
	}
}
