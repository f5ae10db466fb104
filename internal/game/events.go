package game

// Outbound event names. The wire format is an envelope of
// {"event": <name>, "data": <payload>} in both directions.
const (
	EventUpdateRoom = "updateRoom"
	EventRoomFull   = "roomFull"
	EventGameOver   = "gameOver"
	EventError      = "error"
)

// Sink receives outbound events for one connection. Implementations must not
// block: delivery is fire-and-forget and a stalled connection never holds up
// the engine or the other participant.
type Sink interface {
	Send(event string, data interface{})
}

// RoomSnapshot is the full room state broadcast to every participant after a
// mutation or tick. Value types only, safe to hand to a concurrent writer.
type RoomSnapshot struct {
	ID        string                    `json:"id"`
	Players   map[string]PlayerSnapshot `json:"players"`
	GameState GameStateSnapshot         `json:"gameState"`
}

// GameStateSnapshot carries the room-level flags.
type GameStateSnapshot struct {
	Started bool `json:"started"`
}

// PlayerSnapshot is an immutable copy of one participant's state.
type PlayerSnapshot struct {
	ID                      string  `json:"id"`
	Position                Vec3    `json:"position"`
	Rotation                Vec3    `json:"rotation"`
	Health                  int     `json:"health"`
	IsAttacking             bool    `json:"isAttacking"`
	IsBlocking              bool    `json:"isBlocking"`
	AttackCooldown          int     `json:"attackCooldown"`
	AttackAnimationProgress float64 `json:"attackAnimationProgress"`
	BlockAnimationProgress  float64 `json:"blockAnimationProgress"`
	IsPlayer1               bool    `json:"isPlayer1"`
}

// GameOverPayload names the winning connection when a knockout ends a match.
type GameOverPayload struct {
	Winner string `json:"winner"`
}

// RoomFullPayload is sent only to a joiner rejected from a full room.
type RoomFullPayload struct {
	Message string `json:"message"`
}

// ErrorPayload is sent only to the connection whose request was rejected.
type ErrorPayload struct {
	Message string `json:"message"`
}
