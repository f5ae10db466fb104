package game

// MaxParticipants caps a room to a single duel.
const MaxParticipants = 2

// Room holds one two-participant match. All access goes through the engine,
// which serializes event handlers and the tick loop; Room itself carries no
// locking.
type Room struct {
	ID      string
	Players map[string]*Player

	// Started flips true when the second participant joins and back to
	// false on knockout or when a participant leaves.
	Started bool
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		Players: make(map[string]*Player, MaxParticipants),
	}
}

// Snapshot builds the full-room value copy used for broadcasts and the
// read-only HTTP views.
func (r *Room) Snapshot() RoomSnapshot {
	players := make(map[string]PlayerSnapshot, len(r.Players))
	for id, p := range r.Players {
		players[id] = p.snapshot()
	}
	return RoomSnapshot{
		ID:        r.ID,
		Players:   players,
		GameState: GameStateSnapshot{Started: r.Started},
	}
}

// broadcast delivers the current snapshot to every participant.
func (r *Room) broadcast() {
	snap := r.Snapshot()
	r.emit(EventUpdateRoom, snap)
}

// emit sends an event to every participant of the room. Sinks are
// non-blocking, so one dead connection cannot stall the other.
func (r *Room) emit(event string, data interface{}) {
	for _, p := range r.Players {
		if p.sink != nil {
			p.sink.Send(event, data)
		}
	}
}
