package game

import "errors"

// Join failures are surfaced to the requesting connection only and never
// mutate room state. Every other action on an unknown room or participant is
// a silent no-op so stale messages from a client that just lost a race with a
// disconnect cannot wedge the protocol.
var (
	// ErrInvalidRoomID is returned for a malformed or missing room identifier.
	ErrInvalidRoomID = errors.New("invalid room id")

	// ErrRoomFull is returned when a join targets a room already at capacity.
	ErrRoomFull = errors.New("room full")
)
