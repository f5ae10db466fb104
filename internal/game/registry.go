package game

import "sync"

// maxRoomIDLen bounds caller-supplied identifiers.
const maxRoomIDLen = 64

// Registry owns the room-id to room mapping. Rooms are created lazily on
// join and removed as soon as they are empty; an empty room is never kept.
//
// The engine serializes all room mutation, so the registry lock only guards
// the map itself. That keeps lookups safe for the read-only HTTP and metrics
// paths, which run outside the engine loop.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for id, creating it if needed. A malformed
// identifier fails with ErrInvalidRoomID before anything is created.
func (g *Registry) GetOrCreate(id string) (*Room, error) {
	if !validRoomID(id) {
		return nil, ErrInvalidRoomID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	if !ok {
		r = newRoom(id)
		g.rooms[id] = r
	}
	return r, nil
}

// Get returns the room for id, or nil.
func (g *Registry) Get(id string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[id]
}

// Remove deletes the room for id. Removing an unknown id is a no-op.
func (g *Registry) Remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, id)
}

// ForEach calls fn for every room. It iterates over a stable copy of the
// room list, so fn may remove rooms (directly or through the engine) while
// the iteration runs.
func (g *Registry) ForEach(fn func(*Room)) {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	for _, r := range rooms {
		fn(r)
	}
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// validRoomID accepts non-empty identifiers of letters, digits, '-' and '_'.
func validRoomID(id string) bool {
	if id == "" || len(id) > maxRoomIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
