package game

import "testing"

// TestRegistryGetOrCreate verifies lazy creation and instance stability.
func TestRegistryGetOrCreate(t *testing.T) {
	g := NewRegistry()

	r1, err := g.GetOrCreate("arena")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if r1 == nil {
		t.Fatal("GetOrCreate returned nil room")
	}
	if g.Len() != 1 {
		t.Errorf("expected 1 room, got %d", g.Len())
	}

	r2, err := g.GetOrCreate("arena")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if r1 != r2 {
		t.Error("GetOrCreate should return the same instance for the same id")
	}
}

// TestRegistryValidation covers the identifier rules.
func TestRegistryValidation(t *testing.T) {
	g := NewRegistry()

	valid := []string{"a", "room-1", "ROOM_42", "abc123"}
	for _, id := range valid {
		if _, err := g.GetOrCreate(id); err != nil {
			t.Errorf("GetOrCreate(%q) should succeed, got %v", id, err)
		}
	}

	long := make([]byte, maxRoomIDLen+1)
	for i := range long {
		long[i] = 'a'
	}
	invalid := []string{"", "has space", "no/slash", "no.dot", "ünïcode", string(long)}
	for _, id := range invalid {
		if _, err := g.GetOrCreate(id); err != ErrInvalidRoomID {
			t.Errorf("GetOrCreate(%q) expected ErrInvalidRoomID, got %v", id, err)
		}
	}
	if g.Len() != len(valid) {
		t.Errorf("invalid ids must not create rooms, have %d rooms", g.Len())
	}
}

// TestRegistryRemove verifies removal and the no-op on unknown ids.
func TestRegistryRemove(t *testing.T) {
	g := NewRegistry()
	if _, err := g.GetOrCreate("arena"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	g.Remove("arena")
	if g.Get("arena") != nil {
		t.Error("room should be gone after Remove")
	}

	// Removing again must not panic.
	g.Remove("arena")
	g.Remove("never-existed")
}

// TestRegistryForEachToleratesRemoval verifies rooms can be removed while an
// iteration is in flight.
func TestRegistryForEachToleratesRemoval(t *testing.T) {
	g := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := g.GetOrCreate(id); err != nil {
			t.Fatalf("GetOrCreate(%q) failed: %v", id, err)
		}
	}

	visited := 0
	g.ForEach(func(r *Room) {
		visited++
		g.Remove(r.ID)
	})

	if visited != 3 {
		t.Errorf("expected to visit 3 rooms, visited %d", visited)
	}
	if g.Len() != 0 {
		t.Errorf("all rooms should be removed, %d left", g.Len())
	}
}
