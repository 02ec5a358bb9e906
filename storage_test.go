package archtype

import (
	"testing"
)

// TestArchetypeReuse tests that ArchetypeFor returns the same archetype for
// the same component set regardless of slice order, and a distinct one for
// any different set.
func TestArchetypeReuse(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)
	velComp := FactoryNewComponent[Velocity](w)
	healthComp := FactoryNewComponent[Health](w)

	tests := []struct {
		name       string
		first      []ComponentInfo
		second     []ComponentInfo
		expectSame bool
	}{
		{"Identical components", []ComponentInfo{posComp.Info(), velComp.Info()}, []ComponentInfo{posComp.Info(), velComp.Info()}, true},
		{"Different order", []ComponentInfo{posComp.Info(), velComp.Info()}, []ComponentInfo{velComp.Info(), posComp.Info()}, true},
		{"Different components", []ComponentInfo{posComp.Info()}, []ComponentInfo{velComp.Info()}, false},
		{"Subset components", []ComponentInfo{posComp.Info(), velComp.Info()}, []ComponentInfo{posComp.Info()}, false},
		{"Superset components", []ComponentInfo{posComp.Info()}, []ComponentInfo{posComp.Info(), velComp.Info(), healthComp.Info()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a1 := w.ArchetypeFor(tt.first)
			a2 := w.ArchetypeFor(tt.second)
			same := a1.ID() == a2.ID()
			if same != tt.expectSame {
				t.Errorf("archetypes same: %v, expected: %v", same, tt.expectSame)
			}
		})
	}
}

// TestEntityDestruction tests that Destroy followed by Settle actually
// reclaims the row, leaving only the surviving entities reachable.
func TestEntityDestruction(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)

	var entities []Entity
	for i := 0; i < 10; i++ {
		entities = append(entities, w.Spawn([]ComponentInfo{posComp.Info()}))
	}

	toDestroy := []Entity{entities[0], entities[2], entities[4], entities[6], entities[8]}
	for _, e := range toDestroy {
		if err := w.Destroy(e); err != nil {
			t.Fatalf("Destroy failed: %v", err)
		}
	}
	w.Settle()

	// Normal-mode iteration excludes rows written this same tick.
	w.Advance()

	qs := NewQueryState(w, With(posComp.Info()))
	count := 0
	it := qs.Iter()
	for it.Next() {
		count++
	}

	if count != 5 {
		t.Errorf("Entity count after destruction: %d, want 5", count)
	}
}

// TestWorldLocking tests that structural mutations submitted through the
// Enqueue* helpers while the world is locked are deferred, then applied
// once every lock bit clears.
func TestWorldLocking(t *testing.T) {
	tests := []struct {
		name      string
		lockBits  []uint32
		unlockIdx int
		checks    []bool
	}{
		{
			name:      "Single lock",
			lockBits:  []uint32{1},
			unlockIdx: 0,
			checks:    []bool{true, false},
		},
		{
			name:      "Multiple locks",
			lockBits:  []uint32{1, 2, 3},
			unlockIdx: 1,
			checks:    []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			posComp := FactoryNewComponent[Position](w)

			for _, bit := range tt.lockBits {
				w.AddLock(bit)
			}

			if w.Locked() != tt.checks[0] {
				t.Errorf("initial lock state: %v, want %v", w.Locked(), tt.checks[0])
			}

			for i := 0; i < 5; i++ {
				w.EnqueueSpawn([]ComponentInfo{posComp.Info()})
			}

			w.RemoveLock(tt.lockBits[tt.unlockIdx])

			if w.Locked() != tt.checks[1] {
				t.Errorf("mid-operation lock state: %v, want %v", w.Locked(), tt.checks[1])
			}

			for i, bit := range tt.lockBits {
				if i != tt.unlockIdx {
					w.RemoveLock(bit)
				}
			}

			if w.Locked() != tt.checks[len(tt.checks)-1] {
				t.Errorf("final lock state: %v, want %v", w.Locked(), tt.checks[len(tt.checks)-1])
			}

			// Normal-mode iteration excludes rows written this same tick.
			w.Advance()

			qs := NewQueryState(w, With(posComp.Info()))
			count := 0
			it := qs.Iter()
			for it.Next() {
				count++
			}
			if count != 5 {
				t.Errorf("entity count after unlocking: %d, want 5", count)
			}
		})
	}
}
