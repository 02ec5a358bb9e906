package archtype

import (
	"testing"
)

// Test component types
type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

func TestSpawn(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)
	velComp := FactoryNewComponent[Velocity](w)
	healthComp := FactoryNewComponent[Health](w)

	tests := []struct {
		name       string
		components []ComponentInfo
	}{
		{"Single component", []ComponentInfo{posComp.Info()}},
		{"Multiple components", []ComponentInfo{posComp.Info(), velComp.Info()}},
		{"Three components", []ComponentInfo{posComp.Info(), velComp.Info(), healthComp.Info()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := w.Spawn(tt.components)
			if e.IsNull() {
				t.Fatalf("Spawn returned a null entity")
			}
			a, row, err := w.Lookup(e)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if len(a.sortedSet) != len(tt.components) {
				t.Errorf("archetype has %d components, want %d", len(a.sortedSet), len(tt.components))
			}
			if a.tbl.get(row) != e {
				t.Errorf("row does not store the spawned entity")
			}
		})
	}
}

func TestAlterAddRemove(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)
	velComp := FactoryNewComponent[Velocity](w)
	healthComp := FactoryNewComponent[Health](w)

	e := w.Spawn([]ComponentInfo{posComp.Info()})

	// Add velocity.
	if err := w.Alter(e, []alterOp{{Index: velComp.Info().Index, Add: true}}); err != nil {
		t.Fatalf("Alter (add velocity) failed: %v", err)
	}
	a, _, err := w.Lookup(e)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !a.Contains(posComp.Info().Index) || !a.Contains(velComp.Info().Index) {
		t.Errorf("expected archetype to contain position and velocity")
	}

	// Add health, remove position.
	err = w.Alter(e, []alterOp{
		{Index: healthComp.Info().Index, Add: true},
		{Index: posComp.Info().Index, Add: false},
	})
	if err != nil {
		t.Fatalf("Alter (add health, remove position) failed: %v", err)
	}
	a, _, err = w.Lookup(e)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if a.Contains(posComp.Info().Index) {
		t.Errorf("expected position to have been removed")
	}
	if !a.Contains(velComp.Info().Index) || !a.Contains(healthComp.Info().Index) {
		t.Errorf("expected archetype to contain velocity and health")
	}
}

func TestComponentValues(t *testing.T) {
	w := NewWorld()
	positionComp := FactoryNewComponent[Position](w)
	velocityComp := FactoryNewComponent[Velocity](w)

	e := w.Spawn([]ComponentInfo{positionComp.Info(), velocityComp.Info()})

	positionComp.SetAt(mustArchetype(t, w, e), mustRow(t, w, e), Position{X: 1.0, Y: 2.0})
	velocityComp.SetAt(mustArchetype(t, w, e), mustRow(t, w, e), Velocity{X: 3.0, Y: 4.0})

	pos := positionComp.GetFromEntity(e)
	vel := velocityComp.GetFromEntity(e)

	if pos.X != 1.0 || pos.Y != 2.0 {
		t.Errorf("Position = {%v, %v}, want {1.0, 2.0}", pos.X, pos.Y)
	}
	if vel.X != 3.0 || vel.Y != 4.0 {
		t.Errorf("Velocity = {%v, %v}, want {3.0, 4.0}", vel.X, vel.Y)
	}

	pos.X = 5.0
	pos.Y = 6.0

	pos2 := positionComp.GetFromEntity(e)
	if pos2.X != 5.0 || pos2.Y != 6.0 {
		t.Errorf("Updated Position = {%v, %v}, want {5.0, 6.0}", pos2.X, pos2.Y)
	}
}

func TestDestroyAndSettle(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)

	var entities []Entity
	for i := 0; i < 10; i++ {
		entities = append(entities, w.Spawn([]ComponentInfo{posComp.Info()}))
	}

	for i := 0; i < len(entities); i += 2 {
		if err := w.Destroy(entities[i]); err != nil {
			t.Fatalf("Destroy failed: %v", err)
		}
	}
	w.Settle()

	for i, e := range entities {
		_, _, err := w.Lookup(e)
		if i%2 == 0 {
			if err == nil {
				t.Errorf("entity %d should be destroyed", i)
			}
		} else if err != nil {
			t.Errorf("entity %d should still be alive: %v", i, err)
		}
	}
}

func mustArchetype(t *testing.T, w *World, e Entity) *Archetype {
	t.Helper()
	a, _, err := w.Lookup(e)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	return a
}

func mustRow(t *testing.T, w *World, e Entity) Row {
	t.Helper()
	_, row, err := w.Lookup(e)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	return row
}
