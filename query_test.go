package archtype

import (
	"testing"
)

// TestQueryFiltering tests With/Without/Or filter combinations against a
// fixed population of archetypes.
func TestQueryFiltering(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)
	velComp := FactoryNewComponent[Velocity](w)
	healthComp := FactoryNewComponent[Health](w)

	spawnN := func(n int, infos ...ComponentInfo) {
		for i := 0; i < n; i++ {
			w.Spawn(infos)
		}
	}

	spawnN(5, posComp.Info(), velComp.Info())
	spawnN(10, posComp.Info())
	spawnN(15, velComp.Info())
	spawnN(20, healthComp.Info())

	// Normal-mode iteration excludes rows written this same tick (spec.md
	// §4.6 self-feedback rule), so spawns must clear one epoch before a
	// plain query can see them.
	w.Advance()

	countMatches := func(opts ...QueryOption) int {
		qs := NewQueryState(w, opts...)
		n := 0
		it := qs.Iter()
		for it.Next() {
			n++
		}
		return n
	}

	if got := countMatches(With(posComp.Info(), velComp.Info())); got != 5 {
		t.Errorf("With(pos,vel) matched %d, want 5", got)
	}
	if got := countMatches(Or(posComp.Info(), velComp.Info())); got != 30 {
		t.Errorf("Or(pos,vel) matched %d, want 30", got)
	}
	if got := countMatches(With(posComp.Info()), Without(velComp.Info())); got != 10 {
		t.Errorf("With(pos) Without(vel) matched %d, want 10", got)
	}
}

// TestQueryComponentAccess verifies reads/writes through an Iter land in
// the right row.
func TestQueryComponentAccess(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)
	velComp := FactoryNewComponent[Velocity](w)

	for i := 0; i < 10; i++ {
		e := w.Spawn([]ComponentInfo{posComp.Info(), velComp.Info()})
		a, row, err := w.Lookup(e)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		posComp.SetAt(a, row, Position{X: float64(i), Y: float64(i * 2)})
		velComp.SetAt(a, row, Velocity{X: float64(i) * 0.1, Y: float64(i) * 0.2})
	}

	// Normal-mode iteration excludes rows touched this same tick.
	w.Advance()

	qs := NewQueryState(w, Write(posComp.Info()), Read(velComp.Info()))
	it := qs.Iter()
	for it.Next() {
		pos := posComp.GetFromIter(it)
		vel := velComp.GetFromIter(it)
		pos.X += vel.X
		pos.Y += vel.Y
	}

	qs2 := NewQueryState(w, Read(posComp.Info()), Read(velComp.Info()))
	it2 := qs2.Iter()
	seen := 0
	for it2.Next() {
		pos := posComp.GetFromIter(it2)
		vel := velComp.GetFromIter(it2)
		if !almostEqual(pos.X-vel.X, vel.X*10, 0.0001) {
			t.Errorf("Position.X=%v Velocity.X=%v doesn't match expected pattern", pos.X, vel.X)
		}
		seen++
	}
	if seen != 10 {
		t.Errorf("saw %d rows, want 10", seen)
	}
}

// TestQueryChangedFilter verifies a Changed<T> query only yields rows
// written since the query's last iteration pass.
func TestQueryChangedFilter(t *testing.T) {
	w := NewWorld()
	posComp := FactoryNewComponent[Position](w)

	var entities []Entity
	for i := 0; i < 5; i++ {
		entities = append(entities, w.Spawn([]ComponentInfo{posComp.Info()}))
	}

	qs := NewQueryState(w, Changed(posComp.Info()))

	// Every component was added-but-not-changed; a Changed query should see
	// nothing until a write happens.
	it := qs.Iter()
	count := 0
	for it.Next() {
		count++
	}
	if count != 0 {
		t.Errorf("fresh Changed query matched %d rows before any write, want 0", count)
	}

	w.Advance()
	a, row, err := w.Lookup(entities[0])
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	posComp.SetAt(a, row, Position{X: 1, Y: 1})
	w.Advance()

	it2 := qs.Iter()
	count = 0
	for it2.Next() {
		if it2.Entity() != entities[0] {
			t.Errorf("unexpected entity in Changed result")
		}
		count++
	}
	if count != 1 {
		t.Errorf("Changed query matched %d rows after one write, want 1", count)
	}
}

// Helper function for float comparisons
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
