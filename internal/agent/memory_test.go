package agent

import (
	"fmt"
	"testing"
	"time"
)

func item(typ MemoryType, importance int, strength float64, age time.Duration) *MemoryItem {
	return &MemoryItem{
		ID:         "i",
		Type:       typ,
		Data:       "payload",
		Timestamp:  time.Now().Add(-age),
		Importance: importance,
		Strength:   strength,
	}
}

func TestShortTermCapacityEvictsWeakest(t *testing.T) {
	m := NewMemory(3, 10, 10)
	m.StoreShortTerm("a", item(MemoryPerception, 5, 0.9, 0))
	m.StoreShortTerm("b", item(MemoryPerception, 5, 0.2, 0))
	m.StoreShortTerm("c", item(MemoryPerception, 5, 0.7, 0))
	m.StoreShortTerm("d", item(MemoryPerception, 5, 0.5, 0))

	short, _, _ := m.Sizes()
	if short != 3 {
		t.Fatalf("short-term size = %d, want 3", short)
	}
	if _, ok := m.GetShortTerm("b"); ok {
		t.Fatal("weakest item survived eviction")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := m.GetShortTerm(key); !ok {
			t.Fatalf("item %q evicted, want kept", key)
		}
	}
}

func TestDecayIsMonotonicAndFloored(t *testing.T) {
	m := NewMemory(10, 10, 10)
	m.StoreShortTerm("fresh", item(MemoryPerception, 5, 1.0, time.Hour))
	m.StoreShortTerm("stale", item(MemoryPerception, 5, 1.0, 300*time.Hour))

	m.Maintain(time.Now())

	fresh, ok := m.GetShortTerm("fresh")
	if !ok {
		t.Fatal("fresh item removed")
	}
	if fresh.Strength >= 1.0 || fresh.Strength < 0.98 {
		t.Fatalf("fresh strength = %v, want ~0.99 after one hour", fresh.Strength)
	}
	// 0.99^300 ≈ 0.049, below the 0.1 floor.
	if _, ok := m.GetShortTerm("stale"); ok {
		t.Fatal("stale item survived floor removal")
	}
}

func TestLongTermDecaysSlower(t *testing.T) {
	m := NewMemory(10, 10, 10)
	age := 240 * time.Hour // ten days
	m.ShortTerm["x"] = item(MemoryKnowledge, 5, 1.0, age)
	m.LongTerm["y"] = item(MemoryKnowledge, 5, 1.0, age)

	m.Maintain(time.Now())

	long, ok := m.GetLongTerm("y")
	if !ok {
		t.Fatal("long-term item removed")
	}
	// 0.999^10 ≈ 0.990 for long-term vs 0.99^240 ≈ 0.09 for short-term.
	if long.Strength < 0.98 {
		t.Fatalf("long-term strength = %v, want near 0.99 after ten days", long.Strength)
	}
	if _, ok := m.GetShortTerm("x"); ok {
		t.Fatal("short-term item at same age should have decayed below the floor")
	}
}

func TestConsolidationPromotesImportantItems(t *testing.T) {
	m := NewMemory(20, 20, 20)
	start := time.Now()
	for i := 0; i < 7; i++ {
		m.StoreShortTerm(fmt.Sprintf("imp%d", i), item(MemoryKnowledge, 8+i%2, 1.0, 0))
	}
	m.StoreShortTerm("mundane", item(MemoryPerception, 5, 1.0, 0))

	// Maintenance clocked at start so zero-age items see no decay.
	m.Maintain(start)

	short, long, _ := m.Sizes()
	if long != 5 {
		t.Fatalf("long-term size = %d, want 5 (batch limit)", long)
	}
	if short != 3 {
		t.Fatalf("short-term size = %d, want 3 (two candidates left + mundane)", short)
	}
	if _, ok := m.GetShortTerm("mundane"); !ok {
		t.Fatal("item at importance 5 should not be promoted")
	}

	shortSnap, longSnap, _ := m.Snapshot()
	for key, it := range longSnap {
		if it.Strength != retentionFactor {
			t.Fatalf("promoted %q strength = %v, want %v", key, it.Strength, retentionFactor)
		}
		if _, still := shortSnap[key]; still {
			t.Fatalf("promoted %q still present in short-term", key)
		}
	}
}

func TestConsolidationSkipsExistingLongTermKey(t *testing.T) {
	m := NewMemory(20, 20, 20)
	start := time.Now()
	m.LongTerm["dup"] = item(MemoryKnowledge, 9, 0.4, 0)
	m.StoreShortTerm("dup", item(MemoryKnowledge, 9, 1.0, 0))

	m.Maintain(start)

	long, _ := m.GetLongTerm("dup")
	if long.Strength != 0.4 {
		t.Fatalf("existing long-term item overwritten: strength = %v", long.Strength)
	}
	if _, ok := m.GetShortTerm("dup"); !ok {
		t.Fatal("short-term duplicate removed, want kept")
	}
}

func TestEpisodicTrimsOldestFirst(t *testing.T) {
	m := NewMemory(10, 10, 3)
	for i := 0; i < 5; i++ {
		m.AppendEpisodic(&MemoryItem{
			ID:        fmt.Sprintf("e%d", i),
			Type:      MemoryAction,
			Timestamp: time.Now().Add(time.Duration(i) * time.Minute),
			Strength:  1.0,
		})
	}

	_, _, episodic := m.Snapshot()
	if len(episodic) != 3 {
		t.Fatalf("episodic size = %d, want 3", len(episodic))
	}
	for i, it := range episodic {
		want := fmt.Sprintf("e%d", i+2)
		if it.ID != want {
			t.Fatalf("episodic[%d] = %q, want %q (oldest trimmed)", i, it.ID, want)
		}
	}
}

func TestFloatRoundTripAndDefault(t *testing.T) {
	m := NewMemory(10, 10, 10)
	if got := m.Float("missing", 42); got != 42 {
		t.Fatalf("Float default = %v, want 42", got)
	}
	m.SetFloat("health", 73.5, MemoryKnowledge)
	if got := m.Float("health", 0); got != 73.5 {
		t.Fatalf("Float = %v, want 73.5", got)
	}
	m.StoreShortTerm("text", item(MemoryKnowledge, 5, 1.0, 0))
	if got := m.Float("text", 7); got != 7 {
		t.Fatalf("Float on non-numeric = %v, want default 7", got)
	}
}

func TestGetBumpsAccessCount(t *testing.T) {
	m := NewMemory(10, 10, 10)
	m.StoreShortTerm("k", item(MemoryPerception, 5, 1.0, 0))
	m.GetShortTerm("k")
	m.GetShortTerm("k")
	it, _ := m.GetShortTerm("k")
	if it.Accessed != 3 {
		t.Fatalf("accessed = %d, want 3", it.Accessed)
	}
}
