package agent

import (
	"math"
	"sort"
	"sync"
	"time"
)

// MemoryType categorizes a memory item.
type MemoryType string

const (
	MemoryPerception MemoryType = "perception"
	MemoryAction     MemoryType = "action"
	MemoryGoal       MemoryType = "goal"
	MemoryEmotion    MemoryType = "emotion"
	MemoryKnowledge  MemoryType = "knowledge"
)

// MemoryItem is a single timestamped, decaying memory.
type MemoryItem struct {
	ID         string      `json:"id"`
	Type       MemoryType  `json:"type"`
	Data       interface{} `json:"data"`
	Timestamp  time.Time   `json:"timestamp"`
	Importance int         `json:"importance"`
	Accessed   int         `json:"accessed"`
	Strength   float64     `json:"strength"` // [0,1], never increases between writes
}

// Memory maintenance constants.
const (
	consolidationImportance = 7    // short-term items above this are promotion candidates
	consolidationBatch      = 5    // promoted per maintenance pass
	retentionFactor         = 0.8  // strength scale applied on promotion
	shortTermDecayRate      = 0.99 // per hour of age
	longTermDecayRate       = 0.999
	shortTermFloor          = 0.1
	longTermFloor           = 0.05
)

// Memory is the per-agent layered store: a bounded short-term map, a bounded
// long-term map and a bounded episodic sequence.
type Memory struct {
	ShortTerm map[string]*MemoryItem `json:"short_term"`
	LongTerm  map[string]*MemoryItem `json:"long_term"`
	Episodic  []*MemoryItem          `json:"episodic"`

	MaxShortTerm int `json:"max_short_term"`
	MaxLongTerm  int `json:"max_long_term"`
	MaxEpisodic  int `json:"max_episodic"`

	mu sync.RWMutex
}

// NewMemory creates an empty memory with the given container bounds.
func NewMemory(maxShort, maxLong, maxEpisodic int) *Memory {
	return &Memory{
		ShortTerm:    make(map[string]*MemoryItem),
		LongTerm:     make(map[string]*MemoryItem),
		MaxShortTerm: maxShort,
		MaxLongTerm:  maxLong,
		MaxEpisodic:  maxEpisodic,
	}
}

// StoreShortTerm writes an item into short-term memory. If the container
// exceeds its bound the weakest items are evicted until it fits.
func (m *Memory) StoreShortTerm(key string, item *MemoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShortTerm[key] = item
	m.evictWeakest(m.ShortTerm, m.MaxShortTerm)
}

// GetShortTerm returns a short-term item and bumps its access count.
func (m *Memory) GetShortTerm(key string) (*MemoryItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.ShortTerm[key]
	if ok {
		item.Accessed++
	}
	return item, ok
}

// GetLongTerm returns a long-term item and bumps its access count.
func (m *Memory) GetLongTerm(key string) (*MemoryItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.LongTerm[key]
	if ok {
		item.Accessed++
	}
	return item, ok
}

// AppendEpisodic adds an item to the episodic sequence, evicting the oldest
// entries once the bound is exceeded.
func (m *Memory) AppendEpisodic(item *MemoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Episodic = append(m.Episodic, item)
	m.trimEpisodic()
}

// Float reads a numeric short-term value by key, falling back to def when
// the key is absent or not a number. Used for cached scalars such as
// health, energy and restTime.
func (m *Memory) Float(key string, def float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.ShortTerm[key]
	if !ok {
		return def
	}
	switch v := item.Data.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// SetFloat writes a numeric short-term value under key with full strength.
func (m *Memory) SetFloat(key string, value float64, typ MemoryType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShortTerm[key] = &MemoryItem{
		ID:         key,
		Type:       typ,
		Data:       value,
		Timestamp:  time.Now(),
		Importance: 5,
		Strength:   1.0,
	}
	m.evictWeakest(m.ShortTerm, m.MaxShortTerm)
}

// Maintain runs one maintenance pass: consolidation of important short-term
// items into long-term, age-based decay with floor deletion, and bound
// enforcement on every container.
func (m *Memory) Maintain(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consolidate()
	m.decay(now)
	m.evictWeakest(m.ShortTerm, m.MaxShortTerm)
	m.evictWeakest(m.LongTerm, m.MaxLongTerm)
	m.trimEpisodic()
}

// consolidate promotes the top consolidationBatch short-term items whose
// importance exceeds the threshold. An item already present in long-term
// under the same key stays in short-term untouched.
func (m *Memory) consolidate() {
	type candidate struct {
		key  string
		item *MemoryItem
	}
	var candidates []candidate
	for key, item := range m.ShortTerm {
		if item.Importance > consolidationImportance {
			candidates = append(candidates, candidate{key, item})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].item.Importance > candidates[j].item.Importance
	})
	if len(candidates) > consolidationBatch {
		candidates = candidates[:consolidationBatch]
	}
	for _, c := range candidates {
		if _, exists := m.LongTerm[c.key]; exists {
			continue
		}
		promoted := *c.item
		promoted.Strength *= retentionFactor
		m.LongTerm[c.key] = &promoted
		delete(m.ShortTerm, c.key)
	}
}

// decay applies exponential age-based decay and deletes items that fell
// below their container's floor.
func (m *Memory) decay(now time.Time) {
	for key, item := range m.ShortTerm {
		ageHours := now.Sub(item.Timestamp).Hours()
		if ageHours > 0 {
			item.Strength *= math.Pow(shortTermDecayRate, ageHours)
		}
		if item.Strength < shortTermFloor {
			delete(m.ShortTerm, key)
		}
	}
	for key, item := range m.LongTerm {
		ageDays := now.Sub(item.Timestamp).Hours() / 24
		if ageDays > 0 {
			item.Strength *= math.Pow(longTermDecayRate, ageDays)
		}
		if item.Strength < longTermFloor {
			delete(m.LongTerm, key)
		}
	}
}

// evictWeakest removes the lowest-strength items until the map fits its bound.
func (m *Memory) evictWeakest(container map[string]*MemoryItem, max int) {
	if max <= 0 || len(container) <= max {
		return
	}
	type entry struct {
		key      string
		strength float64
	}
	entries := make([]entry, 0, len(container))
	for key, item := range container {
		entries = append(entries, entry{key, item.Strength})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].strength < entries[j].strength
	})
	for _, e := range entries[:len(container)-max] {
		delete(container, e.key)
	}
}

// trimEpisodic drops the oldest entries once the episodic bound is exceeded.
func (m *Memory) trimEpisodic() {
	if m.MaxEpisodic <= 0 || len(m.Episodic) <= m.MaxEpisodic {
		return
	}
	sort.SliceStable(m.Episodic, func(i, j int) bool {
		return m.Episodic[i].Timestamp.Before(m.Episodic[j].Timestamp)
	})
	m.Episodic = m.Episodic[len(m.Episodic)-m.MaxEpisodic:]
}

// Snapshot returns copies of the three containers for safe external reads.
func (m *Memory) Snapshot() (short, long map[string]MemoryItem, episodic []MemoryItem) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	short = make(map[string]MemoryItem, len(m.ShortTerm))
	for k, v := range m.ShortTerm {
		short[k] = *v
	}
	long = make(map[string]MemoryItem, len(m.LongTerm))
	for k, v := range m.LongTerm {
		long[k] = *v
	}
	episodic = make([]MemoryItem, len(m.Episodic))
	for i, v := range m.Episodic {
		episodic[i] = *v
	}
	return short, long, episodic
}

// Sizes returns the current container sizes.
func (m *Memory) Sizes() (short, long, episodic int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ShortTerm), len(m.LongTerm), len(m.Episodic)
}
