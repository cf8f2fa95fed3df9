package behavior

import "time"

// Blackboard is the per-tree scratch space for node-local state such as
// decorator timers and cached targets. Ticks are serialized, so access is
// not synchronized.
type Blackboard struct {
	data      map[string]interface{}
	updatedAt time.Time
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]interface{})}
}

// Get returns the value stored under key.
func (b *Blackboard) Get(key string) (interface{}, bool) {
	v, ok := b.data[key]
	return v, ok
}

// GetTime returns a stored time.Time, or the zero time when absent.
func (b *Blackboard) GetTime(key string) (time.Time, bool) {
	if v, ok := b.data[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Set stores a value and stamps the blackboard.
func (b *Blackboard) Set(key string, value interface{}) {
	b.data[key] = value
	b.updatedAt = time.Now()
}

// Delete removes a key.
func (b *Blackboard) Delete(key string) {
	delete(b.data, key)
	b.updatedAt = time.Now()
}

// UpdatedAt returns the time of the last write.
func (b *Blackboard) UpdatedAt() time.Time { return b.updatedAt }
