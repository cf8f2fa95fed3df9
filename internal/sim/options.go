package sim

import "time"

// Options configures the scheduler.
type Options struct {
	MaxAgents         int           `json:"max_agents"`      // hard population cap
	UpdateInterval    time.Duration `json:"update_interval"` // tick period
	LearningRate      float64       `json:"learning_rate"`   // consumed by the learning hook
	MemorySize        int           `json:"memory_size"`     // learning ring-buffer bound
	DecisionThreshold float64       `json:"decision_threshold"`

	// Per-agent memory container bounds.
	ShortTermSize int `json:"short_term_size"`
	LongTermSize  int `json:"long_term_size"`
	EpisodicSize  int `json:"episodic_size"`
}

// DefaultOptions returns the scheduler defaults.
func DefaultOptions() Options {
	return Options{
		MaxAgents:         100,
		UpdateInterval:    100 * time.Millisecond,
		LearningRate:      0.01,
		MemorySize:        1000,
		DecisionThreshold: 0.5,
		ShortTermSize:     50,
		LongTermSize:      200,
		EpisodicSize:      100,
	}
}

// withDefaults fills zero-valued fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxAgents <= 0 {
		o.MaxAgents = def.MaxAgents
	}
	if o.UpdateInterval <= 0 {
		o.UpdateInterval = def.UpdateInterval
	}
	if o.LearningRate == 0 {
		o.LearningRate = def.LearningRate
	}
	if o.MemorySize <= 0 {
		o.MemorySize = def.MemorySize
	}
	if o.DecisionThreshold == 0 {
		o.DecisionThreshold = def.DecisionThreshold
	}
	if o.ShortTermSize <= 0 {
		o.ShortTermSize = def.ShortTermSize
	}
	if o.LongTermSize <= 0 {
		o.LongTermSize = def.LongTermSize
	}
	if o.EpisodicSize <= 0 {
		o.EpisodicSize = def.EpisodicSize
	}
	return o
}
