package sim

import (
	"time"

	"github.com/nidhogg/agentsim/internal/agent"
)

// Sample is one learning observation for the ring buffer.
type Sample struct {
	AgentID   string    `json:"agent_id"`
	Inputs    []float64 `json:"inputs"`
	Targets   []float64 `json:"targets,omitempty"`
	Reward    float64   `json:"reward"`
	Timestamp time.Time `json:"timestamp"`
}

// LearningFunc is the pluggable weight-update hook invoked for every
// neural-network agent once enough samples accumulated. There is no
// built-in learning rule.
type LearningFunc func(a *agent.Agent, samples []Sample, rate float64)

// SetLearningFunc installs the weight-update hook.
func (s *Scheduler) SetLearningFunc(fn LearningFunc) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.learnFn = fn
}

// AddSample appends to the learning ring buffer, dropping the oldest samples
// beyond the configured MemorySize. Safe to call from outside the tick.
func (s *Scheduler) AddSample(sample Sample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.samples = append(s.samples, sample)
	if len(s.samples) > s.opts.MemorySize {
		s.samples = s.samples[len(s.samples)-s.opts.MemorySize:]
	}
}

// SampleCount returns the current learning buffer size.
func (s *Scheduler) SampleCount() int {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	return len(s.samples)
}

// processLearning invokes the hook for every neural-network agent once the
// buffer holds at least learningMinSamples samples.
func (s *Scheduler) processLearning() {
	s.lmu.Lock()
	fn := s.learnFn
	samples := make([]Sample, len(s.samples))
	copy(samples, s.samples)
	s.lmu.Unlock()

	if fn == nil || len(samples) < learningMinSamples {
		return
	}
	for _, a := range s.Agents() {
		if a.Brain != nil && a.Brain.Kind == agent.BrainNeural {
			fn(a, samples, s.opts.LearningRate)
		}
	}
}
