package agent

import (
	"math"
	"time"
)

// Type classifies an agent. It is descriptive only; the scheduler does not
// branch on it.
type Type string

const (
	TypeAutonomous Type = "autonomous"
	TypeReactive   Type = "reactive"
	TypeHybrid     Type = "hybrid"
	TypeScripted   Type = "scripted"
)

// LifecycleState is the coarse activity tag of an agent.
type LifecycleState string

const (
	StateIdle          LifecycleState = "idle"
	StateActive        LifecycleState = "active"
	StateThinking      LifecycleState = "thinking"
	StateActing        LifecycleState = "acting"
	StateLearning      LifecycleState = "learning"
	StateCommunicating LifecycleState = "communicating"
	StateDead          LifecycleState = "dead"
)

// Vector3 is a position in world space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the euclidean distance between two points.
func (v Vector3) DistanceTo(o Vector3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Add returns the component-wise sum of two vectors.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Agent is a single simulated entity. The scheduler owns the population;
// tree and machine definitions live in their engines, keyed by agent ID.
type Agent struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       Type           `json:"type"`
	Position   Vector3        `json:"position"`
	State      LifecycleState `json:"state"`
	Brain      *Brain         `json:"brain,omitempty"`
	Memory     *Memory        `json:"memory,omitempty"`
	Sensors    []*Sensor      `json:"sensors,omitempty"`
	Goals      []*Goal        `json:"goals,omitempty"`
	LastUpdate time.Time      `json:"last_update"`
}

// Reading is the last sample taken by a sensor.
type Reading struct {
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data"`
	Confidence float64                `json:"confidence"`
	Source     string                 `json:"source"`
}

// Sensor is a rate-limited perception channel.
type Sensor struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Range       float64  `json:"range"`
	Accuracy    float64  `json:"accuracy"`
	UpdateRate  float64  `json:"update_rate"` // Hz
	Enabled     bool     `json:"enabled"`
	LastReading *Reading `json:"last_reading,omitempty"`
}

// Due reports whether the sensor may re-sample: at least 1000/UpdateRate
// milliseconds must have elapsed since the last reading.
func (s *Sensor) Due(now time.Time) bool {
	if !s.Enabled || s.UpdateRate <= 0 {
		return false
	}
	if s.LastReading == nil {
		return true
	}
	minGap := time.Duration(1000/s.UpdateRate) * time.Millisecond
	return now.Sub(s.LastReading.Timestamp) >= minGap
}

// GoalStatus is the lifecycle of a goal instance.
type GoalStatus string

const (
	GoalPending   GoalStatus = "pending"
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
	GoalAbandoned GoalStatus = "abandoned"
)

// GoalCondition references a registered evaluator by kind. All conditions
// must hold for the goal to complete.
type GoalCondition struct {
	ID     string                 `json:"id"`
	Kind   string                 `json:"kind"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Goal is a desired outcome tracked by the scheduler each tick.
type Goal struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Priority   int             `json:"priority"`
	Target     *Vector3        `json:"target,omitempty"`
	Conditions []GoalCondition `json:"conditions,omitempty"`
	Status     GoalStatus      `json:"status"`
	Deadline   *time.Time      `json:"deadline,omitempty"`
	Reward     float64         `json:"reward"`
}

// Terminal reports whether the goal has reached a final status.
func (g *Goal) Terminal() bool {
	return g.Status == GoalCompleted || g.Status == GoalFailed
}
