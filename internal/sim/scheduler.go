package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/agentsim/internal/agent"
	"github.com/nidhogg/agentsim/internal/behavior"
	"github.com/nidhogg/agentsim/internal/event"
	"github.com/nidhogg/agentsim/internal/fsm"
	"go.uber.org/zap"
)

// ErrPopulationFull is returned by CreateAgent once the population reached
// the configured MaxAgents cap.
var ErrPopulationFull = errors.New("agent population at capacity")

const (
	sensorImportance      = 5
	neuralActionThreshold = 0.5
	learningMinSamples    = 10
)

// GoalConditionFunc evaluates one goal condition against its agent.
type GoalConditionFunc func(a *agent.Agent, g *agent.Goal, c agent.GoalCondition) bool

// DecisionConditionFunc gates a decision network node.
type DecisionConditionFunc func(a *agent.Agent) bool

// DecisionActionFunc is the side effect of a chosen decision node.
type DecisionActionFunc func(a *agent.Agent)

// AgentSpec describes a new agent. Everything but LastUpdate is caller
// supplied; the scheduler registers tree/machine definitions with the
// matching engine based on the brain kind.
type AgentSpec struct {
	ID       string
	Name     string
	Type     agent.Type
	Position agent.Vector3
	Sensors  []*agent.Sensor
	Goals    []*agent.Goal

	BrainKind agent.BrainKind
	Network   *agent.NeuralNetwork
	Decision  *agent.DecisionNetwork

	// Tree root for behavior_tree/hybrid brains.
	TreeRoot *behavior.Node
	// Initial state for state_machine/hybrid brains; defaults to "idle".
	InitialState string
	// ReferenceMachine preloads the reference state set instead of an
	// empty machine.
	ReferenceMachine bool
}

// Scheduler drives the agent population on a fixed tick. It exclusively
// owns the population, the coordination message queue and the learning
// buffer; tree and machine registries belong to the two engines.
type Scheduler struct {
	opts     Options
	agents   map[string]*agent.Agent
	order    []string // insertion order, drives deterministic tick iteration
	trees    *behavior.Engine
	machines *fsm.Engine
	bus      *event.Bus

	queue   []*Message
	qmu     sync.Mutex
	samples []Sample
	lmu     sync.Mutex
	learnFn LearningFunc

	goalConds     map[string]GoalConditionFunc
	decisionConds map[string]DecisionConditionFunc
	decisionActs  map[string]DecisionActionFunc

	ticks  uint64
	cancel context.CancelFunc
	now    func() time.Time
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewScheduler creates a scheduler over the given engines and event bus.
func NewScheduler(opts Options, trees *behavior.Engine, machines *fsm.Engine, bus *event.Bus, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		opts:          opts.withDefaults(),
		agents:        make(map[string]*agent.Agent),
		trees:         trees,
		machines:      machines,
		bus:           bus,
		goalConds:     make(map[string]GoalConditionFunc),
		decisionConds: make(map[string]DecisionConditionFunc),
		decisionActs:  make(map[string]DecisionActionFunc),
		now:           time.Now,
		logger:        logger,
	}
}

// RegisterGoalCondition binds a goal condition evaluator to a kind.
func (s *Scheduler) RegisterGoalCondition(kind string, fn GoalConditionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goalConds[kind] = fn
}

// RegisterDecisionCondition binds a decision node gate to a name.
func (s *Scheduler) RegisterDecisionCondition(name string, fn DecisionConditionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisionConds[name] = fn
}

// RegisterDecisionAction binds a decision node side effect to a name.
func (s *Scheduler) RegisterDecisionAction(name string, fn DecisionActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisionActs[name] = fn
}

// Start begins the tick loop. Calling Start while running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(ctx)
	s.logger.Info("scheduler started",
		zap.Duration("interval", s.opts.UpdateInterval),
		zap.Int("max_agents", s.opts.MaxAgents))
}

// Stop prevents future ticks from being scheduled. A tick already in
// progress runs to completion. Calling Stop while stopped is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		s.logger.Info("scheduler stopped")
	}
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// CreateAgent inserts a new agent and registers it with the engines its
// brain requires. Fails with ErrPopulationFull at the MaxAgents cap.
func (s *Scheduler) CreateAgent(spec AgentSpec) (*agent.Agent, error) {
	s.mu.Lock()
	if len(s.agents) >= s.opts.MaxAgents {
		s.mu.Unlock()
		return nil, ErrPopulationFull
	}

	id := spec.ID
	if id == "" {
		id = uuid.New().String()
	}
	a := &agent.Agent{
		ID:       id,
		Name:     spec.Name,
		Type:     spec.Type,
		Position: spec.Position,
		State:    agent.StateIdle,
		Brain: &agent.Brain{
			Kind:     spec.BrainKind,
			Network:  spec.Network,
			Decision: spec.Decision,
		},
		Memory:     agent.NewMemory(s.opts.ShortTermSize, s.opts.LongTermSize, s.opts.EpisodicSize),
		Sensors:    spec.Sensors,
		Goals:      spec.Goals,
		LastUpdate: s.now(),
	}
	s.agents[id] = a
	s.order = append(s.order, id)
	s.mu.Unlock()

	if a.Brain.UsesTree() {
		s.trees.CreateTree(id, spec.TreeRoot)
	}
	if a.Brain.UsesMachine() {
		if spec.ReferenceMachine {
			fsm.BuildReferenceMachine(s.machines, id)
		} else {
			initial := spec.InitialState
			if initial == "" {
				initial = fsm.RefIdle
			}
			s.machines.CreateMachine(id, initial)
		}
	}

	s.bus.Emit(event.Event{
		Type:    event.AgentCreated,
		AgentID: id,
		Data:    map[string]interface{}{"name": a.Name, "type": string(a.Type), "brain": string(a.Brain.Kind)},
	})
	s.bus.Flush()

	s.logger.Info("agent created",
		zap.String("id", id),
		zap.String("name", a.Name),
		zap.String("brain", string(a.Brain.Kind)))
	return a, nil
}

// RemoveAgent deletes an agent and unregisters it from both engines.
// Returns false when the ID is unknown.
func (s *Scheduler) RemoveAgent(id string) bool {
	s.mu.Lock()
	if _, ok := s.agents[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.agents, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.trees.RemoveTree(id)
	s.machines.RemoveMachine(id)

	s.bus.Emit(event.Event{Type: event.AgentRemoved, AgentID: id})
	s.bus.Flush()

	s.logger.Info("agent removed", zap.String("id", id))
	return true
}

// Agent returns an agent by ID.
func (s *Scheduler) Agent(id string) (*agent.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	return a, ok
}

// Agents returns the population in insertion order.
func (s *Scheduler) Agents() []*agent.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*agent.Agent, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.agents[id])
	}
	return out
}

// AgentsByType filters the population by agent type.
func (s *Scheduler) AgentsByType(t agent.Type) []*agent.Agent {
	var out []*agent.Agent
	for _, a := range s.Agents() {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// AgentsByState filters the population by lifecycle state.
func (s *Scheduler) AgentsByState(st agent.LifecycleState) []*agent.Agent {
	var out []*agent.Agent
	for _, a := range s.Agents() {
		if a.State == st {
			out = append(out, a)
		}
	}
	return out
}

// Stats is a point-in-time snapshot of the scheduler.
type Stats struct {
	Agents          int                            `json:"agents"`
	ByType          map[agent.Type]int             `json:"by_type"`
	ByState         map[agent.LifecycleState]int   `json:"by_state"`
	QueueDepth      int                            `json:"queue_depth"`
	LearningSamples int                            `json:"learning_samples"`
	Ticks           uint64                         `json:"ticks"`
	Running         bool                           `json:"running"`
}

// Stats returns population counts plus queue and buffer depths.
func (s *Scheduler) Stats() Stats {
	agents := s.Agents()
	st := Stats{
		Agents:          len(agents),
		ByType:          make(map[agent.Type]int),
		ByState:         make(map[agent.LifecycleState]int),
		QueueDepth:      s.QueueDepth(),
		LearningSamples: s.SampleCount(),
		Running:         s.Running(),
	}
	for _, a := range agents {
		st.ByType[a.Type]++
		st.ByState[a.State]++
	}
	s.mu.RLock()
	st.Ticks = s.ticks
	s.mu.RUnlock()
	return st
}

// Tick runs one full scheduler pass: per live agent sensors → memory
// maintenance → brain dispatch → goal evaluation, then the message drain,
// the learning pass and the tick summary. Also callable directly by hosts
// that step the simulation themselves.
func (s *Scheduler) Tick() {
	now := s.now()
	agents := s.Agents()

	active := 0
	for _, a := range agents {
		if a.State == agent.StateDead {
			continue
		}
		active++

		dt := now.Sub(a.LastUpdate)
		if dt < 0 {
			dt = 0
		}

		s.runSensors(a, agents, now)
		a.Memory.Maintain(now)
		s.dispatchBrain(a, dt)
		s.evaluateGoals(a, now)
		a.LastUpdate = now

		s.bus.Emit(event.Event{Type: event.AgentUpdated, AgentID: a.ID})
	}

	s.drainMessages(now)
	s.processLearning()

	s.mu.Lock()
	s.ticks++
	ticks := s.ticks
	s.mu.Unlock()

	s.bus.Emit(event.Event{
		Type: event.TickCompleted,
		Data: map[string]interface{}{"active": active, "tick": ticks},
	})
	s.bus.Flush()
}

// runSensors recomputes every due sensor: a proximity query over the
// population split into same-type allies and different-type enemies, written
// into short-term memory under a sensor-scoped key.
func (s *Scheduler) runSensors(a *agent.Agent, population []*agent.Agent, now time.Time) {
	for _, sensor := range a.Sensors {
		if !sensor.Due(now) {
			continue
		}

		var allies, enemies []string
		nearestEnemy := -1.0
		for _, other := range population {
			if other.ID == a.ID || other.State == agent.StateDead {
				continue
			}
			d := a.Position.DistanceTo(other.Position)
			if d > sensor.Range {
				continue
			}
			if other.Type == a.Type {
				allies = append(allies, other.ID)
			} else {
				enemies = append(enemies, other.ID)
				if nearestEnemy < 0 || d < nearestEnemy {
					nearestEnemy = d
				}
			}
		}

		data := map[string]interface{}{
			"allies":  allies,
			"enemies": enemies,
			"count":   len(allies) + len(enemies),
		}
		if nearestEnemy >= 0 {
			data["nearest_enemy_distance"] = nearestEnemy
		}

		sensor.LastReading = &agent.Reading{
			Timestamp:  now,
			Data:       data,
			Confidence: sensor.Accuracy,
			Source:     sensor.ID,
		}

		key := "sensor:" + sensor.ID
		a.Memory.StoreShortTerm(key, &agent.MemoryItem{
			ID:         key,
			Type:       agent.MemoryPerception,
			Data:       data,
			Timestamp:  now,
			Importance: sensorImportance,
			Strength:   sensor.Accuracy,
		})
	}
}

// dispatchBrain runs one decision step for the agent. A missing or
// malformed brain is a silent no-op for the tick.
func (s *Scheduler) dispatchBrain(a *agent.Agent, dt time.Duration) {
	if a.Brain == nil {
		return
	}
	switch a.Brain.Kind {
	case agent.BrainBehaviorTree:
		s.trees.ExecuteTree(a.ID, a)
	case agent.BrainStateMachine:
		s.machines.Update(a.ID, a, dt)
	case agent.BrainHybrid:
		s.trees.ExecuteTree(a.ID, a)
		s.machines.Update(a.ID, a, dt)
	case agent.BrainNeural:
		s.runNeural(a)
	case agent.BrainDecision:
		s.runDecision(a)
	}
}

// runNeural feeds engineered inputs through the network and applies the
// outputs: 0/1 as a position delta, 2 as an action trigger.
func (s *Scheduler) runNeural(a *agent.Agent) {
	nn := a.Brain.Network
	if nn == nil {
		return
	}

	inputs := []float64{
		a.Position.X,
		a.Position.Y,
		a.Position.Z,
		a.Memory.Float("health", 100),
		a.Memory.Float("energy", 100),
		float64(s.nearbyCount(a)),
	}
	out := nn.Forward(inputs)
	if len(out) < 2 {
		return
	}

	a.Position.X += out[0]
	a.Position.Y += out[1]

	if len(out) >= 3 && out[2] > neuralActionThreshold {
		a.State = agent.StateActing
		a.Memory.AppendEpisodic(&agent.MemoryItem{
			ID:         uuid.New().String(),
			Type:       agent.MemoryAction,
			Data:       map[string]interface{}{"trigger": out[2]},
			Timestamp:  s.now(),
			Importance: 5,
			Strength:   1.0,
		})
	}
}

// nearbyCount reads the freshest sensor reading's neighbor count.
func (s *Scheduler) nearbyCount(a *agent.Agent) int {
	var (
		count int
		last  time.Time
	)
	for _, sensor := range a.Sensors {
		r := sensor.LastReading
		if r == nil {
			continue
		}
		if n, ok := r.Data["count"].(int); ok && r.Timestamp.After(last) {
			count = n
			last = r.Timestamp
		}
	}
	return count
}

// runDecision picks the eligible node maximizing weight × confidence (first
// node wins ties) and invokes its registered action.
func (s *Scheduler) runDecision(a *agent.Agent) {
	dn := a.Brain.Decision
	if dn == nil {
		return
	}

	s.mu.RLock()
	conds := s.decisionConds
	acts := s.decisionActs
	s.mu.RUnlock()

	best := dn.Best(func(n *agent.DecisionNode) bool {
		if n.ConditionRef == "" {
			return true
		}
		fn, ok := conds[n.ConditionRef]
		return ok && fn(a)
	})
	if best == nil || best.ActionRef == "" {
		return
	}
	if fn, ok := acts[best.ActionRef]; ok {
		fn(a)
	}
}

// evaluateGoals completes a goal when every condition holds, fails it past
// its deadline, and leaves it unchanged otherwise. Terminal goals are
// skipped.
func (s *Scheduler) evaluateGoals(a *agent.Agent, now time.Time) {
	s.mu.RLock()
	conds := s.goalConds
	s.mu.RUnlock()

	for _, g := range a.Goals {
		if g.Terminal() {
			continue
		}

		met := true
		for _, c := range g.Conditions {
			fn, ok := conds[c.Kind]
			if !ok || !fn(a, g, c) {
				met = false
				break
			}
		}

		switch {
		case met:
			g.Status = agent.GoalCompleted
			s.bus.Emit(event.Event{
				Type:    event.GoalCompleted,
				AgentID: a.ID,
				Data:    map[string]interface{}{"goal": g.ID, "reward": g.Reward},
			})
		case g.Deadline != nil && now.After(*g.Deadline):
			g.Status = agent.GoalFailed
			s.bus.Emit(event.Event{
				Type:    event.GoalFailed,
				AgentID: a.ID,
				Data:    map[string]interface{}{"goal": g.ID},
			})
		}
	}
}
