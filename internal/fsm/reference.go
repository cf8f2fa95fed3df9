package fsm

import (
	"time"

	"github.com/nidhogg/agentsim/internal/agent"
)

// Reference state set: a small combat-style machine shipped as example
// content. The engine itself only needs the generic evaluator; callers are
// free to define entirely different states and handlers.

// Reference state IDs.
const (
	RefIdle   = "idle"
	RefPatrol = "patrol"
	RefChase  = "chase"
	RefAttack = "attack"
	RefFlee   = "flee"
	RefSearch = "search"
	RefDead   = "dead"
)

const (
	refAttackDistance = 5.0
	refFleeHealth     = 25.0
	refRecoverHealth  = 50.0
	refRestMs         = 3000.0
	refSearchMs       = 5000.0
)

// RegisterReferenceHandlers installs the hook, condition and action handlers
// used by the reference machine. Scalars such as restTime and health live in
// the agent's short-term memory.
func RegisterReferenceHandlers(e *Engine) {
	e.RegisterHook("ref.idle.update", func(c *Context, dt time.Duration) {
		rest := c.Agent.Memory.Float("restTime", 0)
		c.Agent.Memory.SetFloat("restTime", rest+float64(dt.Milliseconds()), agent.MemoryKnowledge)
	})
	e.RegisterHook("ref.patrol.enter", func(c *Context, dt time.Duration) {
		c.Agent.Memory.SetFloat("restTime", 0, agent.MemoryKnowledge)
		c.Agent.State = agent.StateActive
	})
	e.RegisterHook("ref.search.enter", func(c *Context, dt time.Duration) {
		c.Agent.Memory.SetFloat("searchTime", 0, agent.MemoryKnowledge)
	})
	e.RegisterHook("ref.search.update", func(c *Context, dt time.Duration) {
		t := c.Agent.Memory.Float("searchTime", 0)
		c.Agent.Memory.SetFloat("searchTime", t+float64(dt.Milliseconds()), agent.MemoryKnowledge)
	})
	e.RegisterHook("ref.dead.enter", func(c *Context, dt time.Duration) {
		c.Agent.State = agent.StateDead
	})

	e.RegisterCondition("ref.rested", func(c *Context) bool {
		return c.Agent.Memory.Float("restTime", 0) > refRestMs
	})
	e.RegisterCondition("ref.enemy_spotted", func(c *Context) bool {
		d, ok := nearestEnemyDistance(c.Agent)
		return ok && d > refAttackDistance
	})
	e.RegisterCondition("ref.enemy_close", func(c *Context) bool {
		d, ok := nearestEnemyDistance(c.Agent)
		return ok && d <= refAttackDistance
	})
	e.RegisterCondition("ref.enemy_lost", func(c *Context) bool {
		_, ok := nearestEnemyDistance(c.Agent)
		return !ok
	})
	e.RegisterCondition("ref.low_health", func(c *Context) bool {
		return c.Agent.Memory.Float("health", 100) < refFleeHealth
	})
	e.RegisterCondition("ref.recovered", func(c *Context) bool {
		return c.Agent.Memory.Float("health", 100) > refRecoverHealth
	})
	e.RegisterCondition("ref.no_health", func(c *Context) bool {
		return c.Agent.Memory.Float("health", 100) <= 0
	})
	e.RegisterCondition("ref.search_exhausted", func(c *Context) bool {
		return c.Agent.Memory.Float("searchTime", 0) > refSearchMs
	})
}

// BuildReferenceMachine creates a machine for the agent preloaded with the
// reference states and transition table, starting in idle.
func BuildReferenceMachine(e *Engine, id string) *Machine {
	m := e.CreateMachine(id, RefIdle)

	states := []*State{
		{ID: RefIdle, Name: "Idle", OnUpdateRef: "ref.idle.update"},
		{ID: RefPatrol, Name: "Patrol", OnEnterRef: "ref.patrol.enter"},
		{ID: RefChase, Name: "Chase"},
		{ID: RefAttack, Name: "Attack"},
		{ID: RefFlee, Name: "Flee"},
		{ID: RefSearch, Name: "Search", OnEnterRef: "ref.search.enter", OnUpdateRef: "ref.search.update"},
		{ID: RefDead, Name: "Dead", OnEnterRef: "ref.dead.enter"},
	}
	for _, s := range states {
		e.AddState(id, s)
	}

	transitions := []*Transition{
		{ID: "any-dead", From: Wildcard, To: RefDead, ConditionRef: "ref.no_health", Priority: 100},
		{ID: "any-flee", From: Wildcard, To: RefFlee, ConditionRef: "ref.low_health", Priority: 90},
		{ID: "chase-attack", From: RefChase, To: RefAttack, ConditionRef: "ref.enemy_close", Priority: 50},
		{ID: "attack-chase", From: RefAttack, To: RefChase, ConditionRef: "ref.enemy_spotted", Priority: 45},
		{ID: "patrol-chase", From: RefPatrol, To: RefChase, ConditionRef: "ref.enemy_spotted", Priority: 40},
		{ID: "chase-search", From: RefChase, To: RefSearch, ConditionRef: "ref.enemy_lost", Priority: 30},
		{ID: "attack-search", From: RefAttack, To: RefSearch, ConditionRef: "ref.enemy_lost", Priority: 30},
		{ID: "flee-search", From: RefFlee, To: RefSearch, ConditionRef: "ref.recovered", Priority: 20},
		{ID: "search-idle", From: RefSearch, To: RefIdle, ConditionRef: "ref.search_exhausted", Priority: 15},
		{ID: "idle-patrol", From: RefIdle, To: RefPatrol, ConditionRef: "ref.rested", Priority: 10},
	}
	for _, t := range transitions {
		e.AddTransition(id, t)
	}
	return m
}

// nearestEnemyDistance reads the freshest sensor reading that reported an
// enemy and returns the recorded distance.
func nearestEnemyDistance(a *agent.Agent) (float64, bool) {
	var (
		best  float64
		found bool
		last  time.Time
	)
	for _, s := range a.Sensors {
		r := s.LastReading
		if r == nil || r.Data == nil {
			continue
		}
		d, ok := r.Data["nearest_enemy_distance"].(float64)
		if !ok {
			continue
		}
		if !found || r.Timestamp.After(last) {
			best = d
			found = true
			last = r.Timestamp
		}
	}
	return best, found
}
