package fsm

import (
	"sort"
	"sync"
	"time"

	"github.com/nidhogg/agentsim/internal/agent"
	"github.com/nidhogg/agentsim/internal/event"
	"go.uber.org/zap"
)

// Engine owns state machines keyed by agent ID plus the handler tables that
// states and transitions resolve their references against.
type Engine struct {
	machines   map[string]*Machine
	hooks      map[string]HookFunc
	conditions map[string]CondFunc
	actions    map[string]ActionFunc
	bus        *event.Bus
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewEngine creates a state machine engine.
func NewEngine(bus *event.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		machines:   make(map[string]*Machine),
		hooks:      make(map[string]HookFunc),
		conditions: make(map[string]CondFunc),
		actions:    make(map[string]ActionFunc),
		bus:        bus,
		logger:     logger,
	}
}

// RegisterHook binds a state hook to a name.
func (e *Engine) RegisterHook(name string, fn HookFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks[name] = fn
}

// RegisterCondition binds a transition condition to a name.
func (e *Engine) RegisterCondition(name string, fn CondFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conditions[name] = fn
}

// RegisterAction binds a transition action to a name.
func (e *Engine) RegisterAction(name string, fn ActionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[name] = fn
}

// CreateMachine registers a machine for an agent in the given initial state.
func (e *Engine) CreateMachine(id, initialState string) *Machine {
	m := &Machine{
		ID:      id,
		Current: initialState,
		States:  make(map[string]*State),
		Globals: make(map[string]interface{}),
	}
	e.mu.Lock()
	e.machines[id] = m
	e.mu.Unlock()

	e.bus.Emit(event.Event{
		Type:    event.MachineCreated,
		AgentID: id,
		Data:    map[string]interface{}{"initial": initialState},
	})
	e.logger.Debug("state machine created",
		zap.String("agent", id),
		zap.String("initial", initialState))
	return m
}

// AddState registers a state on a machine.
func (e *Engine) AddState(id string, s *State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.machines[id]
	if !ok {
		return false
	}
	m.States[s.ID] = s
	return true
}

// AddTransition registers a transition, keeping the list sorted by
// descending priority. Insertion order breaks ties.
func (e *Engine) AddTransition(id string, t *Transition) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.machines[id]
	if !ok {
		return false
	}
	m.Transitions = append(m.Transitions, t)
	sort.SliceStable(m.Transitions, func(i, j int) bool {
		return m.Transitions[i].Priority > m.Transitions[j].Priority
	})
	return true
}

// Update performs one evaluation step: the first satisfied transition with a
// matching source and different target fires exit → switch → enter → action;
// otherwise the current state's update hook runs. Returns false when the
// machine or its current state is missing.
func (e *Engine) Update(id string, a *agent.Agent, dt time.Duration) bool {
	e.mu.RLock()
	m, ok := e.machines[id]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	current, ok := m.States[m.Current]
	if !ok {
		return false
	}

	c := &Context{Agent: a, Machine: m}

	for _, t := range m.Transitions {
		if t.From != m.Current && t.From != Wildcard {
			continue
		}
		if t.To == m.Current {
			continue
		}
		cond := e.condition(t.ConditionRef)
		if cond == nil || !cond(c) {
			continue
		}

		e.runHook(current.OnExitRef, c, dt)
		from := m.Current
		m.Current = t.To
		if next, ok := m.States[t.To]; ok {
			e.runHook(next.OnEnterRef, c, dt)
		}
		if act := e.action(t.ActionRef); act != nil {
			act(c)
		}

		e.bus.Emit(event.Event{
			Type:    event.StateChanged,
			AgentID: id,
			Data:    map[string]interface{}{"from": from, "to": t.To, "transition": t.ID},
		})
		e.logger.Debug("state changed",
			zap.String("agent", id),
			zap.String("from", from),
			zap.String("to", t.To))
		e.emitUpdated(id, m.Current)
		return true
	}

	e.runHook(current.OnUpdateRef, c, dt)
	e.emitUpdated(id, m.Current)
	return true
}

func (e *Engine) emitUpdated(id, current string) {
	e.bus.Emit(event.Event{
		Type:    event.MachineUpdated,
		AgentID: id,
		Data:    map[string]interface{}{"state": current},
	})
}

// CurrentState returns a machine's current state ID.
func (e *Engine) CurrentState(id string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.machines[id]
	if !ok {
		return "", false
	}
	return m.Current, true
}

// GlobalVar reads a machine-scoped variable.
func (e *Engine) GlobalVar(id, key string) (interface{}, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.machines[id]
	if !ok {
		return nil, false
	}
	v, ok := m.Globals[key]
	return v, ok
}

// SetGlobalVar writes a machine-scoped variable.
func (e *Engine) SetGlobalVar(id, key string, value interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.machines[id]
	if !ok {
		return false
	}
	m.Globals[key] = value
	return true
}

// Machine returns the machine registered for an agent.
func (e *Engine) Machine(id string) (*Machine, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.machines[id]
	return m, ok
}

// RemoveMachine unregisters an agent's machine, reporting whether one existed.
func (e *Engine) RemoveMachine(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.machines[id]; !ok {
		return false
	}
	delete(e.machines, id)
	return true
}

// Machines returns all registered machines.
func (e *Engine) Machines() []*Machine {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Machine, 0, len(e.machines))
	for _, m := range e.machines {
		out = append(out, m)
	}
	return out
}

func (e *Engine) runHook(ref string, c *Context, dt time.Duration) {
	if ref == "" {
		return
	}
	e.mu.RLock()
	fn, ok := e.hooks[ref]
	e.mu.RUnlock()
	if ok {
		fn(c, dt)
	}
}

func (e *Engine) condition(ref string) CondFunc {
	if ref == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conditions[ref]
}

func (e *Engine) action(ref string) ActionFunc {
	if ref == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.actions[ref]
}
