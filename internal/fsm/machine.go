package fsm

import (
	"time"

	"github.com/nidhogg/agentsim/internal/agent"
)

// Wildcard matches any source state in a transition.
const Wildcard = "*"

// State is a named machine state. Hook references resolve through the
// engine's handler table; the declarative Conditions list is carried for
// custom evaluators and unused by the built-in one.
type State struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	OnEnterRef  string   `json:"on_enter_ref,omitempty"`
	OnUpdateRef string   `json:"on_update_ref,omitempty"`
	OnExitRef   string   `json:"on_exit_ref,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
}

// Transition moves a machine from one state to another when its condition
// holds. From may be a concrete state ID or the wildcard.
type Transition struct {
	ID           string `json:"id"`
	From         string `json:"from"`
	To           string `json:"to"`
	ConditionRef string `json:"condition_ref"`
	ActionRef    string `json:"action_ref,omitempty"`
	Priority     int    `json:"priority"`
}

// Machine is one agent's state machine. Transitions stay sorted by
// descending priority; evaluation takes the first satisfied one.
type Machine struct {
	ID          string                 `json:"id"`
	Current     string                 `json:"current"`
	States      map[string]*State      `json:"states"`
	Transitions []*Transition          `json:"transitions"`
	Globals     map[string]interface{} `json:"globals"`
}

// Context is what registered handlers see: the agent being updated and the
// machine driving it.
type Context struct {
	Agent   *agent.Agent
	Machine *Machine
}

// HookFunc is a registered state hook (enter, update or exit).
type HookFunc func(c *Context, dt time.Duration)

// CondFunc is a registered transition condition.
type CondFunc func(c *Context) bool

// ActionFunc is a registered transition side effect.
type ActionFunc func(c *Context)
