package behavior

import (
	"fmt"
	"sync"
	"time"

	"github.com/nidhogg/agentsim/internal/agent"
	"github.com/nidhogg/agentsim/internal/event"
	"go.uber.org/zap"
)

// ActionFunc is a registered action handler. It may return Running to keep
// the node in flight across ticks; a non-nil error degrades the node to
// Failure.
type ActionFunc func(a *agent.Agent, bb *Blackboard) (Status, error)

// ConditionFunc is a registered condition handler.
type ConditionFunc func(a *agent.Agent, bb *Blackboard) (bool, error)

// Tree pairs an immutable node structure with its mutable blackboard.
type Tree struct {
	AgentID string
	Root    *Node
	BB      *Blackboard
	Status  Status
}

// Engine owns behavior trees keyed by agent ID plus the handler tables that
// leaf nodes resolve their action/condition references against.
type Engine struct {
	trees      map[string]*Tree
	actions    map[string]ActionFunc
	conditions map[string]ConditionFunc
	bus        *event.Bus
	now        func() time.Time
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewEngine creates a behavior tree engine.
func NewEngine(bus *event.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		trees:      make(map[string]*Tree),
		actions:    make(map[string]ActionFunc),
		conditions: make(map[string]ConditionFunc),
		bus:        bus,
		now:        time.Now,
		logger:     logger,
	}
}

// RegisterAction binds an action handler to a name.
func (e *Engine) RegisterAction(name string, fn ActionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[name] = fn
}

// RegisterCondition binds a condition handler to a name.
func (e *Engine) RegisterCondition(name string, fn ConditionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conditions[name] = fn
}

// CreateTree registers a tree for an agent with a fresh blackboard. An
// existing tree for the same agent is replaced.
func (e *Engine) CreateTree(agentID string, root *Node) *Tree {
	tree := &Tree{
		AgentID: agentID,
		Root:    root,
		BB:      NewBlackboard(),
		Status:  StatusInvalid,
	}
	e.mu.Lock()
	e.trees[agentID] = tree
	e.mu.Unlock()

	e.bus.Emit(event.Event{Type: event.TreeCreated, AgentID: agentID})
	e.logger.Debug("behavior tree created", zap.String("agent", agentID))
	return tree
}

// RemoveTree unregisters an agent's tree, reporting whether one existed.
func (e *Engine) RemoveTree(agentID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.trees[agentID]; !ok {
		return false
	}
	delete(e.trees, agentID)
	return true
}

// Tree returns the tree registered for an agent.
func (e *Engine) Tree(agentID string) (*Tree, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.trees[agentID]
	return t, ok
}

// Trees returns all registered trees.
func (e *Engine) Trees() []*Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Tree, 0, len(e.trees))
	for _, t := range e.trees {
		out = append(out, t)
	}
	return out
}

// ExecuteTree runs one pass of the agent's tree and returns the resulting
// status. An unregistered agent or empty tree yields Failure.
func (e *Engine) ExecuteTree(agentID string, a *agent.Agent) Status {
	tree, ok := e.Tree(agentID)
	if !ok || tree.Root == nil {
		return StatusFailure
	}

	status := e.exec(tree.Root, a, tree.BB)
	tree.Status = status

	e.bus.Emit(event.Event{
		Type:    event.TreeExecuted,
		AgentID: agentID,
		Data:    map[string]interface{}{"status": status.String()},
	})
	return status
}

// exec walks one node. Structural defects (missing handlers, wrong child
// counts, unknown kinds) degrade to Failure so siblings still resolve.
func (e *Engine) exec(node *Node, a *agent.Agent, bb *Blackboard) Status {
	if node == nil {
		return StatusFailure
	}

	e.bus.Emit(event.Event{
		Type:    event.NodeExecuting,
		AgentID: a.ID,
		Data:    map[string]interface{}{"node": node.ID},
	})

	var status Status
	switch node.Type {
	case NodeComposite:
		status = e.execComposite(node, a, bb)
	case NodeDecorator:
		status = e.execDecorator(node, a, bb)
	case NodeAction:
		status = e.execAction(node, a, bb)
	case NodeCondition:
		status = e.execCondition(node, a, bb)
	default:
		status = StatusFailure
	}

	e.bus.Emit(event.Event{
		Type:    event.NodeExecuted,
		AgentID: a.ID,
		Data:    map[string]interface{}{"node": node.ID, "status": status.String()},
	})
	return status
}

func (e *Engine) execComposite(node *Node, a *agent.Agent, bb *Blackboard) Status {
	kind, _ := node.Params[ParamKind].(string)
	switch kind {
	case KindSequence:
		for _, child := range node.Children {
			if st := e.exec(child, a, bb); st != StatusSuccess {
				return st
			}
		}
		return StatusSuccess

	case KindSelector:
		for _, child := range node.Children {
			if st := e.exec(child, a, bb); st != StatusFailure {
				return st
			}
		}
		return StatusFailure

	case KindParallel:
		successThreshold := intParam(node.Params, ParamSuccessThreshold, 1)
		failureThreshold := intParam(node.Params, ParamFailureThreshold, len(node.Children))
		var successes, failures int
		for _, child := range node.Children {
			switch e.exec(child, a, bb) {
			case StatusSuccess:
				successes++
			case StatusFailure:
				failures++
			}
		}
		if successes >= successThreshold {
			return StatusSuccess
		}
		if failures >= failureThreshold {
			return StatusFailure
		}
		return StatusRunning

	default:
		return StatusFailure
	}
}

func (e *Engine) execDecorator(node *Node, a *agent.Agent, bb *Blackboard) Status {
	if len(node.Children) != 1 {
		return StatusFailure
	}
	child := node.Children[0]

	switch node.Decorator {
	case DecoratorInverter:
		switch e.exec(child, a, bb) {
		case StatusSuccess:
			return StatusFailure
		case StatusFailure:
			return StatusSuccess
		default:
			return StatusRunning
		}

	case DecoratorRepeater:
		maxRepeats := intParam(node.Params, ParamMaxRepeats, 1)
		status := StatusSuccess
		for i := 0; i < maxRepeats; i++ {
			status = e.exec(child, a, bb)
			if status == StatusFailure {
				return StatusFailure
			}
		}
		return status

	case DecoratorRetry:
		maxRetries := intParam(node.Params, ParamMaxRetries, 1)
		for i := 0; i < maxRetries; i++ {
			switch e.exec(child, a, bb) {
			case StatusSuccess:
				return StatusSuccess
			case StatusRunning:
				return StatusRunning
			}
		}
		return StatusFailure

	case DecoratorTimeout:
		timeout := time.Duration(intParam(node.Params, ParamTimeoutMs, 0)) * time.Millisecond
		key := "timeout:" + node.ID
		now := e.now()
		start, ok := bb.GetTime(key)
		if !ok {
			start = now
			bb.Set(key, start)
		}
		if now.Sub(start) > timeout {
			bb.Delete(key)
			return StatusFailure
		}
		status := e.exec(child, a, bb)
		if status != StatusRunning {
			bb.Delete(key)
		}
		return status

	case DecoratorCooldown:
		cooldown := time.Duration(intParam(node.Params, ParamCooldownMs, 0)) * time.Millisecond
		key := "cooldown:" + node.ID
		now := e.now()
		if last, ok := bb.GetTime(key); ok && now.Sub(last) < cooldown {
			return StatusFailure
		}
		status := e.exec(child, a, bb)
		if status == StatusSuccess {
			bb.Set(key, now)
		}
		return status

	default:
		return StatusFailure
	}
}

func (e *Engine) execAction(node *Node, a *agent.Agent, bb *Blackboard) (status Status) {
	e.mu.RLock()
	fn, ok := e.actions[node.ActionRef]
	e.mu.RUnlock()
	if !ok {
		return StatusFailure
	}

	defer func() {
		if r := recover(); r != nil {
			e.reportLeafError(node.ID, a.ID, fmt.Sprintf("panic: %v", r))
			status = StatusFailure
		}
	}()

	status, err := fn(a, bb)
	if err != nil {
		e.reportLeafError(node.ID, a.ID, err.Error())
		return StatusFailure
	}
	return status
}

func (e *Engine) execCondition(node *Node, a *agent.Agent, bb *Blackboard) (status Status) {
	e.mu.RLock()
	fn, ok := e.conditions[node.ConditionRef]
	e.mu.RUnlock()
	if !ok {
		return StatusFailure
	}

	defer func() {
		if r := recover(); r != nil {
			e.reportLeafError(node.ID, a.ID, fmt.Sprintf("panic: %v", r))
			status = StatusFailure
		}
	}()

	holds, err := fn(a, bb)
	if err != nil {
		e.reportLeafError(node.ID, a.ID, err.Error())
		return StatusFailure
	}
	if holds {
		return StatusSuccess
	}
	return StatusFailure
}

func (e *Engine) reportLeafError(nodeID, agentID, msg string) {
	e.bus.Emit(event.Event{
		Type:    event.ActionError,
		AgentID: agentID,
		Data:    map[string]interface{}{"node": nodeID, "error": msg},
	})
	e.logger.Warn("behavior leaf failed",
		zap.String("node", nodeID),
		zap.String("agent", agentID),
		zap.String("error", msg))
}
