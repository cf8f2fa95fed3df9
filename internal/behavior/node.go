package behavior

// Status is the tri-state result of executing a node. Invalid only appears
// as the initial status of a tree that has never run.
type Status int

const (
	StatusInvalid Status = iota
	StatusSuccess
	StatusFailure
	StatusRunning
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRunning:
		return "running"
	default:
		return "invalid"
	}
}

// NodeType is the structural category of a node.
type NodeType string

const (
	NodeComposite NodeType = "composite"
	NodeDecorator NodeType = "decorator"
	NodeAction    NodeType = "action"
	NodeCondition NodeType = "condition"
)

// DecoratorType selects the gating behavior of a decorator node.
type DecoratorType string

const (
	DecoratorInverter DecoratorType = "inverter"
	DecoratorRepeater DecoratorType = "repeater"
	DecoratorRetry    DecoratorType = "retry"
	DecoratorTimeout  DecoratorType = "timeout"
	DecoratorCooldown DecoratorType = "cooldown"
)

// Composite sub-kinds, read from Params["kind"].
const (
	KindSequence = "sequence"
	KindSelector = "selector"
	KindParallel = "parallel"
)

// Parameter keys recognized by composites and decorators.
const (
	ParamKind             = "kind"
	ParamSuccessThreshold = "successThreshold"
	ParamFailureThreshold = "failureThreshold"
	ParamMaxRepeats       = "maxRepeats"
	ParamMaxRetries       = "maxRetries"
	ParamTimeoutMs        = "timeoutMs"
	ParamCooldownMs       = "cooldownMs"
)

// Node is one behavior tree node. Leaves reference registered handlers by
// name instead of carrying closures, so a tree definition stays serializable.
type Node struct {
	ID           string                 `json:"id"`
	Type         NodeType               `json:"type"`
	Children     []*Node                `json:"children,omitempty"`
	ActionRef    string                 `json:"action_ref,omitempty"`
	ConditionRef string                 `json:"condition_ref,omitempty"`
	Decorator    DecoratorType          `json:"decorator,omitempty"`
	Params       map[string]interface{} `json:"params,omitempty"`
}

// intParam reads an integer parameter, tolerating JSON's float64 decoding.
func intParam(params map[string]interface{}, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Builder helpers used by callers assembling trees in code.

// Sequence returns a sequence composite over the given children.
func Sequence(id string, children ...*Node) *Node {
	return &Node{ID: id, Type: NodeComposite, Children: children,
		Params: map[string]interface{}{ParamKind: KindSequence}}
}

// Selector returns a selector composite over the given children.
func Selector(id string, children ...*Node) *Node {
	return &Node{ID: id, Type: NodeComposite, Children: children,
		Params: map[string]interface{}{ParamKind: KindSelector}}
}

// Parallel returns a parallel composite with the given thresholds.
func Parallel(id string, successThreshold, failureThreshold int, children ...*Node) *Node {
	return &Node{ID: id, Type: NodeComposite, Children: children,
		Params: map[string]interface{}{
			ParamKind:             KindParallel,
			ParamSuccessThreshold: successThreshold,
			ParamFailureThreshold: failureThreshold,
		}}
}

// Action returns an action leaf bound to a registered action handler.
func Action(id, ref string) *Node {
	return &Node{ID: id, Type: NodeAction, ActionRef: ref}
}

// Condition returns a condition leaf bound to a registered condition handler.
func Condition(id, ref string) *Node {
	return &Node{ID: id, Type: NodeCondition, ConditionRef: ref}
}

// Decorate wraps a child in a decorator of the given type.
func Decorate(id string, typ DecoratorType, params map[string]interface{}, child *Node) *Node {
	return &Node{ID: id, Type: NodeDecorator, Decorator: typ, Params: params,
		Children: []*Node{child}}
}
