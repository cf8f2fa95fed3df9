package agent

// BrainKind selects the decision strategy driving an agent. The kind is
// immutable after creation; changing strategy means re-registering the agent.
type BrainKind string

const (
	BrainBehaviorTree BrainKind = "behavior_tree"
	BrainStateMachine BrainKind = "state_machine"
	BrainNeural       BrainKind = "neural_network"
	BrainDecision     BrainKind = "decision_network"
	BrainHybrid       BrainKind = "hybrid" // behavior tree + state machine
)

// Brain is the tagged decision strategy of an agent. Tree and machine
// definitions are owned by their engines; only the numeric brain variants
// carry data here.
type Brain struct {
	Kind     BrainKind        `json:"kind"`
	Network  *NeuralNetwork   `json:"network,omitempty"`
	Decision *DecisionNetwork `json:"decision,omitempty"`
}

// UsesTree reports whether the brain drives a behavior tree.
func (b *Brain) UsesTree() bool {
	return b != nil && (b.Kind == BrainBehaviorTree || b.Kind == BrainHybrid)
}

// UsesMachine reports whether the brain drives a state machine.
func (b *Brain) UsesMachine() bool {
	return b != nil && (b.Kind == BrainStateMachine || b.Kind == BrainHybrid)
}
