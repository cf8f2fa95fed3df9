package agent

import "math"

// DecisionNode is one scored option in a decision network. Condition and
// action are references into handler tables registered with the scheduler,
// keeping the network serializable.
type DecisionNode struct {
	ID           string  `json:"id"`
	Weight       float64 `json:"weight"`
	Confidence   float64 `json:"confidence"`
	ConditionRef string  `json:"condition_ref,omitempty"`
	ActionRef    string  `json:"action_ref,omitempty"`
}

// DecisionNetwork is a flat list of scored options. Nodes are evaluated in
// registration order.
type DecisionNetwork struct {
	Nodes []*DecisionNode `json:"nodes"`
}

// Best returns the eligible node maximizing weight × confidence. Ties keep
// the earliest node. eligible reports whether a node's condition holds;
// a nil eligible accepts every node.
func (d *DecisionNetwork) Best(eligible func(*DecisionNode) bool) *DecisionNode {
	var best *DecisionNode
	bestScore := math.Inf(-1)
	for _, node := range d.Nodes {
		if eligible != nil && !eligible(node) {
			continue
		}
		score := node.Weight * node.Confidence
		if score > bestScore {
			best = node
			bestScore = score
		}
	}
	return best
}
