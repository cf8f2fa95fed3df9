package agent

import "testing"

func TestBestPicksHighestScore(t *testing.T) {
	d := &DecisionNetwork{Nodes: []*DecisionNode{
		{ID: "a", Weight: 0.5, Confidence: 0.5},
		{ID: "b", Weight: 0.9, Confidence: 0.8},
		{ID: "c", Weight: 1.0, Confidence: 0.6},
	}}
	best := d.Best(nil)
	if best == nil || best.ID != "b" {
		t.Fatalf("best = %v, want b", best)
	}
}

func TestBestTieKeepsEarliestNode(t *testing.T) {
	d := &DecisionNetwork{Nodes: []*DecisionNode{
		{ID: "first", Weight: 0.6, Confidence: 0.5},
		{ID: "second", Weight: 0.5, Confidence: 0.6},
	}}
	best := d.Best(nil)
	if best == nil || best.ID != "first" {
		t.Fatalf("best = %v, want first (ties resolve to earliest)", best)
	}
}

func TestBestRespectsEligibility(t *testing.T) {
	d := &DecisionNetwork{Nodes: []*DecisionNode{
		{ID: "blocked", Weight: 1.0, Confidence: 1.0},
		{ID: "open", Weight: 0.2, Confidence: 0.2},
	}}
	best := d.Best(func(n *DecisionNode) bool { return n.ID != "blocked" })
	if best == nil || best.ID != "open" {
		t.Fatalf("best = %v, want open", best)
	}
}

func TestBestNoEligibleNodes(t *testing.T) {
	d := &DecisionNetwork{Nodes: []*DecisionNode{
		{ID: "a", Weight: 1, Confidence: 1},
	}}
	if best := d.Best(func(n *DecisionNode) bool { return false }); best != nil {
		t.Fatalf("best = %v, want nil when nothing is eligible", best)
	}
	empty := &DecisionNetwork{}
	if best := empty.Best(nil); best != nil {
		t.Fatalf("best = %v, want nil for empty network", best)
	}
}

func TestBestNegativeScoresStillSelected(t *testing.T) {
	d := &DecisionNetwork{Nodes: []*DecisionNode{
		{ID: "worse", Weight: -1.0, Confidence: 0.9},
		{ID: "lessBad", Weight: -0.1, Confidence: 0.5},
	}}
	best := d.Best(nil)
	if best == nil || best.ID != "lessBad" {
		t.Fatalf("best = %v, want lessBad", best)
	}
}
