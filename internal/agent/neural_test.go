package agent

import (
	"math"
	"testing"
)

// identity2 is a two-input, two-output single layer with identity weights.
func identity2(act Activation) *NeuralNetwork {
	return &NeuralNetwork{
		Layers:     []int{2, 2},
		Weights:    [][][]float64{{{1, 0}, {0, 1}}},
		Biases:     [][]float64{{0, 0}},
		Activation: act,
	}
}

func TestForwardLinearIdentity(t *testing.T) {
	n := identity2(ActivationLinear)
	out := n.Forward([]float64{0.3, -0.7})
	if out == nil {
		t.Fatal("Forward returned nil for well-formed network")
	}
	if out[0] != 0.3 || out[1] != -0.7 {
		t.Fatalf("out = %v, want [0.3 -0.7]", out)
	}
}

func TestForwardSigmoidRange(t *testing.T) {
	n := &NeuralNetwork{
		Layers:     []int{2, 3, 1},
		Weights:    [][][]float64{{{0.5, -0.5}, {1, 1}, {-2, 0.1}}, {{0.3, 0.3, 0.3}}},
		Biases:     [][]float64{{0.1, -0.1, 0}, {0}},
		Activation: ActivationSigmoid,
	}
	out := n.Forward([]float64{1, 2})
	if len(out) != 1 {
		t.Fatalf("output size = %d, want 1", len(out))
	}
	if out[0] <= 0 || out[0] >= 1 {
		t.Fatalf("sigmoid output %v outside (0, 1)", out[0])
	}
}

func TestForwardDimensionMismatchReturnsNil(t *testing.T) {
	n := identity2(ActivationLinear)
	if out := n.Forward([]float64{1, 2, 3}); out != nil {
		t.Fatalf("out = %v, want nil on input width mismatch", out)
	}

	bad := &NeuralNetwork{
		Weights:    [][][]float64{{{1, 0}}},
		Biases:     [][]float64{{0, 0}},
		Activation: ActivationLinear,
	}
	if out := bad.Forward([]float64{1, 2}); out != nil {
		t.Fatalf("out = %v, want nil on bias width mismatch", out)
	}

	empty := &NeuralNetwork{}
	if out := empty.Forward([]float64{1}); out != nil {
		t.Fatalf("out = %v, want nil for empty network", out)
	}
}

func TestActivationFunctions(t *testing.T) {
	cases := []struct {
		act  Activation
		in   float64
		want float64
	}{
		{ActivationReLU, -3, 0},
		{ActivationReLU, 3, 3},
		{ActivationLeakyReLU, -3, -0.03},
		{ActivationLeakyReLU, 3, 3},
		{ActivationLinear, -3, -3},
		{ActivationTanh, 0, 0},
		{ActivationSigmoid, 0, 0.5},
	}
	for _, c := range cases {
		got := activate(c.act, c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("activate(%s, %v) = %v, want %v", c.act, c.in, got, c.want)
		}
	}
}
