package agent

import "math"

// Activation names the transfer function applied at every layer.
type Activation string

const (
	ActivationSigmoid   Activation = "sigmoid"
	ActivationTanh      Activation = "tanh"
	ActivationReLU      Activation = "relu"
	ActivationLeakyReLU Activation = "leaky_relu"
	ActivationLinear    Activation = "linear"
)

// NeuralNetwork is a dense feed-forward network. Weights[l][j][i] connects
// input i of layer l to output j; Biases[l][j] is added before activation.
type NeuralNetwork struct {
	Layers     []int         `json:"layers"`
	Weights    [][][]float64 `json:"weights"`
	Biases     [][]float64   `json:"biases"`
	Activation Activation    `json:"activation"`
}

// Forward runs one pass over the configured tensors. A dimension mismatch
// returns nil so a malformed brain degrades to a no-op for the tick.
func (n *NeuralNetwork) Forward(inputs []float64) []float64 {
	if len(n.Weights) == 0 || len(n.Weights) != len(n.Biases) {
		return nil
	}
	current := inputs
	for l := range n.Weights {
		layer := n.Weights[l]
		bias := n.Biases[l]
		if len(layer) != len(bias) {
			return nil
		}
		next := make([]float64, len(layer))
		for j, row := range layer {
			if len(row) != len(current) {
				return nil
			}
			sum := bias[j]
			for i, w := range row {
				sum += w * current[i]
			}
			next[j] = activate(n.Activation, sum)
		}
		current = next
	}
	return current
}

func activate(a Activation, x float64) float64 {
	switch a {
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-x))
	case ActivationTanh:
		return math.Tanh(x)
	case ActivationReLU:
		if x < 0 {
			return 0
		}
		return x
	case ActivationLeakyReLU:
		if x < 0 {
			return 0.01 * x
		}
		return x
	default:
		return x
	}
}
