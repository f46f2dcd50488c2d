// Package nn implements the feed-forward network decoded from a genome.
package nn

import (
	"errors"
	"fmt"
	"strings"

	"evodrone/internal/dna"
)

var (
	// ErrInputSize is returned by ExecuteChecked when the input width does not match
	// the declared input size.
	ErrInputSize = errors.New("nn: input size mismatch")
	// ErrEmptyArchitecture rejects architectures without at least one layer.
	ErrEmptyArchitecture = errors.New("nn: architecture needs an input width and at least one layer")
	// ErrShortGenome is returned by Decode when the genome holds too few genes.
	ErrShortGenome = errors.New("nn: genome too short for architecture")
)

// Squash maps x into (0, 1) with the fast sigmoid 0.5*(1 + x/(1+|x|)).
func Squash(x float32) float32 {
	abs := x
	if abs < 0 {
		abs = -abs
	}
	return 0.5 * (1 + x/(1+abs))
}

// Layer is one fully connected layer. Weights are stored contiguously, neuron-major.
type Layer struct {
	Bias    []float32
	Weights []float32

	inputs int
	values []float32
}

// NewLayer allocates a zeroed layer.
func NewLayer(neurons, inputs int) *Layer {
	return &Layer{
		Bias:    make([]float32, neurons),
		Weights: make([]float32, neurons*inputs),
		inputs:  inputs,
		values:  make([]float32, neurons),
	}
}

// NeuronCount returns the number of neurons.
func (l *Layer) NeuronCount() int { return len(l.Bias) }

// InputWidth returns the number of inputs per neuron.
func (l *Layer) InputWidth() int { return l.inputs }

// Weight returns the weight from input j to neuron i.
func (l *Layer) Weight(i, j int) float32 {
	return l.Weights[i*l.inputs+j]
}

// Values returns the outputs of the last Process call.
func (l *Layer) Values() []float32 { return l.values }

// Process computes squash(-bias[i] + sum_j w[i][j]*inputs[j]) for every neuron.
func (l *Layer) Process(inputs []float32) []float32 {
	offset := 0
	for i := range l.Bias {
		sum := -l.Bias[i]
		for j := 0; j < l.inputs; j++ {
			sum += l.Weights[offset+j] * inputs[j]
		}
		offset += l.inputs
		l.values[i] = Squash(sum)
	}
	return l.values
}

// Network is an ordered stack of layers. It is stateless across calls except for the
// last output buffer, and is not safe for concurrent use.
type Network struct {
	inputSize int
	layers    []*Layer
}

// ValidateArchitecture checks that arch has an input width plus at least one layer and
// that every width is positive.
func ValidateArchitecture(arch []int) error {
	if len(arch) < 2 {
		return ErrEmptyArchitecture
	}
	for i, w := range arch {
		if w <= 0 {
			return fmt.Errorf("nn: architecture width %d at position %d must be positive", w, i)
		}
	}
	return nil
}

// ParameterCount returns sum over layers of width[i]*(1+width[i-1]).
func ParameterCount(arch []int) int {
	count := 0
	for i := 1; i < len(arch); i++ {
		count += arch[i] * (1 + arch[i-1])
	}
	return count
}

// New builds a zeroed network for arch. The first element is the input width, the rest
// are neuron counts.
func New(arch []int) (*Network, error) {
	if err := ValidateArchitecture(arch); err != nil {
		return nil, err
	}
	n := &Network{inputSize: arch[0]}
	for i := 1; i < len(arch); i++ {
		n.layers = append(n.layers, NewLayer(arch[i], arch[i-1]))
	}
	return n, nil
}

// FromGenome builds and decodes a network in one step.
func FromGenome(arch []int, g *dna.Genome) (*Network, error) {
	n, err := New(arch)
	if err != nil {
		return nil, err
	}
	if err := n.Decode(g); err != nil {
		return nil, err
	}
	return n, nil
}

// Decode loads biases and weights from g: per layer, all biases then all weights
// row-major.
func (n *Network) Decode(g *dna.Genome) error {
	if want := n.ParameterCount(); g.GeneCount() < want {
		return fmt.Errorf("%w: have %d genes, need %d", ErrShortGenome, g.GeneCount(), want)
	}
	idx := 0
	for _, l := range n.layers {
		for i := range l.Bias {
			l.Bias[i] = g.Get(idx)
			idx++
		}
		for i := range l.Weights {
			l.Weights[i] = g.Get(idx)
			idx++
		}
	}
	return nil
}

// InputSize returns the declared input width.
func (n *Network) InputSize() int { return n.inputSize }

// Layers returns the layers in order.
func (n *Network) Layers() []*Layer { return n.layers }

// Architecture reconstructs the width list.
func (n *Network) Architecture() []int {
	arch := []int{n.inputSize}
	for _, l := range n.layers {
		arch = append(arch, l.NeuronCount())
	}
	return arch
}

// ParameterCount returns the number of genes the network consumes.
func (n *Network) ParameterCount() int {
	count := 0
	for _, l := range n.layers {
		count += l.NeuronCount() * (1 + l.InputWidth())
	}
	return count
}

// Output returns the last layer's values. The slice is reused by the next Execute.
func (n *Network) Output() []float32 {
	return n.layers[len(n.layers)-1].values
}

// Execute runs a forward pass. When len(input) differs from the declared input size
// the call does nothing and the previous output is returned unchanged.
func (n *Network) Execute(input []float32) []float32 {
	if len(input) != n.inputSize {
		return n.Output()
	}
	values := input
	for _, l := range n.layers {
		values = l.Process(values)
	}
	return values
}

// ExecuteChecked is Execute with the size mismatch reported as ErrInputSize.
func (n *Network) ExecuteChecked(input []float32) ([]float32, error) {
	if len(input) != n.inputSize {
		return n.Output(), fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(input), n.inputSize)
	}
	return n.Execute(input), nil
}

func (n *Network) String() string {
	var b strings.Builder
	for _, l := range n.layers {
		b.WriteString("--- layer ---\n")
		for i := range l.Bias {
			fmt.Fprintf(&b, "Neuron %d bias %g\n", i, l.Bias[i])
			for j := 0; j < l.inputs; j++ {
				fmt.Fprintf(&b, "%g ", l.Weight(i, j))
			}
			b.WriteString("\n")
		}
		b.WriteString("--- end ---\n")
	}
	return b.String()
}
