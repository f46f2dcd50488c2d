package ga

import (
	"fmt"

	"evodrone/internal/dna"
	"evodrone/internal/nn"
)

// Individual binds a genome to the network decoded from it. The network is re-decoded
// on every genome replacement so both never diverge.
type Individual struct {
	Index   int
	Genome  *dna.Genome
	Network *nn.Network
	Fitness float64
	Alive   bool
}

// NewIndividual creates an individual with a zeroed genome sized for arch.
func NewIndividual(arch []int) (*Individual, error) {
	network, err := nn.New(arch)
	if err != nil {
		return nil, err
	}
	ind := &Individual{
		Genome:  dna.NewForGenes(nn.ParameterCount(arch)),
		Network: network,
	}
	if err := ind.Network.Decode(ind.Genome); err != nil {
		return nil, err
	}
	return ind, nil
}

// LoadGenome replaces the genome, resets fitness and re-decodes the network.
func (ind *Individual) LoadGenome(g *dna.Genome) error {
	if g.ByteLength() != ind.Genome.ByteLength() {
		return fmt.Errorf("ga: genome has %d bytes, individual expects %d", g.ByteLength(), ind.Genome.ByteLength())
	}
	ind.Genome = g
	ind.Fitness = 0
	return ind.Network.Decode(g)
}

// copyFrom overwrites ind with other's genome bytes and fitness in place.
func (ind *Individual) copyFrom(other *Individual) {
	ind.Genome.CopyFrom(other.Genome)
	// Same architecture, decode cannot fail.
	_ = ind.Network.Decode(ind.Genome)
	ind.Fitness = other.Fitness
	ind.Alive = other.Alive
}

// Execute runs the network on inputs. See nn.Network.Execute.
func (ind *Individual) Execute(inputs []float32) []float32 {
	return ind.Network.Execute(inputs)
}

// Reset clears fitness and marks the individual alive for a new evaluation.
func (ind *Individual) Reset() {
	ind.Fitness = 0
	ind.Alive = true
}
