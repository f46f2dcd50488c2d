package dna

import "evodrone/internal/rng"

// Crossover builds a genome of a's length whose bytes [0, split) come from a and
// [split, len) come from b. split is a byte offset and is clamped to the buffer.
func Crossover(a, b *Genome, split int) *Genome {
	n := a.ByteLength()
	if split < 0 {
		split = 0
	}
	if split > n {
		split = n
	}
	child := &Genome{code: make([]byte, n)}
	copy(child.code[:split], a.code[:split])
	if split < len(b.code) {
		copy(child.code[split:], b.code[split:])
	}
	return child
}

// MakeChild crosses a and b at a random byte offset, scales every gene by
// 1+U(-p, p) and finally applies Mutate(p).
func MakeChild(src *rng.Source, a, b *Genome, mutationProbability float32) *Genome {
	split := 0
	if n := a.ByteLength(); n > 0 {
		split = src.Intn(n)
	}
	child := Crossover(a, b, split)
	for i := 0; i < child.GeneCount(); i++ {
		child.Set(i, child.Get(i)*(1+src.Range(mutationProbability)))
	}
	child.Mutate(src, mutationProbability)
	return child
}

// Evolve returns a copy of g where each gene is shifted by U(-width, width) with the
// given probability.
func Evolve(src *rng.Source, g *Genome, mutationProbability, width float32) *Genome {
	child := g.Clone()
	child.Optimize(src, mutationProbability, width)
	return child
}
