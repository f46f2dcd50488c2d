// Package dna holds the fixed-width genome encoding and its genetic operators.
//
// A Genome is a fixed-length byte buffer interpreted as a flat sequence of 32-bit float
// genes stored little-endian. Gene writes are clamped to [-MaxRange, MaxRange].
package dna

import (
	"encoding/binary"
	"math"

	"evodrone/internal/rng"
)

// MaxRange bounds every gene value.
const MaxRange float32 = 16.0

// GeneSize is the width of one gene in bytes.
const GeneSize = 4

// Gene is one float32 value of a Genome.
type Gene = float32

// Genome is a fixed-length gene buffer. Its length never changes after construction.
type Genome struct {
	code []byte
}

// ByteCount returns the buffer size allocated for bitCount bits. A trailing partial
// byte is only added once the genome is wider than a single byte.
func ByteCount(bitCount uint64) int {
	n := bitCount / 8
	if bitCount%8 != 0 && bitCount > 8 {
		n++
	}
	return int(n)
}

// New allocates a zeroed genome wide enough for bitCount bits.
func New(bitCount uint64) *Genome {
	return &Genome{code: make([]byte, ByteCount(bitCount))}
}

// NewForGenes allocates a zeroed genome holding geneCount genes.
func NewForGenes(geneCount int) *Genome {
	return New(uint64(geneCount) * GeneSize * 8)
}

// FromBytes builds a genome from a copy of b.
func FromBytes(b []byte) *Genome {
	code := make([]byte, len(b))
	copy(code, b)
	return &Genome{code: code}
}

// ByteLength returns the size of the buffer in bytes.
func (g *Genome) ByteLength() int {
	return len(g.code)
}

// GeneCount returns the number of whole genes held by the buffer.
func (g *Genome) GeneCount() int {
	return len(g.code) / GeneSize
}

// Bytes returns the underlying buffer. Callers must not modify it.
func (g *Genome) Bytes() []byte {
	return g.code
}

// Clone returns a deep copy.
func (g *Genome) Clone() *Genome {
	return FromBytes(g.code)
}

// CopyFrom overwrites g with the bytes of other. Both genomes must have the same length.
func (g *Genome) CopyFrom(other *Genome) {
	copy(g.code, other.code)
}

// Equal reports whether both genomes hold identical bytes.
func (g *Genome) Equal(other *Genome) bool {
	if len(g.code) != len(other.code) {
		return false
	}
	for i := range g.code {
		if g.code[i] != other.code[i] {
			return false
		}
	}
	return true
}

// Get reads gene i.
func (g *Genome) Get(i int) Gene {
	off := i * GeneSize
	return math.Float32frombits(binary.LittleEndian.Uint32(g.code[off : off+GeneSize]))
}

// Set writes gene i after clamping value to [-MaxRange, MaxRange].
func (g *Genome) Set(i int, value Gene) {
	off := i * GeneSize
	binary.LittleEndian.PutUint32(g.code[off:off+GeneSize], math.Float32bits(Clamp(value)))
}

// Clamp bounds v to [-MaxRange, MaxRange]. NaN maps to zero.
func Clamp(v Gene) Gene {
	switch {
	case v != v:
		return 0
	case v < -MaxRange:
		return -MaxRange
	case v > MaxRange:
		return MaxRange
	}
	return v
}

// InitializeRandom sets every gene to a uniform value in [-width, width].
func (g *Genome) InitializeRandom(src *rng.Source, width float32) {
	for i := 0; i < g.GeneCount(); i++ {
		g.Set(i, src.Range(width))
	}
}

// MutateBits flips each bit of the buffer independently with the given probability.
func (g *Genome) MutateBits(src *rng.Source, probability float32) {
	for i := range g.code {
		for bit := 0; bit < 8; bit++ {
			if src.Pass(probability) {
				g.code[i] ^= 1 << bit
			}
		}
	}
}

// Mutate replaces each gene with a fresh value in [-MaxRange, MaxRange] with the given
// probability.
func (g *Genome) Mutate(src *rng.Source, probability float32) {
	for i := 0; i < g.GeneCount(); i++ {
		if src.Pass(probability) {
			g.Set(i, src.Range(MaxRange))
		}
	}
}

// Optimize adds a uniform offset in [-width, width] to each gene with the given
// probability.
func (g *Genome) Optimize(src *rng.Source, probability, width float32) {
	for i := 0; i < g.GeneCount(); i++ {
		if src.Pass(probability) {
			g.Set(i, g.Get(i)+src.Range(width))
		}
	}
}
