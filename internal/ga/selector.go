package ga

import (
	"fmt"
	"math"
	"sort"

	"evodrone/internal/dna"
	"evodrone/internal/nn"
	"evodrone/internal/rng"
)

// WheelScope chooses which sorted individuals feed the selection wheel.
type WheelScope string

const (
	// ScopeSurvivors uses the top SurvivorCount individuals.
	ScopeSurvivors WheelScope = "survivors"
	// ScopeAll uses the whole sorted population.
	ScopeAll WheelScope = "all"
)

// Options configure a Selector. They are fixed at construction.
type Options struct {
	Architecture   []int
	PopulationSize int
	EliteRatio     float64
	SurvivorRatio  float64
	WheelScope     WheelScope
	Policy         MutationPolicy
	// InitRange bounds the random initial genes. Zero means dna.MaxRange.
	InitRange float32
}

// DefaultOptions returns the ratios used by the drone stadium.
func DefaultOptions(arch []int, populationSize int) Options {
	return Options{
		Architecture:   arch,
		PopulationSize: populationSize,
		EliteRatio:     0.05,
		SurvivorRatio:  0.25,
		WheelScope:     ScopeSurvivors,
		Policy:         InverseSqrt(1),
	}
}

// Report summarizes one NextGeneration call.
type Report struct {
	// Generation is the index of the generation that was just reproduced.
	Generation      int
	BestFitness     float64
	AverageFitness  float64
	SurvivorAverage float64
	// Evolved counts children cloned from identical parents, Crossed those bred by
	// crossover.
	Evolved int
	Crossed int
	Best    *dna.Genome
}

// Selector owns the double-buffered population and runs reproduction.
//
// During evaluation callers only touch Fitness and Alive of Current individuals.
// NextGeneration is single-threaded: it reads Current, writes Next, then swaps them.
type Selector struct {
	opts          Options
	eliteCount    int
	survivorCount int

	current []*Individual
	next    []*Individual

	wheel      *SelectionWheel
	src        *rng.Source
	generation int
	scores     []float64
}

func validate(opts *Options) error {
	if err := nn.ValidateArchitecture(opts.Architecture); err != nil {
		return &ConfigError{Field: "architecture", Reason: err.Error()}
	}
	if opts.PopulationSize < 1 {
		return &ConfigError{Field: "population_size", Reason: fmt.Sprintf("must be at least 1, got %d", opts.PopulationSize)}
	}
	if opts.EliteRatio < 0 || opts.EliteRatio > 1 || math.IsNaN(opts.EliteRatio) {
		return &ConfigError{Field: "elite_ratio", Reason: fmt.Sprintf("must be in [0, 1], got %v", opts.EliteRatio)}
	}
	if !(opts.SurvivorRatio > 0) || opts.SurvivorRatio > 1 {
		return &ConfigError{Field: "survivor_ratio", Reason: fmt.Sprintf("must be in (0, 1], got %v", opts.SurvivorRatio)}
	}
	switch opts.WheelScope {
	case "":
		opts.WheelScope = ScopeSurvivors
	case ScopeSurvivors, ScopeAll:
	default:
		return &ConfigError{Field: "wheel_scope", Reason: fmt.Sprintf("unknown scope %q", opts.WheelScope)}
	}
	if opts.Policy == nil {
		opts.Policy = InverseSqrt(1)
	}
	if opts.InitRange == 0 {
		opts.InitRange = dna.MaxRange
	}
	return nil
}

// NewSelector builds both buffers and randomly initializes the current one.
func NewSelector(opts Options, src *rng.Source) (*Selector, error) {
	if err := validate(&opts); err != nil {
		return nil, err
	}
	n := opts.PopulationSize
	s := &Selector{
		opts:          opts,
		eliteCount:    int(opts.EliteRatio * float64(n)),
		survivorCount: int(opts.SurvivorRatio * float64(n)),
		current:       make([]*Individual, n),
		next:          make([]*Individual, n),
		wheel:         NewSelectionWheel(src),
		src:           src,
		scores:        make([]float64, 0, n),
	}
	if s.survivorCount < 1 {
		s.survivorCount = 1
	}
	if s.eliteCount > n {
		return nil, &ConfigError{Field: "elite_ratio", Reason: "elite count exceeds population size"}
	}

	for i := 0; i < n; i++ {
		cur, err := NewIndividual(opts.Architecture)
		if err != nil {
			return nil, err
		}
		cur.Genome.InitializeRandom(src, opts.InitRange)
		if err := cur.Network.Decode(cur.Genome); err != nil {
			return nil, err
		}
		cur.Index = i
		cur.Alive = true
		s.current[i] = cur

		nxt, err := NewIndividual(opts.Architecture)
		if err != nil {
			return nil, err
		}
		nxt.Index = i
		s.next[i] = nxt
	}
	return s, nil
}

// Current returns the buffer under evaluation.
func (s *Selector) Current() []*Individual { return s.current }

// Next returns the scratch buffer written by NextGeneration.
func (s *Selector) Next() []*Individual { return s.next }

// Generation returns the number of completed NextGeneration calls.
func (s *Selector) Generation() int { return s.generation }

// EliteCount returns the number of individuals copied unchanged each generation.
func (s *Selector) EliteCount() int { return s.eliteCount }

// SurvivorCount returns the number of individuals on the wheel under ScopeSurvivors.
func (s *Selector) SurvivorCount() int { return s.survivorCount }

// Architecture returns the network shape shared by every individual.
func (s *Selector) Architecture() []int { return s.opts.Architecture }

// Best returns the fittest current individual. Ties go to the lowest slot.
func (s *Selector) Best() *Individual {
	best := s.current[0]
	for _, ind := range s.current[1:] {
		if sortKey(ind.Fitness) > sortKey(best.Fitness) {
			best = ind
		}
	}
	return best
}

// ResetEvaluation clears fitness and revives every current individual. Slot indices
// are renumbered to match buffer positions.
func (s *Selector) ResetEvaluation() {
	for i, ind := range s.current {
		ind.Index = i
		ind.Reset()
	}
}

// Seed loads genomes into the current buffer starting at slot 0. It returns how many
// were loaded.
func (s *Selector) Seed(genomes []*dna.Genome) (int, error) {
	loaded := 0
	for i, g := range genomes {
		if i >= len(s.current) {
			break
		}
		if err := s.current[i].LoadGenome(g.Clone()); err != nil {
			return loaded, fmt.Errorf("seed slot %d: %w", i, err)
		}
		loaded++
	}
	return loaded, nil
}

// SortCurrent orders the current buffer by fitness, descending. Ties keep their
// relative order.
func (s *Selector) SortCurrent() {
	sort.SliceStable(s.current, func(i, j int) bool {
		return sortKey(s.current[i].Fitness) > sortKey(s.current[j].Fitness)
	})
}

// NextGeneration sorts, copies elites, breeds the remaining slots and swaps buffers.
func (s *Selector) NextGeneration() Report {
	s.SortCurrent()
	cur, nxt := s.current, s.next

	scope := s.survivorCount
	if s.opts.WheelScope == ScopeAll {
		scope = len(cur)
	}
	s.scores = s.scores[:0]
	var sum float64
	for i, ind := range cur {
		if i < scope {
			s.scores = append(s.scores, ind.Fitness)
		}
		sum += ind.Fitness
	}
	s.wheel.AddFitnessScores(s.scores)

	report := Report{
		Generation:      s.generation,
		BestFitness:     cur[0].Fitness,
		AverageFitness:  sum / float64(len(cur)),
		SurvivorAverage: s.wheel.AverageFitness(),
		Best:            cur[0].Genome.Clone(),
	}

	for i := 0; i < s.eliteCount; i++ {
		nxt[i].copyFrom(cur[i])
	}
	for i := s.eliteCount; i < len(nxt); i++ {
		a := cur[s.wheel.Pick()]
		b := cur[s.wheel.Pick()]
		p := s.opts.Policy(a.Fitness, b.Fitness)

		var child *dna.Genome
		if a.Genome.Equal(b.Genome) {
			child = dna.Evolve(s.src, a.Genome, p, p)
			report.Evolved++
		} else {
			child = dna.MakeChild(s.src, a.Genome, b.Genome, p)
			report.Crossed++
		}
		// Child length always matches, the architecture is shared.
		_ = nxt[i].LoadGenome(child)
		nxt[i].Alive = true
	}

	s.swap()
	return report
}

func (s *Selector) swap() {
	s.current, s.next = s.next, s.current
	for i, ind := range s.current {
		ind.Index = i
	}
	s.generation++
}

func sortKey(f float64) float64 {
	if math.IsNaN(f) {
		return math.Inf(-1)
	}
	return f
}
