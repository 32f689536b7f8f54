// Package align defines the overlap aligner strategy used by overlap based
// assembly. Aligners are registered by kind and built from a tagged
// configuration; no scoring algorithm lives here.
package align

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindNUCmer
	KindMUMmer
	KindSmithWaterman
)

func (k Kind) String() string {
	switch k {
	case KindNUCmer:
		return "NUCmer"
	case KindMUMmer:
		return "MUMmer"
	case KindSmithWaterman:
		return "SmithWaterman"
	}
	return "None"
}

// ParseKind accepts the names printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindNUCmer, KindMUMmer, KindSmithWaterman} {
		if k.String() == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("[ParseKind] unknown aligner %q: %w", s, utils.ErrConfiguration)
}

// SimilarityMatrix scores symbol pairs. Symbols missing from Symbols
// score as Mismatch.
type SimilarityMatrix struct {
	Name     string
	Symbols  string
	Scores   [][]int
	Mismatch int
}

// Score returns the score of aligning a against b.
func (sm SimilarityMatrix) Score(a, b byte) int {
	i, j := -1, -1
	for x := 0; x < len(sm.Symbols); x++ {
		if sm.Symbols[x] == a {
			i = x
		}
		if sm.Symbols[x] == b {
			j = x
		}
	}
	if i < 0 || j < 0 || i >= len(sm.Scores) || j >= len(sm.Scores[i]) {
		return sm.Mismatch
	}
	return sm.Scores[i][j]
}

// SimpleDNA is the match/mismatch matrix over ACGT.
func SimpleDNA(match, mismatch int) SimilarityMatrix {
	sm := SimilarityMatrix{Name: "SimpleDNA", Symbols: "ACGT", Mismatch: mismatch}
	sm.Scores = make([][]int, 4)
	for i := range sm.Scores {
		sm.Scores[i] = make([]int, 4)
		for j := range sm.Scores[i] {
			if i == j {
				sm.Scores[i][j] = match
			} else {
				sm.Scores[i][j] = mismatch
			}
		}
	}
	return sm
}

// GapCosts are the affine gap penalties, given as negative scores.
type GapCosts struct {
	Open   int
	Extend int
}

// Alignment is one aligned region between two sequences. Offsets are
// 0-based, ends exclusive.
type Alignment struct {
	FirstID     string
	SecondID    string
	FirstStart  int
	FirstEnd    int
	SecondStart int
	SecondEnd   int
	Reverse     bool
	Score       int
}

// Aligner aligns a set of sequences against each other.
type Aligner interface {
	Align(seqs []sequence.Sequence, sm SimilarityMatrix, gc GapCosts) ([]Alignment, error)
}

type NUCmerConfig struct {
	LengthOfMUM        int
	FixedSeparation    int
	MaximumSeparation  int
	MinimumScore       int
	SeparationFactor   float64
	BreakLength        int
	MaximumMatchEnable bool
}

type MUMmerConfig struct {
	LengthOfMUM           int
	MaximumMatchEnabled   bool
	AmbigiousMatchAllowed bool
}

type SmithWatermanConfig struct {
	GapOpenCost      int
	GapExtensionCost int
}

// Config selects an aligner and carries the parameters of that aligner
// only.
type Config struct {
	Kind          Kind
	NUCmer        *NUCmerConfig
	MUMmer        *MUMmerConfig
	SmithWaterman *SmithWatermanConfig
}

func DefaultNUCmer() Config {
	return Config{Kind: KindNUCmer, NUCmer: &NUCmerConfig{
		LengthOfMUM:       20,
		FixedSeparation:   5,
		MaximumSeparation: 1000,
		MinimumScore:      65,
		SeparationFactor:  0.12,
		BreakLength:       200,
	}}
}

func DefaultMUMmer() Config {
	return Config{Kind: KindMUMmer, MUMmer: &MUMmerConfig{LengthOfMUM: 20}}
}

func DefaultSmithWaterman() Config {
	return Config{Kind: KindSmithWaterman, SmithWaterman: &SmithWatermanConfig{GapOpenCost: -8, GapExtensionCost: -1}}
}

// Validate checks that the payload matching Kind is present and sane and
// that no other payload is set.
func (c Config) Validate() error {
	set := 0
	for _, p := range []bool{c.NUCmer != nil, c.MUMmer != nil, c.SmithWaterman != nil} {
		if p {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("[Config.Validate] %d aligner payloads set: %w", set, utils.ErrConfiguration)
	}
	switch c.Kind {
	case KindNUCmer:
		if c.NUCmer == nil || c.NUCmer.LengthOfMUM <= 0 || c.NUCmer.BreakLength <= 0 {
			return fmt.Errorf("[Config.Validate] invalid NUCmer payload: %w", utils.ErrConfiguration)
		}
	case KindMUMmer:
		if c.MUMmer == nil || c.MUMmer.LengthOfMUM <= 0 {
			return fmt.Errorf("[Config.Validate] invalid MUMmer payload: %w", utils.ErrConfiguration)
		}
	case KindSmithWaterman:
		if c.SmithWaterman == nil || c.SmithWaterman.GapOpenCost > 0 || c.SmithWaterman.GapExtensionCost > 0 {
			return fmt.Errorf("[Config.Validate] invalid SmithWaterman payload: %w", utils.ErrConfiguration)
		}
	default:
		return fmt.Errorf("[Config.Validate] aligner kind %v: %w", c.Kind, utils.ErrConfiguration)
	}
	return nil
}

// Factory builds an aligner from a validated configuration.
type Factory func(c Config) (Aligner, error)

// Registry maps aligner kinds to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

func (r *Registry) Register(k Kind, f Factory) error {
	if k == KindNone || f == nil {
		return fmt.Errorf("[Registry.Register] kind %v: %w", k, utils.ErrConfiguration)
	}
	r.mu.Lock()
	r.factories[k] = f
	r.mu.Unlock()
	return nil
}

// Kinds lists the registered kinds.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ks := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

// New validates c and builds the aligner registered for c.Kind.
func (r *Registry) New(c Config) (Aligner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	f, ok := r.factories[c.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("[Registry.New] no aligner registered for %v: %w", c.Kind, utils.ErrConfiguration)
	}
	return f(c)
}
