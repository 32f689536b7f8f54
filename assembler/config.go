package assembler

import (
	"fmt"

	"github.com/dotnetbio/bio-sub011/align"
	"github.com/dotnetbio/bio-sub011/scaffold"
	"github.com/dotnetbio/bio-sub011/utils"
)

// Config holds the assembly parameters. Thresholds set to -1 are derived
// from k or from the graph; a dangling or redundant threshold of 0
// switches that stage off.
type Config struct {
	KmerLength                int
	AllowKmerLengthEstimation bool

	DanglingLinksThreshold       int
	RedundantPathLengthThreshold int

	AllowErosion     bool
	ErosionThreshold int

	AllowLowCoverageContigRemoval bool
	ContigCoverageThreshold       float64

	// scaffolding
	Depth      int
	Redundancy int
	Libraries  *scaffold.CloneLibrary

	// Overlap selects an optional aligner run over the finished contigs.
	Overlap          *align.Config
	SimilarityMatrix align.SimilarityMatrix
	GapCosts         align.GapCosts

	NumCPU int
}

func DefaultConfig() Config {
	return Config{
		AllowKmerLengthEstimation:    true,
		DanglingLinksThreshold:       -1,
		RedundantPathLengthThreshold: -1,
		ErosionThreshold:             -1,
		ContigCoverageThreshold:      -1,
		Depth:                        scaffold.DefaultDepth,
		Redundancy:                   scaffold.DefaultRedundancy,
		SimilarityMatrix:             align.SimpleDNA(1, -1),
		GapCosts:                     align.GapCosts{Open: -8, Extend: -1},
	}
}

// Validate checks the parameters that do not depend on the reads.
func (c Config) Validate() error {
	if c.KmerLength < 0 || c.KmerLength > utils.MaxKmerLen {
		return fmt.Errorf("[Config.Validate] k-mer length %d must between 0~%d: %w", c.KmerLength, utils.MaxKmerLen, utils.ErrConfiguration)
	}
	if c.KmerLength == 0 && !c.AllowKmerLengthEstimation {
		return fmt.Errorf("[Config.Validate] k-mer length not set and estimation disabled: %w", utils.ErrConfiguration)
	}
	if c.DanglingLinksThreshold < -1 || c.RedundantPathLengthThreshold < -1 || c.ErosionThreshold < -1 {
		return fmt.Errorf("[Config.Validate] thresholds must be -1 or non-negative: %w", utils.ErrConfiguration)
	}
	if c.ContigCoverageThreshold < 0 && c.ContigCoverageThreshold != -1 {
		return fmt.Errorf("[Config.Validate] contig coverage threshold %v: %w", c.ContigCoverageThreshold, utils.ErrConfiguration)
	}
	if c.Depth <= 0 || c.Redundancy < 0 {
		return fmt.Errorf("[Config.Validate] depth %d, redundancy %d: %w", c.Depth, c.Redundancy, utils.ErrConfiguration)
	}
	if c.Overlap != nil {
		if err := c.Overlap.Validate(); err != nil {
			return err
		}
	}
	return nil
}
