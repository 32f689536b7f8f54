// Package assembler drives the de Bruijn assembly pipeline: graph
// construction, error removal, contig extraction and scaffolding.
package assembler

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/align"
	"github.com/dotnetbio/bio-sub011/contig"
	"github.com/dotnetbio/bio-sub011/dangling"
	"github.com/dotnetbio/bio-sub011/dbg"
	"github.com/dotnetbio/bio-sub011/kmer"
	"github.com/dotnetbio/bio-sub011/redundant"
	"github.com/dotnetbio/bio-sub011/scaffold"
	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

type Stage string

const (
	StageInitialize        Stage = "Initialize"
	StageBuildGraph        Stage = "BuildGraph"
	StageEstimateDefaults  Stage = "EstimateDefaults"
	StageUndangle          Stage = "Undangle"
	StageRemoveRedundancy  Stage = "RemoveRedundancy"
	StageSecondaryUndangle Stage = "SecondaryUndangle"
	StageLowCoverage       Stage = "RemoveLowCoverageContigs"
	StageBuildContigs      Stage = "BuildContigs"
	StageOverlap           Stage = "AlignContigs"
	StageBuildScaffolds    Stage = "BuildScaffolds"
)

// StatusFunc receives a message when a stage starts and when it ends.
type StatusFunc func(stage Stage, started bool, msg string)

// StageReport records one finished stage.
type StageReport struct {
	Stage    Stage
	Duration time.Duration
	Nodes    int
}

// Documentation describes how an assembly was produced.
type Documentation struct {
	KmerLength                   int
	DanglingLinksThreshold       int
	RedundantPathLengthThreshold int
	ErosionThreshold             int
	ContigCoverageThreshold      float64
	ProcessedSequences           int64
	SkippedSequences             int64
	SimplificationRounds         int
	Stages                       []StageReport
}

// Assembly is the result of one run.
type Assembly struct {
	ContigSequences []sequence.Sequence
	Scaffolds       []sequence.Sequence
	// Unmerged lists the reads that map to no contig during scaffolding.
	Unmerged       []string
	ContigOverlaps []align.Alignment
	Documentation  Documentation
}

// Assembler runs the pipeline on one read set at a time.
type Assembler struct {
	cfg     Config
	builder contig.Builder
	aligner align.Aligner
	pool    threadpool.ThreadPool
	Status  StatusFunc

	graph   *dbg.Graph
	k       int
	erosion int
	doc     Documentation
}

// New checks cfg and binds the contig builder. aligners is only consulted
// when cfg.Overlap is set.
func New(cfg Config, builder contig.Builder, aligners *align.Registry) (*Assembler, error) {
	if builder == nil {
		return nil, fmt.Errorf("[assembler.New] no contig builder: %w", utils.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Assembler{cfg: cfg, builder: builder}
	if cfg.Overlap != nil {
		if aligners == nil {
			return nil, fmt.Errorf("[assembler.New] overlap aligner %v requested without a registry: %w", cfg.Overlap.Kind, utils.ErrConfiguration)
		}
		al, err := aligners.New(*cfg.Overlap)
		if err != nil {
			return nil, err
		}
		a.aligner = al
	}
	if a.cfg.Libraries == nil {
		a.cfg.Libraries = scaffold.NewCloneLibrary()
	}
	cpu := utils.NumCPU(cfg.NumCPU)
	a.pool = threadpool.New(cpu, 100*cpu)
	return a, nil
}

// Graph returns the graph of the last run, nil before the first run or
// after Dispose.
func (a *Assembler) Graph() *dbg.Graph { return a.graph }

// Dispose releases the graph of the last run.
func (a *Assembler) Dispose() {
	if a.graph != nil {
		a.graph.Dispose()
		a.graph = nil
	}
}

func (a *Assembler) status(s Stage, started bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[Assemble] %s: %s\n", s, msg)
	if a.Status != nil {
		a.Status(s, started, msg)
	}
}

// stage runs f unless ctx is done, and reports it.
func (a *Assembler) stage(ctx context.Context, s Stage, f func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.status(s, true, "started at %v", time.Now().Format(time.RFC3339))
	t0 := time.Now()
	if err := f(); err != nil {
		return err
	}
	r := StageReport{Stage: s, Duration: time.Since(t0)}
	if a.graph != nil {
		r.Nodes = a.graph.NodeCount()
	}
	a.doc.Stages = append(a.doc.Stages, r)
	a.status(s, false, "finished in %v, %d nodes", r.Duration, r.Nodes)
	return nil
}

func (a *Assembler) initialize(reads []sequence.Sequence) error {
	if len(reads) == 0 {
		return fmt.Errorf("[Assemble] no reads: %w", utils.ErrInput)
	}
	a.Dispose()
	a.doc = Documentation{}
	a.k = a.cfg.KmerLength
	if a.k == 0 {
		k, err := kmer.EstimateKmerLength(reads)
		if err != nil {
			return err
		}
		a.k = k
	}
	a.doc.KmerLength = a.k
	a.doc.DanglingLinksThreshold = a.cfg.DanglingLinksThreshold
	if a.doc.DanglingLinksThreshold == -1 {
		a.doc.DanglingLinksThreshold = a.k + 1
	}
	a.doc.RedundantPathLengthThreshold = a.cfg.RedundantPathLengthThreshold
	if a.doc.RedundantPathLengthThreshold == -1 {
		a.doc.RedundantPathLengthThreshold = 3 * (a.k + 1)
	}
	a.doc.ErosionThreshold = a.cfg.ErosionThreshold
	a.doc.ContigCoverageThreshold = a.cfg.ContigCoverageThreshold
	return nil
}

// thresholdFromCounts is the square root of the median k-mer count over
// counts above 2, or 2 when there are none.
func thresholdFromCounts(counts []int) float64 {
	var cov []int
	for _, c := range counts {
		if c > 2 {
			cov = append(cov, c)
		}
	}
	if len(cov) == 0 {
		return 2
	}
	sort.Ints(cov)
	mid := len(cov) / 2
	median := float64(cov[mid])
	if len(cov)%2 == 0 {
		median = float64(cov[mid]+cov[mid-1]) / 2
	}
	return math.Sqrt(median)
}

// estimateDefaultThresholds fills the erosion and contig coverage
// thresholds left at -1.
func (a *Assembler) estimateDefaultThresholds() {
	if !a.cfg.AllowErosion && !a.cfg.AllowLowCoverageContigRemoval {
		return
	}
	nodes := a.graph.Nodes()
	counts := make([]int, len(nodes))
	for j, i := range nodes {
		counts[j] = a.graph.Node(i).Count()
	}
	th := thresholdFromCounts(counts)
	if a.cfg.AllowLowCoverageContigRemoval && a.doc.ContigCoverageThreshold == -1 {
		a.doc.ContigCoverageThreshold = th
	}
	if a.cfg.AllowErosion && a.doc.ErosionThreshold == -1 {
		a.doc.ErosionThreshold = int(math.Round(th))
	}
}

// unDangle removes tips up to the dangling threshold. The first call may
// erode low coverage ends; erosion is applied once per run.
func (a *Assembler) unDangle() error {
	T := a.doc.DanglingLinksThreshold
	if T <= 0 {
		return nil
	}
	g := a.graph
	p := dangling.NewPurger(T, a.pool)
	var lengths []int
	if a.cfg.AllowErosion && a.erosion > 0 {
		ls, err := p.ErodeGraphEnds(g, a.erosion)
		if err != nil {
			return err
		}
		lengths = ls
	} else {
		for l := 1; l < T; l++ {
			lengths = append(lengths, l)
		}
	}
	a.erosion = -1
	for _, l := range lengths {
		if g.NodeCount() < l {
			continue
		}
		p.LengthThreshold = l + 1
		paths, err := p.DetectErroneousNodes(g)
		if err != nil {
			return err
		}
		if err := p.RemoveErroneousNodes(g, paths); err != nil {
			return err
		}
	}
	p.LengthThreshold = T
	for g.NodeCount() > 0 {
		paths, err := p.DetectErroneousNodes(g)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			break
		}
		if err := p.RemoveErroneousNodes(g, paths); err != nil {
			return err
		}
	}
	g.MarkSimplified()
	return nil
}

// removeRedundancy pops bubbles until a pass finds none.
func (a *Assembler) removeRedundancy() error {
	if a.doc.RedundantPathLengthThreshold <= 0 {
		return nil
	}
	p := redundant.NewPurger(a.doc.RedundantPathLengthThreshold, a.pool)
	for {
		paths, err := p.DetectErroneousNodes(a.graph)
		if err != nil {
			return err
		}
		if err := p.RemoveErroneousNodes(a.graph, paths); err != nil {
			return err
		}
		a.graph.MarkSimplified()
		if len(paths) == 0 {
			return nil
		}
	}
}

func (a *Assembler) removeLowCoverage() error {
	if !a.cfg.AllowLowCoverageContigRemoval || a.doc.ContigCoverageThreshold <= 0 {
		return nil
	}
	lp, ok := a.builder.(contig.LowCoveragePurger)
	if !ok {
		lp = contig.SimplePathBuilder{}
	}
	n, err := lp.RemoveLowCoverageContigs(a.graph, a.doc.ContigCoverageThreshold)
	if err != nil {
		return err
	}
	log.Printf("[Assemble] removed %d low coverage nodes\n", n)
	return nil
}

func namedSequences(prefix string, seqs [][]byte) []sequence.Sequence {
	res := make([]sequence.Sequence, len(seqs))
	for i, s := range seqs {
		res[i] = sequence.New(fmt.Sprintf("%s_%d", prefix, i), s)
	}
	return res
}

// Assemble builds contigs from reads. A cancelled ctx stops the run
// between stages and no result is returned.
func (a *Assembler) Assemble(ctx context.Context, reads []sequence.Sequence) (*Assembly, error) {
	asm, err := a.assemble(ctx, reads)
	if err != nil {
		a.Dispose()
		return nil, err
	}
	return asm, nil
}

// AssembleWithScaffolds builds contigs and then scaffolds them with the
// mate pairs among reads.
func (a *Assembler) AssembleWithScaffolds(ctx context.Context, reads []sequence.Sequence) (*Assembly, error) {
	asm, err := a.assemble(ctx, reads)
	if err == nil {
		err = a.stage(ctx, StageBuildScaffolds, func() error {
			b := scaffold.NewGraphScaffoldBuilder(a.cfg.Libraries, a.pool)
			b.Depth, b.Redundancy = a.cfg.Depth, a.cfg.Redundancy
			res, err := b.BuildScaffold(reads, asm.ContigSequences, a.k)
			if err != nil {
				return err
			}
			asm.Scaffolds = namedSequences("scaffold", res.Sequences)
			asm.Unmerged = res.Unmerged
			return nil
		})
	}
	if err != nil {
		a.Dispose()
		return nil, err
	}
	asm.Documentation = a.doc
	return asm, nil
}

func (a *Assembler) assemble(ctx context.Context, reads []sequence.Sequence) (*Assembly, error) {
	asm := &Assembly{}
	if err := a.stage(ctx, StageInitialize, func() error { return a.initialize(reads) }); err != nil {
		return nil, err
	}
	if err := a.stage(ctx, StageBuildGraph, func() error {
		g, err := dbg.Build(reads, a.k, a.pool)
		if err != nil {
			return err
		}
		a.graph = g
		a.doc.ProcessedSequences, a.doc.SkippedSequences = g.ProcessedSequences, g.SkippedSequences
		return nil
	}); err != nil {
		return nil, err
	}
	if err := a.stage(ctx, StageEstimateDefaults, func() error {
		a.estimateDefaultThresholds()
		a.erosion = a.doc.ErosionThreshold
		return nil
	}); err != nil {
		return nil, err
	}
	for _, st := range []struct {
		s Stage
		f func() error
	}{
		{StageUndangle, a.unDangle},
		{StageRemoveRedundancy, a.removeRedundancy},
		{StageSecondaryUndangle, a.unDangle},
		{StageLowCoverage, a.removeLowCoverage},
	} {
		if err := a.stage(ctx, st.s, st.f); err != nil {
			return nil, err
		}
	}
	if err := a.stage(ctx, StageBuildContigs, func() error {
		cs, err := a.builder.Build(a.graph)
		if err != nil {
			return err
		}
		asm.ContigSequences = namedSequences("contig", cs)
		return nil
	}); err != nil {
		return nil, err
	}
	if a.aligner != nil {
		if err := a.stage(ctx, StageOverlap, func() error {
			al, err := a.aligner.Align(asm.ContigSequences, a.cfg.SimilarityMatrix, a.cfg.GapCosts)
			if err != nil {
				return err
			}
			asm.ContigOverlaps = al
			return nil
		}); err != nil {
			return nil, err
		}
	}
	a.doc.SimplificationRounds = a.graph.Rounds()
	asm.Documentation = a.doc
	return asm, nil
}
