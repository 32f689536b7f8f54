package scaffold

import (
	"fmt"
	"log"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

const (
	DefaultDepth      = 10
	DefaultRedundancy = 2
)

// Scaffolds is the outcome of one scaffolding run.
type Scaffolds struct {
	Sequences     [][]byte
	Paths         []ScaffoldPath
	ReadContigMap ReadContigMap
	// Unmerged lists the reads that map to no contig.
	Unmerged []string
}

// GraphScaffoldBuilder runs the scaffolding stages in order: contig
// graph, read mapping, mate pairing, orientation filter, distance
// estimation, path search, path purge and sequence generation.
type GraphScaffoldBuilder struct {
	Depth      int
	Redundancy int
	Mapper     *MatePairMapper
	pool       threadpool.ThreadPool
}

func NewGraphScaffoldBuilder(libs *CloneLibrary, pool threadpool.ThreadPool) *GraphScaffoldBuilder {
	return &GraphScaffoldBuilder{
		Depth:      DefaultDepth,
		Redundancy: DefaultRedundancy,
		Mapper:     NewMatePairMapper(libs),
		pool:       pool,
	}
}

// ValidateReads keeps the paired reads free of ambiguous symbols and gaps,
// with any free text stripped from their IDs.
func (b *GraphScaffoldBuilder) ValidateReads(reads []sequence.Sequence) []sequence.Sequence {
	var out []sequence.Sequence
	for _, r := range reads {
		m, ok := b.Mapper.Naming.Parse(r.ID)
		if !ok || !sequence.IsUnambiguousDNA(r.Seq) {
			continue
		}
		out = append(out, sequence.New(m.ID, r.Seq))
	}
	return out
}

// BuildScaffold orders and orients contigs with the mate pairs among
// reads. Contigs not placed on any scaffold are returned unchanged after
// the scaffolds.
func (b *GraphScaffoldBuilder) BuildScaffold(reads, contigs []sequence.Sequence, k int) (*Scaffolds, error) {
	if k <= 0 || k > utils.MaxKmerLen {
		return nil, fmt.Errorf("[BuildScaffold] k-mer length %d must between 1~%d: %w", k, utils.MaxKmerLen, utils.ErrConfiguration)
	}
	if b.Depth <= 0 {
		return nil, fmt.Errorf("[BuildScaffold] depth %d must be positive: %w", b.Depth, utils.ErrConfiguration)
	}
	if b.Redundancy < 0 {
		return nil, fmt.Errorf("[BuildScaffold] negative redundancy %d: %w", b.Redundancy, utils.ErrConfiguration)
	}
	valid := b.ValidateReads(reads)

	cg, err := BuildContigGraph(contigs, k)
	if err != nil {
		return nil, err
	}
	// only contigs with a neighbor can join a scaffold
	var linked []sequence.Sequence
	var linkedIdx []int
	for i := range cg.Nodes {
		if cg.Nodes[i].ExtensionCount() > 0 {
			linked = append(linked, contigs[i])
			linkedIdx = append(linkedIdx, i)
		}
	}
	sub, err := NewReadContigMapper(b.pool).Map(linked, valid, k)
	if err != nil {
		return nil, err
	}
	rcm := make(ReadContigMap, len(sub))
	for id, m := range sub {
		rm := make(map[int][]ReadMap, len(m))
		for c, maps := range m {
			rm[linkedIdx[c]] = maps
		}
		rcm[id] = rm
	}
	log.Printf("[BuildScaffold] %d of %d contigs linked, %d of %d reads mapped\n", len(linked), len(contigs), len(rcm), len(valid))

	lengths := make([]int, len(contigs))
	for i, c := range contigs {
		lengths[i] = c.Len()
	}
	cmp, err := b.Mapper.MapContigToMatePairs(valid, rcm, lengths)
	if err != nil {
		return nil, err
	}
	cmp, err = OrientationBasedMatePairFilter{}.FilterPairedReads(cmp, b.Redundancy)
	if err != nil {
		return nil, err
	}
	if err := NewDistanceCalculator(lengths).CalculateDistance(cmp); err != nil {
		return nil, err
	}
	paths, err := NewTracePath(b.pool).FindPaths(cg, cmp, k, b.Depth)
	if err != nil {
		return nil, err
	}
	paths = PathPurger{}.PurgePath(paths)
	log.Printf("[BuildScaffold] %d contig pairs with mate evidence, %d scaffold paths\n", len(cmp), len(paths))

	res := &Scaffolds{Paths: paths, ReadContigMap: rcm, Unmerged: Unmerged(reads, rcm)}
	used := make([]bool, len(contigs))
	for _, p := range paths {
		res.Sequences = append(res.Sequences, p.BuildSequenceFromPath(cg, k))
		for _, s := range p {
			used[s.Node] = true
		}
	}
	for i, c := range contigs {
		if !used[i] {
			res.Sequences = append(res.Sequences, append([]byte(nil), c.Seq...))
		}
	}
	return res, nil
}
