package scaffold

import (
	"fmt"
	"sort"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/utils"
)

// TracePath searches the contig graph for walks that agree with the mate
// pair distances.
type TracePath struct {
	pool threadpool.ThreadPool
}

func NewTracePath(pool threadpool.ThreadPool) *TracePath {
	return &TracePath{pool: pool}
}

type searchState struct {
	path ScaffoldPath
	// right is the side of the last contig, as stored, the walk leaves by
	right bool
}

type tracer struct {
	cg     *ContigGraph
	k      int
	depth  int
	seed   int
	mates  map[int][]*ValidMatePair
	mateID []int
}

// pathLength is the number of bases between the end of the seed and the
// start of the last contig of p.
func (t *tracer) pathLength(p ScaffoldPath) float64 {
	d := 0
	for _, s := range p[1 : len(p)-1] {
		d += t.cg.Contigs[s.Node].Len() - (t.k - 1)
	}
	return float64(d - (t.k - 1))
}

// fits reports whether the last contig of p lies within three standard
// deviations of the seed's mate evidence for it.
func (t *tracer) fits(p ScaffoldPath) bool {
	last := p[len(p)-1]
	vmps, ok := t.mates[last.Node]
	if !ok || len(vmps) == 0 {
		return true
	}
	idx := 1
	if last.Forward == p[0].Forward {
		idx = 0
	}
	mean, sd := vmps[0].DistanceBetweenContigs[idx], vmps[0].StandardDeviation[idx]
	l := t.pathLength(p)
	return mean-3*sd <= l && l <= mean+3*sd
}

func (t *tracer) covers(p ScaffoldPath) bool {
	for _, c := range t.mateID {
		if !p.contains(c) {
			return false
		}
	}
	return true
}

// search runs a breadth-first walk from the seed to each side.
func (t *tracer) search() []ScaffoldPath {
	var found []ScaffoldPath
	queue := []searchState{
		{path: ScaffoldPath{{Node: t.seed, Forward: false}}, right: false},
		{path: ScaffoldPath{{Node: t.seed, Forward: true}}, right: true},
	}
	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]
		last := st.path[len(st.path)-1].Node
		for _, e := range t.cg.Nodes[last].Extensions(st.right) {
			if st.path.contains(e.Node) {
				continue
			}
			// the walk keeps its direction along the scaffold
			fwd := st.path[len(st.path)-1].Forward == e.Same
			child := make(ScaffoldPath, len(st.path), len(st.path)+1)
			copy(child, st.path)
			child = append(child, PathStep{Node: e.Node, Forward: fwd})
			if !t.fits(child) {
				continue
			}
			if t.covers(child) {
				found = append(found, child)
				continue
			}
			if len(child) < t.depth {
				queue = append(queue, searchState{path: child, right: st.right == e.Same})
			}
		}
	}
	return found
}

// FindPaths traces, for every contig that has mate evidence, the walks
// that reach all of its mates within depth contigs. No walk visits a
// contig twice.
func (tp *TracePath) FindPaths(cg *ContigGraph, cmp ContigMatePairs, k, depth int) ([]ScaffoldPath, error) {
	if k <= 0 {
		return nil, fmt.Errorf("[FindPaths] k-mer length %d: %w", k, utils.ErrConfiguration)
	}
	if depth <= 0 {
		return nil, fmt.Errorf("[FindPaths] depth %d: %w", depth, utils.ErrConfiguration)
	}
	var seeds []int
	for c, m := range cmp {
		if len(m) > 0 && c < len(cg.Nodes) {
			seeds = append(seeds, c)
		}
	}
	sort.Ints(seeds)
	res := make([][]ScaffoldPath, len(seeds))
	if err := tp.pool.RangeJob(0, len(seeds), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		t := &tracer{cg: cg, k: k, depth: depth, seed: seeds[i], mates: cmp[seeds[i]]}
		for c := range t.mates {
			t.mateID = append(t.mateID, c)
		}
		sort.Ints(t.mateID)
		res[i] = t.search()
		return nil
	}); err != nil {
		return nil, err
	}
	var paths []ScaffoldPath
	for _, r := range res {
		paths = append(paths, r...)
	}
	return paths, nil
}
