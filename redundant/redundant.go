// Package redundant pops bubbles: alternative walks that leave one node
// and reconverge on another within a bounded length.
package redundant

import (
	"bytes"
	"sort"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/dbg"
	"github.com/dotnetbio/bio-sub011/sequence"
)

// Purger detects bubbles whose branches are at most LengthThreshold nodes
// long, start and end node included.
type Purger struct {
	LengthThreshold int
	pool            threadpool.ThreadPool
}

func NewPurger(threshold int, pool threadpool.ThreadPool) *Purger {
	return &Purger{LengthThreshold: threshold, pool: pool}
}

// orientedPath is a walk that remembers, per node, whether the node is
// read in its stored orientation.
type orientedPath struct {
	nodes    dbg.Path
	fwd      []bool
	grabLeft bool
	end      bool
}

func (p *orientedPath) contains(i int32) bool {
	for _, n := range p.nodes {
		if n == i {
			return true
		}
	}
	return false
}

func (p *orientedPath) truncate(i int32) bool {
	for j, n := range p.nodes {
		if n == i {
			p.nodes = p.nodes[:j+1]
			p.fwd = p.fwd[:j+1]
			return true
		}
	}
	return false
}

// cluster holds branches sharing start and convergent node.
type cluster []*orientedPath

func (c cluster) start() int32 { return c[0].nodes[0] }
func (c cluster) last() int32  { return c[0].nodes[len(c[0].nodes)-1] }

// traceDiverging follows every branch leaving start on one side in
// lockstep until two branches enter a common node from the same side.
func (p *Purger) traceDiverging(g *dbg.Graph, start int32, right bool) cluster {
	exts := g.Node(start).Extensions(right)
	paths := make([]*orientedPath, len(exts))
	for j, e := range exts {
		paths[j] = &orientedPath{
			nodes:    dbg.Path{start, e.Node},
			fwd:      []bool{right, right == e.Same},
			grabLeft: right != e.Same,
		}
	}
	possibleEnds := make(map[int32]bool)
	finished := 0
	for length := 2; length <= p.LengthThreshold && finished != len(paths); length++ {
		convergent := int32(-1)
		for _, path := range paths {
			if path.end {
				continue
			}
			tail := g.Node(path.nodes[len(path.nodes)-1])
			next := tail.Extensions(!path.grabLeft)
			if len(next) != 1 || path.contains(next[0].Node) {
				path.end = true
				finished++
				continue
			}
			e := next[0]
			path.grabLeft = path.grabLeft == e.Same
			path.nodes = append(path.nodes, e.Node)
			path.fwd = append(path.fwd, !path.grabLeft)
			// entering from the side we came from
			if g.Node(e.Node).ExtensionCount(path.grabLeft) > 1 {
				if possibleEnds[e.Node] {
					path.end = true
					finished++
					convergent = e.Node
					break
				}
				possibleEnds[e.Node] = true
			}
		}
		if convergent >= 0 {
			if c := confirm(g, convergent, paths); c != nil {
				return c
			}
		}
	}
	return nil
}

// confirm truncates the branches reaching convergent and keeps those
// entering it from the same side.
func confirm(g *dbg.Graph, convergent int32, paths []*orientedPath) cluster {
	var reaching cluster
	for _, path := range paths {
		if path.truncate(convergent) {
			reaching = append(reaching, path)
		}
	}
	nd := g.Node(convergent)
	for _, side := range [2][]dbg.Extension{nd.Left, nd.Right} {
		var c cluster
		for _, path := range reaching {
			if len(path.nodes) < 2 {
				continue
			}
			prev := path.nodes[len(path.nodes)-2]
			for _, e := range side {
				if e.Node == prev {
					c = append(c, path)
					break
				}
			}
		}
		if len(c) > 1 {
			return c
		}
	}
	return nil
}

func meanCount(g *dbg.Graph, p *orientedPath) float64 {
	sum := 0
	for _, n := range p.nodes {
		sum += g.Node(n).Count()
	}
	return float64(sum) / float64(len(p.nodes))
}

// pathSequence spells the walk in the orientation it was traced.
func pathSequence(g *dbg.Graph, p *orientedPath) []byte {
	s := g.GetNodeSequence(p.nodes[0])
	if !p.fwd[0] {
		s = sequence.ReverseComplement(s)
	}
	for j := 1; j < len(p.nodes); j++ {
		s = append(s, g.GetNextSymbolFrom(p.nodes[j], true, p.fwd[j]))
	}
	return s
}

// bestPath returns the branch with the highest mean k-mer count; ties go
// to the lexicographically smallest spelled sequence.
func bestPath(g *dbg.Graph, c cluster) int {
	best := 0
	bestMean := meanCount(g, c[0])
	for j := 1; j < len(c); j++ {
		m := meanCount(g, c[j])
		if m > bestMean || (m == bestMean && bytes.Compare(pathSequence(g, c[j]), pathSequence(g, c[best])) < 0) {
			best, bestMean = j, m
		}
	}
	return best
}

// removeDuplicates keeps one of two clusters found from opposite ends of
// the same bubble: the one whose start k-mer is not smaller than its end.
func removeDuplicates(g *dbg.Graph, clusters []cluster) []cluster {
	type key struct{ s, e int32 }
	keys := make(map[key]bool, len(clusters))
	for _, c := range clusters {
		keys[key{c.start(), c.last()}] = true
	}
	out := clusters[:0]
	for _, c := range clusters {
		s, e := c.start(), c.last()
		if keys[key{e, s}] && g.Node(s).Kmer < g.Node(e).Kmer {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DetectErroneousNodes returns, for every bubble, the nodes of the
// branches that lose against the best supported one. Nodes on any
// winning branch are never returned.
func (p *Purger) DetectErroneousNodes(g *dbg.Graph) (dbg.PathList, error) {
	if g.State() == dbg.StateDisposed {
		return nil, dbg.ErrDisposed
	}
	nodes := g.Nodes()
	found := make([][]cluster, len(nodes))
	if err := p.pool.RangeJob(0, len(nodes), func(j int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		i := nodes[j]
		nd := g.Node(i)
		if nd.RightCount() > 1 {
			if c := p.traceDiverging(g, i, true); c != nil {
				found[j] = append(found[j], c)
			}
		}
		if nd.LeftCount() > 1 {
			if c := p.traceDiverging(g, i, false); c != nil {
				found[j] = append(found[j], c)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	var clusters []cluster
	for _, f := range found {
		clusters = append(clusters, f...)
	}
	clusters = removeDuplicates(g, clusters)

	keep := make(map[int32]bool)
	var losers []dbg.Path
	for _, c := range clusters {
		b := bestPath(g, c)
		for _, n := range c[b].nodes {
			keep[n] = true
		}
		for j, path := range c {
			if j != b {
				losers = append(losers, path.nodes)
			}
		}
	}
	var paths dbg.PathList
	for _, l := range losers {
		var path dbg.Path
		for _, n := range l {
			if !keep[n] {
				path = append(path, n)
			}
		}
		if len(path) > 0 {
			paths = append(paths, path)
		}
	}
	sort.SliceStable(paths, func(i, j int) bool { return paths[i][0] < paths[j][0] })
	return paths, nil
}

// RemoveErroneousNodes deletes every node of paths and repairs the
// extensions of their neighbors.
func (p *Purger) RemoveErroneousNodes(g *dbg.Graph, paths dbg.PathList) error {
	return g.RemovePaths(paths)
}
