// Package dangling removes short dead-end walks (tips) from a de Bruijn
// graph and erodes low-coverage graph ends.
package dangling

import (
	"log"
	"sort"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/dbg"
)

// Purger detects tips shorter than LengthThreshold nodes.
type Purger struct {
	LengthThreshold int
	pool            threadpool.ThreadPool
}

func NewPurger(threshold int, pool threadpool.ThreadPool) *Purger {
	return &Purger{LengthThreshold: threshold, pool: pool}
}

// tracer walks from a tip towards the rest of the graph. When erode is
// positive, leading nodes whose count is below it are collected in eroded
// instead of the link.
type tracer struct {
	g         *dbg.Graph
	threshold int
	erode     int
	eroded    []int32
}

func containsNode(p dbg.Path, i int32) bool {
	for _, n := range p {
		if n == i {
			return true
		}
	}
	return false
}

// add appends node i to link. end is set on a loop or when the link would
// reach the threshold, in which case ok is false.
func (t *tracer) add(link dbg.Path, i int32) (dbg.Path, bool, bool) {
	if t.erode > 0 && len(link) == 0 && t.g.Node(i).Count() < t.erode {
		for _, e := range t.eroded {
			if e == i {
				return link, true, true
			}
		}
		t.eroded = append(t.eroded, i)
		return link, false, true
	}
	if containsNode(link, i) {
		return link, true, true
	}
	if len(link)+1 >= t.threshold {
		return nil, true, false
	}
	return append(link, i), false, true
}

// trace follows single extensions from node i. forward gives the walking
// direction relative to the start node, same the orientation of node i
// relative to the start node.
func (t *tracer) trace(forward bool, link dbg.Path, i int32, same bool) (dbg.Path, bool) {
	for {
		nd := t.g.Node(i)
		right := forward == same
		sameDir := nd.Extensions(right)
		oppCount := nd.ExtensionCount(!right)
		if len(sameDir) == 0 {
			link, _, ok := t.add(link, i)
			return link, ok
		}
		if oppCount > 1 {
			return link, true
		}
		if len(sameDir) > 1 {
			link, _, ok := t.add(link, i)
			return link, ok
		}
		var end, ok bool
		link, end, ok = t.add(link, i)
		if !ok {
			return nil, false
		}
		if end {
			return link, true
		}
		e := sameDir[0]
		i = e.Node
		same = same == e.Same
	}
}

// fromEnd traces the tip starting at node i. Nodes with extensions on both
// sides are not tips and yield no path.
func (t *tracer) fromEnd(i int32) dbg.Path {
	nd := t.g.Node(i)
	var link dbg.Path
	var ok bool
	switch {
	case nd.RightCount() == 0:
		link, ok = t.trace(false, nil, i, true)
	case nd.LeftCount() == 0:
		link, ok = t.trace(true, nil, i, true)
	}
	if !ok || len(link) == 0 {
		return nil
	}
	return link
}

// DetectErroneousNodes returns every tip and island shorter than the
// length threshold. Tips are traced in parallel; the result is ordered by
// start node.
func (p *Purger) DetectErroneousNodes(g *dbg.Graph) (dbg.PathList, error) {
	if g.State() == dbg.StateDisposed {
		return nil, dbg.ErrDisposed
	}
	nodes := g.Nodes()
	res := make([]dbg.Path, len(nodes))
	if err := p.pool.RangeJob(0, len(nodes), func(j int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		i := nodes[j]
		nd := g.Node(i)
		if nd.LeftCount()+nd.RightCount() == 0 {
			if p.LengthThreshold > 1 {
				res[j] = dbg.Path{i}
			}
			return nil
		}
		t := tracer{g: g, threshold: p.LengthThreshold}
		res[j] = t.fromEnd(i)
		return nil
	}); err != nil {
		return nil, err
	}
	var paths dbg.PathList
	for _, r := range res {
		if len(r) > 0 {
			paths = append(paths, r)
		}
	}
	return paths, nil
}

// RemoveErroneousNodes deletes every node of paths. A path naming a node
// that is already deleted is an inconsistency and nothing is removed.
func (p *Purger) RemoveErroneousNodes(g *dbg.Graph, paths dbg.PathList) error {
	return g.RemovePaths(paths)
}

// ErodeGraphEnds marks end nodes whose count is below erosionThreshold,
// removes them and rescans the new ends until nothing is eroded. It
// returns the sorted distinct lengths of the tips seen on the way.
func (p *Purger) ErodeGraphEnds(g *dbg.Graph, erosionThreshold int) ([]int, error) {
	if g.State() == dbg.StateDisposed {
		return nil, dbg.ErrDisposed
	}
	lengths := make(map[int]bool)
	candidates := g.Nodes()
	for round := 0; ; round++ {
		links := make([]dbg.Path, len(candidates))
		eroded := make([][]int32, len(candidates))
		if err := p.pool.RangeJob(0, len(candidates), func(j int, pool threadpool.ThreadPool, erf func() error) error {
			if erf() != nil {
				return nil
			}
			i := candidates[j]
			nd := g.Node(i)
			if nd.LeftCount()+nd.RightCount() == 0 {
				if erosionThreshold > 0 && nd.Count() < erosionThreshold {
					eroded[j] = []int32{i}
				} else {
					links[j] = dbg.Path{i}
				}
				return nil
			}
			t := tracer{g: g, threshold: p.LengthThreshold, erode: erosionThreshold}
			links[j] = t.fromEnd(i)
			eroded[j] = t.eroded
			return nil
		}); err != nil {
			return nil, err
		}
		for j := range candidates {
			if len(links[j]) > 0 {
				lengths[len(links[j])] = true
			}
			for _, i := range eroded[j] {
				g.Node(i).SetMarkFlag()
			}
		}
		n, err := g.RemoveMarkedNodes()
		if err != nil {
			return nil, err
		}
		log.Printf("[ErodeGraphEnds] round %d eroded %d nodes\n", round, n)
		if n == 0 {
			break
		}
		candidates = candidates[:0]
		for _, i := range g.Nodes() {
			nd := g.Node(i)
			if nd.LeftCount() == 0 || nd.RightCount() == 0 {
				candidates = append(candidates, i)
			}
		}
	}
	arr := make([]int, 0, len(lengths))
	for l := range lengths {
		arr = append(arr, l)
	}
	sort.Ints(arr)
	return arr, nil
}
