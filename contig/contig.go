// Package contig extracts contigs from a simplified de Bruijn graph by
// walking its non-branching stretches.
package contig

import (
	"fmt"
	"log"

	"github.com/dotnetbio/bio-sub011/dbg"
	"github.com/dotnetbio/bio-sub011/utils"
)

// Builder turns a graph into contig sequences.
type Builder interface {
	Build(g *dbg.Graph) ([][]byte, error)
}

// LowCoveragePurger removes stretches whose mean k-mer count is low.
type LowCoveragePurger interface {
	RemoveLowCoverageContigs(g *dbg.Graph, threshold float64) (int, error)
}

// SimplePathBuilder emits one contig per maximal non-branching stretch.
type SimplePathBuilder struct{}

var (
	_ Builder           = SimplePathBuilder{}
	_ LowCoveragePurger = SimplePathBuilder{}
)

// sides holds the extensions of one node that a contig may cross.
type sides struct {
	left, right []dbg.Extension
}

func (s *sides) get(right bool) []dbg.Extension {
	if right {
		return s.right
	}
	return s.left
}

func dropNode(exts []dbg.Extension, n int32) []dbg.Extension {
	var out []dbg.Extension
	for _, e := range exts {
		if e.Node != n {
			out = append(out, e)
		}
	}
	return out
}

// walker carries the state of one extraction pass. The graph itself is
// only read, apart from visit and mark flags.
type walker struct {
	g         *dbg.Graph
	valid     map[int32]*sides
	threshold float64
	contigs   [][]byte
	marked    []int32
}

// validExtensions drops branching sides, palindromes and self loops. An
// extension dropped on one node is dropped on its neighbor too.
func validExtensions(g *dbg.Graph) map[int32]*sides {
	nodes := g.Nodes()
	valid := make(map[int32]*sides, len(nodes))
	for _, i := range nodes {
		nd := g.Node(i)
		valid[i] = &sides{
			left:  append([]dbg.Extension(nil), nd.Left...),
			right: append([]dbg.Extension(nil), nd.Right...),
		}
	}
	for _, i := range nodes {
		nd := g.Node(i)
		pal := g.IsPalindrome(i)
		for _, right := range []bool{false, true} {
			exts := nd.Extensions(right)
			s := valid[i]
			if pal || len(exts) > 1 {
				for _, e := range exts {
					nb := valid[e.Node]
					nb.left = dropNode(nb.left, i)
					nb.right = dropNode(nb.right, i)
					if right {
						s.right = dropNode(s.right, e.Node)
					} else {
						s.left = dropNode(s.left, e.Node)
					}
				}
			} else if len(exts) == 1 && exts[0].Node == i {
				if right {
					s.right = dropNode(s.right, i)
				} else {
					s.left = dropNode(s.left, i)
				}
			}
		}
	}
	return valid
}

// trace walks from start away from its only valid side. Appends if
// forward, prepends otherwise. dupPossible is set for walks started from a
// stretch end, which the other end would produce again.
func (w *walker) trace(start int32, forward, dupPossible bool) {
	g := w.g
	seq := g.GetNodeSequence(start)
	g.Node(start).SetVisitFlag(true)
	path := []int32{start}
	inPath := map[int32]bool{start: true}
	e := w.valid[start].get(forward)[0]
	node, same := e.Node, e.Same
	for {
		g.Node(node).SetVisitFlag(true)
		if inPath[node] {
			break
		}
		path = append(path, node)
		inPath[node] = true
		sym := g.GetNextSymbolFrom(node, forward, same)
		if forward {
			seq = append(seq, sym)
		} else {
			seq = append([]byte{sym}, seq...)
		}
		exts := w.valid[node].get(forward == same)
		if len(exts) == 0 {
			break
		}
		node, same = exts[0].Node, same == exts[0].Same
	}
	if dupPossible && g.Node(path[0]).Kmer < g.Node(path[len(path)-1]).Kmer {
		return
	}
	w.emit(path, seq)
}

func (w *walker) emit(path []int32, seq []byte) {
	if w.threshold <= 0 {
		w.contigs = append(w.contigs, seq)
		return
	}
	sum := 0
	for _, n := range path {
		sum += w.g.Node(n).Count()
	}
	if float64(sum)/float64(len(path)) < w.threshold {
		w.marked = append(w.marked, path...)
	}
}

func (w *walker) run() {
	g := w.g
	g.SetNodeVisitState(false)
	nodes := g.Nodes()
	for _, i := range nodes {
		s := w.valid[i]
		l, r := len(s.left), len(s.right)
		switch {
		case l+r == 0:
			g.Node(i).SetVisitFlag(true)
			w.emit([]int32{i}, g.GetNodeSequence(i))
		case l == 1 && r == 0:
			w.trace(i, false, true)
		case r == 1 && l == 0:
			w.trace(i, true, true)
		}
	}
	// what is left lies on cycles
	for _, i := range nodes {
		if !g.Node(i).GetVisitFlag() {
			w.trace(i, true, false)
		}
	}
	g.SetNodeVisitState(false)
}

// Build returns the contigs of g in node order.
func (b SimplePathBuilder) Build(g *dbg.Graph) ([][]byte, error) {
	if g.State() == dbg.StateDisposed {
		return nil, dbg.ErrDisposed
	}
	w := &walker{g: g, valid: validExtensions(g)}
	w.run()
	g.MarkContigsExtracted()
	log.Printf("[Build] %d contigs from %d nodes\n", len(w.contigs), g.NodeCount())
	return w.contigs, nil
}

// RemoveLowCoverageContigs deletes every stretch whose mean k-mer count is
// below threshold and returns the number of removed nodes.
func (b SimplePathBuilder) RemoveLowCoverageContigs(g *dbg.Graph, threshold float64) (int, error) {
	if g.State() == dbg.StateDisposed {
		return 0, dbg.ErrDisposed
	}
	if threshold <= 0 {
		return 0, fmt.Errorf("[RemoveLowCoverageContigs] coverage threshold %v must be positive: %w", threshold, utils.ErrConfiguration)
	}
	w := &walker{g: g, valid: validExtensions(g), threshold: threshold}
	w.run()
	for _, i := range w.marked {
		g.Node(i).SetMarkFlag()
	}
	return g.RemoveMarkedNodes()
}
