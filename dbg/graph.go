// Package dbg implements the de Bruijn graph: one node per distinct
// canonical k-mer, linked by oriented extensions derived from read
// adjacency.
package dbg

import (
	"encoding/binary"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/kmer"
	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

type State int

const (
	StateEmpty State = iota
	StateBuilt
	StateSimplified
	StateContigsExtracted
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateBuilt:
		return "Built"
	case StateSimplified:
		return "Simplified"
	case StateContigsExtracted:
		return "ContigsExtracted"
	case StateDisposed:
		return "Disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrDisposed is returned by operations on a disposed graph.
var ErrDisposed = fmt.Errorf("graph disposed: %w", utils.ErrInconsistency)

const shardNum = 64

type indexShard struct {
	sync.Mutex
	m map[uint64]*Node
}

// Graph is an arena of nodes addressed by stable int32 indices.
type Graph struct {
	K      int
	nodes  []*Node
	index  map[uint64]int32
	state  State
	rounds int

	ProcessedSequences int64
	SkippedSequences   int64
}

func NewGraph(k int) (*Graph, error) {
	if k <= 0 || k > kmer.MaxKmerLength {
		return nil, fmt.Errorf("[NewGraph] k-mer length %d must between 1~%d: %w", k, kmer.MaxKmerLength, utils.ErrConfiguration)
	}
	return &Graph{K: k, index: make(map[uint64]int32)}, nil
}

// Build creates a graph of k-mer length k from seqs.
func Build(seqs []sequence.Sequence, k int, pool threadpool.ThreadPool) (*Graph, error) {
	g, err := NewGraph(k)
	if err != nil {
		return nil, err
	}
	if err := g.Build(seqs, pool); err != nil {
		return nil, err
	}
	return g, nil
}

func shardOf(code uint64) int {
	var kb [8]byte
	binary.LittleEndian.PutUint64(kb[:], code)
	return int(xxhash.Sum64(kb[:]) % shardNum)
}

// Build adds every read of seqs to an empty graph. Reads are scanned
// twice on the pool: the first pass creates and counts nodes in a sharded
// index, the second adds extensions under per-node locks.
func (g *Graph) Build(seqs []sequence.Sequence, pool threadpool.ThreadPool) error {
	if g.state != StateEmpty {
		return fmt.Errorf("[Build] graph in state %v: %w", g.state, utils.ErrInconsistency)
	}
	windows := make([][]kmer.Window, len(seqs))
	var shards [shardNum]indexShard
	for i := range shards {
		shards[i].m = make(map[uint64]*Node)
	}
	var processed, skipped int64
	if err := pool.RangeJob(0, len(seqs), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		ws, err := kmer.Windows(seqs[i].Seq, g.K)
		if err != nil || len(ws) == 0 {
			atomic.AddInt64(&skipped, 1)
			return nil
		}
		atomic.AddInt64(&processed, 1)
		windows[i] = ws
		for _, w := range ws {
			sd := &shards[shardOf(w.Kmer)]
			sd.Lock()
			nd, ok := sd.m[w.Kmer]
			if !ok {
				nd = &Node{Kmer: w.Kmer}
				sd.m[w.Kmer] = nd
			}
			nd.incCount()
			sd.Unlock()
		}
		return nil
	}); err != nil {
		return err
	}

	// stable indices ordered by k-mer value
	for i := range shards {
		for _, nd := range shards[i].m {
			g.nodes = append(g.nodes, nd)
		}
	}
	sort.Slice(g.nodes, func(i, j int) bool { return g.nodes[i].Kmer < g.nodes[j].Kmer })
	for i, nd := range g.nodes {
		g.index[nd.Kmer] = int32(i)
	}

	if err := pool.RangeJob(0, len(seqs), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		ws := windows[i]
		for j := 0; j+1 < len(ws); j++ {
			if ws[j+1].Offset != ws[j].Offset+1 {
				continue
			}
			g.link(ws[j], ws[j+1])
		}
		return nil
	}); err != nil {
		return err
	}
	for _, nd := range g.nodes {
		sort.Sort(extensionArr(nd.Left))
		sort.Sort(extensionArr(nd.Right))
	}
	g.ProcessedSequences += processed
	g.SkippedSequences += skipped
	g.state = StateBuilt
	log.Printf("[Build] k: %d, nodes: %d, processed reads: %d, skipped reads: %d\n", g.K, len(g.nodes), processed, skipped)
	return nil
}

// link connects the nodes of two adjacent windows a and b of one read.
func (g *Graph) link(a, b kmer.Window) {
	ai, bi := g.index[a.Kmer], g.index[b.Kmer]
	same := a.Reverse == b.Reverse
	g.nodes[ai].addExtension(!a.Reverse, Extension{Node: bi, Same: same})
	g.nodes[bi].addExtension(b.Reverse, Extension{Node: ai, Same: same})
}

func (g *Graph) State() State { return g.state }

// Rounds returns how many simplification passes have been applied.
func (g *Graph) Rounds() int { return g.rounds }

// MarkSimplified records one finished simplification pass.
func (g *Graph) MarkSimplified() {
	if g.state == StateBuilt || g.state == StateSimplified {
		g.state = StateSimplified
		g.rounds++
	}
}

// MarkContigsExtracted records that contigs were read from the graph.
func (g *Graph) MarkContigsExtracted() {
	if g.state != StateDisposed {
		g.state = StateContigsExtracted
	}
}

// Len returns the arena size including deleted nodes.
func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) Node(i int32) *Node { return g.nodes[i] }

// Lookup returns the index of the live node holding the canonical k-mer.
func (g *Graph) Lookup(code uint64) (int32, bool) {
	i, ok := g.index[code]
	return i, ok
}

// Nodes returns the indices of all live nodes in ascending order.
func (g *Graph) Nodes() []int32 {
	arr := make([]int32, 0, len(g.nodes))
	for i, nd := range g.nodes {
		if !nd.GetDeleteFlag() {
			arr = append(arr, int32(i))
		}
	}
	return arr
}

func (g *Graph) NodeCount() int {
	c := 0
	for _, nd := range g.nodes {
		if !nd.GetDeleteFlag() {
			c++
		}
	}
	return c
}

func (g *Graph) IsPalindrome(i int32) bool {
	return kmer.IsPalindrome(g.nodes[i].Kmer, g.K)
}

func (g *Graph) GetNodeSequence(i int32) []byte {
	return kmer.Decode(g.nodes[i].Kmer, g.K)
}

// GetNextSymbolFrom returns the symbol a walk gains when it steps onto
// node i, moving rightwards if forward is set, where same tells whether
// node i is read in its stored orientation.
func (g *Graph) GetNextSymbolFrom(i int32, forward, same bool) byte {
	s := g.GetNodeSequence(i)
	if forward {
		if same {
			return s[len(s)-1]
		}
		return sequence.ComplementBase(s[0])
	}
	if same {
		return s[0]
	}
	return sequence.ComplementBase(s[len(s)-1])
}

// SetNodeVisitState sets the visited flag of every node to v.
func (g *Graph) SetNodeVisitState(v bool) {
	for _, nd := range g.nodes {
		nd.SetVisitFlag(v)
	}
}

// RemoveNodes deletes the given nodes and scrubs every extension that
// points at them from the surviving neighbors. Already deleted nodes are
// ignored.
func (g *Graph) RemoveNodes(arr []int32) (int, error) {
	if g.state == StateDisposed {
		return 0, ErrDisposed
	}
	removed := make([]int32, 0, len(arr))
	for _, i := range arr {
		if i < 0 || int(i) >= len(g.nodes) {
			return 0, fmt.Errorf("[RemoveNodes] node index %d out of range: %w", i, utils.ErrInconsistency)
		}
		nd := g.nodes[i]
		if nd.GetDeleteFlag() {
			continue
		}
		nd.SetDeleteFlag()
		removed = append(removed, i)
	}
	live := func(e Extension) bool { return !g.nodes[e.Node].GetDeleteFlag() }
	for _, i := range removed {
		nd := g.nodes[i]
		for _, exts := range [2][]Extension{nd.Left, nd.Right} {
			for _, e := range exts {
				nb := g.nodes[e.Node]
				if nb.GetDeleteFlag() {
					continue
				}
				nb.Left = filterExtensions(nb.Left, live)
				nb.Right = filterExtensions(nb.Right, live)
			}
		}
	}
	for _, i := range removed {
		nd := g.nodes[i]
		nd.Left, nd.Right = nil, nil
		nd.ResetMarkFlag()
		delete(g.index, nd.Kmer)
	}
	return len(removed), nil
}

// RemoveMarkedNodes deletes every live node carrying the mark flag.
func (g *Graph) RemoveMarkedNodes() (int, error) {
	var arr []int32
	for i, nd := range g.nodes {
		if nd.GetMarkFlag() && !nd.GetDeleteFlag() {
			arr = append(arr, int32(i))
		}
	}
	return g.RemoveNodes(arr)
}

// Dispose releases the node arena. The graph cannot be used afterwards.
func (g *Graph) Dispose() {
	g.nodes = nil
	g.index = nil
	g.state = StateDisposed
}
