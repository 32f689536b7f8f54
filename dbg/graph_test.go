package dbg

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/kmer"
	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

const testRead = "GATTCAAGGGCTGGGGG"

func buildGraph(t *testing.T, k int, reads ...string) *Graph {
	t.Helper()
	seqs := make([]sequence.Sequence, len(reads))
	for i, r := range reads {
		seqs[i] = sequence.New("r"+string(rune('a'+i)), []byte(r))
	}
	g, err := Build(seqs, k, threadpool.New(2, 200))
	if err != nil {
		t.Fatalf("[buildGraph] %v\n", err)
	}
	return g
}

func lookup(t *testing.T, g *Graph, w string) int32 {
	t.Helper()
	code, err := kmer.Encode([]byte(w))
	if err != nil {
		t.Fatal(err)
	}
	c, _ := kmer.Canonical(code, len(w))
	i, ok := g.Lookup(c)
	if !ok {
		t.Fatalf("[lookup] %s not in graph\n", w)
	}
	return i
}

// walkRight reads the graph from the node of word towards the right,
// following the only extension of every node.
func walkRight(t *testing.T, g *Graph, word string) []byte {
	t.Helper()
	start := lookup(t, g, word)
	code, _ := kmer.Encode([]byte(word))
	fwd := g.Node(start).Kmer == code
	seq := g.GetNodeSequence(start)
	if !fwd {
		seq = sequence.ReverseComplement(seq)
	}
	cur := start
	for steps := 0; steps < g.Len(); steps++ {
		exts := g.Node(cur).Extensions(fwd)
		if len(exts) != 1 {
			break
		}
		e := exts[0]
		fwd = fwd == e.Same
		seq = append(seq, g.GetNextSymbolFrom(e.Node, true, fwd))
		cur = e.Node
	}
	return seq
}

func TestBuildLinearRead(t *testing.T) {
	g := buildGraph(t, 7, testRead)
	if g.State() != StateBuilt {
		t.Fatalf("[TestBuildLinearRead] state %v\n", g.State())
	}
	if g.NodeCount() != 11 {
		t.Fatalf("[TestBuildLinearRead] %d nodes, want 11\n", g.NodeCount())
	}
	ends, exts := 0, 0
	for _, i := range g.Nodes() {
		nd := g.Node(i)
		if nd.LeftCount() > 1 || nd.RightCount() > 1 {
			t.Errorf("[TestBuildLinearRead] node %s branches\n", g.GetNodeSequence(i))
		}
		if nd.LeftCount()+nd.RightCount() == 1 {
			ends++
		}
		exts += nd.LeftCount() + nd.RightCount()
		if nd.Count() != 1 {
			t.Errorf("[TestBuildLinearRead] node %s count %d\n", g.GetNodeSequence(i), nd.Count())
		}
	}
	if ends != 2 || exts != 20 {
		t.Errorf("[TestBuildLinearRead] ends=%d exts=%d\n", ends, exts)
	}
	if got := walkRight(t, g, "GATTCAA"); string(got) != testRead {
		t.Errorf("[TestBuildLinearRead] walk %s, want %s\n", got, testRead)
	}
}

func TestBuildBothStrands(t *testing.T) {
	rc := string(sequence.ReverseComplement([]byte(testRead)))
	g := buildGraph(t, 7, testRead, rc)
	if g.NodeCount() != 11 {
		t.Fatalf("[TestBuildBothStrands] %d nodes, want 11\n", g.NodeCount())
	}
	for _, i := range g.Nodes() {
		if g.Node(i).Count() != 2 {
			t.Errorf("[TestBuildBothStrands] node %s count %d\n", g.GetNodeSequence(i), g.Node(i).Count())
		}
	}
	if got := walkRight(t, g, "GATTCAA"); string(got) != testRead {
		t.Errorf("[TestBuildBothStrands] walk %s, want %s\n", got, testRead)
	}
}

func TestBuildSkippedAndSaturation(t *testing.T) {
	g := buildGraph(t, 3, strings.Repeat("A", 300), "AC", "NNNNNN")
	if g.ProcessedSequences != 1 || g.SkippedSequences != 2 {
		t.Errorf("[TestBuildSkippedAndSaturation] processed %d skipped %d\n", g.ProcessedSequences, g.SkippedSequences)
	}
	i := lookup(t, g, "AAA")
	nd := g.Node(i)
	if nd.Count() != MaxKmerCount {
		t.Errorf("[TestBuildSkippedAndSaturation] count %d, want %d\n", nd.Count(), MaxKmerCount)
	}
	self := Extension{Node: i, Same: true}
	if len(nd.Left) != 1 || nd.Left[0] != self || len(nd.Right) != 1 || nd.Right[0] != self {
		t.Errorf("[TestBuildSkippedAndSaturation] self loop missing: %v %v\n", nd.Left, nd.Right)
	}
}

func TestNewGraphInvalidK(t *testing.T) {
	for _, k := range []int{0, 32} {
		if _, err := NewGraph(k); !errors.Is(err, utils.ErrConfiguration) {
			t.Errorf("[TestNewGraphInvalidK] k=%d err=%v\n", k, err)
		}
	}
}

func TestRemoveNodes(t *testing.T) {
	g := buildGraph(t, 7, testRead)
	mid := lookup(t, g, "CAAGGGC")
	n, err := g.RemoveNodes([]int32{mid})
	if err != nil || n != 1 {
		t.Fatalf("[TestRemoveNodes] n=%d err=%v\n", n, err)
	}
	if g.NodeCount() != 10 {
		t.Errorf("[TestRemoveNodes] %d nodes left\n", g.NodeCount())
	}
	for _, i := range g.Nodes() {
		for _, right := range []bool{false, true} {
			for _, e := range g.Node(i).Extensions(right) {
				if e.Node == mid {
					t.Errorf("[TestRemoveNodes] node %d still points at removed node\n", i)
				}
			}
		}
	}
	if _, ok := g.Lookup(g.Node(mid).Kmer); ok {
		t.Errorf("[TestRemoveNodes] removed k-mer still indexed\n")
	}
	if n, err = g.RemoveNodes([]int32{mid}); err != nil || n != 0 {
		t.Errorf("[TestRemoveNodes] second removal n=%d err=%v\n", n, err)
	}
	if _, err = g.RemoveNodes([]int32{int32(g.Len())}); !errors.Is(err, utils.ErrInconsistency) {
		t.Errorf("[TestRemoveNodes] out of range err=%v\n", err)
	}
}

func TestRemoveMarkedNodes(t *testing.T) {
	g := buildGraph(t, 7, testRead)
	g.Node(lookup(t, g, "GATTCAA")).SetMarkFlag()
	g.Node(lookup(t, g, "ATTCAAG")).SetMarkFlag()
	n, err := g.RemoveMarkedNodes()
	if err != nil || n != 2 || g.NodeCount() != 9 {
		t.Fatalf("[TestRemoveMarkedNodes] n=%d err=%v count=%d\n", n, err, g.NodeCount())
	}
	if got := walkRight(t, g, "TTCAAGG"); string(got) != testRead[2:] {
		t.Errorf("[TestRemoveMarkedNodes] walk %s\n", got)
	}
}

func TestDispose(t *testing.T) {
	g := buildGraph(t, 7, testRead)
	g.Dispose()
	if g.State() != StateDisposed {
		t.Fatalf("[TestDispose] state %v\n", g.State())
	}
	if _, err := g.RemoveNodes(nil); !errors.Is(err, ErrDisposed) || !errors.Is(err, utils.ErrInconsistency) {
		t.Errorf("[TestDispose] err=%v\n", err)
	}
	var buf bytes.Buffer
	if _, err := g.WriteTo(&buf); !errors.Is(err, ErrDisposed) {
		t.Errorf("[TestDispose] WriteTo err=%v\n", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := buildGraph(t, 7, testRead, "GATTCAAGGTT")
	g.RemoveNodes([]int32{lookup(t, g, "GGCTGGG")})
	var buf bytes.Buffer
	if _, err := g.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	h, err := ReadGraph(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.K != g.K || h.NodeCount() != g.NodeCount() {
		t.Fatalf("[TestSnapshotRoundTrip] k=%d nodes=%d, want k=%d nodes=%d\n", h.K, h.NodeCount(), g.K, g.NodeCount())
	}
	for _, i := range g.Nodes() {
		a := g.Node(i)
		j, ok := h.Lookup(a.Kmer)
		if !ok {
			t.Fatalf("[TestSnapshotRoundTrip] %s missing\n", g.GetNodeSequence(i))
		}
		b := h.Node(j)
		if a.Count() != b.Count() || a.LeftCount() != b.LeftCount() || a.RightCount() != b.RightCount() {
			t.Errorf("[TestSnapshotRoundTrip] node %s differs\n", g.GetNodeSequence(i))
		}
		for k, e := range a.Right {
			if g.Node(e.Node).Kmer != h.Node(b.Right[k].Node).Kmer || e.Same != b.Right[k].Same {
				t.Errorf("[TestSnapshotRoundTrip] node %s right extension %d differs\n", g.GetNodeSequence(i), k)
			}
		}
	}
	if _, err := ReadGraph(strings.NewReader("XXXX")); !errors.Is(err, utils.ErrInput) {
		t.Errorf("[TestSnapshotRoundTrip] bad magic err=%v\n", err)
	}
}

// shortWriter accepts limit bytes, then fails.
type shortWriter struct {
	limit int
}

func (sw *shortWriter) Write(p []byte) (int, error) {
	if len(p) > sw.limit {
		n := sw.limit
		sw.limit = 0
		return n, errors.New("disk full")
	}
	sw.limit -= len(p)
	return len(p), nil
}

func TestSnapshotWriteError(t *testing.T) {
	// enough nodes to spill the write buffer before the last node
	read := make([]byte, 3000)
	x := uint32(7)
	for i := range read {
		x = x*1664525 + 1013904223
		read[i] = "ACGT"[x>>30]
	}
	g := buildGraph(t, 21, string(read))
	n, err := g.WriteTo(&shortWriter{limit: 100})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("[TestSnapshotWriteError] err=%v\n", err)
	}
	if n > 100 {
		t.Errorf("[TestSnapshotWriteError] %d bytes written\n", n)
	}
}

func TestWriteGraphviz(t *testing.T) {
	g := buildGraph(t, 7, testRead)
	var buf bytes.Buffer
	if err := WriteGraphviz(&buf, g); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "digraph") || !strings.Contains(out, "GATTCAA|1") {
		t.Errorf("[TestWriteGraphviz] unexpected output:\n%s", out)
	}
}

func TestPathListDedup(t *testing.T) {
	pl := PathList{{1, 2, 3}, {3, 2, 1}, {4}, {2, 1}}
	d := pl.Dedup()
	if len(d) != 3 {
		t.Errorf("[TestPathListDedup] %v\n", d)
	}
	nodes := pl.Nodes()
	if len(nodes) != 4 || nodes[0] != 1 || nodes[3] != 4 {
		t.Errorf("[TestPathListDedup] nodes %v\n", nodes)
	}
}

func Benchmark_Build(b *testing.B) {
	seqs := []sequence.Sequence{sequence.New("r", bytes.Repeat([]byte(testRead), 32))}
	pool := threadpool.New(1, 100)
	for i := 0; i < b.N; i++ {
		Build(seqs, 15, pool)
	}
}
