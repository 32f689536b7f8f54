package redundant

import (
	"testing"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/dbg"
	"github.com/dotnetbio/bio-sub011/kmer"
	"github.com/dotnetbio/bio-sub011/sequence"
)

// 40 bases without a repeated 7-mer on either strand
const mainRead = "GCTAAAGACAATTACATAACATACACGTCAGCACGAAACT"

func variant(b byte) string {
	return mainRead[:20] + string(b) + mainRead[21:]
}

func buildGraph(t *testing.T, reads ...string) *dbg.Graph {
	t.Helper()
	seqs := make([]sequence.Sequence, len(reads))
	for i, r := range reads {
		seqs[i] = sequence.New("r", []byte(r))
	}
	g, err := dbg.Build(seqs, 7, threadpool.New(2, 200))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func lookup(g *dbg.Graph, w string) (int32, bool) {
	code, _ := kmer.Encode([]byte(w))
	c, _ := kmer.Canonical(code, len(w))
	return g.Lookup(c)
}

func TestPopBubble(t *testing.T) {
	for _, b := range []byte("CGT") {
		g := buildGraph(t, mainRead, mainRead, mainRead, variant(b))
		if g.NodeCount() != 41 {
			t.Fatalf("[TestPopBubble] %c: %d nodes, want 41\n", b, g.NodeCount())
		}
		p := NewPurger(24, threadpool.New(2, 200))
		paths, err := p.DetectErroneousNodes(g)
		if err != nil {
			t.Fatal(err)
		}
		// the bubble is found from both ends but reported once
		if len(paths) != 1 || len(paths[0]) != 7 {
			t.Fatalf("[TestPopBubble] %c: paths %v\n", b, paths)
		}
		if err := p.RemoveErroneousNodes(g, paths); err != nil {
			t.Fatal(err)
		}
		if g.NodeCount() != 34 {
			t.Errorf("[TestPopBubble] %c: %d nodes left, want 34\n", b, g.NodeCount())
		}
		for i := 0; i+7 <= len(mainRead); i++ {
			if _, ok := lookup(g, mainRead[i:i+7]); !ok {
				t.Errorf("[TestPopBubble] %c: supported k-mer %s removed\n", b, mainRead[i:i+7])
			}
		}
		fork, _ := lookup(g, mainRead[13:20])
		join, _ := lookup(g, mainRead[21:28])
		if g.Node(fork).LeftCount() != 1 || g.Node(fork).RightCount() != 1 ||
			g.Node(join).LeftCount() != 1 || g.Node(join).RightCount() != 1 {
			t.Errorf("[TestPopBubble] %c: branch left at merge point\n", b)
		}
		again, _ := p.DetectErroneousNodes(g)
		if len(again) != 0 {
			t.Errorf("[TestPopBubble] %c: second pass found %v\n", b, again)
		}
	}
}

func TestEqualSupportTieBreak(t *testing.T) {
	v := variant('C')
	g := buildGraph(t, mainRead, v)
	p := NewPurger(24, threadpool.New(1, 100))
	paths, err := p.DetectErroneousNodes(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.RemoveErroneousNodes(g, paths); err != nil {
		t.Fatal(err)
	}
	// the branch spelling the smaller sequence survives
	for i := 14; i <= 20; i++ {
		if _, ok := lookup(g, v[i:i+7]); !ok {
			t.Errorf("[TestEqualSupportTieBreak] %s removed\n", v[i:i+7])
		}
		if _, ok := lookup(g, mainRead[i:i+7]); ok {
			t.Errorf("[TestEqualSupportTieBreak] %s kept\n", mainRead[i:i+7])
		}
	}
}

func TestShortThreshold(t *testing.T) {
	g := buildGraph(t, mainRead, mainRead, variant('G'))
	p := NewPurger(5, threadpool.New(1, 100))
	paths, err := p.DetectErroneousNodes(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Errorf("[TestShortThreshold] bubble longer than threshold detected: %v\n", paths)
	}
}

func TestNoBubble(t *testing.T) {
	g := buildGraph(t, mainRead)
	paths, err := NewPurger(24, threadpool.New(1, 100)).DetectErroneousNodes(g)
	if err != nil || len(paths) != 0 {
		t.Errorf("[TestNoBubble] paths %v err=%v\n", paths, err)
	}
}
