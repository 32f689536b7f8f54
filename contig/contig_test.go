package contig

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/dbg"
	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

const mainRead = "GCTAAAGACAATTACATAACATACACGTCAGCACGAAACT"

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

func contigStrings(cs [][]byte) []string {
	arr := make([]string, len(cs))
	for i, c := range cs {
		arr[i] = string(c)
	}
	sort.Strings(arr)
	return arr
}

func TestSingleReadRecovered(t *testing.T) {
	const r = "GATTCAAGGGCTGGGGG"
	for _, read := range []string{r, string(sequence.ReverseComplement([]byte(r)))} {
		g := buildGraph(t, read)
		cs, err := SimplePathBuilder{}.Build(g)
		if err != nil {
			t.Fatal(err)
		}
		if len(cs) != 1 || string(cs[0]) != r {
			t.Errorf("[TestSingleReadRecovered] contigs %s, want %s\n", contigStrings(cs), r)
		}
		if g.State() != dbg.StateContigsExtracted {
			t.Errorf("[TestSingleReadRecovered] state %v\n", g.State())
		}
	}
}

func TestBranchSplitsContigs(t *testing.T) {
	g := buildGraph(t, mainRead, mainRead[:20]+"C")
	cs, err := SimplePathBuilder{}.Build(g)
	if err != nil {
		t.Fatal(err)
	}
	got := contigStrings(cs)
	want := []string{
		mainRead[14:],
		"CATAACC",
		string(sequence.ReverseComplement([]byte(mainRead[:20]))),
	}
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("[TestBranchSplitsContigs] contigs %v, want %v\n", got, want)
	}
}

func TestCycle(t *testing.T) {
	const s = "CCGTAATGCCTTTCCCTAAC"
	g := buildGraph(t, s+s[:7])
	if g.NodeCount() != 20 {
		t.Fatalf("[TestCycle] %d nodes\n", g.NodeCount())
	}
	cs, err := SimplePathBuilder{}.Build(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 1 || len(cs[0]) != 26 {
		t.Fatalf("[TestCycle] contigs %s\n", contigStrings(cs))
	}
	c := string(cs[0])
	rc := string(sequence.ReverseComplement(cs[0]))
	if !strings.Contains(s+s+s, c) && !strings.Contains(s+s+s, rc) {
		t.Errorf("[TestCycle] %s is not a rotation of the cycle\n", c)
	}
}

func TestIslandAndPalindrome(t *testing.T) {
	g := buildGraph(t, "TTTTGGG")
	cs, _ := SimplePathBuilder{}.Build(g)
	if len(cs) != 1 || string(cs[0]) != "CCCAAAA" {
		t.Errorf("[TestIslandAndPalindrome] island contigs %s\n", contigStrings(cs))
	}
	// ACGT is its own reverse complement, so no extension may cross it
	pg, err := dbg.Build([]sequence.Sequence{sequence.New("p", []byte("AACGTT"))}, 4, threadpool.New(1, 100))
	if err != nil {
		t.Fatal(err)
	}
	cs, _ = SimplePathBuilder{}.Build(pg)
	for _, c := range cs {
		if len(c) != 4 {
			t.Errorf("[TestIslandAndPalindrome] contig %s crosses a palindrome\n", c)
		}
	}
}

func TestRemoveLowCoverageContigs(t *testing.T) {
	g := buildGraph(t, mainRead, mainRead, mainRead, "TTTTGGG", "CCGGATTAGC")
	if g.NodeCount() != 39 {
		t.Fatalf("[TestRemoveLowCoverageContigs] %d nodes\n", g.NodeCount())
	}
	n, err := SimplePathBuilder{}.RemoveLowCoverageContigs(g, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || g.NodeCount() != 34 {
		t.Errorf("[TestRemoveLowCoverageContigs] removed %d, %d left\n", n, g.NodeCount())
	}
	if _, err := (SimplePathBuilder{}).RemoveLowCoverageContigs(g, 0); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("[TestRemoveLowCoverageContigs] zero threshold err=%v\n", err)
	}
}

func Benchmark_Build(b *testing.B) {
	g, _ := dbg.Build([]sequence.Sequence{sequence.New("r", []byte(mainRead))}, 7, threadpool.New(1, 100))
	for i := 0; i < b.N; i++ {
		SimplePathBuilder{}.Build(g)
	}
}
