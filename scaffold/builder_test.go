package scaffold

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

// genome has no repeated 5-mer on either strand
const genome = "GGATCACAGTCTACACTGCTCACTCCAACCCCGGCCCCTGAGTCCGAGGAGAGGGTGCTT"

func genomeContigs() []sequence.Sequence {
	return seqs("c0", genome[0:20], "c1", genome[15:40], "c2", genome[35:60])
}

func genomeReads() []sequence.Sequence {
	return seqs(
		"R1.F:T", genome[2:10],
		"R1.R:T!second lane", "CGGACTCA",
		"R2.F:T", genome[4:12],
		"R2.R:T", "CTCGGACT",
		"Z.F:T", "AAAAAAAA",
		"junk", genome[20:30],
	)
}

func newBuilder(t *testing.T) *GraphScaffoldBuilder {
	t.Helper()
	cl := NewCloneLibrary()
	if err := cl.Add("T", 44, 5); err != nil {
		t.Fatal(err)
	}
	return NewGraphScaffoldBuilder(cl, threadpool.New(2, 200))
}

func TestBuildScaffold(t *testing.T) {
	b := newBuilder(t)
	res, err := b.BuildScaffold(genomeReads(), genomeContigs(), 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sequences) != 1 || string(res.Sequences[0]) != genome {
		t.Errorf("[TestBuildScaffold] scaffolds %q\n", res.Sequences)
	}
	if len(res.Paths) != 1 || res.Paths[0].String() != "0+-1+-2+" {
		t.Errorf("[TestBuildScaffold] paths %v\n", res.Paths)
	}
	for _, p := range res.Paths {
		for _, s := range p {
			if s.Gap != 0 {
				t.Errorf("[TestBuildScaffold] overlap path %v has gap %d\n", p, s.Gap)
			}
		}
	}
	if strings.Join(res.Unmerged, ",") != "Z.F:T,junk" {
		t.Errorf("[TestBuildScaffold] unmerged %v\n", res.Unmerged)
	}
	if m := res.ReadContigMap["R1.R:T"][2]; len(m) != 1 || !m[0].IsReverse || m[0].StartPositionOfContig != 3 {
		t.Errorf("[TestBuildScaffold] R1.R:T maps %+v\n", m)
	}
}

func TestBuildScaffoldWeakEvidence(t *testing.T) {
	b := newBuilder(t)
	b.Redundancy = 3
	res, err := b.BuildScaffold(genomeReads(), genomeContigs(), 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sequences) != 3 || len(res.Paths) != 0 {
		t.Errorf("[TestBuildScaffoldWeakEvidence] %d scaffolds %d paths\n", len(res.Sequences), len(res.Paths))
	}
	for i, c := range genomeContigs() {
		if !bytes.Equal(res.Sequences[i], c.Seq) {
			t.Errorf("[TestBuildScaffoldWeakEvidence] scaffold %d is %s\n", i, res.Sequences[i])
		}
	}
	b.Depth = 0
	if _, err := b.BuildScaffold(genomeReads(), genomeContigs(), 6); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("[TestBuildScaffoldWeakEvidence] depth 0: %v\n", err)
	}
}

func TestWriteSAM(t *testing.T) {
	b := newBuilder(t)
	reads := genomeReads()
	res, err := b.BuildScaffold(reads, genomeContigs(), 6)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteSAM(&buf, genomeContigs(), reads, res.ReadContigMap); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"SN:c0",
		"R1.F:T\t0\tc0\t3\t255\t8M",
		"R1.R:T\t16\tc2\t4\t255\t8M",
		"Z.F:T\t4\t",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("[TestWriteSAM] output lacks %q:\n%s", want, out)
		}
	}
}

func TestBuildScaffoldDefaultLibrary(t *testing.T) {
	for _, names := range [][]string{
		{"R1/1", "R1/2", "R2/1", "R2/2", "Z/1"},
		{"R1.F:lib", "R1.R:lib", "R2.F:lib", "R2.R:lib", "Z.F:lib"},
	} {
		reads := seqs(
			names[0], genome[2:10],
			names[1], "CGGACTCA",
			names[2], genome[4:12],
			names[3], "CTCGGACT",
			names[4], "AAAAAAAA",
			"junk", genome[20:30],
		)
		b := NewGraphScaffoldBuilder(NewCloneLibrary(), threadpool.New(2, 200))
		res, err := b.BuildScaffold(reads, genomeContigs(), 6)
		if err != nil {
			t.Fatalf("[TestBuildScaffoldDefaultLibrary] %s: %v\n", names[0], err)
		}
		for _, c := range genomeContigs() {
			found := false
			for _, s := range res.Sequences {
				found = found || bytes.Contains(s, c.Seq)
			}
			if !found {
				t.Errorf("[TestBuildScaffoldDefaultLibrary] %s: contig %s lost\n", names[0], c.ID)
			}
		}
		if _, ok := res.ReadContigMap[names[0]]; !ok {
			t.Errorf("[TestBuildScaffoldDefaultLibrary] %s not mapped\n", names[0])
		}
		if u := strings.Join(res.Unmerged, ","); u != names[4]+",junk" {
			t.Errorf("[TestBuildScaffoldDefaultLibrary] unmerged %s\n", u)
		}
	}
}
