package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dotnetbio/bio-sub011/sequence"
)

func TestReadFasta(t *testing.T) {
	in := ">r1 first read\nacgtAC\nGT\n>r2\nTTTT\n"
	seqs, err := ReadFasta(bytes.NewBufferString(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 2 || seqs[0].ID != "r1" || string(seqs[0].Seq) != "ACGTACGT" || string(seqs[1].Seq) != "TTTT" {
		t.Errorf("[TestReadFasta] sequences %v\n", seqs)
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	seqs := []sequence.Sequence{
		sequence.New("contig_0", []byte("GATTCAAGGGCTGGGGG")),
		sequence.New("contig_1", bytes.Repeat([]byte("ACGT"), 40)),
	}
	dir := t.TempDir()
	for _, fn := range []string{"c.fa", "c.fa.gz", "c.fa.zst", "c.fa.br"} {
		path := filepath.Join(dir, fn)
		if err := WriteFastaFile(path, seqs); err != nil {
			t.Fatalf("[TestCompressedRoundTrip] write %s: %v\n", fn, err)
		}
		got, err := LoadReads([]string{path})
		if err != nil {
			t.Fatalf("[TestCompressedRoundTrip] read %s: %v\n", fn, err)
		}
		if len(got) != len(seqs) {
			t.Fatalf("[TestCompressedRoundTrip] %s: %d sequences\n", fn, len(got))
		}
		for i := range seqs {
			if got[i].ID != seqs[i].ID || !bytes.Equal(got[i].Seq, seqs[i].Seq) {
				t.Errorf("[TestCompressedRoundTrip] %s: %v, want %v\n", fn, got[i], seqs[i])
			}
		}
	}
	// suffixes select the codec, so a plain file is not gzip
	raw, err := os.ReadFile(filepath.Join(dir, "c.fa.gz"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.HasPrefix(raw, []byte(">")) {
		t.Errorf("[TestCompressedRoundTrip] c.fa.gz is not compressed\n")
	}
}

func TestWrapReaderPlain(t *testing.T) {
	rc, err := wrapReader("reads.fa", bytes.NewBufferString(">a\nAC\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != ">a\nAC\n" {
		t.Errorf("[TestWrapReaderPlain] %q\n", b)
	}
}
