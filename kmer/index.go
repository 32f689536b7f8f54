package kmer

import (
	"github.com/dotnetbio/bio-sub011/sequence"
)

// Indexer locates a canonical k-mer inside one sequence of an indexed set.
type Indexer struct {
	SequenceIndex int
	Positions     []Position
}

// Dictionary maps canonical k-mers to their occurrences across sequences.
type Dictionary map[uint64][]Indexer

// BuildDictionary indexes every canonical k-mer of seqs. Sequences shorter
// than k contribute nothing.
func BuildDictionary(seqs []sequence.Sequence, k int) Dictionary {
	d := make(Dictionary)
	for i, s := range seqs {
		ks, err := Build(s, k)
		if err != nil {
			continue
		}
		for _, kp := range ks.Kmers {
			d[kp.Kmer] = append(d[kp.Kmer], Indexer{SequenceIndex: i, Positions: kp.Positions})
		}
	}
	return d
}
