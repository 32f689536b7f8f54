// Package kmer turns sequences into canonical, 2-bit packed k-mer
// occurrence sets.
package kmer

import (
	"fmt"

	"github.com/pbenner/threadpool"
	"github.com/shenwei356/kmers"

	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

const (
	MaxKmerLength = utils.MaxKmerLen
	MinKmerLength = 12
)

// Position is one occurrence of a k-mer inside its source sequence.
// Reverse is set when the window read there is the reverse complement of
// the stored canonical value.
type Position struct {
	Offset  int
	Reverse bool
}

type KmerPositions struct {
	Kmer      uint64
	Positions []Position
}

func (kp KmerPositions) Count() int { return len(kp.Positions) }

// KmersOfSequence aggregates the distinct canonical k-mers of one sequence.
type KmersOfSequence struct {
	Seq   sequence.Sequence
	K     int
	Kmers []KmerPositions
}

// Window is a single length-k window of a sequence in reading order.
type Window struct {
	Kmer    uint64
	Offset  int
	Reverse bool
}

func mask(k int) uint64 {
	return (uint64(1) << (2 * uint(k))) - 1
}

// Encode packs an unambiguous DNA word into 2 bits per base.
func Encode(b []byte) (uint64, error) {
	return kmers.Encode(b)
}

// Decode unpacks a k-mer code back to its bases.
func Decode(code uint64, k int) []byte {
	return kmers.MustDecode(code, k)
}

// RevComp returns the code of the reverse complement of code. With
// A=0 C=1 G=2 T=3 the complement of a base is its code xor 3.
func RevComp(code uint64, k int) uint64 {
	return kmers.MustReverse(code, k) ^ mask(k)
}

// Canonical returns min(code, revcomp(code)) and whether the reverse
// complement was chosen.
func Canonical(code uint64, k int) (uint64, bool) {
	rc := RevComp(code, k)
	if rc < code {
		return rc, true
	}
	return code, false
}

// IsPalindrome reports whether code equals its own reverse complement.
func IsPalindrome(code uint64, k int) bool {
	return RevComp(code, k) == code
}

func checkK(k, n int) error {
	if k <= 0 || k > MaxKmerLength {
		return fmt.Errorf("[kmer] k-mer length %d must between 1~%d: %w", k, MaxKmerLength, utils.ErrInput)
	}
	if k > n {
		return fmt.Errorf("[kmer] k-mer length %d larger than sequence length %d: %w", k, n, utils.ErrInput)
	}
	return nil
}

// Windows returns every window of s free of ambiguous symbols, in reading
// order. Two windows are adjacent in s only when their offsets differ by 1.
func Windows(s []byte, k int) ([]Window, error) {
	if err := checkK(k, len(s)); err != nil {
		return nil, err
	}
	ws := make([]Window, 0, len(s)-k+1)
	// lastBad is the offset of the most recent ambiguous symbol
	lastBad := -1
	for i := 0; i < k-1; i++ {
		if !sequence.IsBase(s[i]) {
			lastBad = i
		}
	}
	for i := 0; i+k <= len(s); i++ {
		if !sequence.IsBase(s[i+k-1]) {
			lastBad = i + k - 1
		}
		if lastBad >= i {
			continue
		}
		code, err := Encode(s[i : i+k])
		if err != nil {
			return nil, fmt.Errorf("[Windows] offset %d: %v: %w", i, err, utils.ErrInput)
		}
		c, rev := Canonical(code, k)
		ws = append(ws, Window{Kmer: c, Offset: i, Reverse: rev})
	}
	return ws, nil
}

// Build slides a length-k window over seq and aggregates identical
// canonical k-mers with their positions.
func Build(seq sequence.Sequence, k int) (KmersOfSequence, error) {
	ks := KmersOfSequence{Seq: seq, K: k}
	ws, err := Windows(seq.Seq, k)
	if err != nil {
		return ks, fmt.Errorf("[Build] sequence %q: %w", seq.ID, err)
	}
	idx := make(map[uint64]int, len(ws))
	for _, w := range ws {
		p := Position{Offset: w.Offset, Reverse: w.Reverse}
		if j, ok := idx[w.Kmer]; ok {
			ks.Kmers[j].Positions = append(ks.Kmers[j].Positions, p)
			continue
		}
		idx[w.Kmer] = len(ks.Kmers)
		ks.Kmers = append(ks.Kmers, KmerPositions{Kmer: w.Kmer, Positions: []Position{p}})
	}
	return ks, nil
}

// BuildAll applies Build to every sequence on the pool.
func BuildAll(seqs []sequence.Sequence, k int, pool threadpool.ThreadPool) ([]KmersOfSequence, error) {
	res := make([]KmersOfSequence, len(seqs))
	if err := pool.RangeJob(0, len(seqs), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		var err error
		res[i], err = Build(seqs[i], k)
		return err
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// KmerToSequence returns the window of the source sequence at p, in the
// orientation it was read.
func KmerToSequence(ks KmersOfSequence, p Position) []byte {
	w := make([]byte, ks.K)
	copy(w, ks.Seq.Seq[p.Offset:p.Offset+ks.K])
	return w
}

// KmersToSequences reconstructs the first occurrence of every distinct
// k-mer of ks.
func KmersToSequences(ks KmersOfSequence) [][]byte {
	out := make([][]byte, 0, len(ks.Kmers))
	for _, kp := range ks.Kmers {
		out = append(out, KmerToSequence(ks, kp.Positions[0]))
	}
	return out
}
