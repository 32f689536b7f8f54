package kmer

import (
	"fmt"
	"math"

	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

// EstimateKmerLength picks an odd k between half the longest read and the
// shortest read, bounded by MaxKmerLength.
func EstimateKmerLength(seqs []sequence.Sequence) (int, error) {
	if len(seqs) == 0 {
		return 0, fmt.Errorf("[EstimateKmerLength] no sequences: %w", utils.ErrInput)
	}
	minLen, maxLen := math.MaxInt, 0
	for _, s := range seqs {
		if s.Len() < minLen {
			minLen = s.Len()
		}
		if s.Len() > maxLen {
			maxLen = s.Len()
		}
	}
	lo := float64(utils.MaxInt(MinKmerLength, maxLen/2))
	hi := float64(minLen)
	var k int
	if lo < hi {
		k = int(math.Ceil((lo + hi) / 2))
	} else {
		k = int(math.Floor(hi))
	}
	// odd lengths cannot be palindromic
	if k%2 == 0 {
		k++
		if float64(k) > hi {
			k -= 2
		}
		if k <= 0 {
			k = 1
		}
	}
	if float64(k) > hi || k <= 0 {
		return 0, fmt.Errorf("[EstimateKmerLength] no k-mer length fits reads of length %d~%d: %w", minLen, maxLen, utils.ErrInput)
	}
	if k > MaxKmerLength {
		k = MaxKmerLength
	}
	return k, nil
}
