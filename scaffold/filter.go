package scaffold

import (
	"fmt"

	"github.com/dotnetbio/bio-sub011/utils"
)

// OrientationBasedMatePairFilter keeps, for every two contigs, the order
// most pairs agree on.
type OrientationBasedMatePairFilter struct{}

// FilterPairedReads drops contig pairs supported by fewer than redundancy
// mate pairs. When both A->B and B->A survive, the one with more pairs
// wins; on a tie the pair keyed by the lower contig index wins.
func (OrientationBasedMatePairFilter) FilterPairedReads(cmp ContigMatePairs, redundancy int) (ContigMatePairs, error) {
	if redundancy < 0 {
		return nil, fmt.Errorf("[FilterPairedReads] negative redundancy %d: %w", redundancy, utils.ErrConfiguration)
	}
	out := make(ContigMatePairs)
	for _, key := range cmp.Keys() {
		a, b := key[0], key[1]
		n := len(cmp[a][b])
		if n == 0 || n < redundancy {
			continue
		}
		twin := len(cmp[b][a])
		if twin > n || (twin == n && b < a) {
			continue
		}
		for _, vmp := range cmp[a][b] {
			out.add(a, b, vmp)
		}
	}
	return out, nil
}
