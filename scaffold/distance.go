package scaffold

import (
	"fmt"
	"math"

	"github.com/dotnetbio/bio-sub011/utils"
)

// DistanceCalculator estimates the gap between two contigs from the insert
// sizes of the pairs bridging them.
type DistanceCalculator struct {
	lengths []int
}

// NewDistanceCalculator takes the contig lengths by index.
func NewDistanceCalculator(lengths []int) *DistanceCalculator {
	return &DistanceCalculator{lengths: lengths}
}

// pairDistances returns the distance implied by one pair when the reverse
// contig is read as stored and when it is reverse complemented.
func pairDistances(vmp *ValidMatePair, l1, l2 int) (float64, float64) {
	m := vmp.PairedRead.Mean
	f := float64(vmp.ForwardReadStartPosition[0])
	r := float64(vmp.ReverseReadStartPosition[0])
	rrc := float64(vmp.ReverseReadReverseComplementStartPosition[0])
	d0 := m - (float64(l1) - f) - (r + 1)
	d1 := m - f - rrc - float64(l2)
	return d0, d1
}

// CalculateDistance collapses the pairs of every contig pair of cmp into
// one ValidMatePair carrying the inverse variance weighted distances.
func (dc *DistanceCalculator) CalculateDistance(cmp ContigMatePairs) error {
	for _, key := range cmp.Keys() {
		a, b := key[0], key[1]
		if a >= len(dc.lengths) || b >= len(dc.lengths) {
			return fmt.Errorf("[CalculateDistance] contig pair %d,%d out of range: %w", a, b, utils.ErrInconsistency)
		}
		vmps := cmp[a][b]
		if len(vmps) == 0 {
			delete(cmp[a], b)
			continue
		}
		var sum0, sum1, wsum float64
		res := &ValidMatePair{PairedRead: vmps[0].PairedRead}
		for _, vmp := range vmps {
			sd := vmp.PairedRead.StandardDeviation
			if sd <= 0 || len(vmp.ForwardReadStartPosition) == 0 {
				return fmt.Errorf("[CalculateDistance] pair %s has no usable evidence: %w", vmp.PairedRead.ForwardReadID, utils.ErrInconsistency)
			}
			w := 1 / (sd * sd)
			d0, d1 := pairDistances(vmp, dc.lengths[a], dc.lengths[b])
			sum0 += d0 * w
			sum1 += d1 * w
			wsum += w
			res.ForwardReadStartPosition = append(res.ForwardReadStartPosition, vmp.ForwardReadStartPosition...)
			res.ReverseReadStartPosition = append(res.ReverseReadStartPosition, vmp.ReverseReadStartPosition...)
			res.ReverseReadReverseComplementStartPosition = append(res.ReverseReadReverseComplementStartPosition, vmp.ReverseReadReverseComplementStartPosition...)
		}
		sd := 1 / math.Sqrt(wsum)
		res.DistanceBetweenContigs = [2]float64{sum0 / wsum, sum1 / wsum}
		res.StandardDeviation = [2]float64{sd, sd}
		res.Weight = len(vmps)
		cmp[a][b] = []*ValidMatePair{res}
	}
	return nil
}
