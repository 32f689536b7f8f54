package scaffold

import (
	"fmt"
	"log"
	"sort"

	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

// MatePair links the two reads of one clone.
type MatePair struct {
	ForwardReadID     string
	ReverseReadID     string
	Library           string
	Mean              float64
	StandardDeviation float64
}

// ValidMatePair is the evidence one mate pair gives about two contigs.
// After distance calculation a single ValidMatePair summarises every pair
// of a contig pair; index 0 of the distance fields holds the estimate
// with both contigs as stored, index 1 with the second contig reverse
// complemented.
type ValidMatePair struct {
	PairedRead                                MatePair
	ForwardReadStartPosition                  []int
	ReverseReadStartPosition                  []int
	ReverseReadReverseComplementStartPosition []int
	DistanceBetweenContigs                    [2]float64
	StandardDeviation                         [2]float64
	Weight                                    int
}

// ContigMatePairs maps forward contig index to reverse contig index to the
// pairs bridging them.
type ContigMatePairs map[int]map[int][]*ValidMatePair

func (cmp ContigMatePairs) add(fc, rc int, vmp *ValidMatePair) {
	m, ok := cmp[fc]
	if !ok {
		m = make(map[int][]*ValidMatePair)
		cmp[fc] = m
	}
	m[rc] = append(m[rc], vmp)
}

// Keys returns the contig pairs in ascending order.
func (cmp ContigMatePairs) Keys() [][2]int {
	var keys [][2]int
	for a, m := range cmp {
		for b := range m {
			keys = append(keys, [2]int{a, b})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	return keys
}

// MatePairMapper pairs reads by ID and turns pairs that land on two
// contigs into contig evidence.
type MatePairMapper struct {
	Naming    NamingConvention
	Libraries *CloneLibrary
}

func NewMatePairMapper(libs *CloneLibrary) *MatePairMapper {
	return &MatePairMapper{Naming: DefaultNaming, Libraries: libs}
}

// Map groups reads into mate pairs. Reads whose mate is absent, reads
// that follow no naming convention and pairs whose library cannot be
// resolved are left out.
func (mp *MatePairMapper) Map(reads []sequence.Sequence) ([]MatePair, error) {
	pairs := make(map[string]*MatePair)
	nolib := make(map[string]bool)
	for _, r := range reads {
		m, ok := mp.Naming.Parse(r.ID)
		if !ok {
			continue
		}
		key, mate := m.ID, m.MateID
		if !m.Forward {
			key = mate
		}
		if nolib[key] {
			continue
		}
		p, ok := pairs[key]
		if !ok {
			lib, err := mp.Libraries.Resolve(m.Library)
			if err != nil {
				log.Printf("[MatePairMapper.Map] read %q skipped: %v\n", r.ID, err)
				nolib[key] = true
				continue
			}
			p = &MatePair{Library: lib.Name, Mean: lib.Mean, StandardDeviation: lib.StandardDeviation}
			pairs[key] = p
		}
		if m.Forward {
			if p.ForwardReadID != "" {
				return nil, fmt.Errorf("[MatePairMapper.Map] duplicate read id %q: %w", m.ID, utils.ErrInput)
			}
			p.ForwardReadID = m.ID
		} else {
			if p.ReverseReadID != "" {
				return nil, fmt.Errorf("[MatePairMapper.Map] duplicate read id %q: %w", m.ID, utils.ErrInput)
			}
			p.ReverseReadID = m.ID
		}
	}
	res := make([]MatePair, 0, len(pairs))
	for _, p := range pairs {
		if p.ForwardReadID != "" && p.ReverseReadID != "" {
			res = append(res, *p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ForwardReadID < res[j].ForwardReadID })
	return res, nil
}

// MapContigToMatePairs records, for every mate pair whose reads land on
// two different contigs, the read positions on those contigs. lengths
// holds the contig lengths by index.
func (mp *MatePairMapper) MapContigToMatePairs(reads []sequence.Sequence, rcm ReadContigMap, lengths []int) (ContigMatePairs, error) {
	pairs, err := mp.Map(reads)
	if err != nil {
		return nil, err
	}
	cmp := make(ContigMatePairs)
	for _, p := range pairs {
		fwd, ok1 := rcm[p.ForwardReadID]
		rev, ok2 := rcm[p.ReverseReadID]
		if !ok1 || !ok2 {
			continue
		}
		for _, fc := range rcm.Contigs(p.ForwardReadID) {
			for _, rc := range rcm.Contigs(p.ReverseReadID) {
				if fc == rc {
					continue
				}
				if rc >= len(lengths) {
					return nil, fmt.Errorf("[MapContigToMatePairs] contig index %d out of range: %w", rc, utils.ErrInconsistency)
				}
				vmp := &ValidMatePair{PairedRead: p}
				for _, fm := range fwd[fc] {
					for _, rm := range rev[rc] {
						vmp.ForwardReadStartPosition = append(vmp.ForwardReadStartPosition, fm.StartPositionOfContig)
						vmp.ReverseReadStartPosition = append(vmp.ReverseReadStartPosition, rm.StartPositionOfContig+rm.Length-1)
						vmp.ReverseReadReverseComplementStartPosition = append(vmp.ReverseReadReverseComplementStartPosition, lengths[rc]-rm.StartPositionOfContig-1)
					}
				}
				cmp.add(fc, rc, vmp)
			}
		}
	}
	return cmp, nil
}

// Unmerged lists the IDs of reads that map to no contig, in input order.
// Free text after the ID is ignored when looking a read up.
func Unmerged(reads []sequence.Sequence, rcm ReadContigMap) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, r := range reads {
		if _, ok := rcm[StripOtherInfo(r.ID)]; ok || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		ids = append(ids, r.ID)
	}
	return ids
}
