package scaffold

import (
	"fmt"
	"sort"

	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/kmer"
	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

// ReadOverlap tells whether a read lies entirely inside a contig.
type ReadOverlap uint8

const (
	PartialOverlap ReadOverlap = iota
	FullOverlap
)

func (o ReadOverlap) String() string {
	if o == FullOverlap {
		return "Full"
	}
	return "Partial"
}

// ReadMap is one continuous run of shared k-mers between a read and a
// contig. StartPositionOfContig is the leftmost contig base of the run in
// either orientation.
type ReadMap struct {
	StartPositionOfContig int
	StartPositionOfRead   int
	Length                int
	ReadOverlap           ReadOverlap
	IsReverse             bool
}

// ReadContigMap maps read ID to contig index to the runs of that read on
// the contig.
type ReadContigMap map[string]map[int][]ReadMap

// Contigs returns the sorted contig indices a read maps to.
func (rcm ReadContigMap) Contigs(id string) []int {
	cs := make([]int, 0, len(rcm[id]))
	for c := range rcm[id] {
		cs = append(cs, c)
	}
	sort.Ints(cs)
	return cs
}

// ReadContigMapper places reads on contigs through a shared k-mer index.
type ReadContigMapper struct {
	pool threadpool.ThreadPool
}

func NewReadContigMapper(pool threadpool.ThreadPool) *ReadContigMapper {
	return &ReadContigMapper{pool: pool}
}

// extend grows the run of maps that the hit at (contigPos, readPos)
// continues, or starts a new run.
func extend(maps []ReadMap, contigPos, readPos, k int, rev bool) []ReadMap {
	for j := range maps {
		m := &maps[j]
		if m.IsReverse != rev {
			continue
		}
		if !rev {
			if m.Length-k+m.StartPositionOfContig+1 == contigPos && m.StartPositionOfRead+m.Length-k+1 == readPos {
				m.Length++
				return maps
			}
		} else {
			if m.Length-k+m.StartPositionOfRead+1 == readPos && m.StartPositionOfContig-1 == contigPos {
				m.Length++
				m.StartPositionOfContig = contigPos
				return maps
			}
		}
	}
	return append(maps, ReadMap{
		StartPositionOfContig: contigPos,
		StartPositionOfRead:   readPos,
		Length:                k,
		IsReverse:             rev,
	})
}

func mapRead(dict kmer.Dictionary, read []byte, k int) map[int][]ReadMap {
	ws, err := kmer.Windows(read, k)
	if err != nil {
		return nil
	}
	var res map[int][]ReadMap
	for _, w := range ws {
		for _, ix := range dict[w.Kmer] {
			for _, p := range ix.Positions {
				if res == nil {
					res = make(map[int][]ReadMap)
				}
				rev := w.Reverse != p.Reverse
				res[ix.SequenceIndex] = extend(res[ix.SequenceIndex], p.Offset, w.Offset, k, rev)
			}
		}
	}
	for c, maps := range res {
		for j := range maps {
			if maps[j].Length == len(read) {
				maps[j].ReadOverlap = FullOverlap
			}
		}
		res[c] = maps
	}
	return res
}

// Map places every read on the contigs it shares k-mers with. Reads that
// share none are absent from the result.
func (rm *ReadContigMapper) Map(contigs, reads []sequence.Sequence, k int) (ReadContigMap, error) {
	if k <= 0 || k > kmer.MaxKmerLength {
		return nil, fmt.Errorf("[ReadContigMapper.Map] k-mer length %d must between 1~%d: %w", k, kmer.MaxKmerLength, utils.ErrConfiguration)
	}
	seen := make(map[string]bool, len(reads))
	for _, r := range reads {
		if seen[r.ID] {
			return nil, fmt.Errorf("[ReadContigMapper.Map] duplicate read id %q: %w", r.ID, utils.ErrInput)
		}
		seen[r.ID] = true
	}
	dict := kmer.BuildDictionary(contigs, k)
	res := make([]map[int][]ReadMap, len(reads))
	if err := rm.pool.RangeJob(0, len(reads), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		if erf() != nil {
			return nil
		}
		res[i] = mapRead(dict, reads[i].Seq, k)
		return nil
	}); err != nil {
		return nil, err
	}
	rcm := make(ReadContigMap)
	for i, r := range res {
		if len(r) > 0 {
			rcm[reads[i].ID] = r
		}
	}
	return rcm, nil
}
