package scaffold

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"

	"github.com/dotnetbio/bio-sub011/sequence"
)

// cigarOf clips the bases of a read outside the mapped run. For reverse
// runs the read is written reverse complemented, so the clips swap.
func cigarOf(m ReadMap, readLen int) []sam.CigarOp {
	head, tail := m.StartPositionOfRead, readLen-m.StartPositionOfRead-m.Length
	if m.IsReverse {
		head, tail = tail, head
	}
	var co []sam.CigarOp
	if head > 0 {
		co = append(co, sam.NewCigarOp(sam.CigarSoftClipped, head))
	}
	co = append(co, sam.NewCigarOp(sam.CigarMatch, m.Length))
	if tail > 0 {
		co = append(co, sam.NewCigarOp(sam.CigarSoftClipped, tail))
	}
	return co
}

// WriteSAM writes one SAM record per read run of rcm. Contigs are the
// references, named by their IDs. Reads absent from rcm are written as
// unmapped.
func WriteSAM(w io.Writer, contigs, reads []sequence.Sequence, rcm ReadContigMap) error {
	refs := make([]*sam.Reference, len(contigs))
	for i, c := range contigs {
		name := c.ID
		if name == "" {
			name = fmt.Sprintf("contig_%d", i)
		}
		ref, err := sam.NewReference(name, "", "", c.Len(), nil, nil)
		if err != nil {
			return fmt.Errorf("[WriteSAM] reference %s: %v", name, err)
		}
		refs[i] = ref
	}
	h, err := sam.NewHeader(nil, refs)
	if err != nil {
		return fmt.Errorf("[WriteSAM] header: %v", err)
	}
	sw, err := sam.NewWriter(w, h, sam.FlagDecimal)
	if err != nil {
		return fmt.Errorf("[WriteSAM] %v", err)
	}
	for _, r := range reads {
		id := StripOtherInfo(r.ID)
		m, ok := rcm[id]
		if !ok {
			rec, err := sam.NewRecord(id, nil, nil, -1, -1, 0, 0, nil, r.Seq, nil, nil)
			if err != nil {
				return fmt.Errorf("[WriteSAM] read %s: %v", id, err)
			}
			rec.Flags = sam.Unmapped
			if err := sw.Write(rec); err != nil {
				return fmt.Errorf("[WriteSAM] %v", err)
			}
			continue
		}
		for _, c := range rcm.Contigs(id) {
			for _, rm := range m[c] {
				seq := r.Seq
				if rm.IsReverse {
					seq = sequence.ReverseComplement(r.Seq)
				}
				rec, err := sam.NewRecord(id, refs[c], nil, rm.StartPositionOfContig, -1, 0, 255, cigarOf(rm, len(r.Seq)), seq, nil, nil)
				if err != nil {
					return fmt.Errorf("[WriteSAM] read %s: %v", id, err)
				}
				if rm.IsReverse {
					rec.Flags |= sam.Reverse
				}
				if err := sw.Write(rec); err != nil {
					return fmt.Errorf("[WriteSAM] %v", err)
				}
			}
		}
	}
	return nil
}
