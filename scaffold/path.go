package scaffold

import (
	"bytes"
	"strconv"
	"strings"
)

// PathStep places one contig on a scaffold. Gap is the number of unknown
// bases between the previous contig and this one; zero means the two
// overlap by k-1 bases. FindPaths only follows overlap edges and leaves
// Gap at zero, callers that join contigs by other evidence set it.
type PathStep struct {
	Node    int
	Forward bool
	Gap     int
}

// ScaffoldPath is an ordered walk over the contig graph.
type ScaffoldPath []PathStep

func (p ScaffoldPath) String() string {
	var sb strings.Builder
	for i, s := range p {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(s.Node))
		if s.Forward {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

func (p ScaffoldPath) contains(node int) bool {
	for _, s := range p {
		if s.Node == node {
			return true
		}
	}
	return false
}

// Reverse returns the same scaffold read from the other strand.
func (p ScaffoldPath) Reverse() ScaffoldPath {
	n := len(p)
	rp := make(ScaffoldPath, n)
	for j := 0; j < n; j++ {
		s := p[n-1-j]
		rp[j] = PathStep{Node: s.Node, Forward: !s.Forward}
		if j > 0 {
			rp[j].Gap = p[n-j].Gap
		}
	}
	return rp
}

// BuildSequenceFromPath stitches the contigs of p together. Adjacent
// contigs overlap by k-1 bases unless the step carries a gap, which is
// filled with N.
func (p ScaffoldPath) BuildSequenceFromPath(cg *ContigGraph, k int) []byte {
	var seq []byte
	for i, s := range p {
		cs := cg.GetNodeSequence(s.Node, s.Forward)
		switch {
		case i == 0:
			seq = append(seq, cs...)
		case s.Gap > 0:
			seq = append(seq, bytes.Repeat([]byte{'N'}, s.Gap)...)
			seq = append(seq, cs...)
		default:
			seq = append(seq, cs[k-1:]...)
		}
	}
	return seq
}
