package scaffold

import (
	"fmt"
	"io"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

// ContigEdge joins two contigs whose ends share k-1 bases. Same is false
// when the neighbor has to be reverse complemented.
type ContigEdge struct {
	Node int
	Same bool
}

type ContigNode struct {
	Left, Right []ContigEdge
}

func (n *ContigNode) Extensions(right bool) []ContigEdge {
	if right {
		return n.Right
	}
	return n.Left
}

func (n *ContigNode) ExtensionCount() int { return len(n.Left) + len(n.Right) }

// ContigGraph is the overlap graph of a contig set. Node i is contig i.
type ContigGraph struct {
	K       int
	Contigs []sequence.Sequence
	Nodes   []ContigNode
}

func addEdge(exts []ContigEdge, e ContigEdge) []ContigEdge {
	for _, x := range exts {
		if x == e {
			return exts
		}
	}
	return append(exts, e)
}

// BuildContigGraph links contigs whose (k-1)-base ends match on the same
// strand or on opposite strands.
func BuildContigGraph(contigs []sequence.Sequence, k int) (*ContigGraph, error) {
	if k <= 1 {
		return nil, fmt.Errorf("[BuildContigGraph] k-mer length %d too small: %w", k, utils.ErrConfiguration)
	}
	cg := &ContigGraph{K: k, Contigs: contigs, Nodes: make([]ContigNode, len(contigs))}
	leftMap := make(map[string][]int)
	rightMap := make(map[string][]int)
	for i, c := range contigs {
		if c.Len() < k {
			return nil, fmt.Errorf("[BuildContigGraph] contig %d shorter than k-mer length %d: %w", i, k, utils.ErrInput)
		}
		leftMap[string(c.Seq[:k-1])] = append(leftMap[string(c.Seq[:k-1])], i)
		rightMap[string(c.Seq[c.Len()-k+1:])] = append(rightMap[string(c.Seq[c.Len()-k+1:])], i)
	}
	for i, c := range contigs {
		nd := &cg.Nodes[i]
		l := c.Seq[:k-1]
		r := c.Seq[c.Len()-k+1:]
		for _, j := range rightMap[utils.Bytes2String(l)] {
			if j != i {
				nd.Left = addEdge(nd.Left, ContigEdge{Node: j, Same: true})
			}
		}
		for _, j := range leftMap[string(sequence.ReverseComplement(l))] {
			if j != i {
				nd.Left = addEdge(nd.Left, ContigEdge{Node: j, Same: false})
			}
		}
		for _, j := range leftMap[utils.Bytes2String(r)] {
			if j != i {
				nd.Right = addEdge(nd.Right, ContigEdge{Node: j, Same: true})
			}
		}
		for _, j := range rightMap[string(sequence.ReverseComplement(r))] {
			if j != i {
				nd.Right = addEdge(nd.Right, ContigEdge{Node: j, Same: false})
			}
		}
	}
	return cg, nil
}

// GetNodeSequence returns contig i in the requested orientation.
func (cg *ContigGraph) GetNodeSequence(i int, forward bool) []byte {
	if forward {
		return cg.Contigs[i].Seq
	}
	return sequence.ReverseComplement(cg.Contigs[i].Seq)
}

// WriteGraphviz writes the contig overlap graph in dot format.
func (cg *ContigGraph) WriteGraphviz(w io.Writer) error {
	gv := gographviz.NewGraph()
	gv.SetName("C")
	gv.SetDir(true)
	for i, c := range cg.Contigs {
		attr := make(map[string]string)
		attr["color"] = "Green"
		attr["shape"] = "record"
		attr["label"] = "\"" + strconv.Itoa(i) + "|len:" + strconv.Itoa(c.Len()) + "\""
		gv.AddNode("C", strconv.Itoa(i), attr)
	}
	for i := range cg.Nodes {
		for _, right := range []bool{false, true} {
			for _, e := range cg.Nodes[i].Extensions(right) {
				attr := make(map[string]string)
				attr["color"] = "Blue"
				if right {
					attr["taillabel"] = "R"
				} else {
					attr["taillabel"] = "L"
				}
				if !e.Same {
					attr["style"] = "dashed"
				}
				gv.AddEdge(strconv.Itoa(i), strconv.Itoa(e.Node), true, attr)
			}
		}
	}
	if _, err := io.WriteString(w, gv.String()); err != nil {
		return fmt.Errorf("[ContigGraph.WriteGraphviz] %v", err)
	}
	return nil
}
