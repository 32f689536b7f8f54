package dbg

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/dotnetbio/bio-sub011/utils"
)

var snapshotMagic = [4]byte{'P', 'D', 'N', 'G'}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func writeExtensions(w io.Writer, exts []Extension, remap map[int32]int32) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(exts))); err != nil {
		return err
	}
	for _, e := range exts {
		var same uint8
		if e.Same {
			same = 1
		}
		if err := binary.Write(w, binary.LittleEndian, remap[e.Node]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, same); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo stores the live nodes of g. Node indices are compacted, so a
// graph read back has no deleted nodes.
func (g *Graph) WriteTo(w io.Writer) (int64, error) {
	if g.state == StateDisposed {
		return 0, ErrDisposed
	}
	cw := &countingWriter{w: w}
	buffp := bufio.NewWriter(cw)
	live := g.Nodes()
	remap := make(map[int32]int32, len(live))
	for j, i := range live {
		remap[i] = int32(j)
	}
	hdr := []interface{}{snapshotMagic, int32(g.K), int32(len(live))}
	for _, v := range hdr {
		if err := binary.Write(buffp, binary.LittleEndian, v); err != nil {
			return cw.n, fmt.Errorf("[WriteTo] %v", err)
		}
	}
	for _, i := range live {
		nd := g.nodes[i]
		if err := binary.Write(buffp, binary.LittleEndian, nd.Kmer); err != nil {
			return cw.n, fmt.Errorf("[WriteTo] node %d: %v", i, err)
		}
		if err := binary.Write(buffp, binary.LittleEndian, nd.count); err != nil {
			return cw.n, fmt.Errorf("[WriteTo] node %d: %v", i, err)
		}
		if err := writeExtensions(buffp, nd.Left, remap); err != nil {
			return cw.n, fmt.Errorf("[WriteTo] node %d: %v", i, err)
		}
		if err := writeExtensions(buffp, nd.Right, remap); err != nil {
			return cw.n, fmt.Errorf("[WriteTo] node %d: %v", i, err)
		}
	}
	if err := buffp.Flush(); err != nil {
		return cw.n, fmt.Errorf("[WriteTo] %v", err)
	}
	return cw.n, nil
}

func readExtensions(r io.Reader, n int32) ([]Extension, error) {
	var c uint16
	if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
		return nil, err
	}
	if c == 0 {
		return nil, nil
	}
	exts := make([]Extension, c)
	for i := range exts {
		var same uint8
		if err := binary.Read(r, binary.LittleEndian, &exts[i].Node); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &same); err != nil {
			return nil, err
		}
		if exts[i].Node < 0 || exts[i].Node >= n {
			return nil, fmt.Errorf("extension to node %d out of range: %w", exts[i].Node, utils.ErrInput)
		}
		exts[i].Same = same > 0
	}
	return exts, nil
}

// ReadGraph loads a graph stored by WriteTo. The result is in state Built.
func ReadGraph(r io.Reader) (*Graph, error) {
	buffp := bufio.NewReader(r)
	var magic [4]byte
	var k, n int32
	if err := binary.Read(buffp, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("[ReadGraph] %v: %w", err, utils.ErrInput)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("[ReadGraph] not a graph snapshot: %w", utils.ErrInput)
	}
	if err := binary.Read(buffp, binary.LittleEndian, &k); err != nil {
		return nil, fmt.Errorf("[ReadGraph] %v: %w", err, utils.ErrInput)
	}
	if err := binary.Read(buffp, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("[ReadGraph] %v: %w", err, utils.ErrInput)
	}
	g, err := NewGraph(int(k))
	if err != nil {
		return nil, fmt.Errorf("[ReadGraph] %v: %w", err, utils.ErrInput)
	}
	if n < 0 {
		return nil, fmt.Errorf("[ReadGraph] node count %d: %w", n, utils.ErrInput)
	}
	g.nodes = make([]*Node, n)
	for i := range g.nodes {
		nd := &Node{}
		if err := binary.Read(buffp, binary.LittleEndian, &nd.Kmer); err != nil {
			return nil, fmt.Errorf("[ReadGraph] node %d: %v: %w", i, err, utils.ErrInput)
		}
		if err := binary.Read(buffp, binary.LittleEndian, &nd.count); err != nil {
			return nil, fmt.Errorf("[ReadGraph] node %d: %v: %w", i, err, utils.ErrInput)
		}
		if nd.Left, err = readExtensions(buffp, n); err != nil {
			return nil, fmt.Errorf("[ReadGraph] node %d: %v: %w", i, err, utils.ErrInput)
		}
		if nd.Right, err = readExtensions(buffp, n); err != nil {
			return nil, fmt.Errorf("[ReadGraph] node %d: %v: %w", i, err, utils.ErrInput)
		}
		g.nodes[i] = nd
		g.index[nd.Kmer] = int32(i)
	}
	if !sort.SliceIsSorted(g.nodes, func(i, j int) bool { return g.nodes[i].Kmer < g.nodes[j].Kmer }) {
		return nil, fmt.Errorf("[ReadGraph] node order broken: %w", utils.ErrInput)
	}
	g.state = StateBuilt
	return g, nil
}
