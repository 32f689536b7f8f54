package dbg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dotnetbio/bio-sub011/utils"
)

// Path is an ordered walk over node indices.
type Path []int32

// PathList is the output of an erroneous-node detector.
type PathList []Path

func (p Path) String() string {
	var sb strings.Builder
	for i, n := range p {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(int(n)))
	}
	return sb.String()
}

// Nodes returns the distinct node indices of every path, sorted.
func (pl PathList) Nodes() []int32 {
	set := make(map[int32]bool)
	for _, p := range pl {
		for _, n := range p {
			set[n] = true
		}
	}
	arr := make([]int32, 0, len(set))
	for n := range set {
		arr = append(arr, n)
	}
	sort.Slice(arr, func(i, j int) bool { return arr[i] < arr[j] })
	return arr
}

// Dedup drops paths that visit exactly the same node set as an earlier
// path, so a dead end found from both of its ends counts once.
func (pl PathList) Dedup() PathList {
	seen := make(map[string]bool, len(pl))
	out := make(PathList, 0, len(pl))
	for _, p := range pl {
		key := append(Path(nil), p...)
		sort.Slice(key, func(i, j int) bool { return key[i] < key[j] })
		if seen[key.String()] {
			continue
		}
		seen[key.String()] = true
		out = append(out, p)
	}
	return out
}

// RemovePaths deletes every node named by paths. A path naming a node that
// is already deleted breaks the graph invariants and nothing is removed.
func (g *Graph) RemovePaths(paths PathList) error {
	if g.state == StateDisposed {
		return ErrDisposed
	}
	nodes := paths.Dedup().Nodes()
	for _, i := range nodes {
		if i < 0 || int(i) >= len(g.nodes) || g.nodes[i].GetDeleteFlag() {
			return fmt.Errorf("[RemovePaths] path names removed node %d: %w", i, utils.ErrInconsistency)
		}
	}
	_, err := g.RemoveNodes(nodes)
	return err
}
