package dbg

import (
	"sync"
)

// MaxKmerCount is the saturation value of a node occurrence count.
const MaxKmerCount = 255

const (
	deleteFlag uint8 = 1 << iota
	markFlag
	visitFlag
)

// Extension links a node to a neighbor. Same is set when the neighbor is
// stored in the same orientation as the path continues.
type Extension struct {
	Node int32
	Same bool
}

// Node is one distinct canonical k-mer of the graph.
type Node struct {
	mu    sync.Mutex
	Kmer  uint64
	count uint8
	Flag  uint8
	Left  []Extension
	Right []Extension
}

func (n *Node) Count() int { return int(n.count) }

func (n *Node) incCount() {
	if n.count < MaxKmerCount {
		n.count++
	}
}

func (n *Node) GetDeleteFlag() bool { return n.Flag&deleteFlag > 0 }
func (n *Node) SetDeleteFlag()      { n.Flag |= deleteFlag }

func (n *Node) GetMarkFlag() bool { return n.Flag&markFlag > 0 }
func (n *Node) SetMarkFlag()      { n.Flag |= markFlag }
func (n *Node) ResetMarkFlag()    { n.Flag &^= markFlag }

func (n *Node) GetVisitFlag() bool { return n.Flag&visitFlag > 0 }

func (n *Node) SetVisitFlag(v bool) {
	if v {
		n.Flag |= visitFlag
	} else {
		n.Flag &^= visitFlag
	}
}

func (n *Node) LeftCount() int  { return len(n.Left) }
func (n *Node) RightCount() int { return len(n.Right) }

// Extensions returns the right extensions if right is set, else the left.
func (n *Node) Extensions(right bool) []Extension {
	if right {
		return n.Right
	}
	return n.Left
}

func (n *Node) ExtensionCount(right bool) int {
	return len(n.Extensions(right))
}

func addExtension(exts []Extension, e Extension) []Extension {
	for _, x := range exts {
		if x == e {
			return exts
		}
	}
	return append(exts, e)
}

// addExtension records e on one side of n. Safe for concurrent use.
func (n *Node) addExtension(right bool, e Extension) {
	n.mu.Lock()
	if right {
		n.Right = addExtension(n.Right, e)
	} else {
		n.Left = addExtension(n.Left, e)
	}
	n.mu.Unlock()
}

func filterExtensions(exts []Extension, keep func(Extension) bool) []Extension {
	j := 0
	for _, e := range exts {
		if keep(e) {
			exts[j] = e
			j++
		}
	}
	if j == 0 {
		return nil
	}
	return exts[:j]
}

type extensionArr []Extension

func (arr extensionArr) Len() int      { return len(arr) }
func (arr extensionArr) Swap(i, j int) { arr[i], arr[j] = arr[j], arr[i] }
func (arr extensionArr) Less(i, j int) bool {
	if arr[i].Node != arr[j].Node {
		return arr[i].Node < arr[j].Node
	}
	return !arr[i].Same && arr[j].Same
}
