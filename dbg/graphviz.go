package dbg

import (
	"fmt"
	"io"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// WriteGraphviz writes the live nodes of g as a dot graph. Edges keep the
// side they leave from in the tail port and are dashed when the neighbor
// is read in the opposite orientation.
func WriteGraphviz(w io.Writer, g *Graph) error {
	if g.State() == StateDisposed {
		return ErrDisposed
	}
	gv := gographviz.NewGraph()
	gv.SetName("G")
	gv.SetDir(true)
	gv.SetStrict(false)
	for _, i := range g.Nodes() {
		attr := make(map[string]string)
		attr["color"] = "Green"
		attr["shape"] = "record"
		attr["label"] = "\"" + string(g.GetNodeSequence(i)) + "|" + strconv.Itoa(g.Node(i).Count()) + "\""
		gv.AddNode("G", strconv.Itoa(int(i)), attr)
	}
	for _, i := range g.Nodes() {
		nd := g.Node(i)
		for _, right := range []bool{false, true} {
			for _, e := range nd.Extensions(right) {
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
				gv.AddEdge(strconv.Itoa(int(i)), strconv.Itoa(int(e.Node)), true, attr)
			}
		}
	}
	if _, err := io.WriteString(w, gv.String()); err != nil {
		return fmt.Errorf("[WriteGraphviz] %v", err)
	}
	return nil
}
