package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/dotnetbio/bio-sub011/dbg"
)

// CoverageValues returns the count of every live node of g.
func CoverageValues(g *dbg.Graph) plotter.Values {
	nodes := g.Nodes()
	vals := make(plotter.Values, len(nodes))
	for j, i := range nodes {
		vals[j] = float64(g.Node(i).Count())
	}
	return vals
}

// SaveCoverageHistogram plots the k-mer count distribution of g into
// filename; the image format follows the file suffix.
func SaveCoverageHistogram(g *dbg.Graph, filename string, bins int) error {
	vals := CoverageValues(g)
	if len(vals) == 0 {
		return fmt.Errorf("[SaveCoverageHistogram] graph has no nodes")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("k-mer coverage, k = %d", g.K)
	p.X.Label.Text = "count"
	p.Y.Label.Text = "nodes"
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return err
	}
	p.Add(h)
	return p.Save(8*vg.Inch, 4*vg.Inch, filename)
}
