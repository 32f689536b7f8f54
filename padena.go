package main

import (
	"github.com/jwaldrip/odin/cli"
)

const Kmerdef = 0

var app = cli.New("1.0.0", "de Bruijn graph assembler and scaffolder for short reads", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("C", "padena.cfg", "configure file")
	app.DefineStringFlag("cpuprofile", "", "write cpu profile to file")
	app.DefineIntFlag("K", Kmerdef, "kmer length, 0 estimates it from the reads")
	app.DefineStringFlag("p", "./padena", "prefix of the output file")
	app.DefineIntFlag("t", 1, "number of CPU used")
	asm := app.DefineSubCommand("assemble", "assemble reads into contigs and optionally scaffolds", Assemble)
	{
		asm.DefineStringFlag("Reads", "", "comma separated read files added to the cfg libraries")
		asm.DefineBoolFlag("Scaffold", false, "build scaffolds from the paired reads")
		asm.DefineBoolFlag("Erosion", false, "erode low coverage graph ends")
		asm.DefineBoolFlag("LowCoverage", false, "remove low coverage contigs")
		asm.DefineBoolFlag("Graph", false, "output dot graph file of the simplified graph")
		asm.DefineBoolFlag("Hist", false, "plot k-mer coverage histogram")
		asm.DefineIntFlag("HistBins", 50, "bins of the coverage histogram")
		asm.DefineBoolFlag("Progress", false, "show stage progress bar")
	}
	sf := app.DefineSubCommand("scaffold", "order and orient contigs with paired reads", Scaffold)
	{
		sf.DefineStringFlag("Contigs", "", "contig fasta file")
		sf.DefineStringFlag("Reads", "", "comma separated read files added to the cfg libraries")
		sf.DefineBoolFlag("SAM", true, "output read to contig mapping as SAM")
		sf.DefineBoolFlag("Graph", false, "output dot graph file of the contig overlap graph")
	}
	gr := app.DefineSubCommand("graph", "build the de Bruijn graph and store a snapshot", Graph)
	{
		gr.DefineStringFlag("Reads", "", "comma separated read files added to the cfg libraries")
		gr.DefineBoolFlag("Hist", false, "plot k-mer coverage histogram")
		gr.DefineIntFlag("HistBins", 50, "bins of the coverage histogram")
	}
	dot := app.DefineSubCommand("dot", "convert a graph snapshot to a dot file", Dot)
	{
		dot.DefineStringFlag("Snapshot", "", "graph snapshot file, *.dbg.zst")
	}
}

func main() {
	app.Start()
}
