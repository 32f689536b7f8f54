package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/jwaldrip/odin/cli"
	"github.com/pbenner/threadpool"

	"github.com/dotnetbio/bio-sub011/assembler"
	"github.com/dotnetbio/bio-sub011/contig"
	"github.com/dotnetbio/bio-sub011/dbg"
	"github.com/dotnetbio/bio-sub011/kmer"
	"github.com/dotnetbio/bio-sub011/scaffold"
	"github.com/dotnetbio/bio-sub011/sequence"
	"github.com/dotnetbio/bio-sub011/utils"
)

// assembly stages a run passes through at most
const stageNum = 10

type Options struct {
	utils.ArgsOpt
	Cfg       CfgInfo
	ReadFiles []string
}

func startProfile(c cli.Command, prefix string) func() {
	fn := c.Flag("cpuprofile").String()
	if fn == "" {
		return func() {}
	}
	fp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[%s] open cpuprofile file: %v failed\n", prefix, fn)
	}
	pprof.StartCPUProfile(fp)
	return func() {
		pprof.StopCPUProfile()
		fp.Close()
	}
}

// checkArgs reads the global flags, the cfg file and the -Reads list of c.
func checkArgs(c cli.Command, name string) Options {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[%s] check global Arguments error, opt: %v\n", name, gOpt)
	}
	opt := Options{ArgsOpt: gOpt, Cfg: newCfgInfo()}
	if _, err := os.Stat(opt.CfgFn); err == nil {
		if opt.Cfg, err = ParseCfg(opt.CfgFn); err != nil {
			log.Fatalf("[%s] ParseCfg 'C': %v err :%v\n", name, opt.CfgFn, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("[%s] cfg file: %v err: %v\n", name, opt.CfgFn, err)
	}
	opt.ReadFiles = opt.Cfg.ReadFiles()
	if rs := c.Flag("Reads").String(); rs != "" {
		opt.ReadFiles = append(opt.ReadFiles, strings.Split(rs, ",")...)
	}
	if len(opt.ReadFiles) == 0 {
		log.Fatalf("[%s] no read files, set f1/f2 in the cfg file or -Reads\n", name)
	}
	return opt
}

func boolFlag(c cli.Command, name string) bool {
	v, ok := c.Flag(name).Get().(bool)
	if !ok {
		log.Fatalf("[boolFlag] argument '%s': %v set error, must set true|false\n", name, c.Flag(name))
	}
	return v
}

func intFlag(c cli.Command, name string) int {
	v, ok := c.Flag(name).Get().(int)
	if !ok {
		log.Fatalf("[intFlag] argument '%s': %v set error\n", name, c.Flag(name))
	}
	return v
}

func writeDot(fn string, write func(fp *os.File) error) {
	fp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[writeDot] create file: %s failed, err: %v\n", fn, err)
	}
	defer fp.Close()
	if err := write(fp); err != nil {
		log.Fatalf("[writeDot] file: %s, err: %v\n", fn, err)
	}
}

func Assemble(c cli.Command) {
	opt := checkArgs(c, "Assemble")
	defer startProfile(c.Parent(), "Assemble")()
	cfg, err := opt.Cfg.AssemblerConfig(opt.ArgsOpt)
	if err != nil {
		log.Fatalf("[Assemble] configuration error: %v\n", err)
	}
	cfg.AllowErosion = boolFlag(c, "Erosion")
	cfg.AllowLowCoverageContigRemoval = boolFlag(c, "LowCoverage")
	fmt.Printf("[Assemble] opt: %+v\n", opt)

	t0 := time.Now()
	reads, err := LoadReads(opt.ReadFiles)
	if err != nil {
		log.Fatalf("[Assemble] load reads err: %v\n", err)
	}
	fmt.Printf("[Assemble] loaded %d reads, used time: %v\n", len(reads), time.Since(t0))

	a, err := assembler.New(cfg, contig.SimplePathBuilder{}, nil)
	if err != nil {
		log.Fatalf("[Assemble] %v\n", err)
	}
	defer a.Dispose()
	var sp *stageProgress
	if boolFlag(c, "Progress") {
		sp = newStageProgress(stageNum)
		a.Status = sp.Status
	}
	var asm *assembler.Assembly
	if boolFlag(c, "Scaffold") {
		asm, err = a.AssembleWithScaffolds(context.Background(), reads)
	} else {
		asm, err = a.Assemble(context.Background(), reads)
	}
	if sp != nil {
		sp.Wait()
	}
	if err != nil {
		log.Fatalf("[Assemble] assembly failed: %v\n", err)
	}

	if err := WriteFastaFile(opt.Prefix+".contigs.fa", asm.ContigSequences); err != nil {
		log.Fatalf("[Assemble] write contigs err: %v\n", err)
	}
	if asm.Scaffolds != nil {
		if err := WriteFastaFile(opt.Prefix+".scaffolds.fa", asm.Scaffolds); err != nil {
			log.Fatalf("[Assemble] write scaffolds err: %v\n", err)
		}
		fmt.Printf("[Assemble] %d scaffolds, %d reads unmerged\n", len(asm.Scaffolds), len(asm.Unmerged))
	}
	if boolFlag(c, "Graph") {
		writeDot(opt.Prefix+".dot", func(fp *os.File) error { return dbg.WriteGraphviz(fp, a.Graph()) })
	}
	if boolFlag(c, "Hist") {
		if err := SaveCoverageHistogram(a.Graph(), opt.Prefix+".hist.png", intFlag(c, "HistBins")); err != nil {
			log.Printf("[Assemble] coverage histogram: %v\n", err)
		}
	}
	doc := asm.Documentation
	fmt.Printf("[Assemble] k: %d, dangling: %d, redundant: %d, erosion: %d, coverage: %.2f\n",
		doc.KmerLength, doc.DanglingLinksThreshold, doc.RedundantPathLengthThreshold, doc.ErosionThreshold, doc.ContigCoverageThreshold)
	for _, s := range doc.Stages {
		fmt.Printf("[Assemble] stage %s: %v, %d nodes\n", s.Stage, s.Duration, s.Nodes)
	}
	fmt.Printf("[Assemble] %d contigs, used time: %v\n", len(asm.ContigSequences), time.Since(t0))
}

func Scaffold(c cli.Command) {
	opt := checkArgs(c, "Scaffold")
	defer startProfile(c.Parent(), "Scaffold")()
	if opt.Kmer == 0 {
		log.Fatalf("[Scaffold] argument 'K' must be set to the contig k-mer length\n")
	}
	cfn := c.Flag("Contigs").String()
	if cfn == "" {
		log.Fatalf("[Scaffold] argument 'Contigs' not set\n")
	}
	contigs, err := LoadReads([]string{cfn})
	if err != nil {
		log.Fatalf("[Scaffold] load contigs err: %v\n", err)
	}
	reads, err := LoadReads(opt.ReadFiles)
	if err != nil {
		log.Fatalf("[Scaffold] load reads err: %v\n", err)
	}
	libs, err := opt.Cfg.Libraries()
	if err != nil {
		log.Fatalf("[Scaffold] libraries err: %v\n", err)
	}
	b := scaffold.NewGraphScaffoldBuilder(libs, threadpool.New(opt.NumCPU, 100*opt.NumCPU))
	b.Depth, b.Redundancy = opt.Cfg.Depth, opt.Cfg.Redundancy
	res, err := b.BuildScaffold(reads, contigs, opt.Kmer)
	if err != nil {
		log.Fatalf("[Scaffold] %v\n", err)
	}
	seqs := make([]sequence.Sequence, len(res.Sequences))
	for i, s := range res.Sequences {
		seqs[i] = sequence.New(fmt.Sprintf("scaffold_%d", i), s)
	}
	if err := WriteFastaFile(opt.Prefix+".scaffolds.fa", seqs); err != nil {
		log.Fatalf("[Scaffold] write scaffolds err: %v\n", err)
	}
	if boolFlag(c, "SAM") {
		fp, err := createWriter(opt.Prefix + ".sam")
		if err != nil {
			log.Fatalf("[Scaffold] %v\n", err)
		}
		if err := scaffold.WriteSAM(fp, contigs, reads, res.ReadContigMap); err != nil {
			log.Fatalf("[Scaffold] write SAM err: %v\n", err)
		}
		if err := fp.Close(); err != nil {
			log.Fatalf("[Scaffold] %v\n", err)
		}
	}
	if boolFlag(c, "Graph") {
		cg, err := scaffold.BuildContigGraph(contigs, opt.Kmer)
		if err != nil {
			log.Fatalf("[Scaffold] %v\n", err)
		}
		writeDot(opt.Prefix+".contigs.dot", func(fp *os.File) error { return cg.WriteGraphviz(fp) })
	}
	for _, p := range res.Paths {
		fmt.Printf("[Scaffold] path: %v\n", p)
	}
	fmt.Printf("[Scaffold] %d scaffolds from %d contigs, %d reads unmerged\n", len(res.Sequences), len(contigs), len(res.Unmerged))
}

func Graph(c cli.Command) {
	opt := checkArgs(c, "Graph")
	defer startProfile(c.Parent(), "Graph")()
	reads, err := LoadReads(opt.ReadFiles)
	if err != nil {
		log.Fatalf("[Graph] load reads err: %v\n", err)
	}
	cfg, err := opt.Cfg.AssemblerConfig(opt.ArgsOpt)
	if err != nil {
		log.Fatalf("[Graph] configuration error: %v\n", err)
	}
	k := cfg.KmerLength
	if k == 0 {
		if k, err = kmer.EstimateKmerLength(reads); err != nil {
			log.Fatalf("[Graph] %v\n", err)
		}
	}
	g, err := dbg.Build(reads, k, threadpool.New(opt.NumCPU, 100*opt.NumCPU))
	if err != nil {
		log.Fatalf("[Graph] %v\n", err)
	}
	defer g.Dispose()
	fp, err := createWriter(opt.Prefix + ".dbg.zst")
	if err != nil {
		log.Fatalf("[Graph] %v\n", err)
	}
	n, err := g.WriteTo(fp)
	if err != nil {
		log.Fatalf("[Graph] write snapshot err: %v\n", err)
	}
	if err := fp.Close(); err != nil {
		log.Fatalf("[Graph] %v\n", err)
	}
	writeDot(opt.Prefix+".dot", func(fp *os.File) error { return dbg.WriteGraphviz(fp, g) })
	if boolFlag(c, "Hist") {
		if err := SaveCoverageHistogram(g, opt.Prefix+".hist.png", intFlag(c, "HistBins")); err != nil {
			log.Printf("[Graph] coverage histogram: %v\n", err)
		}
	}
	fmt.Printf("[Graph] k: %d, nodes: %d, snapshot bytes: %d\n", k, g.NodeCount(), n)
}

func Dot(c cli.Command) {
	prefix := c.Parent().Flag("p").String()
	fn := c.Flag("Snapshot").String()
	if fn == "" {
		fn = prefix + ".dbg.zst"
	}
	fp, err := openReader(fn)
	if err != nil {
		log.Fatalf("[Dot] open snapshot: %s err: %v\n", fn, err)
	}
	defer fp.Close()
	g, err := dbg.ReadGraph(fp)
	if err != nil {
		log.Fatalf("[Dot] read snapshot: %s err: %v\n", fn, err)
	}
	writeDot(prefix+".dot", func(out *os.File) error { return dbg.WriteGraphviz(out, g) })
	fmt.Printf("[Dot] k: %d, nodes: %d\n", g.K, g.NodeCount())
}
