package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dotnetbio/bio-sub011/assembler"
	"github.com/dotnetbio/bio-sub011/scaffold"
	"github.com/dotnetbio/bio-sub011/utils"
)

type LibInfo struct {
	Name       string   // name of library
	InsertSize float64  // paired read insert size
	InsertSD   float64  // Standard Deviation
	FnName     []string // the files name slice
}

type CfgInfo struct {
	DanglingThreshold  int
	RedundantThreshold int
	ErosionThreshold   int
	CoverageThreshold  float64
	Depth              int
	Redundancy         int
	DefaultLib         string
	Libs               []LibInfo
}

func newCfgInfo() CfgInfo {
	return CfgInfo{
		DanglingThreshold:  -1,
		RedundantThreshold: -1,
		ErosionThreshold:   -1,
		CoverageThreshold:  -1,
		Depth:              scaffold.DefaultDepth,
		Redundancy:         scaffold.DefaultRedundancy,
	}
}

// ParseCfg reads a cfg file of "key = value" lines. Lines starting with
// '#' or ';' are comments; each [LIB] line opens a new library.
func ParseCfg(fn string) (cfgInfo CfgInfo, err error) {
	inFile, err := os.Open(fn)
	if err != nil {
		return cfgInfo, err
	}
	defer inFile.Close()
	return parseCfg(inFile)
}

func parseCfg(r io.Reader) (cfgInfo CfgInfo, err error) {
	cfgInfo = newCfgInfo()
	var libInfo LibInfo
	inLib := false
	reader := bufio.NewScanner(r)
	for ln := 1; reader.Scan(); ln++ {
		line := reader.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0][0] == '#' || fields[0][0] == ';' {
			continue
		}
		if fields[0] == "[global_setting]" {
			continue
		}
		if fields[0] == "[LIB]" {
			if inLib {
				cfgInfo.Libs = append(cfgInfo.Libs, libInfo)
			}
			libInfo = LibInfo{}
			inLib = true
			continue
		}
		if len(fields) != 3 || fields[1] != "=" {
			return cfgInfo, fmt.Errorf("[ParseCfg] line %d: %q not 'key = value': %w", ln, line, utils.ErrConfiguration)
		}
		v := fields[2]
		switch fields[0] {
		case "dangling_threshold":
			cfgInfo.DanglingThreshold, err = strconv.Atoi(v)
		case "redundant_threshold":
			cfgInfo.RedundantThreshold, err = strconv.Atoi(v)
		case "erosion_threshold":
			cfgInfo.ErosionThreshold, err = strconv.Atoi(v)
		case "coverage_threshold":
			cfgInfo.CoverageThreshold, err = strconv.ParseFloat(v, 64)
		case "depth":
			cfgInfo.Depth, err = strconv.Atoi(v)
		case "redundancy":
			cfgInfo.Redundancy, err = strconv.Atoi(v)
		case "default_lib":
			cfgInfo.DefaultLib = v
		case "name":
			libInfo.Name = v
		case "avg_insert_len":
			libInfo.InsertSize, err = strconv.ParseFloat(v, 64)
		case "insert_SD":
			libInfo.InsertSD, err = strconv.ParseFloat(v, 64)
		case "f1", "f2":
			libInfo.FnName = append(libInfo.FnName, v)
		default:
			return cfgInfo, fmt.Errorf("[ParseCfg] line %d: unknown key %q: %w", ln, fields[0], utils.ErrConfiguration)
		}
		if err != nil {
			return cfgInfo, fmt.Errorf("[ParseCfg] line %d: %v: %w", ln, err, utils.ErrConfiguration)
		}
	}
	if err := reader.Err(); err != nil {
		return cfgInfo, err
	}
	if inLib {
		cfgInfo.Libs = append(cfgInfo.Libs, libInfo)
	}
	return cfgInfo, nil
}

// Libraries registers every [LIB] with an insert size on top of the
// built-in libraries.
func (ci CfgInfo) Libraries() (*scaffold.CloneLibrary, error) {
	cl := scaffold.NewCloneLibrary()
	for _, lib := range ci.Libs {
		if lib.InsertSize == 0 && lib.InsertSD == 0 {
			continue
		}
		if err := cl.Add(lib.Name, lib.InsertSize, lib.InsertSD); err != nil {
			return nil, err
		}
	}
	if ci.DefaultLib != "" {
		if err := cl.SetDefault(ci.DefaultLib); err != nil {
			return nil, err
		}
	}
	return cl, nil
}

// ReadFiles lists the read files of every library in cfg order.
func (ci CfgInfo) ReadFiles() []string {
	var fns []string
	for _, lib := range ci.Libs {
		fns = append(fns, lib.FnName...)
	}
	return fns
}

// AssemblerConfig merges the cfg thresholds with the command line k-mer
// length and thread number.
func (ci CfgInfo) AssemblerConfig(opt utils.ArgsOpt) (assembler.Config, error) {
	cfg := assembler.DefaultConfig()
	cfg.KmerLength = opt.Kmer
	cfg.NumCPU = opt.NumCPU
	cfg.DanglingLinksThreshold = ci.DanglingThreshold
	cfg.RedundantPathLengthThreshold = ci.RedundantThreshold
	cfg.ErosionThreshold = ci.ErosionThreshold
	cfg.ContigCoverageThreshold = ci.CoverageThreshold
	cfg.Depth = ci.Depth
	cfg.Redundancy = ci.Redundancy
	libs, err := ci.Libraries()
	if err != nil {
		return cfg, err
	}
	cfg.Libraries = libs
	return cfg, cfg.Validate()
}
