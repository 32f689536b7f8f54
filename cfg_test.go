package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/dotnetbio/bio-sub011/utils"
)

const testCfg = `# assembly settings
[global_setting]
dangling_threshold = 12
redundancy = 3
default_lib = PE300

[LIB]
name = PE300
avg_insert_len = 300
insert_SD = 30
f1 = reads_1.fa.br
f2 = reads_2.fa.br
; scaffolding only
[LIB]
name = MP3K
avg_insert_len = 3000
insert_SD = 300
f1 = mp_1.fa.zst
`

func TestParseCfg(t *testing.T) {
	ci, err := parseCfg(strings.NewReader(testCfg))
	if err != nil {
		t.Fatal(err)
	}
	if ci.DanglingThreshold != 12 || ci.Redundancy != 3 || ci.RedundantThreshold != -1 || ci.Depth != 10 {
		t.Errorf("[TestParseCfg] global settings %+v\n", ci)
	}
	if len(ci.Libs) != 2 || ci.Libs[1].Name != "MP3K" || ci.Libs[1].InsertSize != 3000 {
		t.Errorf("[TestParseCfg] libs %+v\n", ci.Libs)
	}
	if fns := strings.Join(ci.ReadFiles(), ","); fns != "reads_1.fa.br,reads_2.fa.br,mp_1.fa.zst" {
		t.Errorf("[TestParseCfg] read files %s\n", fns)
	}
	cl, err := ci.Libraries()
	if err != nil {
		t.Fatal(err)
	}
	if li, err := cl.Resolve("unknown"); err != nil || li.Name != "PE300" || li.Mean != 300 {
		t.Errorf("[TestParseCfg] default library %+v, %v\n", li, err)
	}
	cfg, err := ci.AssemblerConfig(utils.ArgsOpt{Kmer: 21, NumCPU: 2})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.KmerLength != 21 || cfg.DanglingLinksThreshold != 12 || cfg.Redundancy != 3 {
		t.Errorf("[TestParseCfg] assembler config %+v\n", cfg)
	}
	if _, ok := cfg.Libraries.Get("MP3K"); !ok {
		t.Errorf("[TestParseCfg] library MP3K not registered\n")
	}
}

func TestParseCfgErrors(t *testing.T) {
	for _, in := range []string{
		"kmer 21\n",
		"depth = ten\n",
		"[LIB]\nname = A\ncolor = red\n",
	} {
		if _, err := parseCfg(strings.NewReader(in)); !errors.Is(err, utils.ErrConfiguration) {
			t.Errorf("[TestParseCfgErrors] %q: %v\n", in, err)
		}
	}
	ci, err := parseCfg(strings.NewReader("default_lib = nope\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ci.Libraries(); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("[TestParseCfgErrors] unknown default library: %v\n", err)
	}
}
