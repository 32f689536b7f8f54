package utils

import (
	"log"
	"runtime"
	"unsafe"

	"github.com/jwaldrip/odin/cli"
)

// MaxKmerLen is the longest k-mer a single packed uint64 holds with room
// for the canonical comparison.
const MaxKmerLen = 31

type ArgsOpt struct {
	Prefix string
	Kmer   int
	NumCPU int
	CfgFn  string
}

// return global arguments and check if successed
func CheckGlobalArgs(c cli.Command) (opt ArgsOpt, succ bool) {
	opt.Prefix = c.Flag("p").String()
	if opt.Prefix == "" {
		log.Fatalf("[CheckGlobalArgs] args 'p' not set\n")
	}
	opt.CfgFn = c.Flag("C").String()
	if opt.CfgFn == "" {
		log.Fatalf("[CheckGlobalArgs] args 'C' not set\n")
	}

	var ok bool
	opt.Kmer, ok = c.Flag("K").Get().(int)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 'K' : %v set error\n", c.Flag("K").String())
	}
	// K == 0 asks the assembler to estimate the k-mer length
	if opt.Kmer < 0 || opt.Kmer > MaxKmerLen {
		log.Fatalf("[CheckGlobalArgs] the argument 'K':%d must between 0~%d\n", opt.Kmer, MaxKmerLen)
	}
	opt.NumCPU, ok = c.Flag("t").Get().(int)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 't': %v set error\n", c.Flag("t").String())
	}
	opt.NumCPU = NumCPU(opt.NumCPU)
	return opt, true
}

// NumCPU clamps a requested thread number to [1, runtime.NumCPU()].
func NumCPU(n int) int {
	if n <= 0 || n > runtime.NumCPU() {
		return runtime.NumCPU()
	}
	return n
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	} else {
		return b
	}
}

func MinInt(a, b int) int {
	if a > b {
		return b
	} else {
		return a
	}
}

// Bytes2String aliases b without copying; b must not change while the
// string is in use.
func Bytes2String(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}
