package utils

import (
	"errors"
	"fmt"
	"runtime"
	"testing"
)

func TestBytes2String(t *testing.T) {
	if s := Bytes2String([]byte("ACGT")); s != "ACGT" {
		t.Errorf("[TestBytes2String] got %q\n", s)
	}
}

func TestNumCPU(t *testing.T) {
	if n := NumCPU(0); n != runtime.NumCPU() {
		t.Errorf("[TestNumCPU] NumCPU(0) = %d, want %d\n", n, runtime.NumCPU())
	}
	if n := NumCPU(1); n != 1 {
		t.Errorf("[TestNumCPU] NumCPU(1) = %d\n", n)
	}
	if n := NumCPU(runtime.NumCPU() + 8); n != runtime.NumCPU() {
		t.Errorf("[TestNumCPU] NumCPU too large = %d\n", n)
	}
}

func TestIntHelpers(t *testing.T) {
	if MaxInt(2, 5) != 5 || MinInt(2, 5) != 2 {
		t.Errorf("[TestIntHelpers] MaxInt/MinInt wrong\n")
	}
}

func TestErrorWrapping(t *testing.T) {
	err := fmt.Errorf("[Build] k=%d: %w", 0, ErrConfiguration)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("[TestErrorWrapping] wrapped error lost its class: %v\n", err)
	}
	if errors.Is(err, ErrInput) {
		t.Errorf("[TestErrorWrapping] wrapped error matched wrong class\n")
	}
}

func Benchmark_Byte2String(b *testing.B) {
	x := []byte("GATTCAAGGGCTGGGGGGATTCAAGGGCTGGGGG")
	for i := 0; i < b.N; i++ {
		_ = Bytes2String(x)
	}
}
