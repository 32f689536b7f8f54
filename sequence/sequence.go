// Package sequence holds the in-memory read and contig representation used
// by every assembly stage.
package sequence

import "bytes"

// Sequence is an identified run of nucleotide symbols.
type Sequence struct {
	ID  string
	Seq []byte
}

func New(id string, s []byte) Sequence {
	return Sequence{ID: id, Seq: s}
}

func (s Sequence) Len() int { return len(s.Seq) }

func (s Sequence) String() string {
	return ">" + s.ID + "\n" + string(s.Seq)
}

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}
	pairs := []string{"AT", "CG", "GC", "TA", "at", "cg", "gc", "ta", "NN", "nn"}
	for _, p := range pairs {
		complement[p[0]] = p[1]
	}
}

// ComplementBase returns the Watson-Crick partner of b; unknown symbols
// are returned unchanged.
func ComplementBase(b byte) byte {
	return complement[b]
}

func Complement(s []byte) []byte {
	c := make([]byte, len(s))
	for i, b := range s {
		c[i] = complement[b]
	}
	return c
}

func ReverseComplement(s []byte) []byte {
	rc := make([]byte, len(s))
	for i, b := range s {
		rc[len(s)-1-i] = complement[b]
	}
	return rc
}

// IsBase reports whether b is one of the four unambiguous upper-case DNA
// symbols.
func IsBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	}
	return false
}

// IsUnambiguousDNA reports whether every symbol of s is A, C, G or T.
func IsUnambiguousDNA(s []byte) bool {
	for _, b := range s {
		if !IsBase(b) {
			return false
		}
	}
	return true
}

// Normalize upper-cases s in place and maps U to T.
func Normalize(s []byte) []byte {
	s = bytes.ToUpper(s)
	for i, b := range s {
		if b == 'U' {
			s[i] = 'T'
		}
	}
	return s
}
