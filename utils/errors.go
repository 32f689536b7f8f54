package utils

import "errors"

// Error classes shared by every stage of the pipeline. Callers wrap them
// with context and test with errors.Is.
var (
	// ErrConfiguration reports an invalid k-mer length, threshold or a
	// missing strategy.
	ErrConfiguration = errors.New("configuration error")
	// ErrInput reports empty or too short sequences, or k larger than a
	// sequence.
	ErrInput = errors.New("input error")
	// ErrInconsistency reports a broken graph invariant, such as a purge
	// path naming a node that was already removed.
	ErrInconsistency = errors.New("assembly inconsistency")
)
