// Package scaffold orders and orients contigs into scaffolds using the
// insert size evidence of paired reads.
package scaffold

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dotnetbio/bio-sub011/utils"
)

// CloneLibraryInformation describes the insert size of one paired-read
// library.
type CloneLibraryInformation struct {
	Name              string
	Mean              float64
	StandardDeviation float64
}

// CloneLibrary is a registry of clone libraries. The zero value is not
// usable, call NewCloneLibrary.
type CloneLibrary struct {
	mu      sync.RWMutex
	libs    map[string]CloneLibraryInformation
	deflib  string
	hasDefl bool
}

// DefaultLibrary resolves reads whose ID names no known library.
const DefaultLibrary = "0.5K"

// NewCloneLibrary returns a registry holding the usual Sanger library
// sizes, with DefaultLibrary as the default.
func NewCloneLibrary() *CloneLibrary {
	cl := &CloneLibrary{libs: make(map[string]CloneLibraryInformation), deflib: DefaultLibrary, hasDefl: true}
	for _, l := range []CloneLibraryInformation{
		{"0.5K", 500, 20},
		{"1K", 1000, 40},
		{"2K", 2000, 100},
		{"5K", 5000, 250},
		{"10K", 10000, 500},
	} {
		cl.libs[l.Name] = l
	}
	return cl
}

// Add registers or replaces a library.
func (cl *CloneLibrary) Add(name string, mean, sd float64) error {
	if name == "" {
		return fmt.Errorf("[CloneLibrary.Add] empty library name: %w", utils.ErrConfiguration)
	}
	if mean <= 0 || sd <= 0 {
		return fmt.Errorf("[CloneLibrary.Add] library %s: mean %v and sd %v must be positive: %w", name, mean, sd, utils.ErrConfiguration)
	}
	cl.mu.Lock()
	cl.libs[name] = CloneLibraryInformation{Name: name, Mean: mean, StandardDeviation: sd}
	cl.mu.Unlock()
	return nil
}

// SetDefault names the library used for reads whose ID carries no
// resolvable library.
func (cl *CloneLibrary) SetDefault(name string) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, ok := cl.libs[name]; !ok {
		return fmt.Errorf("[CloneLibrary.SetDefault] unknown library %q: %w", name, utils.ErrConfiguration)
	}
	cl.deflib, cl.hasDefl = name, true
	return nil
}

// ClearDefault drops the default library, so that Resolve fails on
// names it cannot read.
func (cl *CloneLibrary) ClearDefault() {
	cl.mu.Lock()
	cl.deflib, cl.hasDefl = "", false
	cl.mu.Unlock()
}

// Get returns a registered library.
func (cl *CloneLibrary) Get(name string) (CloneLibraryInformation, bool) {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	l, ok := cl.libs[name]
	return l, ok
}

// Names lists the registered libraries in ascending order.
func (cl *CloneLibrary) Names() []string {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	names := make([]string, 0, len(cl.libs))
	for n := range cl.libs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// parseSize reads names such as "3K" or "0.5k" as an insert size in
// kilobases.
func parseSize(name string) (float64, bool) {
	s := strings.TrimSuffix(strings.TrimSuffix(name, "K"), "k")
	if s == name || s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * 1000, true
}

// Resolve looks a library up by name, then tries to read the name as a
// size with a 10% standard deviation, then falls back to the default
// library.
func (cl *CloneLibrary) Resolve(name string) (CloneLibraryInformation, error) {
	if l, ok := cl.Get(name); ok {
		return l, nil
	}
	if mean, ok := parseSize(name); ok {
		return CloneLibraryInformation{Name: name, Mean: mean, StandardDeviation: mean / 10}, nil
	}
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	if cl.hasDefl {
		return cl.libs[cl.deflib], nil
	}
	return CloneLibraryInformation{}, fmt.Errorf("[CloneLibrary.Resolve] unknown library %q: %w", name, utils.ErrInput)
}
