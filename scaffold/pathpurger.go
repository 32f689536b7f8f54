package scaffold

import (
	"sort"

	"github.com/dotnetbio/bio-sub011/utils"
)

// PathPurger reduces a set of scaffold paths to the maximal ones.
type PathPurger struct{}

func stepsEqual(a, b PathStep) bool {
	return a.Node == b.Node && a.Forward == b.Forward
}

// indexOf returns where sub starts inside p, or -1.
func indexOf(p, sub ScaffoldPath) int {
	for i := 0; i+len(sub) <= len(p); i++ {
		j := 0
		for j < len(sub) && stepsEqual(p[i+j], sub[j]) {
			j++
		}
		if j == len(sub) {
			return i
		}
	}
	return -1
}

func containedIn(p, sub ScaffoldPath) bool {
	return indexOf(p, sub) >= 0 || indexOf(p, sub.Reverse()) >= 0
}

// overlap returns the longest o >= 1 such that the last o steps of a equal
// the first o steps of b, or 0.
func overlap(a, b ScaffoldPath) int {
	for o := utils.MinInt(len(a), len(b)) - 1; o >= 1; o-- {
		ok := true
		for j := 0; j < o; j++ {
			if !stepsEqual(a[len(a)-o+j], b[j]) {
				ok = false
				break
			}
		}
		if ok {
			return o
		}
	}
	return 0
}

func isSimple(p ScaffoldPath) bool {
	seen := make(map[int]bool, len(p))
	for _, s := range p {
		if seen[s.Node] {
			return false
		}
		seen[s.Node] = true
	}
	return true
}

// removeContained drops empty paths and paths that occur inside a longer
// or earlier one, on either strand.
func removeContained(paths []ScaffoldPath) []ScaffoldPath {
	sorted := make([]ScaffoldPath, 0, len(paths))
	for _, p := range paths {
		if len(p) > 0 {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	var kept []ScaffoldPath
	for _, p := range sorted {
		dup := false
		for _, q := range kept {
			if containedIn(q, p) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, p)
		}
	}
	return kept
}

// mergeOnce joins the two paths with the longest suffix/prefix overlap.
// It reports false when no pair overlaps.
func mergeOnce(paths []ScaffoldPath) ([]ScaffoldPath, bool) {
	bi, bj, bo := -1, -1, 0
	var bq ScaffoldPath
	for i, a := range paths {
		for j, b := range paths {
			if i == j {
				continue
			}
			for _, q := range []ScaffoldPath{b, b.Reverse()} {
				o := overlap(a, q)
				if o <= bo {
					continue
				}
				merged := append(append(ScaffoldPath{}, a...), q[o:]...)
				if !isSimple(merged) {
					continue
				}
				bi, bj, bo, bq = i, j, o, q
			}
		}
	}
	if bo == 0 {
		return paths, false
	}
	merged := append(append(ScaffoldPath{}, paths[bi]...), bq[bo:]...)
	out := make([]ScaffoldPath, 0, len(paths)-1)
	for i, p := range paths {
		if i == bi {
			out = append(out, merged)
		} else if i != bj {
			out = append(out, p)
		}
	}
	return out, true
}

// PurgePath removes empty, duplicate and contained paths and merges
// paths that overlap until nothing changes.
func (PathPurger) PurgePath(paths []ScaffoldPath) []ScaffoldPath {
	paths = removeContained(paths)
	for {
		var merged bool
		paths, merged = mergeOnce(paths)
		if !merged {
			return paths
		}
		paths = removeContained(paths)
	}
}
