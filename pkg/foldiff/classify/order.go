package classify

import "strings"

// less implements the reversed-segment path ordering used for every list in
// a ChangeSet (spec §4.2): split a path by "/", reverse the segment list,
// and compare lexicographically segment by segment. It is adapted from the
// teacher's pathLess (pkg/synchronization/core/path.go in mutagen), which
// compares segments front-to-back for DFS traversal order; here we walk from
// the back of each string instead, avoiding the allocation of an actual
// reversed slice.
func less(a, b string) bool {
	for {
		aIdx := strings.LastIndexByte(a, '/')
		bIdx := strings.LastIndexByte(b, '/')

		var aSeg, bSeg string
		if aIdx == -1 {
			aSeg = a
		} else {
			aSeg = a[aIdx+1:]
		}
		if bIdx == -1 {
			bSeg = b
		} else {
			bSeg = b[bIdx+1:]
		}

		if aSeg != bSeg {
			return aSeg < bSeg
		}

		if aIdx == -1 && bIdx == -1 {
			return false
		} else if aIdx == -1 {
			return true
		} else if bIdx == -1 {
			return false
		}

		a = a[:aIdx]
		b = b[:bIdx]
	}
}
