// Package diff computes the dirty region between two flow block sequences:
// the minimal prefix known unchanged plus inserted/deleted id sets for cache
// invalidation. It is a single-pass heuristic, not a minimal edit script.
package diff

import "folio/flow"

// Regions is the result of comparing a previous and a next block sequence.
// FirstDirtyIndex is -1 when the sequences are structurally identical.
type Regions struct {
	FirstDirtyIndex  int
	LastStableIndex  int
	InsertedBlockIDs []string
	DeletedBlockIDs  []string
}

// Clean reports whether no structural change was detected.
func (r *Regions) Clean() bool {
	return r.FirstDirtyIndex < 0
}

// Compute walks previous and next in lockstep. While ids match and blocks
// are structurally equal both pointers advance and the last agreeing
// position is recorded. On mismatch the first dirty index is pinned (min of
// the two pointers, first time only); then a block whose id vanished from
// next advances only the previous pointer (deletion), a block whose id is
// new advances only the next pointer (insertion), anything else advances
// both (in-place modification). Inserted/deleted id sets are computed as a
// whole-sequence set difference afterwards, independent of the scan.
func Compute(previous, next []flow.Block) Regions {
	r := Regions{FirstDirtyIndex: -1, LastStableIndex: -1}

	prevIDs := idSet(previous)
	nextIDs := idSet(next)

	i, j := 0, 0
	for i < len(previous) && j < len(next) {
		p, n := &previous[i], &next[j]
		if p.ID == n.ID && p.Equal(n) {
			r.LastStableIndex = j
			i++
			j++
			continue
		}
		if r.FirstDirtyIndex < 0 {
			r.FirstDirtyIndex = min(i, j)
		}
		if _, ok := nextIDs[p.ID]; !ok {
			i++ // deleted from next
			continue
		}
		if _, ok := prevIDs[n.ID]; !ok {
			j++ // inserted into next
			continue
		}
		// modified in place (or moved - treated the same)
		i++
		j++
	}
	if (i < len(previous) || j < len(next)) && r.FirstDirtyIndex < 0 {
		r.FirstDirtyIndex = min(i, j)
	}

	for k := range next {
		if _, ok := prevIDs[next[k].ID]; !ok {
			r.InsertedBlockIDs = append(r.InsertedBlockIDs, next[k].ID)
		}
	}
	for k := range previous {
		if _, ok := nextIDs[previous[k].ID]; !ok {
			r.DeletedBlockIDs = append(r.DeletedBlockIDs, previous[k].ID)
		}
	}
	return r
}

func idSet(blocks []flow.Block) map[string]struct{} {
	s := make(map[string]struct{}, len(blocks))
	for i := range blocks {
		s[blocks[i].ID] = struct{}{}
	}
	return s
}
