package bitforest

import (
	"math"

	"github.com/hupe1980/bitforest/hamming"
)

// acceptImbalance is the threshold below which a bit split is accepted
// without further attempts.
const acceptImbalance = 0.95

// salvageImbalance is the threshold above which a partition is discarded
// and the ids are re-assigned uniformly at random.
const salvageImbalance = 0.99

// splitAttempts is the number of CreateSplit attempts before the partition
// of record is kept as-is (possibly triggering the salvage loop).
const splitAttempts = 3

// Build constructs a forest of q trees over all stored items. Each tree
// partitions the full id set recursively by randomly chosen bit
// coordinates. More trees give better recall at the cost of memory and
// build time. Builds are deterministic given the seed.
func (ix *Index) Build(q int) error {
	if ix.built {
		return ErrAlreadyBuilt
	}
	if ix.store.Mapped() {
		return ErrReadOnly
	}
	if ix.nItems == 0 {
		return ErrNoItems
	}
	if q < 1 {
		return ErrInvalidTreeCount
	}

	ix.nNodes = ix.nItems

	for i := 0; i < q; i++ {
		ids := make([]int32, ix.nItems)
		for j := range ids {
			ids[j] = int32(j)
		}

		ix.roots = append(ix.roots, ix.makeTree(ids, true))

		ix.logger.Debug("built tree", "tree", i+1, "trees", q)
	}

	ix.logger.Debug("build complete", "trees", q, "nodes", ix.nNodes)

	ix.built = true
	return nil
}

// BuildWithThreads is Build with a thread-count parameter for API
// compatibility. Builds are single-threaded; values other than 1 are
// ignored.
func (ix *Index) BuildWithThreads(q, _ int) error {
	return ix.Build(q)
}

// makeTree recursively partitions ids into a tree and returns the slot of
// its root. Item leaves are reused in place; compact leaf groups and inner
// nodes are appended to the store.
func (ix *Index) makeTree(ids []int32, isRoot bool) int32 {
	if len(ids) == 1 && !isRoot {
		return ids[0]
	}

	// A root may itself be a compact group when the whole corpus fits in
	// one node; without this a tiny build cannot terminate.
	if len(ids) <= int(ix.store.K()) && (!isRoot || ix.nItems <= ix.store.K() || len(ids) == 1) {
		ix.store.Reserve(ix.nNodes + 1)
		slot := ix.nNodes
		ix.nNodes++

		n := ix.store.Slot(slot)
		n.SetDescendants(int32(len(ids)))
		n.SetIDs(ids)
		return slot
	}

	vecs := make([][]byte, len(ids))
	for i, id := range ids {
		vecs[i] = ix.store.Slot(id).Vector()
	}

	var (
		splitBit    uint32
		left, right []int32
	)
	for attempt := 0; attempt < splitAttempts; attempt++ {
		splitBit, _ = hamming.CreateSplit(vecs, ix.f, ix.rng)

		left, right = left[:0], right[:0]
		for i, id := range ids {
			if hamming.Side(splitBit, vecs[i], ix.rng) {
				right = append(right, id)
			} else {
				left = append(left, id)
			}
		}

		if splitImbalance(left, right) < acceptImbalance {
			break
		}
	}

	// No usable hyperplane: keep the split bit but partition at random.
	// The tree only biases traversal, so search stays correct.
	for splitImbalance(left, right) > salvageImbalance {
		ix.logger.Debug("no hyperplane found, splitting at random",
			"left", len(left), "right", len(right))

		left, right = left[:0], right[:0]
		for _, id := range ids {
			if ix.rng.Flip() {
				right = append(right, id)
			} else {
				left = append(left, id)
			}
		}
	}

	flip := 0
	if len(left) > len(right) {
		flip = 1
	}

	// Recurse larger-side-last so the slot of the bigger subtree lands
	// nearer its parent; the flip only changes recursion order.
	parts := [2][]int32{left, right}
	var children [2]int32
	for side := 0; side < 2; side++ {
		s := side ^ flip
		children[s] = ix.makeTree(parts[s], false)
	}

	ix.store.Reserve(ix.nNodes + 1)
	slot := ix.nNodes
	ix.nNodes++

	n := ix.store.Slot(slot)
	if isRoot {
		n.SetDescendants(ix.nItems)
	} else {
		n.SetDescendants(int32(len(ids)))
	}
	n.SetChild(0, children[0])
	n.SetChild(1, children[1])
	n.SetSplitBit(splitBit)
	return slot
}

// splitImbalance measures how lopsided a partition is as the larger side's
// share of the total, in [0.5, 1]. An empty side scores 1 (worst).
func splitImbalance(left, right []int32) float64 {
	ls := float64(len(left))
	rs := float64(len(right))
	f := ls / (ls + rs + 1e-9)
	return math.Max(f, 1-f)
}
