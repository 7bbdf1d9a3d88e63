package bitforest

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/bitforest/hamming"
	"github.com/hupe1980/bitforest/internal/nodestore"
	"github.com/hupe1980/bitforest/internal/queue"
)

// NNsByItem returns the n approximate nearest neighbors of a stored item,
// with their exact Hamming distances, nearest first. The traversal stops
// once at least searchK candidate ids have been collected from leaves and
// compact groups (inner nodes do not count); searchK < 0 means n times the
// number of trees.
func (ix *Index) NNsByItem(id int32, n, searchK int) ([]int32, []int32, error) {
	if !ix.built {
		return nil, nil, ErrNotBuilt
	}
	if id < 0 || id >= ix.nItems {
		return nil, nil, &ErrInvalidItemID{ID: id}
	}
	if n < 0 {
		return nil, nil, ErrInvalidCount
	}
	return ix.searchForest(ix.store.Slot(id).Vector(), n, searchK)
}

// NNsByVector returns the n approximate nearest neighbors of an external
// query vector, with their exact Hamming distances, nearest first.
func (ix *Index) NNsByVector(vec []int32, n, searchK int) ([]int32, []int32, error) {
	if !ix.built {
		return nil, nil, ErrNotBuilt
	}
	if len(vec) != ix.f {
		return nil, nil, &ErrInvalidVectorLength{Expected: ix.f, Actual: len(vec)}
	}
	if n < 0 {
		return nil, nil, ErrInvalidCount
	}
	return ix.searchForest(nodestore.EncodeVector(vec), n, searchK)
}

type rankedItem struct {
	dist int32
	id   int32
}

// searchForest runs a best-first traversal across all roots, ordered by a
// margin accumulator: every child edge that disagrees with the query's
// margin bit costs one unit of priority. Candidates are deduplicated and
// re-ranked by exact distance.
func (ix *Index) searchForest(qv []byte, n, searchK int) ([]int32, []int32, error) {
	if searchK < 0 {
		searchK = n * len(ix.roots)
	}

	pq := queue.NewMargin(2 * len(ix.roots))
	for _, root := range ix.roots {
		pq.Push(queue.Item{Key: hamming.PQInitialValue(), Slot: root})
	}

	var candidates []uint32
	for len(candidates) < searchK && pq.Len() > 0 {
		top, _ := pq.Pop()

		nd := ix.store.Slot(top.Slot)
		switch ix.store.Kind(top.Slot, ix.nItems) {
		case nodestore.KindLeaf:
			candidates = append(candidates, uint32(top.Slot))
		case nodestore.KindGroup:
			candidates = nd.AppendIDs(candidates, nd.Descendants())
		default:
			m := hamming.Margin(nd.SplitBit(), qv)
			pq.Push(queue.Item{Key: hamming.PQDistance(top.Key, m, 1), Slot: nd.Child(1)})
			pq.Push(queue.Item{Key: hamming.PQDistance(top.Key, m, 0), Slot: nd.Child(0)})
		}
	}

	// Unique ids in ascending order, then exact re-rank.
	seen := roaring.New()
	seen.AddMany(candidates)

	ranked := make([]rankedItem, 0, int(seen.GetCardinality()))
	it := seen.Iterator()
	for it.HasNext() {
		id := int32(it.Next())
		if ix.store.Slot(id).Descendants() != 1 {
			continue
		}
		ranked = append(ranked, rankedItem{
			dist: hamming.Distance(qv, ix.store.Slot(id).Vector(), ix.f),
			id:   id,
		})
	}

	slices.SortFunc(ranked, func(a, b rankedItem) int {
		if a.dist != b.dist {
			return int(a.dist - b.dist)
		}
		return int(a.id - b.id)
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}

	ids := make([]int32, len(ranked))
	dists := make([]int32, len(ranked))
	for i, r := range ranked {
		ids[i] = r.id
		dists[i] = r.dist
	}
	return ids, dists, nil
}
