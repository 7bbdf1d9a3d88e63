package bitforest

import (
	"github.com/hupe1980/bitforest/hamming"
	"github.com/hupe1980/bitforest/internal/kiss"
	"github.com/hupe1980/bitforest/internal/nodestore"
	"github.com/hupe1980/bitforest/persistence"
)

// Index is an approximate nearest-neighbor index over fixed-width binary
// vectors under Hamming distance. Items are added up front, then a forest
// of random bit-split trees is built offline; queries run a best-first
// traversal across all trees and re-rank candidates by exact distance.
//
// An Index is not safe for concurrent use. Build, query, save and load all
// run on the caller's goroutine.
type Index struct {
	f     int
	store *nodestore.Store

	nItems int32
	nNodes int32
	roots  []int32

	rng    *kiss.Random
	logger *Logger
	custom bool // logger supplied via option

	built    bool
	snapshot *persistence.Snapshot // non-nil when backed by a loaded file
}

// New creates an empty index for vectors of f words (32*f bits).
func New(f int, optFns ...Option) (*Index, error) {
	if f < 1 {
		return nil, &ErrInvalidDimension{Dimension: f}
	}

	o := options{seed: kiss.DefaultSeed}
	for _, fn := range optFns {
		fn(&o)
	}

	custom := o.logger != nil
	if o.logger == nil {
		o.logger = NoopLogger()
	}

	return &Index{
		f:      f,
		store:  nodestore.New(f),
		rng:    kiss.NewWithSeed(o.seed),
		logger: o.logger,
		custom: custom,
	}, nil
}

// AddItem stores vec under the given id. Ids need not be dense; unused
// slots below the maximum id stay empty. Fails once the index is built.
func (ix *Index) AddItem(id int32, vec []int32) error {
	if ix.built {
		return ErrAlreadyBuilt
	}
	if ix.store.Mapped() {
		return ErrReadOnly
	}
	if id < 0 {
		return &ErrInvalidItemID{ID: id}
	}
	if len(vec) != ix.f {
		return &ErrInvalidVectorLength{Expected: ix.f, Actual: len(vec)}
	}

	ix.store.Reserve(id + 1)
	n := ix.store.Slot(id)
	n.SetDescendants(1)
	n.SetVector(vec)

	if id >= ix.nItems {
		ix.nItems = id + 1
	}
	return nil
}

// Unbuild discards the forest but keeps the stored items, so the index can
// be rebuilt with different parameters. An index backed by a read-only
// mapping must be unloaded instead before it can be modified.
func (ix *Index) Unbuild() error {
	if !ix.built {
		return ErrNotBuilt
	}
	ix.roots = nil
	ix.nNodes = ix.nItems
	ix.built = false
	return nil
}

// Save writes the built index to a single file whose node region is
// memory-mappable by Load.
func (ix *Index) Save(path string) error {
	if !ix.built {
		return ErrNotBuilt
	}
	h := &persistence.Header{
		F:         int32(ix.f),
		NItems:    ix.nItems,
		NNodes:    ix.nNodes,
		NodesSize: ix.store.Cap(),
		K:         ix.store.K(),
		Roots:     ix.roots,
	}
	return persistence.Save(path, h, ix.store.Bytes(ix.nNodes))
}

// Load replaces the index contents with the file at path, serving queries
// directly from a read-only memory mapping. The file must have been saved
// by an index of the same dimensionality. On failure the index is left
// empty. prefault requests eager page population.
func (ix *Index) Load(path string, prefault bool) error {
	ix.Unload()

	snap, err := persistence.Load(path, prefault)
	if err != nil {
		return err
	}

	if int(snap.Header.F) != ix.f {
		snap.Close()
		return &ErrDimensionMismatch{Expected: ix.f, Actual: int(snap.Header.F)}
	}

	ix.store.SetMapped(snap.Nodes, snap.Header.NNodes)
	ix.nItems = snap.Header.NItems
	ix.nNodes = snap.Header.NNodes
	ix.roots = snap.Header.Roots
	ix.snapshot = snap
	ix.built = true
	return nil
}

// Unload releases the node region (unmapping and closing the file when
// loaded), clears the forest and resets all counters.
func (ix *Index) Unload() {
	if ix.snapshot != nil {
		// Close errors are unrecoverable here; the mapping is gone either way.
		_ = ix.snapshot.Close()
		ix.snapshot = nil
	}
	ix.store.Truncate()
	ix.roots = nil
	ix.nItems = 0
	ix.nNodes = 0
	ix.built = false
}

// SetSeed reseeds the build-time random generator. Call before Build for
// reproducible forests.
func (ix *Index) SetSeed(seed uint64) {
	ix.rng.SetSeed(seed)
}

// SetVerbose toggles build diagnostics. Unless a logger was supplied via
// WithLogger, verbose mode installs a debug-level text logger on stderr.
func (ix *Index) SetVerbose(v bool) {
	if ix.custom {
		return
	}
	if v {
		ix.logger = verboseLogger()
	} else {
		ix.logger = NoopLogger()
	}
}

// NItems returns one past the highest stored item id.
func (ix *Index) NItems() int32 { return ix.nItems }

// NTrees returns the number of trees in the forest.
func (ix *Index) NTrees() int { return len(ix.roots) }

// Dimension returns the vector width in words.
func (ix *Index) Dimension() int { return ix.f }

// Item returns a copy of the stored vector for id.
func (ix *Index) Item(id int32) ([]int32, error) {
	if id < 0 || id >= ix.nItems {
		return nil, &ErrInvalidItemID{ID: id}
	}
	return ix.store.Slot(id).VectorWords(), nil
}

// Distance returns the exact Hamming distance between two stored items.
func (ix *Index) Distance(i, j int32) (int32, error) {
	if i < 0 || i >= ix.nItems {
		return 0, &ErrInvalidItemID{ID: i}
	}
	if j < 0 || j >= ix.nItems {
		return 0, &ErrInvalidItemID{ID: j}
	}
	a := ix.store.Slot(i).Vector()
	b := ix.store.Slot(j).Vector()
	return hamming.Distance(a, b, ix.f), nil
}
