package bitforest

// Stats is a point-in-time snapshot of index shape and storage layout.
type Stats struct {
	NItems    int32 // stored items (one past the highest id)
	NNodes    int32 // total node slots in use
	NTrees    int   // trees in the forest
	Dimension int   // vector width in words
	K         int32 // max inline ids per compact leaf group
	Stride    int   // bytes per node record
	Built     bool
	Mapped    bool // backed by a read-only file mapping
}

// Stats returns current index statistics.
func (ix *Index) Stats() Stats {
	return Stats{
		NItems:    ix.nItems,
		NNodes:    ix.nNodes,
		NTrees:    len(ix.roots),
		Dimension: ix.f,
		K:         ix.store.K(),
		Stride:    ix.store.Stride(),
		Built:     ix.built,
		Mapped:    ix.store.Mapped(),
	}
}
