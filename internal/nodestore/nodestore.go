// Package nodestore provides the packed node region backing a forest index.
//
// All tree nodes live in one contiguous byte region at a fixed stride, so
// the region can be written to disk verbatim and reloaded through a
// read-only memory mapping without parsing. Callers never see raw offsets;
// they address nodes through slot views.
package nodestore

import (
	"encoding/binary"
	"math"
)

// Record layout, packed little-endian:
//
//	[0,4)    n_descendants int32
//	[4,12)   children [2]int32
//	[12,_s)  v [f]int32
//
// The children and v fields alias: a compact leaf group reinterprets the
// bytes from offsetChildren onward as a flat id array of up to K entries.
const (
	offsetDescendants = 0
	offsetChildren    = 4
	offsetVector      = 12

	wordSize = 4
)

// growthFactor is the capacity multiplier applied on reallocation.
const growthFactor = 1.3

// Kind classifies a node record by its role discriminant.
type Kind int

const (
	// KindLeaf is a single stored item; the slot index is the item id.
	KindLeaf Kind = iota
	// KindGroup is a compact leaf group holding up to K inline item ids.
	KindGroup
	// KindInner is an inner tree node with two children and a split bit.
	KindInner
)

// Store is a growable region of fixed-stride node slots.
//
// A store is either owned (heap-backed, mutable) or mapped (a read-only
// view into a memory-mapped file). Mutating a mapped store panics.
type Store struct {
	f      int
	stride int
	k      int32

	data   []byte
	slots  int32 // capacity in slots
	mapped bool
}

// New creates an empty owned store for vectors of f words.
func New(f int) *Store {
	stride := offsetVector + f*wordSize
	return &Store{
		f:      f,
		stride: stride,
		k:      int32((stride-offsetChildren)/wordSize) - 2,
	}
}

// F returns the vector width in words.
func (s *Store) F() int { return s.f }

// Stride returns the byte size of one node record.
func (s *Store) Stride() int { return s.stride }

// K returns the maximum number of item ids a compact leaf group can hold.
func (s *Store) K() int32 { return s.k }

// Cap returns the current capacity in slots.
func (s *Store) Cap() int32 { return s.slots }

// Mapped reports whether the store is backed by a read-only mapping.
func (s *Store) Mapped() bool { return s.mapped }

// Reserve ensures capacity for at least n slots, reallocating with a 1.3x
// growth factor and preserving prior contents. Allocation failure is fatal:
// the runtime aborts, matching the build-time out-of-memory contract.
func (s *Store) Reserve(n int32) {
	if s.mapped {
		panic("nodestore: reserve on mapped store")
	}
	if n <= s.slots {
		return
	}
	grown := int32(math.Ceil(float64(s.slots+1) * growthFactor))
	if grown > n {
		n = grown
	}
	next := make([]byte, int(n)*s.stride)
	copy(next, s.data)
	s.data = next
	s.slots = n
}

// Slot returns a view over slot i. The view stays valid until the next
// Reserve or Truncate.
func (s *Store) Slot(i int32) Node {
	off := int(i) * s.stride
	return Node{b: s.data[off : off+s.stride], f: s.f, readonly: s.mapped}
}

// Kind classifies the node in slot i. nItems bounds the item-leaf slot
// prefix; slots at or beyond it with a descendant count of one are compact
// groups holding a single id.
func (s *Store) Kind(i, nItems int32) Kind {
	n := s.Slot(i).Descendants()
	switch {
	case n == 1 && i < nItems:
		return KindLeaf
	case n <= s.k:
		return KindGroup
	default:
		return KindInner
	}
}

// Bytes returns the raw image of the first n slots.
func (s *Store) Bytes(n int32) []byte {
	return s.data[:int(n)*s.stride]
}

// Truncate drops the backing region and resets capacity to zero. The store
// becomes owned again.
func (s *Store) Truncate() {
	s.data = nil
	s.slots = 0
	s.mapped = false
}

// SetMapped replaces the backing with a read-only region of n slots, taking
// the place of any owned allocation. data must be at least n*Stride() bytes.
func (s *Store) SetMapped(data []byte, n int32) {
	s.data = data[:int(n)*s.stride]
	s.slots = n
	s.mapped = true
}

// Node is a structured view over one fixed-stride record.
type Node struct {
	b        []byte
	f        int
	readonly bool
}

// Descendants returns the role discriminant.
func (n Node) Descendants() int32 {
	return int32(binary.LittleEndian.Uint32(n.b[offsetDescendants:]))
}

// SetDescendants stores the role discriminant.
func (n Node) SetDescendants(v int32) {
	n.check()
	binary.LittleEndian.PutUint32(n.b[offsetDescendants:], uint32(v))
}

// Child returns the child slot index on the given side (0 or 1).
func (n Node) Child(side int) int32 {
	return int32(binary.LittleEndian.Uint32(n.b[offsetChildren+side*wordSize:]))
}

// SetChild stores the child slot index on the given side.
func (n Node) SetChild(side int, id int32) {
	n.check()
	binary.LittleEndian.PutUint32(n.b[offsetChildren+side*wordSize:], uint32(id))
}

// IDs decodes the first count entries of the reinterpreted children region
// of a compact leaf group.
func (n Node) IDs(count int32) []int32 {
	ids := make([]int32, count)
	for i := range ids {
		ids[i] = int32(binary.LittleEndian.Uint32(n.b[offsetChildren+i*wordSize:]))
	}
	return ids
}

// AppendIDs appends the first count group entries to dst without allocating
// an intermediate slice.
func (n Node) AppendIDs(dst []uint32, count int32) []uint32 {
	for i := 0; i < int(count); i++ {
		dst = append(dst, binary.LittleEndian.Uint32(n.b[offsetChildren+i*wordSize:]))
	}
	return dst
}

// SetIDs writes a compact leaf group id list into the reinterpreted
// children region. len(ids) must not exceed K.
func (n Node) SetIDs(ids []int32) {
	n.check()
	for i, id := range ids {
		binary.LittleEndian.PutUint32(n.b[offsetChildren+i*wordSize:], uint32(id))
	}
}

// SplitBit returns v[0] interpreted as the split bit index of an inner node.
func (n Node) SplitBit() uint32 {
	return binary.LittleEndian.Uint32(n.b[offsetVector:])
}

// SetSplitBit stores the split bit index into v[0].
func (n Node) SetSplitBit(bit uint32) {
	n.check()
	binary.LittleEndian.PutUint32(n.b[offsetVector:], bit)
}

// Vector returns the raw little-endian v region (f words). The slice
// aliases the store; callers must treat it as immutable.
func (n Node) Vector() []byte {
	return n.b[offsetVector : offsetVector+n.f*wordSize]
}

// SetVector encodes words into the v region. len(words) must equal f.
func (n Node) SetVector(words []int32) {
	n.check()
	for i, w := range words {
		binary.LittleEndian.PutUint32(n.b[offsetVector+i*wordSize:], uint32(w))
	}
}

// VectorWords decodes the v region into a fresh slice.
func (n Node) VectorWords() []int32 {
	words := make([]int32, n.f)
	for i := range words {
		words[i] = int32(binary.LittleEndian.Uint32(n.b[offsetVector+i*wordSize:]))
	}
	return words
}

func (n Node) check() {
	if n.readonly {
		panic("nodestore: write to mapped store")
	}
}

// EncodeVector encodes words little-endian into a fresh byte region, used
// for query vectors that never enter the store.
func EncodeVector(words []int32) []byte {
	b := make([]byte, len(words)*wordSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*wordSize:], uint32(w))
	}
	return b
}
