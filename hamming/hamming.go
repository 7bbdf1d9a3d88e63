// Package hamming implements the metric operations of the forest index:
// exact distance, margin bit tests and split-bit selection over packed
// little-endian bit vectors.
package hamming

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/hupe1980/bitforest/internal/kiss"
)

// WordBits is the bit width of one vector word.
const WordBits = 32

// maxSplitAttempts bounds the random probes in CreateSplit before falling
// back to a linear scan.
const maxSplitAttempts = 20

// Distance returns the Hamming distance between two packed vectors of f
// words: the number of bit positions in which they differ. Range [0, 32*f].
func Distance(a, b []byte, f int) int32 {
	var dist int32
	for i := 0; i < f; i++ {
		x := binary.LittleEndian.Uint32(a[i*4:])
		y := binary.LittleEndian.Uint32(b[i*4:])
		dist += int32(bits.OnesCount32(x ^ y))
	}
	return dist
}

// Bit reports whether bit b of the packed vector v is set. Bits are indexed
// MSB-first within each word: bit b selects word b/32, mask 1<<(31-b%32).
func Bit(v []byte, b uint32) bool {
	chunk := b / WordBits
	word := binary.LittleEndian.Uint32(v[chunk*4:])
	return word&(1<<(WordBits-1-b%WordBits)) != 0
}

// Margin classifies the packed vector y against an inner node's split bit.
func Margin(split uint32, y []byte) bool {
	return Bit(y, split)
}

// Side equals Margin. The generator parameter exists for interface symmetry
// with non-deterministic splits and is unused for Hamming.
func Side(split uint32, y []byte, _ *kiss.Random) bool {
	return Margin(split, y)
}

// PQInitialValue is the starting margin accumulator for a traversal.
func PQInitialValue() int32 {
	return math.MaxInt32
}

// PQDistance advances the margin accumulator along one child edge: paths
// that disagree with the margin lose one unit of priority.
func PQDistance(acc int32, margin bool, side int) int32 {
	if margin != (side == 1) {
		return acc - 1
	}
	return acc
}

// CreateSplit picks a split bit that partitions vecs non-degenerately: some
// but not all vectors have the bit set. It probes up to 20 random bits,
// then scans all bit positions in order. If every bit is degenerate (all
// vectors identical), ok is false and the returned bit is the last one
// tried; the caller's imbalance salvage recovers the partition.
func CreateSplit(vecs [][]byte, f int, rng *kiss.Random) (bit uint32, ok bool) {
	dim := f * WordBits

	for i := 0; i < maxSplitAttempts; i++ {
		bit = uint32(rng.Index(dim))
		if splits(vecs, bit) {
			return bit, true
		}
	}

	for b := 0; b < dim; b++ {
		bit = uint32(b)
		if splits(vecs, bit) {
			return bit, true
		}
	}

	return bit, false
}

func splits(vecs [][]byte, bit uint32) bool {
	set := 0
	for _, v := range vecs {
		if Bit(v, bit) {
			set++
		}
	}
	return set > 0 && set < len(vecs)
}
