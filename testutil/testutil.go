// Package testutil provides helpers for index tests: seeded random bit
// vectors, controlled bit flips and a brute-force reference search.
package testutil

import (
	"math/bits"
	"math/rand"
	"sort"
)

// RNG wraps math/rand with a fixed seed for reproducible test corpora.
type RNG struct {
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.rand.Seed(r.seed)
}

// Words returns a random bit vector of f words.
func (r *RNG) Words(f int) []int32 {
	v := make([]int32, f)
	for i := range v {
		v[i] = int32(r.rand.Uint32())
	}
	return v
}

// FlipBits returns a copy of v with k distinct bits flipped, producing a
// vector at exact Hamming distance k.
func (r *RNG) FlipBits(v []int32, k int) []int32 {
	out := make([]int32, len(v))
	copy(out, v)

	flipped := make(map[int]bool, k)
	for len(flipped) < k {
		b := r.rand.Intn(len(v) * 32)
		if flipped[b] {
			continue
		}
		flipped[b] = true
		out[b/32] ^= int32(1) << (31 - b%32)
	}
	return out
}

// HammingDistance is the reference distance: xor-popcount over all words.
func HammingDistance(a, b []int32) int32 {
	var d int32
	for i := range a {
		d += int32(bits.OnesCount32(uint32(a[i]) ^ uint32(b[i])))
	}
	return d
}

// Neighbor is a brute-force search result.
type Neighbor struct {
	ID       int32
	Distance int32
}

// BruteForce returns the n exact nearest neighbors of query among items,
// ties broken by ascending id.
func BruteForce(items map[int32][]int32, query []int32, n int) []Neighbor {
	all := make([]Neighbor, 0, len(items))
	for id, v := range items {
		all = append(all, Neighbor{ID: id, Distance: HammingDistance(query, v)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].ID < all[j].ID
	})
	if n < len(all) {
		all = all[:n]
	}
	return all
}
