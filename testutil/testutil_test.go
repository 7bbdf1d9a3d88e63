package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlipBits(t *testing.T) {
	rng := NewRNG(1)
	v := rng.Words(4)

	for _, k := range []int{0, 1, 3, 17} {
		flipped := rng.FlipBits(v, k)
		assert.Equal(t, int32(k), HammingDistance(v, flipped), "k=%d", k)
	}
}

func TestBruteForce(t *testing.T) {
	items := map[int32][]int32{
		0: {0b0011},
		1: {0b0110},
		2: {0b1111},
	}

	got := BruteForce(items, []int32{0}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, Neighbor{ID: 0, Distance: 2}, got[0])
	assert.Equal(t, Neighbor{ID: 1, Distance: 2}, got[1])
	assert.Equal(t, Neighbor{ID: 2, Distance: 4}, got[2])

	got = BruteForce(items, []int32{0}, 1)
	assert.Len(t, got, 1)
}

func TestRNGReset(t *testing.T) {
	rng := NewRNG(9)
	a := rng.Words(2)
	rng.Reset()
	assert.Equal(t, a, rng.Words(2))
}
