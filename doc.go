// Package bitforest provides an approximate nearest-neighbor index over
// binary vectors under Hamming distance, built as a forest of random
// bit-split trees.
//
// Usage:
//
//	ix, _ := bitforest.New(8, bitforest.WithSeed(42))
//	ix.AddItem(0, vec0)
//	ix.AddItem(1, vec1)
//	ix.Build(10)
//	ids, dists, _ := ix.NNsByVector(query, 5, -1)
//
// A built index can be saved to a single file and reloaded through a
// read-only memory mapping:
//
//	ix.Save("index.bf")
//
//	fresh, _ := bitforest.New(8)
//	fresh.Load("index.bf", true)
//
// Indexes are single-threaded: builds, queries and lifecycle operations
// must not run concurrently.
package bitforest
