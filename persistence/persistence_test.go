package persistence

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() *Header {
	return &Header{
		F:         2,
		NItems:    3,
		NNodes:    5,
		NodesSize: 8,
		K:         2,
		Roots:     []int32{3, 4},
	}
}

// testNodes returns a recognizable node region for the given header.
func testNodes(h *Header) []byte {
	stride := 12 + 4*int(h.F)
	nodes := make([]byte, stride*int(h.NNodes))
	for i := range nodes {
		nodes[i] = byte(i)
	}
	return nodes
}

func TestSaveLoad(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		h := testHeader()
		nodes := testNodes(h)
		path := filepath.Join(t.TempDir(), "index.bf")

		require.NoError(t, Save(path, h, nodes))

		snap, err := Load(path, false)
		require.NoError(t, err)
		defer snap.Close()

		assert.Equal(t, h.F, snap.Header.F)
		assert.Equal(t, h.NItems, snap.Header.NItems)
		assert.Equal(t, h.NNodes, snap.Header.NNodes)
		assert.Equal(t, h.NodesSize, snap.Header.NodesSize)
		assert.Equal(t, h.K, snap.Header.K)
		assert.Equal(t, h.Roots, snap.Header.Roots)
		assert.Equal(t, nodes, snap.Nodes)
	})

	t.Run("FileLayout", func(t *testing.T) {
		h := testHeader()
		nodes := testNodes(h)
		path := filepath.Join(t.TempDir(), "index.bf")
		require.NoError(t, Save(path, h, nodes))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, h.Len()+len(nodes), len(data))

		// Fixed fields in order, little-endian.
		want := []int32{h.F, h.NItems, h.NNodes, h.NodesSize, h.K, int32(len(h.Roots))}
		for i, w := range want {
			assert.Equal(t, uint32(w), binary.LittleEndian.Uint32(data[i*4:]), "field %d", i)
		}
		for i, r := range h.Roots {
			assert.Equal(t, uint32(r), binary.LittleEndian.Uint32(data[(6+i)*4:]), "root %d", i)
		}

		// The node region is a verbatim image.
		assert.Equal(t, nodes, data[h.Len():])
	})

	t.Run("EmptyRoots", func(t *testing.T) {
		h := testHeader()
		h.Roots = nil
		h.NNodes = 1
		nodes := testNodes(h)
		path := filepath.Join(t.TempDir(), "index.bf")
		require.NoError(t, Save(path, h, nodes))

		snap, err := Load(path, false)
		require.NoError(t, err)
		defer snap.Close()
		assert.Empty(t, snap.Header.Roots)
	})

	t.Run("Prefault", func(t *testing.T) {
		h := testHeader()
		nodes := testNodes(h)
		path := filepath.Join(t.TempDir(), "index.bf")
		require.NoError(t, Save(path, h, nodes))

		snap, err := Load(path, true)
		require.NoError(t, err)
		defer snap.Close()
		assert.Equal(t, nodes, snap.Nodes)
	})

	t.Run("Truncated", func(t *testing.T) {
		h := testHeader()
		nodes := testNodes(h)
		path := filepath.Join(t.TempDir(), "index.bf")
		require.NoError(t, Save(path, h, nodes))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		for _, cut := range []int{0, 8, h.Len(), len(data) - 1} {
			require.NoError(t, os.WriteFile(path, data[:cut], 0o600))
			_, err := Load(path, false)
			assert.ErrorContains(t, err, "truncated", "cut at %d", cut)
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.bf")
		data := make([]byte, 64)
		// f = -1
		binary.LittleEndian.PutUint32(data[0:], 0xFFFFFFFF)
		require.NoError(t, os.WriteFile(path, data, 0o600))

		_, err := Load(path, false)
		assert.ErrorContains(t, err, "corrupt")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.bf"), false)
		assert.ErrorContains(t, err, "open index file")
	})

	t.Run("CloseNil", func(t *testing.T) {
		var s *Snapshot
		assert.NoError(t, s.Close())
	})
}
