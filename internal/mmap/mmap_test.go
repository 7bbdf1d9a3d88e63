package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestOpen(t *testing.T) {
	t.Run("ReadsContents", func(t *testing.T) {
		want := []byte("hello, mapping")
		m, err := Open(writeTemp(t, want))
		require.NoError(t, err)

		assert.Equal(t, want, m.Bytes())
		assert.Equal(t, len(want), m.Size())

		require.NoError(t, m.Close())
		assert.Nil(t, m.Bytes())
		assert.Equal(t, 0, m.Size())
	})

	t.Run("EmptyFile", func(t *testing.T) {
		m, err := Open(writeTemp(t, nil))
		require.NoError(t, err)
		assert.Empty(t, m.Bytes())
		require.NoError(t, m.Close())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})
}

func TestRegion(t *testing.T) {
	m, err := Open(writeTemp(t, []byte{0, 1, 2, 3, 4, 5, 6, 7}))
	require.NoError(t, err)
	defer m.Close()

	r, err := m.Region(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4, 5}, r)

	_, err = m.Region(0, 9)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.Region(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.Region(8, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, m.Close())
	_, err = m.Region(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAdvise(t *testing.T) {
	m, err := Open(writeTemp(t, []byte{1, 2, 3}))
	require.NoError(t, err)

	assert.NoError(t, m.Advise(AccessWillNeed))
	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Advise(AccessDefault))

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Advise(AccessWillNeed), ErrClosed)
}

func TestClose(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		m, err := Open(writeTemp(t, []byte{1}))
		require.NoError(t, err)
		require.NoError(t, m.Close())
		assert.NoError(t, m.Close())
	})

	t.Run("Nil", func(t *testing.T) {
		var m *Mapping
		assert.NoError(t, m.Close())
	})
}
