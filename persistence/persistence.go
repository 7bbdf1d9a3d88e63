// Package persistence implements the single-file binary format of a built
// forest index.
//
// Layout, little-endian, in order:
//
//	f          int32
//	n_items    int32
//	n_nodes    int32
//	nodes_size int32   (capacity hint; load uses n_nodes)
//	K          int32
//	roots_size int32
//	roots      [roots_size]int32
//	nodes      [stride * n_nodes]byte
//
// The nodes section is the verbatim image of the live node region, so a
// loaded file is served directly from a read-only memory mapping without
// parsing. The format is platform-local: a file is loadable only by an
// index whose dimensionality and record packing match.
package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/hupe1980/bitforest/internal/mmap"
)

// headerWords is the number of fixed int32 fields preceding the roots list.
const headerWords = 6

// Header is the file prologue: everything before the node region.
type Header struct {
	F         int32
	NItems    int32
	NNodes    int32
	NodesSize int32
	K         int32
	Roots     []int32
}

// Len returns the encoded byte length of the header including roots.
func (h *Header) Len() int {
	return 4 * (headerWords + len(h.Roots))
}

// Save writes the header and the node region image to path, replacing any
// existing file.
func Save(path string, h *Header, nodes []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open index file for writing: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := writeHeader(w, h); err != nil {
		f.Close()
		return fmt.Errorf("write index header: %w", err)
	}
	if _, err := w.Write(nodes); err != nil {
		f.Close()
		return fmt.Errorf("write node region: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	return nil
}

func writeHeader(w *bufio.Writer, h *Header) error {
	fields := make([]int32, 0, headerWords+len(h.Roots))
	fields = append(fields, h.F, h.NItems, h.NNodes, h.NodesSize, h.K, int32(len(h.Roots)))
	fields = append(fields, h.Roots...)

	var buf [4]byte
	for _, v := range fields {
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is a loaded index file. Nodes aliases the mapping; it stays
// valid until Close.
type Snapshot struct {
	Header Header
	Nodes  []byte

	mapping *mmap.Mapping
}

// Close releases the mapping and closes the underlying descriptor.
func (s *Snapshot) Close() error {
	if s == nil {
		return nil
	}
	s.Nodes = nil
	m := s.mapping
	s.mapping = nil
	return m.Close()
}

// Load maps the file at path and validates its structure. The node region
// is the tail of the mapping, 4-byte aligned within the page-aligned map.
// stride is derived from the file's own dimensionality; the caller checks
// it against the receiving index before adopting the snapshot.
func Load(path string, prefault bool) (*Snapshot, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file for reading: %w", err)
	}

	s, err := parse(m)
	if err != nil {
		m.Close()
		return nil, err
	}

	if prefault {
		// Best-effort; the load succeeds even if the kernel rejects the hint.
		_ = m.Advise(mmap.AccessWillNeed)
	}
	return s, nil
}

func parse(m *mmap.Mapping) (*Snapshot, error) {
	data := m.Bytes()
	if len(data) < 4*headerWords {
		return nil, fmt.Errorf("index file truncated: %d bytes", len(data))
	}

	word := func(i int) int32 {
		return int32(binary.LittleEndian.Uint32(data[i*4:]))
	}

	h := Header{
		F:         word(0),
		NItems:    word(1),
		NNodes:    word(2),
		NodesSize: word(3),
		K:         word(4),
	}
	rootsSize := word(5)

	if h.F < 1 || h.NNodes < 0 || rootsSize < 0 {
		return nil, fmt.Errorf("index file corrupt: f=%d n_nodes=%d roots=%d", h.F, h.NNodes, rootsSize)
	}

	nodesOff := 4 * (headerWords + int(rootsSize))
	stride := 12 + 4*int(h.F)
	nodesLen := stride * int(h.NNodes)

	nodes, err := m.Region(nodesOff, nodesLen)
	if err != nil {
		return nil, fmt.Errorf("index file truncated: want %d bytes, have %d", nodesOff+nodesLen, len(data))
	}

	h.Roots = make([]int32, rootsSize)
	for i := range h.Roots {
		h.Roots[i] = word(headerWords + i)
	}

	return &Snapshot{
		Header:  h,
		Nodes:   nodes,
		mapping: m,
	}, nil
}
