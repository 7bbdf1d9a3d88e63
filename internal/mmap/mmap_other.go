//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Without mmap support the file is read into an owned buffer. Queries see
// the same bytes; only the zero-copy property is lost.
func osMap(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func osUnmap(data []byte) error {
	return nil
}

func osAdvise(data []byte, pattern AccessPattern) error {
	return nil
}
