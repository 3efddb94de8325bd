package mnist

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IDX magic numbers.
const (
	imagesMagic = 2051 // 0x00000803
	labelsMagic = 2049 // 0x00000801
)

// maxExamples bounds the count an IDX header may claim, so a corrupt
// header cannot force a huge allocation.
const maxExamples = 60000

// readImages decodes an IDX image file.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255), row-major
func readImages(r io.Reader) (pixels []byte, n, rows, cols int, err error) {
	var hdr [4]uint32
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%w: image header: %w", ErrCorrupt, err)
	}
	if hdr[0] != imagesMagic {
		return nil, 0, 0, 0, fmt.Errorf("%w: invalid image magic number: got %d, want %d", ErrCorrupt, hdr[0], imagesMagic)
	}

	n, rows, cols = int(hdr[1]), int(hdr[2]), int(hdr[3])
	if rows != Rows || cols != Cols {
		return nil, 0, 0, 0, fmt.Errorf("%w: image size %dx%d, want %dx%d", ErrCorrupt, rows, cols, Rows, Cols)
	}

	if n > maxExamples {
		return nil, 0, 0, 0, fmt.Errorf("%w: header claims %d images, at most %d", ErrCorrupt, n, maxExamples)
	}

	pixels = make([]byte, n*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%w: image payload: %w", ErrCorrupt, err)
	}
	return pixels, n, rows, cols, nil
}

// readLabels decodes an IDX label file.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readLabels(r io.Reader) ([]byte, error) {
	var hdr [2]uint32
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: label header: %w", ErrCorrupt, err)
	}
	if hdr[0] != labelsMagic {
		return nil, fmt.Errorf("%w: invalid label magic number: got %d, want %d", ErrCorrupt, hdr[0], labelsMagic)
	}

	if hdr[1] > maxExamples {
		return nil, fmt.Errorf("%w: header claims %d labels, at most %d", ErrCorrupt, hdr[1], maxExamples)
	}

	labels := make([]byte, hdr[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("%w: label payload: %w", ErrCorrupt, err)
	}
	for i, l := range labels {
		if l >= Classes {
			return nil, fmt.Errorf("%w: label %d at index %d out of range [0, %d]", ErrCorrupt, l, i, Classes-1)
		}
	}
	return labels, nil
}

// openIDX opens <dir>/<name>.gz, falling back to an already extracted
// <dir>/<name>. The returned closer releases every underlying handle.
func openIDX(dir string, f file) (io.Reader, func() error, error) {
	gz, err := os.Open(filepath.Join(dir, f.archive()))
	if err == nil {
		zr, err := gzip.NewReader(bufio.NewReader(gz))
		if err != nil {
			gz.Close()
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, f.archive(), err)
		}
		return zr, func() error {
			zerr := zr.Close()
			if cerr := gz.Close(); cerr != nil {
				return cerr
			}
			return zerr
		}, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, nil, err
	}

	plain, err := os.Open(filepath.Join(dir, f.name))
	if err != nil {
		return nil, nil, fmt.Errorf("mnist: %s not found in %s (enable download or fetch it manually): %w", f.archive(), dir, err)
	}
	return bufio.NewReader(plain), plain.Close, nil
}
