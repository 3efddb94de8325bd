package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Snapshot is a parsed, checksum-verified snapshot.
type Snapshot struct {
	header  Header
	data    []byte
	release func() error
}

// Decode parses a snapshot held in memory. The returned Snapshot keeps
// referencing buf.
func Decode(buf []byte) (*Snapshot, error) {
	if len(buf) < fixedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(buf))
	}
	if string(buf[:4]) != magic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, buf[:4])
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	headerSize := binary.LittleEndian.Uint64(buf[16:])
	dataSize := binary.LittleEndian.Uint64(buf[24:])
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	dataStart := uint64(fixedHeaderSize) + headerSize
	if dataSize > uint64(len(buf)) || dataStart > uint64(len(buf))-dataSize {
		return nil, fmt.Errorf("%w: need %d+%d bytes, have %d", ErrTruncated, dataStart, dataSize, len(buf))
	}

	data := buf[dataStart : dataStart+dataSize]
	sum := sha256.Sum256(data)
	if !bytes.Equal(sum[:], buf[checksumOffset:checksumOffset+sha256.Size]) {
		return nil, ErrChecksumMismatch
	}

	var header Header
	headerJSON := bytes.TrimRight(buf[fixedHeaderSize:dataStart], "\x00")
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if err := validateTensors(header.Tensors, int64(dataSize)); err != nil {
		return nil, err
	}
	return &Snapshot{header: header, data: data}, nil
}

// ReadFile reads and decodes the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	buf, err := os.ReadFile(path) //nolint:gosec // G304: caller chooses the snapshot
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// Open maps the snapshot at path into memory and decodes it. Close must
// be called to release the mapping.
func Open(path string) (*Snapshot, error) {
	f, err := os.Open(path) //nolint:gosec // G304: caller chooses the snapshot
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < fixedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, info.Size())
	}

	buf, unmap, err := mapFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	s, err := Decode(buf)
	if err != nil {
		_ = unmap()
		return nil, err
	}
	s.release = unmap
	return s, nil
}

// Header returns the decoded JSON header.
func (s *Snapshot) Header() Header {
	return s.header
}

// StateDict copies every tensor out of the snapshot onto device.
func (s *Snapshot) StateDict(device tensor.Device) (map[string]*tensor.RawTensor, error) {
	sd := make(map[string]*tensor.RawTensor, len(s.header.Tensors))
	for _, meta := range s.header.Tensors {
		dtype, err := parseDType(meta.DType)
		if err != nil {
			return nil, err
		}
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, device)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		copy(raw.Data(), s.data[meta.Offset:meta.Offset+meta.Size])
		sd[meta.Name] = raw
	}
	return sd, nil
}

// Close releases the file mapping, if any. It is safe to call twice.
func (s *Snapshot) Close() error {
	release := s.release
	s.release = nil
	s.data = nil
	if release == nil {
		return nil
	}
	return release()
}

func validateTensors(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return fmt.Errorf("%w: %d tensors, max %d", ErrInvalidTensor, len(tensors), MaxTensorCount)
	}

	seen := make(map[string]bool, len(tensors))
	for _, t := range tensors {
		if err := validateName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidTensor, t.Name)
		}
		seen[t.Name] = true

		dtype, err := parseDType(t.DType)
		if err != nil {
			return err
		}
		n := 1
		for _, d := range t.Shape {
			if d <= 0 {
				return fmt.Errorf("%w: %q has shape %v", ErrInvalidTensor, t.Name, t.Shape)
			}
			n *= d
		}
		if int64(n*dtype.Size()) != t.Size {
			return fmt.Errorf("%w: %q is %d bytes, shape %v needs %d", ErrInvalidTensor, t.Name, t.Size, t.Shape, n*dtype.Size())
		}
		if t.Offset < 0 || t.Offset > dataSize-t.Size {
			return fmt.Errorf("%w: %q at [%d, %d) outside %d data bytes", ErrInvalidTensor, t.Name, t.Offset, t.Offset+t.Size, dataSize)
		}
	}

	sorted := append([]TensorMeta(nil), tensors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.Offset+prev.Size > sorted[i].Offset {
			return fmt.Errorf("%w: %q overlaps %q", ErrInvalidTensor, prev.Name, sorted[i].Name)
		}
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidTensor)
	case len(name) > MaxTensorNameLen:
		return fmt.Errorf("%w: name of %d bytes", ErrInvalidTensor, len(name))
	case strings.ContainsFunc(name, unicode.IsControl):
		return fmt.Errorf("%w: name %q has control characters", ErrInvalidTensor, name)
	}
	return nil
}
