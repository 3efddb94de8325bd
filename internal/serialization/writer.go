package serialization

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// Encode writes stateDict as a snapshot. Tensors are stored in name order;
// header.Tensors and header.FormatVersion are filled in, and a zero
// CreatedAt is set to the current time.
func Encode(w io.Writer, stateDict map[string]*tensor.RawTensor, header Header) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header.FormatVersion = FormatVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	header.Tensors = make([]TensorMeta, 0, len(names))

	sum := sha256.New()
	var offset int64
	for _, name := range names {
		raw := stateDict[name]
		if raw == nil {
			return fmt.Errorf("tensor %q is nil", name)
		}
		dtype, ok := dtypeNames[raw.DType()]
		if !ok {
			return fmt.Errorf("tensor %q: unsupported dtype %s", name, raw.DType())
		}
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  raw.Shape().Clone(),
			Offset: offset,
			Size:   size,
		})
		sum.Write(raw.Data()[:size])
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	padded := align(fixedHeaderSize+int64(len(headerJSON))) - fixedHeaderSize

	var flags uint32
	if header.Checkpoint != nil {
		flags |= FlagHasOptimizer
	}
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, fixedHeaderSize)
	copy(fixed, magic)
	binary.LittleEndian.PutUint32(fixed[4:], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:], flags)
	binary.LittleEndian.PutUint64(fixed[16:], uint64(padded))
	binary.LittleEndian.PutUint64(fixed[24:], uint64(offset))
	copy(fixed[checksumOffset:], sum.Sum(nil))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(fixed); err != nil {
		return err
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return err
	}
	if _, err := bw.Write(make([]byte, padded-int64(len(headerJSON)))); err != nil {
		return err
	}
	for _, name := range names {
		raw := stateDict[name]
		if _, err := bw.Write(raw.Data()[:raw.ByteSize()]); err != nil {
			return fmt.Errorf("write tensor %q: %w", name, err)
		}
	}
	return bw.Flush()
}

// WriteFile encodes a snapshot into path. The file is written next to
// path under a temporary name and renamed once complete, so readers never
// observe a partial snapshot.
func WriteFile(path string, stateDict map[string]*tensor.RawTensor, header Header) error {
	return writeAtomic(path, func(w io.Writer) error {
		return Encode(w, stateDict, header)
	})
}

func writeAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
