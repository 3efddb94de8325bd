package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

var safeTensorsDTypes = map[tensor.DataType]string{
	tensor.Float32: "F32",
	tensor.Int32:   "I32",
	tensor.Int64:   "I64",
}

type safeTensorsEntry struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes stateDict in the safetensors layout: an 8-byte
// little-endian header length, a JSON header keyed by tensor name (plus
// "__metadata__"), then the tensor bytes in name order.
func WriteSafeTensors(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}
	var offset int64
	for _, name := range names {
		raw := stateDict[name]
		dtype, ok := safeTensorsDTypes[raw.DType()]
		if !ok {
			return fmt.Errorf("tensor %q: unsupported dtype %s", name, raw.DType())
		}
		size := int64(raw.ByteSize())
		header[name] = safeTensorsEntry{
			DType:       dtype,
			Shape:       raw.Shape().Clone(),
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	// The data section starts 8-byte aligned; the format allows trailing
	// spaces in the header for that.
	for len(headerJSON)%8 != 0 {
		headerJSON = append(headerJSON, ' ')
	}

	return writeAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if err := binary.Write(bw, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
			return err
		}
		if _, err := bw.Write(headerJSON); err != nil {
			return err
		}
		for _, name := range names {
			raw := stateDict[name]
			if _, err := bw.Write(raw.Data()[:raw.ByteSize()]); err != nil {
				return fmt.Errorf("write tensor %q: %w", name, err)
			}
		}
		return bw.Flush()
	})
}
