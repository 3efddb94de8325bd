package serialization

import (
	"errors"
	"fmt"
	"time"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

const (
	magic = "BORN"

	// FormatVersion is the snapshot layout written by this package.
	FormatVersion = 2

	fixedHeaderSize = 64
	checksumOffset  = 0x20
	alignment       = 64
)

// Flags stored in the fixed header.
const (
	FlagHasOptimizer uint32 = 1 << 1
	FlagHasMetadata  uint32 = 1 << 2
)

// Limits applied when reading untrusted files.
const (
	MaxHeaderSize    = 16 << 20
	MaxTensorCount   = 1 << 16
	MaxTensorNameLen = 512
)

var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTruncated          = errors.New("file truncated")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidTensor      = errors.New("invalid tensor entry")
)

// Header is the JSON header of a snapshot.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Writer        string            `json:"writer,omitempty"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta carries the training state of a resumable checkpoint.
type CheckpointMeta struct {
	Epoch           int                `json:"epoch"`
	Step            int64              `json:"step"`
	Loss            float64            `json:"loss"`
	OptimizerType   string             `json:"optimizer_type"`
	OptimizerConfig map[string]float64 `json:"optimizer_config,omitempty"`
}

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

var dtypeNames = map[tensor.DataType]string{
	tensor.Float32: "float32",
	tensor.Int32:   "int32",
	tensor.Int64:   "int64",
}

func parseDType(s string) (tensor.DataType, error) {
	for dt, name := range dtypeNames {
		if name == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown dtype %q", ErrInvalidTensor, s)
}

func align(n int64) int64 {
	return (n + alignment - 1) / alignment * alignment
}
