package tensor

import (
	"fmt"
	"slices"
	"unsafe"
)

// Device identifies where a tensor's memory lives.
type Device int

// CPU is the only device kernels exist for.
const CPU Device = 0

func (d Device) String() string {
	if d == CPU {
		return "cpu"
	}
	return fmt.Sprintf("device(%d)", int(d))
}

// RawTensor is an untyped, contiguous, row-major tensor. Backends operate
// on RawTensors; Tensor adds the element type and the backend.
//
// A RawTensor's identity matters: gradient maps are keyed by pointer, so
// kernels always return a fresh RawTensor instead of writing into an input.
type RawTensor struct {
	data   []byte
	shape  Shape
	dtype  DataType
	device Device
}

// NewRaw allocates a zeroed tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("new tensor: %w", err)
	}
	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the dimensions. Callers must not modify the result.
func (r *RawTensor) Shape() Shape { return r.shape }

// DType returns the element type.
func (r *RawTensor) DType() DataType { return r.dtype }

// Device returns the device holding the data.
func (r *RawTensor) Device() Device { return r.device }

// NumElements returns the number of elements.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the size of the data in bytes.
func (r *RawTensor) ByteSize() int { return r.NumElements() * r.dtype.Size() }

// Data returns the underlying bytes.
func (r *RawTensor) Data() []byte { return r.data }

// AsFloat32 views the data as float32. It panics for other dtypes.
func (r *RawTensor) AsFloat32() []float32 { return view[float32](r, Float32) }

// AsInt32 views the data as int32. It panics for other dtypes.
func (r *RawTensor) AsInt32() []int32 { return view[int32](r, Int32) }

// AsInt64 views the data as int64. It panics for other dtypes.
func (r *RawTensor) AsInt64() []int64 { return view[int64](r, Int64) }

func view[T DType](r *RawTensor, want DataType) []T {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor: dtype is %s, not %s", r.dtype, want))
	}
	//nolint:gosec // G103: the buffer holds exactly NumElements values of T
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(r.data))), r.NumElements())
}

// Copy returns a RawTensor with its own copy of the data.
func (r *RawTensor) Copy() *RawTensor {
	return &RawTensor{
		data:   slices.Clone(r.data),
		shape:  r.shape.Clone(),
		dtype:  r.dtype,
		device: r.device,
	}
}
