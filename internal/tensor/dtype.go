package tensor

import "fmt"

// DType constrains the element types a Tensor can hold: float32 values,
// int32 class labels and indices, and int64 counters in saved state.
type DType interface {
	~float32 | ~int32 | ~int64
}

// DataType is the runtime tag of a RawTensor's element type.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Int32
	Int64
)

// Size returns the width of one element in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Int64:
		return 8
	}
	panic(fmt.Sprintf("tensor: unknown data type %d", int(dt)))
}

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

func dataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	case int64:
		return Int64
	}
	panic(fmt.Sprintf("tensor: unsupported element type %T", zero))
}
