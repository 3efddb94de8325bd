// Package tensor provides the typed tensor the tutorials compute with.
//
// A Tensor[T, B] pairs a RawTensor with the Backend that runs its
// kernels. Every operation returns a new tensor; when B is an autodiff
// backend the operation is also recorded for the backward pass.
//
//	backend := autodiff.New(cpu.New())
//	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
//	y := x.MatMul(x.T()).Sum()
package tensor

import (
	"fmt"
	"strings"
)

// Tensor is a typed view over a RawTensor bound to a backend.
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps raw. Its dtype must match T.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	if want := dataTypeOf[T](); raw.DType() != want {
		panic(fmt.Sprintf("tensor: cannot wrap %s data as %s", raw.DType(), want))
	}
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if n := shape.NumElements(); n != len(data) {
		return nil, fmt.Errorf("shape %v holds %d elements, got %d", shape, n, len(data))
	}
	raw, err := NewRaw(shape, dataTypeOf[T](), b.Device())
	if err != nil {
		return nil, err
	}
	t := New[T](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the dimensions.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// DType returns the runtime element type.
func (t *Tensor[T, B]) DType() DataType { return t.raw.DType() }

// Device returns the device holding the data.
func (t *Tensor[T, B]) Device() Device { return t.raw.Device() }

// NumElements returns the number of elements.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Raw returns the untyped tensor handed to backends and used as the key
// of gradient maps.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the backend running this tensor's operations.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Data returns the elements in row-major order. The slice aliases the
// tensor.
func (t *Tensor[T, B]) Data() []T {
	return view[T](t.raw, t.raw.dtype)
}

// Item returns the only element of a one-element tensor.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("tensor: Item on shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At returns the element at the given index, one coordinate per dimension.
func (t *Tensor[T, B]) At(indices ...int) T {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("tensor: %d indices for shape %v", len(indices), shape))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d of %v", idx, i, shape))
		}
		offset = offset*shape[i] + idx
	}
	return t.Data()[offset]
}

// Clone returns an independent copy. Nothing is recorded, so gradients do
// not flow back through the copy.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Copy(), backend: t.backend}
}

// summarizeAbove is the element count beyond which String elides the
// middle of each dimension.
const summarizeAbove = 1000

// String prints the values the way PyTorch does:
//
//	tensor([[1, 2, 3],
//	        [4, 5, 6]])
func (t *Tensor[T, B]) String() string {
	var sb strings.Builder
	sb.WriteString("tensor(")
	format(&sb, t.Data(), t.Shape(), len("tensor("), t.NumElements() > summarizeAbove)
	sb.WriteString(")")
	return sb.String()
}

func format[T DType](sb *strings.Builder, data []T, shape Shape, indent int, summarize bool) {
	if len(shape) == 0 {
		fmt.Fprint(sb, data[0])
		return
	}
	n, stride := shape[0], len(data)/shape[0]
	sep := ", "
	if len(shape) > 1 {
		sep = ",\n" + strings.Repeat("\n", len(shape)-2) + strings.Repeat(" ", indent+1)
	}

	sb.WriteByte('[')
	for i := 0; i < n; i++ {
		if summarize && n > 6 && i == 3 {
			sb.WriteString(sep)
			sb.WriteString("...")
			i = n - 3
		}
		if i > 0 {
			sb.WriteString(sep)
		}
		format(sb, data[i*stride:(i+1)*stride], shape[1:], indent+1, summarize)
	}
	sb.WriteByte(']')
}
