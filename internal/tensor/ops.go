package tensor

import "fmt"

func (t *Tensor[T, B]) wrap(raw *RawTensor) *Tensor[T, B] {
	return New[T](raw, t.backend)
}

// Add adds element-wise with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Sub subtracts element-wise with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

// Mul multiplies element-wise with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// Div divides element-wise with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

// MatMul multiplies [M, K] by [K, N].
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.MatMul(t.raw, other.raw))
}

// MulScalar multiplies every element by s.
func (t *Tensor[T, B]) MulScalar(s T) *Tensor[T, B] { return t.wrap(t.backend.MulScalar(t.raw, s)) }

// AddScalar adds s to every element.
func (t *Tensor[T, B]) AddScalar(s T) *Tensor[T, B] { return t.wrap(t.backend.AddScalar(t.raw, s)) }

// SubScalar subtracts s from every element.
func (t *Tensor[T, B]) SubScalar(s T) *Tensor[T, B] { return t.wrap(t.backend.SubScalar(t.raw, s)) }

// DivScalar divides every element by s.
func (t *Tensor[T, B]) DivScalar(s T) *Tensor[T, B] { return t.wrap(t.backend.DivScalar(t.raw, s)) }

// Exp computes e^x.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] { return t.wrap(t.backend.Exp(t.raw)) }

// Log computes the natural logarithm.
func (t *Tensor[T, B]) Log() *Tensor[T, B] { return t.wrap(t.backend.Log(t.raw)) }

// Sqrt computes the square root.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] { return t.wrap(t.backend.Sqrt(t.raw)) }

// Softmax normalizes along dim; negative dims count from the end.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] { return t.wrap(t.backend.Softmax(t.raw, dim)) }

// Sum adds every element into a scalar tensor of shape [].
func (t *Tensor[T, B]) Sum() *Tensor[T, B] { return t.wrap(t.backend.Sum(t.raw)) }

// SumDim sums along dim.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.SumDim(t.raw, dim, keepDim))
}

// MeanDim averages along dim.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.MeanDim(t.raw, dim, keepDim))
}

// Argmax returns the int32 index of the largest value along dim, which is
// removed from the result shape.
func (t *Tensor[T, B]) Argmax(dim int) *Tensor[int32, B] {
	return New[int32](t.backend.Argmax(t.raw, dim), t.backend)
}

// Reshape returns the same elements under a new shape of equal size.
func (t *Tensor[T, B]) Reshape(shape ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Reshape(t.raw, Shape(shape)))
}

// Transpose permutes the dimensions; with no axes they are reversed.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Transpose(t.raw, axes...))
}

// T transposes a matrix.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic(fmt.Sprintf("tensor: T on shape %v, need a matrix", t.Shape()))
	}
	return t.Transpose(1, 0)
}

// Expand broadcasts to shape.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return t.wrap(t.backend.Expand(t.raw, shape))
}

// Unsqueeze inserts a dimension of size 1 at dim.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return t.wrap(t.backend.Unsqueeze(t.raw, dim))
}

// Squeeze removes the size-1 dimension at dim.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return t.wrap(t.backend.Squeeze(t.raw, dim))
}

// Chunk splits into n equal parts along dim.
func (t *Tensor[T, B]) Chunk(n, dim int) []*Tensor[T, B] {
	parts := t.backend.Chunk(t.raw, n, dim)
	out := make([]*Tensor[T, B], len(parts))
	for i, p := range parts {
		out[i] = t.wrap(p)
	}
	return out
}

// Cat concatenates tensors along dim. Every other dimension must match.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("tensor: Cat of no tensors")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	return tensors[0].wrap(tensors[0].backend.Cat(raws, dim))
}
