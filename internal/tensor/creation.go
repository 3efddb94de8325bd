package tensor

// Zeros returns a tensor of zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, dataTypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T](raw, b)
}

// Full returns a tensor with every element set to value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Ones returns a tensor of ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T](shape, 1, b)
}

// Arange returns the 1-D tensor [start, start+1, ...] of values below end.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	if end <= start {
		panic("tensor: Arange needs end > start")
	}
	values := make([]T, 0, int(end-start)+1)
	for v := start; v < end; v++ {
		values = append(values, v)
	}
	t, err := FromSlice(values, Shape{len(values)}, b)
	if err != nil {
		panic(err)
	}
	return t
}

// Eye returns the n×n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T](Shape{n, n}, b)
	data := t.Data()
	for i := range n {
		data[i*n+i] = 1
	}
	return t
}
