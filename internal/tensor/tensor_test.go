package tensor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

func matrix(t *testing.T, rows, cols int, values ...float32) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	m, err := tensor.FromSlice(values, tensor.Shape{rows, cols}, cpu.New())
	require.NoError(t, err)
	return m
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b     tensor.Shape
		want     tensor.Shape
		expanded bool
		fails    bool
	}{
		{a: tensor.Shape{3, 5}, b: tensor.Shape{3, 5}, want: tensor.Shape{3, 5}},
		{a: tensor.Shape{3, 1}, b: tensor.Shape{3, 5}, want: tensor.Shape{3, 5}, expanded: true},
		{a: tensor.Shape{5}, b: tensor.Shape{3, 5}, want: tensor.Shape{3, 5}, expanded: true},
		{a: tensor.Shape{1, 4, 1}, b: tensor.Shape{2, 1, 3}, want: tensor.Shape{2, 4, 3}, expanded: true},
		{a: tensor.Shape{}, b: tensor.Shape{2}, want: tensor.Shape{2}, expanded: true},
		{a: tensor.Shape{3, 4}, b: tensor.Shape{3, 5}, fails: true},
	}
	for _, tt := range tests {
		got, expanded, err := tensor.BroadcastShapes(tt.a, tt.b)
		if tt.fails {
			assert.Error(t, err, "%v vs %v", tt.a, tt.b)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.expanded, expanded, "%v vs %v", tt.a, tt.b)
	}
}

func TestShapeHelpers(t *testing.T) {
	s := tensor.Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 1, tensor.Shape{}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.NoError(t, s.Validate())
	assert.Error(t, tensor.Shape{2, 0}.Validate())

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])
	assert.False(t, s.Equal(c))
}

func TestFromSliceChecksLength(t *testing.T) {
	_, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, cpu.New())
	assert.Error(t, err)
}

func TestNewRejectsMismatchedDType(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { tensor.New[float32](raw, cpu.New()) })
}

func TestCreation(t *testing.T) {
	b := cpu.New()

	assert.Equal(t, []float32{0, 0, 0, 0}, tensor.Zeros[float32](tensor.Shape{2, 2}, b).Data())
	assert.Equal(t, []float32{1, 1, 1}, tensor.Ones[float32](tensor.Shape{3}, b).Data())
	assert.Equal(t, []int32{7, 7}, tensor.Full[int32](tensor.Shape{2}, 7, b).Data())
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, tensor.Eye[float32](3, b).Data())

	r := tensor.Arange[int64](2, 6, b)
	assert.Equal(t, tensor.Shape{4}, r.Shape())
	assert.Equal(t, []int64{2, 3, 4, 5}, r.Data())
	assert.Panics(t, func() { tensor.Arange[float32](3, 3, b) })
}

func TestAtAndItem(t *testing.T) {
	m := matrix(t, 2, 3, 1, 2, 3, 4, 5, 6)
	assert.Equal(t, float32(6), m.At(1, 2))
	assert.Equal(t, float32(2), m.At(0, 1))
	assert.Panics(t, func() { m.At(2, 0) })
	assert.Panics(t, func() { m.At(0) })
	assert.Panics(t, func() { m.Item() })
	assert.Equal(t, float32(21), m.Sum().Item())
}

func TestOpsDoNotModifyInputs(t *testing.T) {
	a := matrix(t, 2, 2, 1, 2, 3, 4)
	b := matrix(t, 2, 2, 10, 20, 30, 40)

	sum := a.Add(b)
	assert.Equal(t, []float32{11, 22, 33, 44}, sum.Data())
	assert.Equal(t, []float32{1, 2, 3, 4}, a.Data())
	assert.NotSame(t, a.Raw(), sum.Raw())
}

func TestArithmetic(t *testing.T) {
	a := matrix(t, 2, 2, 1, 2, 3, 4)
	b := matrix(t, 2, 2, 4, 3, 2, 1)

	assert.Equal(t, []float32{-3, -1, 1, 3}, a.Sub(b).Data())
	assert.Equal(t, []float32{4, 6, 6, 4}, a.Mul(b).Data())
	assert.Equal(t, []float32{8, 5, 20, 13}, a.MatMul(b).Data())
	assert.Equal(t, []float32{2, 4, 6, 8}, a.MulScalar(2).Data())
	assert.Equal(t, []float32{0.5, 1, 1.5, 2}, a.DivScalar(2).Data())
	assert.Equal(t, []float32{2, 3, 4, 5}, a.AddScalar(1).Data())
}

func TestBroadcastAdd(t *testing.T) {
	a := matrix(t, 2, 3, 1, 2, 3, 4, 5, 6)
	bias, err := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, cpu.New())
	require.NoError(t, err)

	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, a.Add(bias).Data())
}

func TestReductions(t *testing.T) {
	a := matrix(t, 2, 3, 1, 5, 3, 4, 2, 6)

	assert.Equal(t, []float32{5, 7, 9}, a.SumDim(0, false).Data())
	assert.Equal(t, tensor.Shape{2, 1}, a.SumDim(1, true).Shape())
	assert.Equal(t, []float32{3, 4}, a.MeanDim(1, false).Data())
	assert.Equal(t, []int32{1, 2}, a.Argmax(1).Data())

	soft := a.Softmax(-1).SumDim(1, false).Data()
	assert.InDelta(t, 1, soft[0], 1e-6)
	assert.InDelta(t, 1, soft[1], 1e-6)
}

func TestShapeOps(t *testing.T) {
	a := matrix(t, 2, 3, 1, 2, 3, 4, 5, 6)

	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, a.T().Data())
	assert.Equal(t, tensor.Shape{3, 2}, a.Reshape(3, 2).Shape())
	assert.Equal(t, tensor.Shape{2, 1, 3}, a.Unsqueeze(1).Shape())
	assert.Equal(t, tensor.Shape{2, 3}, a.Unsqueeze(1).Squeeze(1).Shape())

	parts := a.Chunk(3, 1)
	require.Len(t, parts, 3)
	assert.Equal(t, []float32{2, 5}, parts[1].Data())
	assert.Equal(t, a.Data(), tensor.Cat(parts, 1).Data())

	row, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 1, 2, 1, 2}, row.Expand(tensor.Shape{3, 2}).Data())
}

func TestCloneIsIndependent(t *testing.T) {
	a := matrix(t, 1, 2, 1, 2)
	c := a.Clone()
	c.Data()[0] = 99
	assert.Equal(t, float32(1), a.Data()[0])
}

func TestString(t *testing.T) {
	assert.Equal(t, "tensor([[1, 2, 3],\n        [4, 5, 6]])", matrix(t, 2, 3, 1, 2, 3, 4, 5, 6).String())

	b := cpu.New()
	assert.Equal(t, "tensor([0, 1, 2])", tensor.Arange[int32](0, 3, b).String())
	assert.Equal(t, "tensor(2.5)", tensor.Full[float32](tensor.Shape{}, 2.5, b).String())

	long := tensor.Arange[int32](0, 2000, b).String()
	assert.Equal(t, "tensor([0, 1, 2, ..., 1997, 1998, 1999])", long)

	cube := tensor.Zeros[int32](tensor.Shape{2, 1, 2}, b).String()
	assert.Equal(t, "tensor([[[0, 0]],\n\n        [[0, 0]]])", cube)
	assert.Equal(t, 2, strings.Count(cube, "[[0, 0]]"))
}

func TestRawViews(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int64, tensor.CPU)
	require.NoError(t, err)
	raw.AsInt64()[1] = 42

	assert.Equal(t, 16, raw.ByteSize())
	assert.Panics(t, func() { raw.AsFloat32() })

	cp := raw.Copy()
	cp.AsInt64()[1] = 0
	assert.Equal(t, int64(42), raw.AsInt64()[1])
	assert.Equal(t, "int64", raw.DType().String())
	assert.Equal(t, "cpu", raw.Device().String())

	_, err = tensor.NewRaw(tensor.Shape{0}, tensor.Float32, tensor.CPU)
	assert.Error(t, err)
}
