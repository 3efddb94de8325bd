package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

func raw(t *testing.T, shape tensor.Shape, values ...float32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	if values != nil {
		require.Len(t, values, shape.NumElements())
		copy(r.AsFloat32(), values)
	}
	return r
}

func random(t *testing.T, rng *rand.Rand, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r := raw(t, shape)
	for i := range r.AsFloat32() {
		r.AsFloat32()[i] = rng.Float32()*2 - 1
	}
	return r
}

// naiveConv is the textbook definition, used as a reference.
func naiveConv(in, k []float32, n, c, h, w, co, kh, kw, stride, pad int) []float32 {
	ho, wo := (h+2*pad-kh)/stride+1, (w+2*pad-kw)/stride+1
	out := make([]float32, n*co*ho*wo)
	for b := 0; b < n; b++ {
		for o := 0; o < co; o++ {
			for y := 0; y < ho; y++ {
				for x := 0; x < wo; x++ {
					var sum float32
					for ci := 0; ci < c; ci++ {
						for i := 0; i < kh; i++ {
							for j := 0; j < kw; j++ {
								iy, ix := y*stride-pad+i, x*stride-pad+j
								if iy < 0 || iy >= h || ix < 0 || ix >= w {
									continue
								}
								sum += in[((b*c+ci)*h+iy)*w+ix] * k[((o*c+ci)*kh+i)*kw+j]
							}
						}
					}
					out[((b*co+o)*ho+y)*wo+x] = sum
				}
			}
		}
	}
	return out
}

func TestConv2DMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	b := New()

	for _, tc := range []struct{ stride, pad int }{{1, 0}, {1, 2}, {2, 1}} {
		in := random(t, rng, tensor.Shape{2, 3, 7, 6})
		k := random(t, rng, tensor.Shape{4, 3, 3, 3})

		out := b.Conv2D(in, k, tc.stride, tc.pad)
		want := naiveConv(in.AsFloat32(), k.AsFloat32(), 2, 3, 7, 6, 4, 3, 3, tc.stride, tc.pad)
		require.Len(t, out.AsFloat32(), len(want))
		assert.InDeltaSlice(t, want, out.AsFloat32(), 1e-5, "stride %d padding %d", tc.stride, tc.pad)
	}
}

func TestConv2DOutputShape(t *testing.T) {
	b := New()
	out := b.Conv2D(raw(t, tensor.Shape{1, 1, 28, 28}), raw(t, tensor.Shape{16, 1, 5, 5}), 1, 0)
	assert.Equal(t, tensor.Shape{1, 16, 24, 24}, out.Shape())

	out = b.Conv2D(raw(t, tensor.Shape{1, 1, 28, 28}), raw(t, tensor.Shape{16, 1, 5, 5}), 1, 2)
	assert.Equal(t, tensor.Shape{1, 16, 28, 28}, out.Shape())

	assert.Panics(t, func() { b.Conv2D(raw(t, tensor.Shape{1, 2, 5, 5}), raw(t, tensor.Shape{1, 1, 3, 3}), 1, 0) })
	assert.Panics(t, func() { b.Conv2D(raw(t, tensor.Shape{1, 1, 2, 2}), raw(t, tensor.Shape{1, 1, 3, 3}), 1, 0) })
}

func TestMaxPool2D(t *testing.T) {
	in := raw(t, tensor.Shape{1, 1, 4, 4},
		1, 2, 5, 6,
		3, 4, 7, 8,
		9, 10, 13, 14,
		11, 12, 15, 16)
	out := New().MaxPool2D(in, 2, 2)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{4, 8, 12, 16}, out.AsFloat32())

	// A 5x5 input drops the partial border window.
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, New().MaxPool2D(raw(t, tensor.Shape{1, 1, 5, 5}), 2, 2).Shape())
}

func TestMaxPool2DBackward(t *testing.T) {
	in := raw(t, tensor.Shape{1, 1, 2, 2})
	grad := raw(t, tensor.Shape{1, 1, 1, 1}, 3)
	out := New().MaxPool2DBackward(in, grad, []int{2}, 2, 2)
	assert.Equal(t, []float32{0, 0, 3, 0}, out.AsFloat32())
}

func TestMatMulParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	a := random(t, rng, tensor.Shape{64, 48})
	b := random(t, rng, tensor.Shape{48, 40})

	parallelOut := New().MatMul(a, b)

	serial := New()
	serial.par.Enabled = false
	serialOut := serial.MatMul(a, b)

	assert.InDeltaSlice(t, serialOut.AsFloat32(), parallelOut.AsFloat32(), 1e-5)
}

func TestMatMulShapeMismatch(t *testing.T) {
	assert.Panics(t, func() { New().MatMul(raw(t, tensor.Shape{2, 3}), raw(t, tensor.Shape{2, 3})) })
}

func TestBroadcastingBinary(t *testing.T) {
	b := New()
	col := raw(t, tensor.Shape{2, 1}, 1, 2)
	row := raw(t, tensor.Shape{3}, 10, 20, 30)

	out := b.Mul(col, row)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{10, 20, 30, 20, 40, 60}, out.AsFloat32())

	assert.Panics(t, func() { b.Add(raw(t, tensor.Shape{2}), raw(t, tensor.Shape{3})) })
}

func TestScalarOps(t *testing.T) {
	b := New()
	x := raw(t, tensor.Shape{2}, 2, 4)
	assert.Equal(t, []float32{1, 2}, b.DivScalar(x, float32(2)).AsFloat32())
	assert.Equal(t, []float32{3, 5}, b.AddScalar(x, 1).AsFloat32())
	assert.Equal(t, []float32{1, 3}, b.SubScalar(x, 1.0).AsFloat32())
	assert.Panics(t, func() { b.MulScalar(x, "two") })
}

func TestTranspose3D(t *testing.T) {
	in := raw(t, tensor.Shape{2, 3, 4})
	for i := range in.AsFloat32() {
		in.AsFloat32()[i] = float32(i)
	}
	out := New().Transpose(in, 2, 0, 1)
	require.Equal(t, tensor.Shape{4, 2, 3}, out.Shape())

	src, dst := in.AsFloat32(), out.AsFloat32()
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				assert.Equal(t, src[(i*3+j)*4+k], dst[(k*2+i)*3+j])
			}
		}
	}
	assert.Panics(t, func() { New().Transpose(in, 0, 0, 1) })
}

func TestCatAndChunkAlongDim0(t *testing.T) {
	b := New()
	x := raw(t, tensor.Shape{4, 2}, 1, 2, 3, 4, 5, 6, 7, 8)

	parts := b.Chunk(x, 2, 0)
	require.Len(t, parts, 2)
	assert.Equal(t, []float32{1, 2, 3, 4}, parts[0].AsFloat32())
	assert.Equal(t, []float32{5, 6, 7, 8}, parts[1].AsFloat32())
	assert.Equal(t, x.AsFloat32(), b.Cat(parts, 0).AsFloat32())

	assert.Panics(t, func() { b.Chunk(x, 3, 0) })
	assert.Panics(t, func() { b.Cat([]*tensor.RawTensor{x, raw(t, tensor.Shape{4, 3})}, 0) })
}

func TestSoftmaxIsStable(t *testing.T) {
	out := New().Softmax(raw(t, tensor.Shape{1, 3}, 1000, 1000, 1000), 1)
	for _, v := range out.AsFloat32() {
		assert.InDelta(t, 1.0/3, v, 1e-6)
	}
}

func TestReshapeCopies(t *testing.T) {
	x := raw(t, tensor.Shape{2, 2}, 1, 2, 3, 4)
	y := New().Reshape(x, tensor.Shape{4})
	y.AsFloat32()[0] = 9
	assert.Equal(t, float32(1), x.AsFloat32()[0])
	assert.Panics(t, func() { New().Reshape(x, tensor.Shape{3}) })
}
