package cpu

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/parallel"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// MatMul multiplies 2D matrices: [M, K] @ [K, N] -> [M, N].
// Rows of the result are computed in parallel.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	m, k := aShape[0], aShape[1]
	if bShape[0] != k {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", aShape, bShape))
	}
	n := bShape[1]

	x, y := float32s("matmul", a), float32s("matmul", b)
	result := cpu.alloc("matmul", tensor.Shape{m, n})
	gemm(result.AsFloat32(), x, y, m, k, n, cpu.par)
	return result
}

// gemm computes c = a @ b for row-major a [m,k] and b [k,n]. The i-k-j
// loop order streams both b and c rows.
func gemm(c, a, b []float32, m, k, n int, cfg parallel.Config) {
	cfg.MinChunkSize = 1
	if m*k*n < 1<<14 {
		cfg.Enabled = false
	}
	parallel.For(m, func(i int) {
		row := c[i*n : (i+1)*n]
		for p, av := range a[i*k : (i+1)*k] {
			if av == 0 {
				continue
			}
			for j, bv := range b[p*n : (p+1)*n] {
				row[j] += av * bv
			}
		}
	}, cfg)
}
