package cpu

import (
	"fmt"

	"github.com/AnshMittal1811/Pytorch/internal/parallel"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// convGeom holds the sizes of one convolution.
type convGeom struct {
	n, cIn, h, w       int // input [N, C_in, H, W]
	cOut, kH, kW       int // kernel [C_out, C_in, K_h, K_w]
	hOut, wOut         int
	stride, padding    int
	patch, outPerImage int // C_in*K_h*K_w and H_out*W_out
}

func newConvGeom(op string, input, kernel tensor.Shape, stride, padding int) convGeom {
	if len(input) != 4 || len(kernel) != 4 {
		panic(fmt.Sprintf("%s: want 4D input and kernel, got %v and %v", op, input, kernel))
	}
	if input[1] != kernel[1] {
		panic(fmt.Sprintf("%s: input channels %d != kernel channels %d", op, input[1], kernel[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("%s: invalid stride %d / padding %d", op, stride, padding))
	}

	g := convGeom{
		n: input[0], cIn: input[1], h: input[2], w: input[3],
		cOut: kernel[0], kH: kernel[2], kW: kernel[3],
		stride: stride, padding: padding,
	}
	g.hOut = (g.h+2*padding-g.kH)/stride + 1
	g.wOut = (g.w+2*padding-g.kW)/stride + 1
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("%s: kernel %dx%d does not fit input %dx%d with padding %d", op, g.kH, g.kW, g.h, g.w, padding))
	}
	g.patch = g.cIn * g.kH * g.kW
	g.outPerImage = g.hOut * g.wOut
	return g
}

// each calls f for every (output position, patch element) pair that reads a
// real input pixel rather than padding. in is the offset inside one image.
func (g convGeom) each(f func(out, k, in int)) {
	for oh := 0; oh < g.hOut; oh++ {
		for ow := 0; ow < g.wOut; ow++ {
			out := oh*g.wOut + ow
			k := 0
			for c := 0; c < g.cIn; c++ {
				for kh := 0; kh < g.kH; kh++ {
					h := oh*g.stride - g.padding + kh
					for kw := 0; kw < g.kW; kw++ {
						w := ow*g.stride - g.padding + kw
						if h >= 0 && h < g.h && w >= 0 && w < g.w {
							f(out, k, (c*g.h+h)*g.w+w)
						}
						k++
					}
				}
			}
		}
	}
}

// Conv2D convolves [N, C_in, H, W] with [C_out, C_in, K_h, K_w] into
// [N, C_out, H_out, W_out], one image per parallel task.
//
// Each image is unfolded into a [H_out*W_out, C_in*K_h*K_w] patch matrix
// (im2col) so the convolution becomes a dot product per output value.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("conv2d", input.Shape(), kernel.Shape(), stride, padding)
	src, weights := float32s("conv2d", input), float32s("conv2d", kernel)

	output := cpu.alloc("conv2d", tensor.Shape{g.n, g.cOut, g.hOut, g.wOut})
	dst := output.AsFloat32()

	cfg := cpu.par
	cfg.MinChunkSize = 1
	parallel.For(g.n, func(n int) {
		image := src[n*g.cIn*g.h*g.w : (n+1)*g.cIn*g.h*g.w]
		cols := make([]float32, g.outPerImage*g.patch)
		g.each(func(out, k, in int) {
			cols[out*g.patch+k] = image[in]
		})

		for co := 0; co < g.cOut; co++ {
			filter := weights[co*g.patch : (co+1)*g.patch]
			plane := dst[(n*g.cOut+co)*g.outPerImage : (n*g.cOut+co+1)*g.outPerImage]
			for out := range plane {
				col := cols[out*g.patch : (out+1)*g.patch]
				var sum float32
				for k, wv := range filter {
					sum += wv * col[k]
				}
				plane[out] = sum
			}
		}
	}, cfg)

	return output
}

// Conv2DInputBackward computes dL/dinput by scattering each output
// gradient back through the kernel window that produced it.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("conv2d backward", input.Shape(), kernel.Shape(), stride, padding)
	weights, upstream := float32s("conv2d backward", kernel), float32s("conv2d backward", grad)

	inputGrad := cpu.alloc("conv2d backward", input.Shape())
	dst := inputGrad.AsFloat32()

	cfg := cpu.par
	cfg.MinChunkSize = 1
	parallel.For(g.n, func(n int) {
		image := dst[n*g.cIn*g.h*g.w : (n+1)*g.cIn*g.h*g.w]
		for co := 0; co < g.cOut; co++ {
			filter := weights[co*g.patch : (co+1)*g.patch]
			plane := upstream[(n*g.cOut+co)*g.outPerImage : (n*g.cOut+co+1)*g.outPerImage]
			g.each(func(out, k, in int) {
				image[in] += plane[out] * filter[k]
			})
		}
	}, cfg)

	return inputGrad
}

// Conv2DKernelBackward computes dL/dkernel by correlating the input with
// the output gradient, summed over the batch. Output channels run in
// parallel since each owns its slice of the kernel gradient.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("conv2d backward", input.Shape(), kernel.Shape(), stride, padding)
	src, upstream := float32s("conv2d backward", input), float32s("conv2d backward", grad)

	kernelGrad := cpu.alloc("conv2d backward", kernel.Shape())
	dst := kernelGrad.AsFloat32()

	cfg := cpu.par
	cfg.MinChunkSize = 1
	parallel.For(g.cOut, func(co int) {
		filter := dst[co*g.patch : (co+1)*g.patch]
		for n := 0; n < g.n; n++ {
			image := src[n*g.cIn*g.h*g.w : (n+1)*g.cIn*g.h*g.w]
			plane := upstream[(n*g.cOut+co)*g.outPerImage : (n*g.cOut+co+1)*g.outPerImage]
			g.each(func(out, k, in int) {
				filter[k] += image[in] * plane[out]
			})
		}
	}, cfg)

	return kernelGrad
}
