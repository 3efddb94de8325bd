package tutorial

import (
	"context"
	"fmt"
	"io"

	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/config"
	"github.com/AnshMittal1811/Pytorch/internal/device"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
)

// RunTensors walks through tensor creation, arithmetic, reshaping,
// reductions and gradients recorded by the tape.
func RunTensors(_ context.Context, cfg config.Config, out io.Writer) error {
	backend, err := newBackend(cfg, out)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "== Creation ==")
	a, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "from slice %v:\n%v\n", a.Shape(), a)
	fmt.Fprintf(out, "ones:\n%v\n", tensor.Ones[float32](tensor.Shape{2, 2}, backend))
	fmt.Fprintf(out, "zeros:\n%v\n", tensor.Zeros[float32](tensor.Shape{2, 2}, backend))
	fmt.Fprintf(out, "eye:\n%v\n", tensor.Eye[float32](3, backend))
	fmt.Fprintf(out, "arange(0, 6):\n%v\n", tensor.Arange[float32](0, 6, backend))

	fmt.Fprintln(out, "== Arithmetic ==")
	b := tensor.Full[float32](tensor.Shape{2, 3}, 2, backend)
	fmt.Fprintf(out, "a + b:\n%v\n", a.Add(b))
	fmt.Fprintf(out, "a - b:\n%v\n", a.Sub(b))
	fmt.Fprintf(out, "a * b:\n%v\n", a.Mul(b))
	fmt.Fprintf(out, "a / b:\n%v\n", a.Div(b))
	fmt.Fprintf(out, "a * 10:\n%v\n", a.MulScalar(10))

	fmt.Fprintln(out, "== Reshaping ==")
	fmt.Fprintf(out, "a.Reshape(3, 2):\n%v\n", a.Reshape(3, 2))
	fmt.Fprintf(out, "a.T():\n%v\n", a.T())
	fmt.Fprintf(out, "a @ a.T():\n%v\n", a.MatMul(a.T()))

	fmt.Fprintln(out, "== Reductions ==")
	fmt.Fprintf(out, "sum(a) = %v\n", a.Sum().Item())
	fmt.Fprintf(out, "mean(a) = %v\n", a.Sum().DivScalar(float32(a.NumElements())).Item())
	fmt.Fprintf(out, "argmax(a, 1):\n%v\n", a.Argmax(1))
	fmt.Fprintf(out, "softmax(a, 1):\n%v\n", a.Softmax(1))

	fmt.Fprintln(out, "== Gradients ==")
	dx, err := meanSquareGrad(backend)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "x = [1 1], y = 5(x+1)^2, o = mean(y)\ndo/dx = %v\n", dx)

	da, db, err := productGrad(backend)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "f(a, b) = sum(a*b + a)\ndf/da = %v (b + 1)\ndf/db = %v (a)\n", da, db)
	return nil
}

// meanSquareGrad differentiates mean(5(x+1)^2) at x = [1, 1]. The result
// is 10(x+1)/2 = [10, 10].
func meanSquareGrad(backend *device.Backend) ([]float32, error) {
	x, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{2}, backend)
	if err != nil {
		return nil, err
	}

	tape := backend.Tape()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	shifted := x.AddScalar(1)
	y := shifted.Mul(shifted).MulScalar(5)
	o := y.Sum().DivScalar(float32(y.NumElements()))

	grads := autodiff.Backward(o, backend)
	return grads[x.Raw()].AsFloat32(), nil
}

// productGrad differentiates sum(a*b + a) with respect to both inputs.
func productGrad(backend *device.Backend) (da, db []float32, err error) {
	a, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	if err != nil {
		return nil, nil, err
	}
	b, err := tensor.FromSlice([]float32{4, 5, 6}, tensor.Shape{3}, backend)
	if err != nil {
		return nil, nil, err
	}

	tape := backend.Tape()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	f := a.Mul(b).Add(a).Sum()

	grads := autodiff.Backward(f, backend)
	return grads[a.Raw()].AsFloat32(), grads[b.Raw()].AsFloat32(), nil
}
