package tutorial

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/AnshMittal1811/Pytorch/internal/artifact"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/config"
	"github.com/AnshMittal1811/Pytorch/internal/device"
	"github.com/AnshMittal1811/Pytorch/internal/models"
	"github.com/AnshMittal1811/Pytorch/internal/optim"
	"github.com/AnshMittal1811/Pytorch/internal/tensor"
	"github.com/AnshMittal1811/Pytorch/internal/train"
)

// lineData returns x = 0..n-1 and y = 2x + 1 as column vectors.
func lineData(n int) (x, y []float32) {
	x = make([]float32, n)
	y = make([]float32, n)
	for i := range x {
		x[i] = float32(i)
		y[i] = 2*x[i] + 1
	}
	return x, y
}

// RunLinearRegression fits y = 2x + 1 on eleven points with full-batch
// gradient descent.
func RunLinearRegression(ctx context.Context, cfg config.Config, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	backend, err := newBackend(cfg, out)
	if err != nil {
		return err
	}

	xs, ys := lineData(11)
	x, err := tensor.FromSlice(xs, tensor.Shape{len(xs), 1}, backend)
	if err != nil {
		return err
	}
	y, err := tensor.FromSlice(ys, tensor.Shape{len(ys), 1}, backend)
	if err != nil {
		return err
	}

	model := models.NewLinearRegression(1, 1, backend)
	fmt.Fprintf(out, "%v\n", model)

	epochs := cfg.Epochs
	if epochs == 0 {
		epochs = cfg.Iterations
	}
	regressor := &train.Regressor[*cpu.CPUBackend]{
		Model:     model,
		Optimizer: optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: float32(cfg.LR)}, backend),
		Backend:   backend,
		X:         x,
		Y:         y,
		Epochs:    epochs,
		LogEvery:  cfg.LogEvery,
		Out:       out,
	}
	if _, err := regressor.Run(ctx); err != nil {
		return err
	}

	predicted := regressor.Predict(x).Data()
	fmt.Fprintln(out, "x\ty\tpredicted")
	for i := range xs {
		fmt.Fprintf(out, "%g\t%g\t%.4f\n", xs[i], ys[i], predicted[i])
	}
	params := model.Parameters()
	fmt.Fprintf(out, "Learned weight %.4f, bias %.4f (true 2, 1)\n",
		params[0].Tensor().Data()[0], params[1].Tensor().Data()[0])

	runDir, err := artifact.RunDir(cfg.OutDir, "linear-regression")
	if err != nil {
		return err
	}
	path := filepath.Join(runDir, ModelFile)
	if err := artifact.SaveModel[*device.Backend](path, "linear-regression", model, nil); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}
