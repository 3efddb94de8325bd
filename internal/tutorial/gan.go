package tutorial

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/AnshMittal1811/Pytorch/internal/artifact"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/config"
	"github.com/AnshMittal1811/Pytorch/internal/dataset"
	"github.com/AnshMittal1811/Pytorch/internal/dataset/mnist"
	"github.com/AnshMittal1811/Pytorch/internal/device"
	"github.com/AnshMittal1811/Pytorch/internal/models"
	"github.com/AnshMittal1811/Pytorch/internal/optim"
	"github.com/AnshMittal1811/Pytorch/internal/train"
)

// GAN output layout inside a run directory.
const (
	SamplesDir        = "samples"
	ProgressFile      = "progress.gif"
	GeneratorFile     = "generator.born"
	DiscriminatorFile = "discriminator.born"

	sampleCount = 64
	sampleCols  = 8
	frameDelay  = 50 // hundredths of a second
)

// SamplePath is the grid image written after the given epoch.
func SamplePath(runDir string, epoch int) string {
	return filepath.Join(runDir, SamplesDir, fmt.Sprintf("epoch-%03d.png", epoch))
}

// RunGAN trains a fully connected GAN on images normalized to [-1, 1] and
// renders the fixed latent batch after every epoch.
func RunGAN(ctx context.Context, cfg config.Config, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	backend, err := newBackend(cfg, out)
	if err != nil {
		return err
	}

	trainSet, err := loadSplit(ctx, cfg, true, mnist.Normalize(0.5, 0.5), out)
	if err != nil {
		return err
	}
	loader, err := dataset.NewLoader(trainSet, dataset.LoaderConfig{
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		DropLast:  trainSet.Len() >= cfg.BatchSize,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return err
	}

	epochs := cfg.Epochs
	if epochs == 0 {
		epochs = train.EpochsFor(cfg.Iterations, trainSet.Len(), cfg.BatchSize)
	}

	generator := models.NewGenerator(cfg.LatentDim, cfg.Hidden, mnist.Pixels, backend)
	dHidden := slices.Clone(cfg.Hidden)
	slices.Reverse(dHidden)
	discriminator := models.NewDiscriminator(mnist.Pixels, dHidden, backend)
	fmt.Fprintf(out, "%v\nParameters: %d\n", generator, models.CountParameters[*device.Backend](generator))
	fmt.Fprintf(out, "%v\nParameters: %d\n", discriminator, models.CountParameters[*device.Backend](discriminator))

	adam := optim.AdamConfig{LR: float32(cfg.LR), Betas: [2]float32{0.5, 0.999}, Eps: 1e-8}

	runDir, err := artifact.RunDir(cfg.OutDir, "gan")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run directory: %s\n", runDir)

	video := artifact.NewGIFWriter(filepath.Join(runDir, ProgressFile), frameDelay)
	trainer := &train.GAN[*cpu.CPUBackend]{
		Generator:     generator,
		Discriminator: discriminator,
		GOptimizer:    optim.NewAdam(generator.Parameters(), adam, backend),
		DOptimizer:    optim.NewAdam(discriminator.Parameters(), adam, backend),
		Backend:       backend,
		Data:          loader,
		LatentDim:     cfg.LatentDim,
		Epochs:        epochs,
		Seed:          cfg.Seed,
		SampleCount:   sampleCount,
		Out:           out,
		OnEpoch: func(epoch int, samples [][]float32) error {
			grid, err := artifact.Grid(samples, sampleCols, -1, 1)
			if err != nil {
				return err
			}
			if err := artifact.SavePNG(SamplePath(runDir, epoch), grid); err != nil {
				return err
			}
			return video.AddFrame(grid)
		},
	}

	_, runErr := trainer.Run(ctx)
	if err := video.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	if err := artifact.SaveModel[*device.Backend](filepath.Join(runDir, GeneratorFile), "generator", generator, nil); err != nil {
		return err
	}
	if err := artifact.SaveModel[*device.Backend](filepath.Join(runDir, DiscriminatorFile), "discriminator", discriminator, nil); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s, %s and %d sample grids\n", ProgressFile, GeneratorFile, video.Frames())
	return nil
}
