package tutorial

import (
	"context"
	"fmt"
	"io"

	"github.com/AnshMittal1811/Pytorch/internal/config"
	"github.com/AnshMittal1811/Pytorch/internal/dataset"
	"github.com/AnshMittal1811/Pytorch/internal/dataset/mnist"
	"github.com/AnshMittal1811/Pytorch/internal/device"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
)

// Synthetic split sizes used when -synthetic is set without -samples.
const (
	syntheticTrain = 2000
	syntheticTest  = 500
)

func newBackend(cfg config.Config, out io.Writer) (*device.Backend, error) {
	d, err := device.Parse(cfg.Device)
	if err != nil {
		return nil, err
	}
	backend, err := device.NewBackend(d)
	if err != nil {
		return nil, err
	}
	nn.SeedInit(cfg.Seed)
	fmt.Fprintf(out, "Device: %s (%s)\n", d, device.Describe())
	return backend, nil
}

func syntheticSize(cfg config.Config, n int) int {
	if cfg.MaxSamples > 0 && cfg.MaxSamples < n {
		return cfg.MaxSamples
	}
	return n
}

// loadSplit returns the training or test split selected by cfg.
func loadSplit(ctx context.Context, cfg config.Config, trainSplit bool, transform mnist.Transform, out io.Writer) (*mnist.Dataset, error) {
	if cfg.Synthetic {
		if trainSplit {
			return mnist.Synthetic(syntheticSize(cfg, syntheticTrain), cfg.Seed, transform), nil
		}
		return mnist.Synthetic(syntheticSize(cfg, syntheticTest), cfg.Seed+1, transform), nil
	}

	ds, err := mnist.New(ctx, cfg.DataDir, mnist.Options{
		Train:      trainSplit,
		Download:   cfg.Download,
		Transform:  transform,
		MaxSamples: cfg.MaxSamples,
		Fetch:      mnist.DownloadOptions{Out: out},
	})
	if err != nil {
		return nil, fmt.Errorf("load %s set: %w", splitName(trainSplit), err)
	}
	return ds, nil
}

func splitName(trainSplit bool) string {
	if trainSplit {
		return mnist.Train.String()
	}
	return mnist.Test.String()
}

// loadSplits returns the train and test splits selected by cfg.
func loadSplits(ctx context.Context, cfg config.Config, transform mnist.Transform, out io.Writer) (trainSet, testSet *mnist.Dataset, err error) {
	if cfg.Synthetic {
		fmt.Fprintln(out, "Using synthetic digits")
	}
	if trainSet, err = loadSplit(ctx, cfg, true, transform, out); err != nil {
		return nil, nil, err
	}
	if testSet, err = loadSplit(ctx, cfg, false, transform, out); err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(out, "Loaded %d training and %d test images\n", trainSet.Len(), testSet.Len())
	return trainSet, testSet, nil
}

// loaders wraps the splits: the training loader reshuffles every epoch.
func loaders(cfg config.Config, trainSet, testSet dataset.Source, dropLast bool) (trainLoader, testLoader *dataset.Loader, err error) {
	trainLoader, err = dataset.NewLoader(trainSet, dataset.LoaderConfig{
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		DropLast:  dropLast,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return nil, nil, err
	}
	if testSet == nil {
		return trainLoader, nil, nil
	}
	testLoader, err = dataset.NewLoader(testSet, dataset.LoaderConfig{BatchSize: cfg.BatchSize})
	if err != nil {
		return nil, nil, err
	}
	return trainLoader, testLoader, nil
}
