package artifact_test

import (
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshMittal1811/Pytorch/internal/artifact"
	"github.com/AnshMittal1811/Pytorch/internal/autodiff"
	"github.com/AnshMittal1811/Pytorch/internal/backend/cpu"
	"github.com/AnshMittal1811/Pytorch/internal/nn"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestGrid(t *testing.T) {
	images := [][]float32{
		{-1, 1, 0, 2},
		{1, 1, 1, 1},
		{-1, -1, -1, -1},
	}
	img, err := artifact.Grid(images, 2, -1, 1)
	require.NoError(t, err)

	side, pad := 2, artifact.Padding
	assert.Equal(t, image.Rect(0, 0, 2*side+3*pad, 2*side+3*pad), img.Bounds())

	assert.Equal(t, uint8(0), img.GrayAt(pad, pad).Y)
	assert.Equal(t, uint8(255), img.GrayAt(pad+1, pad).Y)
	assert.Equal(t, uint8(128), img.GrayAt(pad, pad+1).Y)
	assert.Equal(t, uint8(255), img.GrayAt(pad+1, pad+1).Y, "values above hi clamp")
	assert.Equal(t, uint8(255), img.GrayAt(2*pad+side, pad).Y, "second tile")
	assert.Equal(t, uint8(0), img.GrayAt(pad, 2*pad+side).Y, "second row")
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y, "padding stays black")
}

func TestGridErrors(t *testing.T) {
	_, err := artifact.Grid(nil, 8, 0, 1)
	assert.ErrorIs(t, err, artifact.ErrNoImages)

	_, err = artifact.Grid([][]float32{{0, 0, 0}}, 1, 0, 1)
	assert.ErrorContains(t, err, "not square")

	_, err = artifact.Grid([][]float32{{0, 0, 0, 0}, {0}}, 2, 0, 1)
	assert.ErrorContains(t, err, "image 1")

	_, err = artifact.Grid([][]float32{{0}}, 1, 1, 1)
	assert.Error(t, err)
}

func TestGridColumnsClamp(t *testing.T) {
	img, err := artifact.Grid([][]float32{{0}, {0}}, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2+3*artifact.Padding, img.Bounds().Dx(), "one row holding every image")
}

func TestSavePNG(t *testing.T) {
	img, err := artifact.Grid([][]float32{{0, 0.5, 1, 0.25}}, 1, 0, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "samples.png")
	require.NoError(t, artifact.SavePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestGIFWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.gif")
	w := artifact.NewGIFWriter(path, 50)

	for _, v := range []float32{0, 0.5, 1} {
		frame, err := artifact.Grid([][]float32{{v, v, v, v}}, 1, 0, 1)
		require.NoError(t, err)
		require.NoError(t, w.AddFrame(frame))
	}
	assert.Equal(t, 3, w.Frames())

	other, err := artifact.Grid([][]float32{{0}}, 1, 0, 1)
	require.NoError(t, err)
	assert.Error(t, w.AddFrame(other), "frame sizes must agree")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.AddFrame(other))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, []int{50, 50, 50}, anim.Delay)
}

func TestGIFWriterWithoutFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gif")
	require.NoError(t, artifact.NewGIFWriter(path, 10).Close())
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunDir(t *testing.T) {
	root := t.TempDir()
	dir, err := artifact.RunDir(root, "cnn")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	parts := strings.Split(filepath.Base(dir), "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "cnn", parts[0])
	_, err = time.Parse("20060102-150405", parts[1]+"-"+parts[2])
	assert.NoError(t, err)
	assert.Len(t, parts[3], 8)

	other, err := artifact.RunDir(root, "cnn")
	require.NoError(t, err)
	assert.NotEqual(t, dir, other)
}

func TestNewRunID(t *testing.T) {
	_, err := uuid.Parse(artifact.NewRunID())
	assert.NoError(t, err)
}

func TestSaveLoadModel(t *testing.T) {
	b := autodiff.New(cpu.New())
	src := nn.NewLinear(4, 2, b)
	dir := t.TempDir()

	path := filepath.Join(dir, "models", "linear.born")
	require.NoError(t, artifact.SaveModel[backend](path, "LinearRegression", src, map[string]string{"epochs": "3"}))

	dst := nn.NewLinear(4, 2, b)
	kind, err := artifact.LoadModel(path, nn.Module[backend](dst), b)
	require.NoError(t, err)
	assert.Equal(t, "LinearRegression", kind)
	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())
	assert.Equal(t, src.Bias().Tensor().Data(), dst.Bias().Tensor().Data())

	kind, meta, err := artifact.ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "LinearRegression", kind)
	assert.Equal(t, map[string]string{"epochs": "3"}, meta)

	safe := filepath.Join(dir, "linear.safetensors")
	require.NoError(t, artifact.SaveModel[backend](safe, "LinearRegression", src, nil))
	_, err = os.Stat(safe)
	assert.NoError(t, err)

	_, err = artifact.LoadModel(safe, nn.Module[backend](dst), b)
	assert.ErrorContains(t, err, "only .born")
	_, _, err = artifact.ReadMetadata(safe)
	assert.ErrorContains(t, err, "only .born")

	err = artifact.SaveModel[backend](filepath.Join(dir, "linear.pt"), "LinearRegression", src, nil)
	assert.ErrorContains(t, err, "unsupported snapshot extension")

	wrong := nn.NewLinear(3, 2, b)
	_, err = artifact.LoadModel(path, nn.Module[backend](wrong), b)
	assert.ErrorContains(t, err, "shape mismatch")
}
