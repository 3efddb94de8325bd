// Package artifact writes what a tutorial run leaves on disk: sample grids,
// the GAN progress animation, model snapshots and run directories.
package artifact

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
)

// ErrNoImages is returned by Grid for an empty batch.
var ErrNoImages = errors.New("artifact: no images")

// Padding is the gap in pixels between grid tiles.
const Padding = 2

// Grid tiles square grayscale images into rows of cols. Pixel values are
// mapped linearly from [lo, hi] to [0, 255] and clamped.
func Grid(images [][]float32, cols int, lo, hi float32) (*image.Gray, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if hi <= lo {
		return nil, fmt.Errorf("artifact: empty value range [%g, %g]", lo, hi)
	}
	side := int(math32.Sqrt(float32(len(images[0]))))
	if side*side != len(images[0]) {
		return nil, fmt.Errorf("artifact: image of %d pixels is not square", len(images[0]))
	}
	if cols <= 0 || cols > len(images) {
		cols = len(images)
	}
	rows := (len(images) + cols - 1) / cols

	width := cols*side + (cols+1)*Padding
	height := rows*side + (rows+1)*Padding
	img := image.NewGray(image.Rect(0, 0, width, height))

	for i, pixels := range images {
		if len(pixels) != side*side {
			return nil, fmt.Errorf("artifact: image %d has %d pixels, want %d", i, len(pixels), side*side)
		}
		x0 := Padding + (i%cols)*(side+Padding)
		y0 := Padding + (i/cols)*(side+Padding)
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				img.SetGray(x0+x, y0+y, color.Gray{Y: scale(pixels[y*side+x], lo, hi)})
			}
		}
	}
	return img, nil
}

func scale(v, lo, hi float32) uint8 {
	t := (v - lo) / (hi - lo)
	t = math32.Max(0, math32.Min(1, t))
	return uint8(t*255 + 0.5)
}

// SavePNG encodes img to path, creating parent directories.
func SavePNG(path string, img image.Image) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	//nolint:gosec // G304: output path comes from the run configuration
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// grayPalette maps each palette index to the matching gray level.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// GIFWriter accumulates frames and writes them as one animated GIF on Close.
type GIFWriter struct {
	path   string
	delay  int
	frames []*image.Paletted
	closed bool
}

// NewGIFWriter returns a writer for path with delay hundredths of a second
// between frames.
func NewGIFWriter(path string, delay int) *GIFWriter {
	return &GIFWriter{path: path, delay: delay}
}

// AddFrame appends a grayscale frame. All frames must share one size.
func (w *GIFWriter) AddFrame(img *image.Gray) error {
	if w.closed {
		return errors.New("artifact: gif writer is closed")
	}
	if len(w.frames) > 0 && img.Bounds() != w.frames[0].Bounds() {
		return fmt.Errorf("artifact: frame bounds %v differ from %v", img.Bounds(), w.frames[0].Bounds())
	}
	frame := image.NewPaletted(img.Bounds(), grayPalette)
	copy(frame.Pix, img.Pix)
	w.frames = append(w.frames, frame)
	return nil
}

// Frames reports how many frames have been added.
func (w *GIFWriter) Frames() int { return len(w.frames) }

// Close writes the animation. Closing a writer without frames writes nothing.
func (w *GIFWriter) Close() (err error) {
	if w.closed {
		return nil
	}
	w.closed = true
	if len(w.frames) == 0 {
		return nil
	}

	anim := &gif.GIF{
		Image:     w.frames,
		Delay:     make([]int, len(w.frames)),
		LoopCount: 0,
	}
	for i := range anim.Delay {
		anim.Delay[i] = w.delay
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	//nolint:gosec // G304: output path comes from the run configuration
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := gif.EncodeAll(f, anim); err != nil {
		return fmt.Errorf("encode %s: %w", w.path, err)
	}
	return nil
}
