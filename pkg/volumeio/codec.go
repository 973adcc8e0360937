// Package volumeio reads image volumes and writes annotation masks.
//
// Volumes come from a TIFF file, single or multi-page, or from a
// directory of 2D slice images. Whatever the source, the result is
// reshaped to four axes (frame, slice, height, width): a single plane
// becomes (1,1,H,W) and a stack of planes becomes (1,S,H,W). An ImageJ
// hyperstack description, when present, supplies separate frame and slice
// extents. Masks are written as multi-page 8-bit TIFF files, one page per
// slice.
package volumeio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"scribblemask/internal/models"
)

// ErrUnsupportedDimensionality is returned for images with more than four
// axes
var ErrUnsupportedDimensionality = errors.New("unsupported dimensionality")

// MaxAxes is the number of axes of a volume
const MaxAxes = 4

// Options controls volume loading
type Options struct {
	// Workers bounds the number of planes decoded concurrently. Zero
	// means one per CPU.
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// Load reads a volume from a TIFF file or a directory of slice images
func Load(path string, opts Options) (*models.Volume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path, opts)
	}
	return LoadTIFF(path, opts)
}

// LoadTIFF reads every page of a TIFF file into a volume
func LoadTIFF(path string, opts Options) (*models.Volume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	t, err := parseTIFF(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	first, err := t.decodePage(0)
	if err != nil {
		return nil, err
	}

	dims := []int{len(t.pages)}
	if h, ok := parseImageJ(t.description); ok {
		if h.frames*h.slices*h.channels != len(t.pages) {
			return nil, fmt.Errorf("%s: description declares %d planes, file has %d pages",
				path, h.frames*h.slices*h.channels, len(t.pages))
		}
		dims = []int{h.frames, h.slices, h.channels}
	}
	frames, slices, err := reshape(dims, !isGray(first))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	decode := func(i int) (image.Image, error) {
		if i == 0 {
			return first, nil
		}
		return t.decodePage(i)
	}
	return assemble(frames, slices, decode, opts)
}

// LoadDir reads a directory of 2D images as the slices of one volume.
// Files are ordered by the number embedded in their names.
func LoadDir(dir string, opts Options) (*models.Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		ni, nj := extractNumber(files[i]), extractNumber(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})

	decode := func(i int) (image.Image, error) {
		return decodeFile(filepath.Join(dir, files[i]))
	}
	first, err := decode(0)
	if err != nil {
		return nil, err
	}
	frames, slices, err := reshape([]int{len(files)}, !isGray(first))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}

	return assemble(frames, slices, func(i int) (image.Image, error) {
		if i == 0 {
			return first, nil
		}
		return decode(i)
	}, opts)
}

// reshape squeezes singleton axes from the non-spatial extents and pads
// the rest to (frames, slices). A colour sample axis counts toward the
// axis limit but is not kept; colour planes are reduced to luminance.
func reshape(dims []int, colour bool) (frames, slices int, err error) {
	var kept []int
	for _, d := range dims {
		if d > 1 {
			kept = append(kept, d)
		}
	}
	n := len(kept) + 2
	if colour {
		n++
	}
	if n > MaxAxes {
		return 0, 0, fmt.Errorf("image has %d axes, at most %d supported: %w", n, MaxAxes, ErrUnsupportedDimensionality)
	}
	switch len(kept) {
	case 0:
		return 1, 1, nil
	case 1:
		return 1, kept[0], nil
	default:
		return kept[0], kept[1], nil
	}
}

// assemble decodes frames*slices planes concurrently and stores plane i
// at (i / slices, i % slices). Nothing is returned unless every plane
// decodes with the same size as plane 0.
func assemble(frames, slices int, decode func(int) (image.Image, error), opts Options) (*models.Volume, error) {
	n := frames * slices
	planes := make([]image.Image, n)

	var g errgroup.Group
	g.SetLimit(opts.workers())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			img, err := decode(i)
			if err != nil {
				return err
			}
			planes[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bounds := planes[0].Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}
	vol := models.NewVolume(frames, slices, bounds.Dy(), bounds.Dx())
	for i, img := range planes {
		if img.Bounds().Size() != bounds.Size() {
			return nil, fmt.Errorf("plane %d is %v, expected %v", i, img.Bounds().Size(), bounds.Size())
		}
		samples(img, vol.Plane(i/slices, i%slices))
	}
	return vol, nil
}

// samples copies pixel values of img into dst in row-major order. Colour
// pixels are reduced to 16-bit luminance.
func samples(img image.Image, dst []float64) {
	b := img.Bounds()
	w := b.Dx()
	switch m := img.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			row := m.Pix[y*m.Stride : y*m.Stride+w]
			for x, v := range row {
				dst[y*w+x] = float64(v)
			}
		}
	case *image.Gray16:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst[(y-b.Min.Y)*w+x-b.Min.X] = float64(m.Gray16At(x, y).Y)
			}
		}
	case *image.Paletted:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst[(y-b.Min.Y)*w+x-b.Min.X] = float64(m.ColorIndexAt(x, y))
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				dst[(y-b.Min.Y)*w+x-b.Min.X] = float64(g.Y)
			}
		}
	}
}

func isGray(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.Paletted:
		return true
	}
	return false
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// extractNumber returns the digits of a filename read as one number, or
// 0 when there are none
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	n := 0
	for _, c := range base {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
		}
	}
	return n
}
