// Package projection collapses the frame and slice axes of a volume by
// averaging, and turns the result into 8-bit display rasters.
package projection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"scribblemask/internal/models"
)

// ErrDegenerateRange is returned when a volume has a single intensity and
// cannot be stretched to the display range
var ErrDegenerateRange = errors.New("degenerate intensity range")

// NeutralGray is the fill value used when a raster cannot be normalized
const NeutralGray uint8 = 128

// Flags selects the axes to collapse
type Flags struct {
	Frame bool
	Slice bool
}

// Project returns a new volume in which every flagged axis is replaced by
// its mean and kept with extent 1. The frame axis is reduced before the
// slice axis. With no flags set the result is a copy of v. Every extent
// of v must be at least 1.
func Project(v *models.Volume, flags Flags) *models.Volume {
	out := v
	if flags.Frame {
		out = meanFrames(out)
	}
	if flags.Slice {
		out = meanSlices(out)
	}
	if out == v {
		out = v.Clone()
	}
	return out
}

// meanFrames averages all frames of each slice
func meanFrames(v *models.Volume) *models.Volume {
	out := models.NewVolume(1, v.Slices, v.Height, v.Width)
	for s := 0; s < v.Slices; s++ {
		planes := make([][]float64, v.Frames)
		for f := range planes {
			planes[f] = v.Plane(f, s)
		}
		copy(out.Plane(0, s), meanPlanes(planes, v.Height, v.Width))
	}
	return out
}

// meanSlices averages all slices of each frame
func meanSlices(v *models.Volume) *models.Volume {
	out := models.NewVolume(v.Frames, 1, v.Height, v.Width)
	for f := 0; f < v.Frames; f++ {
		planes := make([][]float64, v.Slices)
		for s := range planes {
			planes[s] = v.Plane(f, s)
		}
		copy(out.Plane(f, 0), meanPlanes(planes, v.Height, v.Width))
	}
	return out
}

func meanPlanes(planes [][]float64, height, width int) []float64 {
	acc := mat.NewDense(height, width, nil)
	for _, p := range planes {
		acc.Add(acc, mat.NewDense(height, width, p))
	}
	acc.Scale(1/float64(len(planes)), acc)
	return acc.RawMatrix().Data
}

// Range returns the minimum and maximum sample of v
func Range(v *models.Volume) (lo, hi float64) {
	return floats.Min(v.Data), floats.Max(v.Data)
}

// Normalize maps a plane to 8-bit gray using lo and hi as black and white
func Normalize(plane []float64, height, width int, lo, hi float64) (*image.Gray, error) {
	if hi == lo {
		return nil, fmt.Errorf("cannot normalize to [%g, %g]: %w", lo, hi, ErrDegenerateRange)
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	span := hi - lo
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width]
		for x := range row {
			v := math.Round(255 * (plane[y*width+x] - lo) / span)
			row[x] = uint8(math.Max(0, math.Min(255, v)))
		}
	}
	return img, nil
}

// Render normalizes one plane of a projected volume against the range of
// the whole projected volume
func Render(v *models.Volume, frame, slice int) (*image.Gray, error) {
	if frame < 0 || frame >= v.Frames || slice < 0 || slice >= v.Slices {
		return nil, fmt.Errorf("plane (%d,%d) outside volume %v", frame, slice, v.Shape())
	}
	lo, hi := Range(v)
	return Normalize(v.Plane(frame, slice), v.Height, v.Width, lo, hi)
}

// Neutral returns a uniform mid-gray raster
func Neutral(height, width int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = NeutralGray
	}
	return img
}

// Summary describes the intensity distribution of a volume
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes intensity statistics of v
func Summarize(v *models.Volume) Summary {
	lo, hi := Range(v)
	s := Summary{Min: lo, Max: hi, Mean: stat.Mean(v.Data, nil)}
	if len(v.Data) > 1 {
		s.StdDev = stat.StdDev(v.Data, nil)
	}
	return s
}
