package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"scribblemask/internal/models"
	"scribblemask/pkg/raster"
	"scribblemask/pkg/scribble"
)

var (
	// ScribbleColor marks committed scribbles
	ScribbleColor = color.RGBA{R: 255, A: 255}

	// StrokeColor marks the stroke being drawn
	StrokeColor = color.RGBA{R: 255, G: 255, A: 255}
)

// Viewer renders a display raster at the current zoom with scribbles
// drawn over it
type Viewer struct {
	// raster is the normalized plane being displayed
	raster *image.Gray

	// scale is the integer zoom factor
	scale int
}

// NewViewer creates a viewer for a display raster
func NewViewer(raster *image.Gray, scale int) *Viewer {
	if scale < 1 {
		scale = 1
	}
	return &Viewer{
		raster: raster,
		scale:  scale,
	}
}

// Size returns the on-screen size of the display
func (v *Viewer) Size() image.Point {
	return v.raster.Bounds().Size().Mul(v.scale)
}

// Compose draws the zoomed raster, then the pixel coverage of every
// scribble, then the stroke in progress
func (v *Viewer) Compose(scribbles []scribble.Scribble, stroke []models.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: v.Size()})
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), v.raster, v.raster.Bounds(), xdraw.Src, nil)

	for _, s := range scribbles {
		v.fill(dst, raster.RasterizePolyline(s.Path), ScribbleColor)
	}
	if len(stroke) > 0 {
		v.fill(dst, raster.RasterizePolyline(stroke), StrokeColor)
	}
	return dst
}

// fill paints the screen block of every pixel in set
func (v *Viewer) fill(dst *image.RGBA, set raster.PixelSet, c color.RGBA) {
	src := image.NewUniform(c)
	for p := range set {
		r := image.Rect(p.X*v.scale, p.Y*v.scale, (p.X+1)*v.scale, (p.Y+1)*v.scale)
		xdraw.Draw(dst, r.Intersect(dst.Bounds()), src, image.Point{}, xdraw.Src)
	}
}

// SaveSnapshot writes an image as JPEG or PNG depending on the extension
func SaveSnapshot(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(file, img)
	}
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// MaskSlice returns one slice of a mask as a grayscale image
func MaskSlice(m *models.Mask, slice int) (*image.Gray, error) {
	if slice < 0 || slice >= m.Slices {
		return nil, fmt.Errorf("slice %d outside mask with %d slices", slice, m.Slices)
	}
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(img.Pix, m.Page(slice))
	return img, nil
}

// SaveMaskSequence writes every slice of a mask as a PNG file
func SaveMaskSequence(m *models.Mask, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for z := 0; z < m.Slices; z++ {
		img, err := MaskSlice(m, z)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("mask_%03d.png", z))
		if err := SaveSnapshot(img, filename); err != nil {
			return err
		}
	}

	return nil
}
