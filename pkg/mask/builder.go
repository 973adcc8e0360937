// Package mask rebuilds the binary annotation mask from the scribble log.
package mask

import (
	"scribblemask/internal/models"
	"scribblemask/pkg/raster"
	"scribblemask/pkg/scribble"
)

// Foreground is the value written to annotated voxels
const Foreground uint8 = 255

// Rebuild allocates a fresh mask and paints every committed scribble
// onto it. The result depends only on the shape and the set of
// scribbles, never on their order or on any earlier mask.
func Rebuild(shape models.MaskShape, scribbles []scribble.Scribble) *models.Mask {
	m := models.NewMask(shape)
	for _, s := range scribbles {
		Paint(m, s)
	}
	return m
}

// Paint writes one scribble into m and returns the number of voxels it
// covered. Scribbles on a slice outside the mask are ignored, as are
// pixels outside the plane.
func Paint(m *models.Mask, s scribble.Scribble) int {
	if s.Slice < 0 || s.Slice >= m.Slices {
		return 0
	}
	n := 0
	for p := range raster.RasterizePolyline(s.Path) {
		if !m.Contains(p) {
			continue
		}
		m.Set(s.Slice, p.Y, p.X, Foreground)
		n++
	}
	return n
}
