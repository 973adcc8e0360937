package models

import "fmt"

// Axis identifies one of the two non-spatial axes of a volume
type Axis int

const (
	// AxisFrame is the time axis; annotation is invariant along it
	AxisFrame Axis = iota
	// AxisSlice is the depth axis; every mask page corresponds to one slice
	AxisSlice
)

// Axes lists the non-spatial axes in reduction order
var Axes = []Axis{AxisFrame, AxisSlice}

func (a Axis) String() string {
	switch a {
	case AxisFrame:
		return "frame"
	case AxisSlice:
		return "slice"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis converts an axis name back to an Axis
func ParseAxis(name string) (Axis, error) {
	switch name {
	case "frame", "f":
		return AxisFrame, nil
	case "slice", "s", "z":
		return AxisSlice, nil
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be frame or slice)", name)
	}
}

// Point is a pixel position in volume coordinates, ordered (height, width)
type Point struct {
	Y int
	X int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Y, p.X)
}

// Volume is a 4-axis image stack indexed (frame, slice, height, width)
type Volume struct {
	// Data holds the samples in row-major order, width varying fastest
	Data []float64

	// Frames is the extent of the time axis
	Frames int

	// Slices is the extent of the depth axis
	Slices int

	// Height is the number of rows of each plane
	Height int

	// Width is the number of columns of each plane
	Width int
}

// NewVolume allocates a zero-filled volume
func NewVolume(frames, slices, height, width int) *Volume {
	return &Volume{
		Data:   make([]float64, frames*slices*height*width),
		Frames: frames,
		Slices: slices,
		Height: height,
		Width:  width,
	}
}

// Shape returns the extents in axis order
func (v *Volume) Shape() [4]int {
	return [4]int{v.Frames, v.Slices, v.Height, v.Width}
}

// Count returns the extent of a non-spatial axis
func (v *Volume) Count(axis Axis) int {
	if axis == AxisFrame {
		return v.Frames
	}
	return v.Slices
}

// PlaneSize is the number of samples in one (height, width) plane
func (v *Volume) PlaneSize() int {
	return v.Height * v.Width
}

// Index returns the flat offset of a sample
func (v *Volume) Index(frame, slice, y, x int) int {
	return ((frame*v.Slices+slice)*v.Height+y)*v.Width + x
}

// At returns one sample
func (v *Volume) At(frame, slice, y, x int) float64 {
	return v.Data[v.Index(frame, slice, y, x)]
}

// Set writes one sample
func (v *Volume) Set(frame, slice, y, x int, value float64) {
	v.Data[v.Index(frame, slice, y, x)] = value
}

// Plane returns the (height, width) plane at the given frame and slice.
// The returned slice aliases the volume data.
func (v *Volume) Plane(frame, slice int) []float64 {
	start := v.Index(frame, slice, 0, 0)
	return v.Data[start : start+v.PlaneSize()]
}

// Clone returns a deep copy of the volume
func (v *Volume) Clone() *Volume {
	out := *v
	out.Data = append([]float64(nil), v.Data...)
	return &out
}

// MaskShape describes the (slice, height, width) extent of a mask
type MaskShape struct {
	Slices int
	Height int
	Width  int
}

// MaskShape returns the mask extent matching this volume. The frame
// axis never appears in a mask.
func (v *Volume) MaskShape() MaskShape {
	return MaskShape{Slices: v.Slices, Height: v.Height, Width: v.Width}
}

// Contains reports whether a point lies inside one mask plane
func (s MaskShape) Contains(p Point) bool {
	return p.Y >= 0 && p.Y < s.Height && p.X >= 0 && p.X < s.Width
}

// Mask is a binary (slice, height, width) annotation stored one byte per voxel
type Mask struct {
	// Data holds the voxels in row-major order
	Data []uint8

	MaskShape
}

// NewMask allocates an all-background mask
func NewMask(shape MaskShape) *Mask {
	return &Mask{
		Data:      make([]uint8, shape.Slices*shape.Height*shape.Width),
		MaskShape: shape,
	}
}

// Index returns the flat offset of a voxel
func (m *Mask) Index(slice, y, x int) int {
	return (slice*m.Height+y)*m.Width + x
}

// At returns one voxel
func (m *Mask) At(slice, y, x int) uint8 {
	return m.Data[m.Index(slice, y, x)]
}

// Set writes one voxel
func (m *Mask) Set(slice, y, x int, value uint8) {
	m.Data[m.Index(slice, y, x)] = value
}

// Page returns the (height, width) plane of one slice, aliasing the mask data
func (m *Mask) Page(slice int) []uint8 {
	start := m.Index(slice, 0, 0)
	return m.Data[start : start+m.Height*m.Width]
}

// Count returns the number of voxels equal to value
func (m *Mask) Count(value uint8) int {
	n := 0
	for _, v := range m.Data {
		if v == value {
			n++
		}
	}
	return n
}
