// Package view holds the display cursor: which frame and slice are shown,
// the zoom factor, and which axes are collapsed by projection.
package view

import (
	"scribblemask/internal/models"
)

// State is the view configuration of one session. The zero value has no
// volume attached; every mutation on it is a no-op.
type State struct {
	FrameIndex   int
	SliceIndex   int
	Scale        int
	ProjectFrame bool
	ProjectSlice bool

	// MaxScale bounds zooming in; zero leaves it unbounded
	MaxScale int

	// raw axis extents of the loaded volume
	frames int
	slices int
}

// Defaults are the values a State returns to when a volume is attached
type Defaults struct {
	Scale        int
	MaxScale     int
	ProjectFrame bool
	ProjectSlice bool
}

// New creates a view of a volume with the given frame and slice counts
func New(frames, slices int, d Defaults) *State {
	s := &State{}
	s.Attach(frames, slices, d)
	return s
}

// Attach resets the view for a newly loaded volume. Scales that are not
// powers of two are rounded down to one.
func (s *State) Attach(frames, slices int, d Defaults) {
	maxScale := 0
	if d.MaxScale > 0 {
		maxScale = floorPow2(d.MaxScale)
	}
	*s = State{
		Scale:        floorPow2(d.Scale),
		MaxScale:     maxScale,
		ProjectFrame: d.ProjectFrame,
		ProjectSlice: d.ProjectSlice,
		frames:       frames,
		slices:       slices,
	}
	if s.MaxScale > 0 && s.Scale > s.MaxScale {
		s.Scale = s.MaxScale
	}
}

// floorPow2 returns the largest power of two not above n, or 1 for n < 1
func floorPow2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// Detach drops the volume; the view returns to its zero value
func (s *State) Detach() {
	*s = State{}
}

// Loaded reports whether a volume is attached
func (s *State) Loaded() bool {
	return s.frames > 0 && s.slices > 0
}

// Projected reports whether an axis is collapsed
func (s *State) Projected(axis models.Axis) bool {
	if axis == models.AxisFrame {
		return s.ProjectFrame
	}
	return s.ProjectSlice
}

// Count returns the extent of an axis as displayed: 1 when projected,
// the raw extent otherwise
func (s *State) Count(axis models.Axis) int {
	if s.Projected(axis) {
		return 1
	}
	if axis == models.AxisFrame {
		return s.frames
	}
	return s.slices
}

// RawCount returns the extent of an axis in the loaded volume
func (s *State) RawCount(axis models.Axis) int {
	if axis == models.AxisFrame {
		return s.frames
	}
	return s.slices
}

// Bound returns the largest index a slider for axis may take
func (s *State) Bound(axis models.Axis) int {
	return s.Count(axis) - 1
}

// Index returns the cursor position on an axis
func (s *State) Index(axis models.Axis) int {
	if axis == models.AxisFrame {
		return s.FrameIndex
	}
	return s.SliceIndex
}

// SetAxisIndex moves the cursor. Values outside [0, Bound(axis)] are
// rejected and the call reports false.
func (s *State) SetAxisIndex(axis models.Axis, value int) bool {
	if !s.Loaded() || value < 0 || value > s.Bound(axis) {
		return false
	}
	if axis == models.AxisFrame {
		s.FrameIndex = value
	} else {
		s.SliceIndex = value
	}
	return true
}

// ToggleProjection flips the projection flag of axis and moves its
// cursor back to 0. The caller must rebuild the projected volume when
// this returns true.
func (s *State) ToggleProjection(axis models.Axis) bool {
	if !s.Loaded() {
		return false
	}
	if axis == models.AxisFrame {
		s.ProjectFrame = !s.ProjectFrame
		s.FrameIndex = 0
	} else {
		s.ProjectSlice = !s.ProjectSlice
		s.SliceIndex = 0
	}
	return true
}

// Zoom doubles the scale for a positive step and halves it for a
// negative one, staying within [1, MaxScale]. It reports whether the
// scale changed.
func (s *State) Zoom(step int) bool {
	if !s.Loaded() || step == 0 {
		return false
	}
	next := s.Scale
	if step > 0 {
		next *= 2
		if s.MaxScale > 0 && next > s.MaxScale {
			next = s.Scale
		}
	} else if next > 1 {
		next /= 2
	}
	changed := next != s.Scale
	s.Scale = next
	return changed
}

// ZoomIn doubles the scale
func (s *State) ZoomIn() bool {
	return s.Zoom(1)
}

// ZoomOut halves the scale
func (s *State) ZoomOut() bool {
	return s.Zoom(-1)
}
