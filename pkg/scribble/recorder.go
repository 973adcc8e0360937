// Package scribble records freehand drag gestures and commits them to an
// append-only log of per-slice polylines.
package scribble

import (
	"fmt"

	"scribblemask/internal/models"
)

// Scribble is a committed polyline. Every point lies on Slice.
type Scribble struct {
	Slice int
	Path  []models.Point
}

// Point3 is a (slice, height, width) position
type Point3 struct {
	Slice int
	Y     int
	X     int
}

// Points returns the path tagged with its slice
func (s Scribble) Points() []Point3 {
	out := make([]Point3, len(s.Path))
	for i, p := range s.Path {
		out[i] = Point3{Slice: s.Slice, Y: p.Y, X: p.X}
	}
	return out
}

type targetKind int

const (
	single targetKind = iota
	allSlices
)

// Target says which slices a finished stroke is committed to
type Target struct {
	kind  targetKind
	slice int
}

// Single targets one slice
func Single(slice int) Target {
	return Target{kind: single, slice: slice}
}

// AllSlices targets every slice of the volume
func AllSlices() Target {
	return Target{kind: allSlices}
}

// Resolve expands the target into concrete slice indices
func (t Target) Resolve(sliceCount int) []int {
	if t.kind == single {
		return []int{t.slice}
	}
	out := make([]int, sliceCount)
	for i := range out {
		out[i] = i
	}
	return out
}

func (t Target) String() string {
	if t.kind == allSlices {
		return "all slices"
	}
	return fmt.Sprintf("slice %d", t.slice)
}

// Log is the ordered, append-only list of committed scribbles
type Log struct {
	entries []Scribble
}

// Append adds committed scribbles to the end of the log
func (l *Log) Append(s ...Scribble) {
	l.entries = append(l.entries, s...)
}

// Entries returns a copy of the committed scribbles in commit order
func (l *Log) Entries() []Scribble {
	return append([]Scribble(nil), l.entries...)
}

// Len returns the number of committed scribbles
func (l *Log) Len() int {
	return len(l.entries)
}

// Reset empties the log
func (l *Log) Reset() {
	l.entries = nil
}

// State is the recorder's gesture state
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Recorder accumulates one drag at a time. Points outside the plane are
// dropped rather than clipped, so a stroke leaving and re-entering the
// image is joined by a straight segment between the last point inside
// and the first point back inside.
type Recorder struct {
	height int
	width  int

	state   State
	current []models.Point
}

// NewRecorder creates an idle recorder for planes of the given size
func NewRecorder(height, width int) *Recorder {
	return &Recorder{height: height, width: width}
}

// State returns the current gesture state
func (r *Recorder) State() State {
	return r.state
}

// Current returns a copy of the in-progress path
func (r *Recorder) Current() []models.Point {
	return append([]models.Point(nil), r.current...)
}

// Begin starts a new stroke. An unfinished stroke is discarded.
func (r *Recorder) Begin(p models.Point) {
	r.state = Dragging
	r.current = nil
	r.add(p)
}

// Extend appends a point to the stroke in progress. It is ignored while
// idle.
func (r *Recorder) Extend(p models.Point) {
	if r.state != Dragging {
		return
	}
	r.add(p)
}

// End finishes the stroke and appends one scribble per resolved slice to
// log. It returns the number of scribbles committed; a stroke with no
// points commits nothing.
func (r *Recorder) End(target Target, sliceCount int, log *Log) int {
	if r.state != Dragging {
		return 0
	}
	path := r.current
	r.Cancel()
	if len(path) == 0 {
		return 0
	}

	slices := target.Resolve(sliceCount)
	committed := make([]Scribble, 0, len(slices))
	for _, z := range slices {
		committed = append(committed, Scribble{
			Slice: z,
			Path:  append([]models.Point(nil), path...),
		})
	}
	log.Append(committed...)
	return len(committed)
}

// Cancel drops the stroke in progress without committing it
func (r *Recorder) Cancel() {
	r.state = Idle
	r.current = nil
}

func (r *Recorder) add(p models.Point) {
	if p.Y < 0 || p.Y >= r.height || p.X < 0 || p.X >= r.width {
		return
	}
	if n := len(r.current); n > 0 && r.current[n-1] == p {
		return
	}
	r.current = append(r.current, p)
}
