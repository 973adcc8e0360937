// Package raster converts scribble polylines into the exact set of
// full-resolution pixels they cross.
//
// Each segment is handled by enumerating every pixel center in its
// bounding box and testing the unit square around that center against
// the line through the two endpoints. A square is crossed when its
// corners fall on both sides of the line; a corner lying exactly on the
// line counts toward neither side.
package raster

import (
	"sort"

	"scribblemask/internal/models"
)

// Line holds the coefficients of C*y + B*x + A = 0
type Line struct {
	C float64
	B float64
	A float64
}

// LineThrough returns the line passing through p1 and p2.
// (C, B) is the normal of the direction (xe-xs, ye-ys).
func LineThrough(p1, p2 models.Point) Line {
	ys, xs := float64(p1.Y), float64(p1.X)
	ye, xe := float64(p2.Y), float64(p2.X)
	return Line{
		C: xe - xs,
		B: ys - ye,
		A: ye*xs - ys*xe,
	}
}

// Eval returns the signed value of the line equation at (y, x)
func (l Line) Eval(y, x float64) float64 {
	return l.C*y + l.B*x + l.A
}

// corner offsets of a unit square around a pixel center, (dy, dx)
var corners = [4][2]float64{
	{0.5, 0.5},
	{-0.5, 0.5},
	{-0.5, -0.5},
	{0.5, -0.5},
}

// PassesSquare reports whether the line crosses the unit square centered
// on c
func PassesSquare(c models.Point, l Line) bool {
	var neg, pos bool
	cy, cx := float64(c.Y), float64(c.X)
	for _, d := range corners {
		switch s := l.Eval(cy+d[0], cx+d[1]); {
		case s < 0:
			neg = true
		case s > 0:
			pos = true
		}
	}
	return neg && pos
}

// PixelCenters enumerates the pixel centers of the box spanned by rows
// ys..ye and columns xs..xe, both inclusive. Rows vary slowest and each
// range is walked from its start toward its end, so swapping bounds
// reverses the order.
func PixelCenters(ys, ye, xs, xe int) []models.Point {
	nh := abs(ye-ys) + 1
	nw := abs(xe-xs) + 1
	dy, dx := step(ys, ye), step(xs, xe)

	out := make([]models.Point, 0, nh*nw)
	for i := 0; i < nh; i++ {
		for j := 0; j < nw; j++ {
			out = append(out, models.Point{Y: ys + i*dy, X: xs + j*dx})
		}
	}
	return out
}

// Rasterize returns the pixels crossed by the segment p1-p2. A zero
// length segment yields its single endpoint.
func Rasterize(p1, p2 models.Point) PixelSet {
	set := make(PixelSet)
	if p1 == p2 {
		set.Add(p1)
		return set
	}
	l := LineThrough(p1, p2)
	for _, c := range PixelCenters(p1.Y, p2.Y, p1.X, p2.X) {
		if PassesSquare(c, l) {
			set.Add(c)
		}
	}
	return set
}

// RasterizePolyline unions the pixels of every consecutive pair of points.
// A single point is rasterized as a click.
func RasterizePolyline(points []models.Point) PixelSet {
	switch len(points) {
	case 0:
		return make(PixelSet)
	case 1:
		return Rasterize(points[0], points[0])
	}
	set := make(PixelSet)
	for i := 1; i < len(points); i++ {
		if points[i] == points[i-1] {
			continue
		}
		set.Union(Rasterize(points[i-1], points[i]))
	}
	return set
}

// PixelSet is an unordered set of pixel positions
type PixelSet map[models.Point]struct{}

// Add inserts a pixel
func (s PixelSet) Add(p models.Point) {
	s[p] = struct{}{}
}

// Has reports membership
func (s PixelSet) Has(p models.Point) bool {
	_, ok := s[p]
	return ok
}

// Union adds every pixel of o to s
func (s PixelSet) Union(o PixelSet) {
	for p := range o {
		s[p] = struct{}{}
	}
}

// Sorted returns the pixels in row-major order
func (s PixelSet) Sorted() []models.Point {
	out := make([]models.Point, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func step(from, to int) int {
	if to < from {
		return -1
	}
	return 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
