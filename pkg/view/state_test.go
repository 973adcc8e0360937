package view

import (
	"testing"

	"scribblemask/internal/models"
)

func TestZeroStateIsInert(t *testing.T) {
	var s State

	if s.SetAxisIndex(models.AxisSlice, 0) {
		t.Error("SetAxisIndex should be a no-op without a volume")
	}
	if s.ToggleProjection(models.AxisFrame) {
		t.Error("ToggleProjection should be a no-op without a volume")
	}
	if s.ZoomIn() {
		t.Error("ZoomIn should be a no-op without a volume")
	}
	if s.ProjectFrame || s.Scale != 0 {
		t.Errorf("zero state was mutated: %+v", s)
	}
}

func TestSetAxisIndex(t *testing.T) {
	s := New(2, 5, Defaults{Scale: 1})

	tests := []struct {
		axis  models.Axis
		value int
		ok    bool
	}{
		{models.AxisSlice, 4, true},
		{models.AxisSlice, 5, false},
		{models.AxisSlice, -1, false},
		{models.AxisFrame, 1, true},
		{models.AxisFrame, 2, false},
	}

	for _, tc := range tests {
		before := s.Index(tc.axis)
		ok := s.SetAxisIndex(tc.axis, tc.value)
		if ok != tc.ok {
			t.Errorf("SetAxisIndex(%v, %d) = %v, want %v", tc.axis, tc.value, ok, tc.ok)
		}
		if !ok && s.Index(tc.axis) != before {
			t.Errorf("rejected SetAxisIndex(%v, %d) changed index to %d", tc.axis, tc.value, s.Index(tc.axis))
		}
	}
	if s.SliceIndex != 4 || s.FrameIndex != 1 {
		t.Errorf("unexpected cursor %d/%d", s.FrameIndex, s.SliceIndex)
	}
}

func TestToggleProjection(t *testing.T) {
	s := New(3, 6, Defaults{Scale: 1})
	s.SetAxisIndex(models.AxisSlice, 4)

	if !s.ToggleProjection(models.AxisSlice) {
		t.Fatal("toggle should succeed with a volume attached")
	}
	if !s.ProjectSlice || s.SliceIndex != 0 {
		t.Errorf("expected projected slice axis at index 0, got %v/%d", s.ProjectSlice, s.SliceIndex)
	}
	if s.Count(models.AxisSlice) != 1 || s.Bound(models.AxisSlice) != 0 {
		t.Errorf("projected axis should have count 1, got %d", s.Count(models.AxisSlice))
	}
	if s.RawCount(models.AxisSlice) != 6 {
		t.Errorf("raw count should stay 6, got %d", s.RawCount(models.AxisSlice))
	}
	if s.SetAxisIndex(models.AxisSlice, 1) {
		t.Error("index 1 is out of range on a projected axis")
	}

	s.ToggleProjection(models.AxisSlice)
	if s.ProjectSlice || s.Bound(models.AxisSlice) != 5 {
		t.Errorf("expected unprojected slice axis with bound 5, got %v/%d", s.ProjectSlice, s.Bound(models.AxisSlice))
	}
}

func TestZoom(t *testing.T) {
	s := New(1, 1, Defaults{Scale: 1, MaxScale: 4})

	if s.ZoomOut() || s.Scale != 1 {
		t.Errorf("zoom out at scale 1 should clamp, got %d", s.Scale)
	}
	s.ZoomIn()
	s.ZoomIn()
	if s.Scale != 4 {
		t.Errorf("expected scale 4, got %d", s.Scale)
	}
	if s.ZoomIn() || s.Scale != 4 {
		t.Errorf("zoom past MaxScale should clamp, got %d", s.Scale)
	}
	s.ZoomOut()
	if s.Scale != 2 {
		t.Errorf("expected scale 2, got %d", s.Scale)
	}
}

func TestAttachResets(t *testing.T) {
	s := New(2, 2, Defaults{Scale: 1})
	s.ZoomIn()
	s.ToggleProjection(models.AxisFrame)
	s.SetAxisIndex(models.AxisSlice, 1)

	s.Attach(4, 3, Defaults{Scale: 2, ProjectSlice: true})
	if s.Scale != 2 || s.ProjectFrame || !s.ProjectSlice || s.SliceIndex != 0 {
		t.Errorf("attach did not apply defaults: %+v", *s)
	}

	s.Detach()
	if s.Loaded() {
		t.Error("detached state should not be loaded")
	}
}

func TestAttachRoundsScaleToPowerOfTwo(t *testing.T) {
	tests := []struct {
		d        Defaults
		scale    int
		maxScale int
	}{
		{Defaults{Scale: 3}, 2, 0},
		{Defaults{Scale: 0}, 1, 0},
		{Defaults{Scale: 7, MaxScale: 12}, 4, 8},
		{Defaults{Scale: 16, MaxScale: 5}, 4, 4},
	}
	for _, tc := range tests {
		s := New(1, 1, tc.d)
		if s.Scale != tc.scale || s.MaxScale != tc.maxScale {
			t.Errorf("Attach(%+v): scale %d max %d, want %d max %d",
				tc.d, s.Scale, s.MaxScale, tc.scale, tc.maxScale)
		}
	}
}
