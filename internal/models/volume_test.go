package models

import "testing"

func TestVolumeIndexing(t *testing.T) {
	v := NewVolume(2, 3, 4, 5)
	if len(v.Data) != 2*3*4*5 {
		t.Fatalf("Expected %d samples, got %d", 120, len(v.Data))
	}

	v.Set(1, 2, 3, 4, 42)
	if v.Data[len(v.Data)-1] != 42 {
		t.Error("Expected the last sample to be the last index")
	}
	if got := v.Plane(1, 2)[3*5+4]; got != 42 {
		t.Errorf("Expected plane view to alias volume data, got %v", got)
	}
	if v.Count(AxisFrame) != 2 || v.Count(AxisSlice) != 3 {
		t.Errorf("Unexpected axis counts %d/%d", v.Count(AxisFrame), v.Count(AxisSlice))
	}

	c := v.Clone()
	c.Set(1, 2, 3, 4, 0)
	if v.At(1, 2, 3, 4) != 42 {
		t.Error("Clone shares data with the original")
	}

	if s := v.MaskShape(); s != (MaskShape{Slices: 3, Height: 4, Width: 5}) {
		t.Errorf("Unexpected mask shape %+v", s)
	}
}

func TestMask(t *testing.T) {
	m := NewMask(MaskShape{Slices: 2, Height: 2, Width: 3})
	m.Set(1, 1, 2, 255)

	if m.Page(1)[5] != 255 || m.At(1, 1, 2) != 255 {
		t.Error("Expected voxel (1,1,2) set")
	}
	if m.Count(255) != 1 || m.Count(0) != 11 {
		t.Errorf("Unexpected counts %d/%d", m.Count(255), m.Count(0))
	}
	if m.Contains(Point{Y: 2, X: 0}) || !m.Contains(Point{Y: 1, X: 2}) {
		t.Error("Contains disagrees with the plane bounds")
	}
}

func TestParseAxis(t *testing.T) {
	for _, a := range Axes {
		got, err := ParseAxis(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAxis(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseAxis("channel"); err == nil {
		t.Error("Expected error for unknown axis")
	}
}
