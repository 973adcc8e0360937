package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scribblemask/internal/models"
)

// createTestVolume fills a 2x2x1x2 volume with f*100 + s*10 + x
func createTestVolume() *models.Volume {
	v := models.NewVolume(2, 2, 1, 2)
	for f := 0; f < 2; f++ {
		for s := 0; s < 2; s++ {
			for x := 0; x < 2; x++ {
				v.Set(f, s, 0, x, float64(f*100+s*10+x))
			}
		}
	}
	return v
}

func TestProjectIdentity(t *testing.T) {
	v := createTestVolume()
	got := Project(v, Flags{})

	if d := cmp.Diff(v, got); d != "" {
		t.Errorf("identity projection differs (-want +got):\n%s", d)
	}
	got.Data[0] = -1
	if v.Data[0] == -1 {
		t.Error("projection aliases the input volume")
	}
}

func TestProjectAxes(t *testing.T) {
	v := createTestVolume()

	tests := []struct {
		name  string
		flags Flags
		shape [4]int
		want  []float64
	}{
		{"frame", Flags{Frame: true}, [4]int{1, 2, 1, 2}, []float64{50, 51, 60, 61}},
		{"slice", Flags{Slice: true}, [4]int{2, 1, 1, 2}, []float64{5, 6, 105, 106}},
		{"both", Flags{Frame: true, Slice: true}, [4]int{1, 1, 1, 2}, []float64{55, 56}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Project(v, tc.flags)
			if got.Shape() != tc.shape {
				t.Errorf("expected shape %v, got %v", tc.shape, got.Shape())
			}
			if d := cmp.Diff(tc.want, got.Data); d != "" {
				t.Errorf("data mismatch (-want +got):\n%s", d)
			}
		})
	}

	if d := cmp.Diff(createTestVolume(), v); d != "" {
		t.Errorf("input volume was modified:\n%s", d)
	}
}

func TestRender(t *testing.T) {
	v := models.NewVolume(1, 1, 1, 3)
	copy(v.Data, []float64{0, 1, 2})

	img, err := Render(v, 0, 0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 1 {
		t.Fatalf("expected 3x1 raster, got %v", b)
	}
	if d := cmp.Diff([]uint8{0, 128, 255}, img.Pix); d != "" {
		t.Errorf("pixel mismatch (-want +got):\n%s", d)
	}

	if _, err := Render(v, 1, 0); err == nil {
		t.Error("expected error for plane outside volume")
	}
}

func TestRenderUsesWholeVolumeRange(t *testing.T) {
	v := models.NewVolume(1, 2, 1, 2)
	copy(v.Data, []float64{10, 10, 0, 20})

	img, err := Render(v, 0, 0)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Pix[0] != 128 || img.Pix[1] != 128 {
		t.Errorf("expected mid-gray plane normalized against the volume, got %v", img.Pix)
	}
}

func TestRenderDegenerate(t *testing.T) {
	v := models.NewVolume(1, 1, 2, 2)
	for i := range v.Data {
		v.Data[i] = 7
	}

	_, err := Render(v, 0, 0)
	if !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("expected ErrDegenerateRange, got %v", err)
	}

	img := Neutral(2, 2)
	for _, p := range img.Pix {
		if p != NeutralGray {
			t.Fatalf("expected neutral raster, got %v", img.Pix)
		}
	}
}

func TestSummarize(t *testing.T) {
	v := models.NewVolume(1, 1, 1, 4)
	copy(v.Data, []float64{1, 2, 3, 4})

	s := Summarize(v)
	if s.Min != 1 || s.Max != 4 || s.Mean != 2.5 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(5.0/3.0)) > 1e-12 {
		t.Errorf("expected sample std dev %f, got %f", math.Sqrt(5.0/3.0), s.StdDev)
	}
}
