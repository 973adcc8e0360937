package main

import (
	"os"
	"path/filepath"
	"testing"

	"scribblemask/internal/models"
	"scribblemask/pkg/config"
	"scribblemask/pkg/mask"
	"scribblemask/pkg/session"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplay(t *testing.T) {
	path := writeScript(t, `
steps:
  - zoom: in
  - slice: 2
  - drag: [[4, 4], [4, 10]]
  - project: slice
  - drag: [[0, 0]]
  - slice: 9
`)
	script, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Output.Verbose = false
	sess := session.New(cfg)
	sess.Attach("img.tif", models.NewVolume(1, 3, 8, 8))
	script.Replay(sess)

	if got := len(sess.Scribbles()); got != 4 {
		t.Fatalf("expected 1 + 3 scribbles, got %d", got)
	}

	m, err := sess.Mask()
	if err != nil {
		t.Fatal(err)
	}
	// At scale 2 the first drag covers volume row 2, columns 2..5 of slice 2
	for x := 2; x <= 5; x++ {
		if m.At(2, 2, x) != mask.Foreground {
			t.Errorf("expected slice 2 pixel (2,%d) painted", x)
		}
	}
	if m.At(1, 2, 3) != 0 {
		t.Error("first drag leaked onto slice 1")
	}
	for z := 0; z < 3; z++ {
		if m.At(z, 0, 0) != mask.Foreground {
			t.Errorf("projected click missing on slice %d", z)
		}
	}
	if n := m.Count(mask.Foreground); n != 7 {
		t.Errorf("expected 7 foreground voxels, got %d", n)
	}
}

func TestReplayOffImage(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Verbose = false
	sess := session.New(cfg)
	sess.Attach("img.tif", models.NewVolume(1, 1, 8, 8))

	script := &Script{Steps: []Step{
		{Zoom: "in"},
		{Drag: [][2]float64{{-1, -1}}},
		{Drag: [][2]float64{{-1, 3}, {3, 3}}},
	}}
	script.Replay(sess)

	if got := len(sess.Scribbles()); got != 1 {
		t.Fatalf("expected only the second drag to commit, got %d scribbles", got)
	}
	m, err := sess.Mask()
	if err != nil {
		t.Fatal(err)
	}
	if m.At(0, 0, 0) != 0 || m.At(0, 0, 1) != 0 {
		t.Error("off-image position painted row 0")
	}
	if m.At(0, 1, 1) != mask.Foreground {
		t.Error("expected the in-image point (1,1) painted")
	}
	if n := m.Count(mask.Foreground); n != 1 {
		t.Errorf("expected 1 foreground voxel, got %d", n)
	}
}

func TestLoadScriptInvalid(t *testing.T) {
	tests := map[string]string{
		"two actions": "steps:\n  - zoom: in\n    reset: true\n",
		"no action":   "steps:\n  - {}\n",
		"bad zoom":    "steps:\n  - zoom: sideways\n",
		"bad axis":    "steps:\n  - project: channel\n",
		"empty drag":  "steps:\n  - drag: []\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadScript(writeScript(t, body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestScreenToVolume(t *testing.T) {
	tests := []struct {
		p     [2]float64
		scale int
		want  models.Point
	}{
		{[2]float64{0, 0}, 1, models.Point{Y: 0, X: 0}},
		{[2]float64{3.9, 4}, 4, models.Point{Y: 0, X: 1}},
		{[2]float64{13, 31.5}, 4, models.Point{Y: 3, X: 7}},
		{[2]float64{-1, -1}, 2, models.Point{Y: -1, X: -1}},
		{[2]float64{-0.5, 5}, 1, models.Point{Y: -1, X: 5}},
	}
	for _, tc := range tests {
		if got := screenToVolume(tc.p, tc.scale); got != tc.want {
			t.Errorf("screenToVolume(%v, %d) = %v, want %v", tc.p, tc.scale, got, tc.want)
		}
	}
}
