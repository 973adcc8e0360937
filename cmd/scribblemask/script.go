package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"scribblemask/internal/models"
	"scribblemask/pkg/session"
)

// Script is a recorded sequence of operator actions
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one operator action. Exactly one field must be set.
type Step struct {
	// Zoom is "in" or "out"
	Zoom string `yaml:"zoom,omitempty"`

	// Project toggles projection of "frame" or "slice"
	Project string `yaml:"project,omitempty"`

	// Frame and Slice move the cursor
	Frame *int `yaml:"frame,omitempty"`
	Slice *int `yaml:"slice,omitempty"`

	// Drag is a gesture in screen coordinates, (y, x) pairs
	Drag [][2]float64 `yaml:"drag,omitempty"`

	// Reset clears every scribble
	Reset bool `yaml:"reset,omitempty"`
}

// LoadScript reads a script from a YAML file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

func (st Step) validate() error {
	n := 0
	if st.Zoom != "" {
		n++
		if st.Zoom != "in" && st.Zoom != "out" {
			return fmt.Errorf("zoom must be in or out, got %q", st.Zoom)
		}
	}
	if st.Project != "" {
		n++
		if _, err := models.ParseAxis(st.Project); err != nil {
			return err
		}
	}
	if st.Frame != nil {
		n++
	}
	if st.Slice != nil {
		n++
	}
	if st.Drag != nil {
		n++
		if len(st.Drag) == 0 {
			return fmt.Errorf("drag has no points")
		}
	}
	if st.Reset {
		n++
	}
	if n != 1 {
		return fmt.Errorf("expected exactly one action, found %d", n)
	}
	return nil
}

// screenToVolume divides a screen position by the zoom factor and
// rounds down, so positions left of or above the image stay negative
func screenToVolume(p [2]float64, scale int) models.Point {
	return models.Point{
		Y: int(math.Floor(p[0] / float64(scale))),
		X: int(math.Floor(p[1] / float64(scale))),
	}
}

// Replay applies every step of the script to the session
func (s *Script) Replay(sess *session.Session) {
	for i, st := range s.Steps {
		switch {
		case st.Zoom == "in":
			sess.ZoomIn()
		case st.Zoom == "out":
			sess.ZoomOut()
		case st.Project != "":
			axis, _ := models.ParseAxis(st.Project)
			sess.ToggleProjection(axis)
		case st.Frame != nil:
			if !sess.SetAxisIndex(models.AxisFrame, *st.Frame) {
				log.Printf("Step %d: frame %d out of range, ignored", i+1, *st.Frame)
			}
		case st.Slice != nil:
			if !sess.SetAxisIndex(models.AxisSlice, *st.Slice) {
				log.Printf("Step %d: slice %d out of range, ignored", i+1, *st.Slice)
			}
		case st.Drag != nil:
			scale := sess.View().Scale
			sess.BeginStroke(screenToVolume(st.Drag[0], scale))
			for _, p := range st.Drag[1:] {
				sess.ExtendStroke(screenToVolume(p, scale))
			}
			sess.EndStroke()
		case st.Reset:
			sess.ResetMask()
		}
	}
}
