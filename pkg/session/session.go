// Package session owns the state of one annotation session: the loaded
// volume, its projection, the view, the stroke recorder and the log of
// committed scribbles.
//
// All mutating operations take the session lock, so a front end that
// delivers input from more than one goroutine still observes each
// operation as atomic.
package session

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"scribblemask/internal/models"
	"scribblemask/pkg/config"
	"scribblemask/pkg/mask"
	"scribblemask/pkg/projection"
	"scribblemask/pkg/scribble"
	"scribblemask/pkg/view"
	"scribblemask/pkg/volumeio"
)

var (
	// ErrInvalidMaskDestination is returned when saving to an empty or
	// malformed path
	ErrInvalidMaskDestination = errors.New("invalid mask destination")

	// ErrNoVolume is returned by operations that need a loaded volume
	ErrNoVolume = errors.New("no volume loaded")

	// ErrEmptyVolume is returned when attaching a volume with a zero
	// extent or mismatched sample count
	ErrEmptyVolume = errors.New("empty volume")
)

// Session is one annotation session
type Session struct {
	mu sync.Mutex

	cfg *config.Config

	imagePath string
	maskPath  string

	volume    *models.Volume
	projected *models.Volume

	view     view.State
	recorder *scribble.Recorder
	log      scribble.Log
}

// New creates an empty session. A nil or invalid configuration is
// replaced by the defaults.
func New(cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else if err := cfg.Validate(); err != nil {
		log.Printf("Warning: %v, using default configuration", err)
		cfg = config.DefaultConfig()
	}
	return &Session{cfg: cfg}
}

// Load reads a volume and makes it current. On failure the session is
// left exactly as it was.
func (s *Session) Load(path string) error {
	vol, err := volumeio.Load(path, s.cfg.LoaderOptions())
	if err != nil {
		return err
	}
	return s.Attach(path, vol)
}

// Attach makes vol the current volume, as if it had been loaded from
// path. The view, scribble log and mask destination are reset. A volume
// with a zero extent is rejected and the session is left unchanged.
func (s *Session) Attach(path string, vol *models.Volume) error {
	if vol == nil || vol.Frames < 1 || vol.Slices < 1 || vol.Height < 1 || vol.Width < 1 {
		return ErrEmptyVolume
	}
	if len(vol.Data) != vol.Frames*vol.Slices*vol.Height*vol.Width {
		return fmt.Errorf("%w: %d samples for shape %v", ErrEmptyVolume, len(vol.Data), vol.Shape())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.imagePath = path
	s.maskPath = volumeio.DefaultMaskPath(path, s.cfg.Mask.Suffix)
	s.volume = vol
	s.view.Attach(vol.Frames, vol.Slices, s.cfg.ViewDefaults())
	s.recorder = scribble.NewRecorder(vol.Height, vol.Width)
	s.log.Reset()
	s.reproject()

	if s.cfg.Output.Verbose {
		sum := projection.Summarize(vol)
		log.Printf("Loaded %s: shape %v, range [%g, %g], mean %.3f, std %.3f",
			path, vol.Shape(), sum.Min, sum.Max, sum.Mean, sum.StdDev)
	}
	return nil
}

// Close discards the volume and everything derived from it
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.imagePath = ""
	s.maskPath = ""
	s.volume = nil
	s.projected = nil
	s.view.Detach()
	s.recorder = nil
	s.log.Reset()
}

// Loaded reports whether a volume is attached
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume != nil
}

// ImagePath returns the path the current volume was loaded from
func (s *Session) ImagePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imagePath
}

// Volume returns the loaded volume, or nil
func (s *Session) Volume() *models.Volume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Projected returns the volume as currently projected, or nil
func (s *Session) Projected() *models.Volume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projected
}

// View returns a copy of the view state
func (s *Session) View() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// ToggleProjection flips the projection of axis and rebuilds the
// projected volume. Without a volume it does nothing.
func (s *Session) ToggleProjection(axis models.Axis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume == nil || !s.view.ToggleProjection(axis) {
		return false
	}
	s.reproject()
	if s.cfg.Output.Verbose {
		log.Printf("Projection %s=%v, displayed shape %v", axis, s.view.Projected(axis), s.projected.Shape())
	}
	return true
}

// SetAxisIndex moves the cursor on axis; out-of-range values are ignored
func (s *Session) SetAxisIndex(axis models.Axis, value int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.SetAxisIndex(axis, value)
}

// ZoomIn doubles the display scale
func (s *Session) ZoomIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.ZoomIn()
}

// ZoomOut halves the display scale
func (s *Session) ZoomOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.ZoomOut()
}

// BeginStroke starts a drag at p, in volume coordinates
func (s *Session) BeginStroke(p models.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder != nil {
		s.recorder.Begin(p)
	}
}

// ExtendStroke adds p to the drag in progress
func (s *Session) ExtendStroke(p models.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder != nil {
		s.recorder.Extend(p)
	}
}

// EndStroke commits the drag in progress. Under slice projection it is
// committed to every slice, otherwise to the current slice. It returns
// the number of scribbles added to the log.
func (s *Session) EndStroke() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder == nil {
		return 0
	}

	target := scribble.Single(s.view.SliceIndex)
	if s.view.ProjectSlice {
		target = scribble.AllSlices()
	}
	n := s.recorder.End(target, s.volume.Slices, &s.log)
	if n > 0 && s.cfg.Output.Verbose {
		log.Printf("Committed stroke to %s (%d scribbles in log)", target, s.log.Len())
	}
	return n
}

// CancelStroke drops the drag in progress
func (s *Session) CancelStroke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder != nil {
		s.recorder.Cancel()
	}
}

// CurrentStroke returns the points of the drag in progress
func (s *Session) CurrentStroke() []models.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Current()
}

// Scribbles returns the committed scribbles in commit order
func (s *Session) Scribbles() []scribble.Scribble {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Entries()
}

// VisibleScribbles returns the scribbles to draw over the display: all
// of them under slice projection, otherwise those on the current slice
func (s *Session) VisibleScribbles() []scribble.Scribble {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.log.Entries()
	if s.view.ProjectSlice {
		return entries
	}
	var out []scribble.Scribble
	for _, sc := range entries {
		if sc.Slice == s.view.SliceIndex {
			out = append(out, sc)
		}
	}
	return out
}

// ResetMask clears the scribble log
func (s *Session) ResetMask() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Reset()
	if s.recorder != nil {
		s.recorder.Cancel()
	}
	if s.cfg.Output.Verbose {
		log.Printf("Mask reset")
	}
}

// Mask rebuilds the mask from the scribble log
func (s *Session) Mask() (*models.Mask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volume == nil {
		return nil, ErrNoVolume
	}
	return mask.Rebuild(s.volume.MaskShape(), s.log.Entries()), nil
}

// MaskDestination returns the path Save writes to
func (s *Session) MaskDestination() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maskPath
}

// SetMaskDestination overrides the path Save writes to. The path is
// validated when saving.
func (s *Session) SetMaskDestination(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maskPath = path
}

// Save rebuilds the mask from the full scribble log and writes it to the
// mask destination. The log is not modified, so a failed save can be
// retried.
func (s *Session) Save() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.volume == nil {
		return "", ErrNoVolume
	}
	if err := validateDestination(s.maskPath); err != nil {
		return "", err
	}

	m := mask.Rebuild(s.volume.MaskShape(), s.log.Entries())
	if err := volumeio.SaveMask(s.maskPath, m); err != nil {
		return "", err
	}
	if s.cfg.Output.Verbose {
		log.Printf("Saved mask %s: %d foreground voxels from %d scribbles",
			s.maskPath, m.Count(mask.Foreground), s.log.Len())
	}
	return s.maskPath, nil
}

// Display renders the current frame and slice of the projected volume.
// A flat volume is shown as neutral gray and reported with
// projection.ErrDegenerateRange.
func (s *Session) Display() (*image.Gray, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.projected == nil {
		return nil, ErrNoVolume
	}
	img, err := projection.Render(s.projected, s.view.FrameIndex, s.view.SliceIndex)
	if errors.Is(err, projection.ErrDegenerateRange) {
		return projection.Neutral(s.projected.Height, s.projected.Width), err
	}
	return img, err
}

func (s *Session) reproject() {
	s.projected = projection.Project(s.volume, projection.Flags{
		Frame: s.view.ProjectFrame,
		Slice: s.view.ProjectSlice,
	})
}

func validateDestination(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidMaskDestination)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidMaskDestination, path)
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return fmt.Errorf("%w: %q names a directory", ErrInvalidMaskDestination, path)
	}
	switch filepath.Base(path) {
	case ".", "..":
		return fmt.Errorf("%w: %q has no file name", ErrInvalidMaskDestination, path)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %q is a directory", ErrInvalidMaskDestination, path)
	}
	return nil
}
