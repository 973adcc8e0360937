package volumeio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scribblemask/internal/models"
)

// DefaultMaskSuffix is appended to the image name to form the mask name
const DefaultMaskSuffix = "-mask.tif"

// DefaultMaskPath derives the mask path of an image: same directory,
// base name up to its first dot, followed by suffix
func DefaultMaskPath(imagePath, suffix string) string {
	if imagePath == "" {
		return ""
	}
	if suffix == "" {
		suffix = DefaultMaskSuffix
	}
	dir := filepath.Dir(imagePath)
	id, _, _ := strings.Cut(filepath.Base(imagePath), ".")
	return filepath.Join(dir, id+suffix)
}

// SaveMask writes m as a multi-page 8-bit TIFF. The file is written to a
// temporary name in the destination directory and renamed into place, so
// a failed save leaves any existing file untouched.
func SaveMask(path string, m *models.Mask) error {
	if m.Slices < 1 || m.Height < 1 || m.Width < 1 {
		return fmt.Errorf("mask has empty shape %+v", m.MaskShape)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mask-*.tif")
	if err != nil {
		return fmt.Errorf("failed to create mask file: %w", err)
	}
	defer os.Remove(tmp.Name())

	pages := make([][]uint8, m.Slices)
	for z := range pages {
		pages[z] = m.Page(z)
	}
	if err := writeGray8Pages(tmp, pages, m.Width, m.Height, imageJDescription(m.Slices)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write mask: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write mask: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write mask: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write mask: %w", err)
	}
	return nil
}

// LoadMask reads a mask written by SaveMask
func LoadMask(path string) (*models.Mask, error) {
	vol, err := LoadTIFF(path, Options{Workers: 1})
	if err != nil {
		return nil, err
	}
	if vol.Frames != 1 {
		return nil, fmt.Errorf("%s: mask has %d frames", path, vol.Frames)
	}
	m := models.NewMask(vol.MaskShape())
	for i, v := range vol.Data {
		m.Data[i] = uint8(v)
	}
	return m, nil
}
