// Package home manages the sheetdex home directory layout: config,
// DefraDB data, rendered page images, and title-block crops.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the sheetdex home directory.
	DefaultDirName = ".sheetdex"

	// DefraDirName is the subdirectory for DefraDB data.
	DefraDirName = "defradb"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the sheetdex home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.sheetdex).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DefraDataPath returns the path to the DefraDB data directory.
func (d *Dir) DefraDataPath() string {
	return filepath.Join(d.path, DefraDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.DefraDataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create defra data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// RendersDir returns the directory for rendered page images of a job.
func (d *Dir) RendersDir(jobID string) string {
	return filepath.Join(d.path, "renders", jobID)
}

// RenderPath returns the path to a specific rendered page.
// Page numbers are 1-indexed.
func (d *Dir) RenderPath(jobID string, pageNum int) string {
	return filepath.Join(d.RendersDir(jobID), fmt.Sprintf("page_%04d.png", pageNum))
}

// EnsureRendersDir creates the renders directory for a job.
func (d *Dir) EnsureRendersDir(jobID string) error {
	return os.MkdirAll(d.RendersDir(jobID), 0o755)
}

// CropsDir returns the directory for title-block crops of a job.
func (d *Dir) CropsDir(jobID string) string {
	return filepath.Join(d.path, "crops", jobID)
}

// CropPath returns the path to a page's title-block crop.
func (d *Dir) CropPath(jobID string, pageNum int) string {
	return filepath.Join(d.CropsDir(jobID), fmt.Sprintf("titleblock_%04d.png", pageNum))
}

// EnsureCropsDir creates the crops directory for a job.
func (d *Dir) EnsureCropsDir(jobID string) error {
	return os.MkdirAll(d.CropsDir(jobID), 0o755)
}
