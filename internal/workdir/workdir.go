// Package workdir owns the harness scratch space: the workspace directory
// holding the configuration sink and the per-scenario data directories.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvFileName is the configuration sink file inside the workspace.
const EnvFileName = "scenario.env"

// dataDirName is the subdirectory grouping per-scenario data directories.
const dataDirName = "data"

type Workdir struct {
	root string
}

// Open ensures the workspace directory exists and returns a handle to it.
func Open(root string) (*Workdir, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace directory cannot be empty")
	}

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory %s: %w", root, err)
	}

	return &Workdir{root: root}, nil
}

func (w *Workdir) Root() string {
	return w.root
}

// EnvFilePath is where scenarios write the configuration sink.
func (w *Workdir) EnvFilePath() string {
	return filepath.Join(w.root, EnvFileName)
}

// FreshDataDir returns an absolute path to an empty data directory for the
// named scenario, clearing anything a prior run left behind.
func (w *Workdir) FreshDataDir(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	return FreshDir(filepath.Join(w.root, dataDirName, name))
}

// FreshDir empties and recreates a data directory, returning its absolute
// path. The container runtime requires absolute paths for bind mounts. Also
// used directly when the suite points volume persistence at external storage.
func FreshDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory %s: %w", path, err)
	}

	if err := os.RemoveAll(abs); err != nil {
		return "", fmt.Errorf("failed to clear data directory %s: %w", abs, err)
	}

	if err := os.MkdirAll(abs, 0750); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", abs, err)
	}

	return abs, nil
}

// Remove deletes the entire workspace.
func (w *Workdir) Remove() error {
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("failed to remove workspace directory %s: %w", w.root, err)
	}
	return nil
}

// validateName rejects names that would escape the workspace when joined
// into a path.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("data directory name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("unsafe data directory name: %s", name)
	}
	return nil
}
