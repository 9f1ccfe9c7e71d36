package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Dir archives snapshots as files in a local directory.
type Dir struct {
	path string
}

func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) Archive(_ context.Context, name string, payload []byte) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("create snapshots dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.path, name), payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return nil
}
