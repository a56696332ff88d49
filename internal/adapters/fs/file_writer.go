package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// FileWriterAdapter handles file system operations for generated artifacts.
// Relative paths resolve against the project root.
type FileWriterAdapter struct {
	root string
}

// NewFileWriterAdapter creates a new file writer adapter
func NewFileWriterAdapter(cfg *config.RuntimeConfig) (*FileWriterAdapter, error) {
	return &FileWriterAdapter{root: cfg.ProjectRoot}, nil
}

func (f *FileWriterAdapter) resolve(path string) string {
	if filepath.IsAbs(path) || f.root == "" {
		return path
	}
	return filepath.Join(f.root, path)
}

// WriteFile writes content to a file, creating parent directories
func (f *FileWriterAdapter) WriteFile(ctx context.Context, path string, content []byte) error {
	path = f.resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return os.WriteFile(path, content, 0644)
}

// ReadFile reads a file
func (f *FileWriterAdapter) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(f.resolve(path))
}

// FileExists checks if a file exists
func (f *FileWriterAdapter) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(f.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// EnsureDirectory ensures a directory exists
func (f *FileWriterAdapter) EnsureDirectory(ctx context.Context, path string) error {
	return os.MkdirAll(f.resolve(path), 0755)
}

// Ensure the adapter implements the interface
var _ usecase.FileWriter = (*FileWriterAdapter)(nil)
