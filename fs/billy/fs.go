package billy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	parentfs "github.com/openshift-assisted/versions-management/fs"
)

// FS implements the Filesystem interface using go-billy.
type FS struct {
	fs billy.Filesystem
}

var _ parentfs.Filesystem = (*FS)(nil)

// Exists implements Filesystem.Exists.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("billy: stat %q: %w", path, err)
	}
}

// MkdirAll creates path and any missing parents.
func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("billy: mkdirall %q: %w", path, err)
	}
	return nil
}

// ReadFile implements Filesystem.ReadFile.
func (b *FS) ReadFile(path string) ([]byte, error) {
	bts, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("billy: readfile %q: %w", path, err)
	}
	return bts, nil
}

// WriteFile implements Filesystem.WriteFile.
// Parent directories are created when missing.
func (b *FS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if dir := filepath.Dir(filename); dir != "." && dir != "/" {
		if err := b.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := util.WriteFile(b.fs, filename, data, perm); err != nil {
		return fmt.Errorf("billy: writefile %q: %w", filename, err)
	}
	return nil
}

// Raw returns the underlying go-billy filesystem.
//
//nolint:ireturn // returning interface here is intentional to expose the adapter target.
func (b *FS) Raw() billy.Filesystem {
	return b.fs
}

// NewFS creates a new FS using the given go-billy filesystem.
func NewFS(fsys billy.Filesystem) *FS {
	return &FS{
		fs: fsys,
	}
}

// NewInMemoryFS creates a new in-memory filesystem.
func NewInMemoryFS() *FS {
	return &FS{
		fs: memfs.New(),
	}
}

// NewOSFS creates a new OS filesystem rooted at path.
func NewOSFS(path string) *FS {
	return &FS{
		fs: osfs.New(path),
	}
}

