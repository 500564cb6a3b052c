package billy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	parentfs "github.com/openshift-assisted/versions-management/fs"
	"github.com/openshift-assisted/versions-management/fs/fstest"
)

func TestInMemoryFS_Suite(t *testing.T) {
	fstest.TestSuite(t, func() parentfs.Filesystem {
		return NewInMemoryFS()
	})
}

func TestOSFS_Suite(t *testing.T) {
	fstest.TestSuite(t, func() parentfs.Filesystem {
		return NewOSFS(t.TempDir())
	})
}

func TestBaseOSFS_AbsolutePath(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "release-candidates.yaml")

	fs := NewBaseOSFS()
	require.NoError(t, fs.WriteFile(p, []byte("snapshots: []\n"), 0o644))

	got, err := NewOSFS(root).ReadFile("release-candidates.yaml")
	require.NoError(t, err)
	assert.Equal(t, "snapshots: []\n", string(got))
}
