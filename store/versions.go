package store

import (
	"context"
	"log/slog"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/fs"
)

const versionsKey = "versions"

// VersionRepository reads promoted versions. Versions are owned by the promotion
// process, so the repository never writes.
type VersionRepository struct {
	fs     fs.Filesystem
	path   string
	logger *slog.Logger
}

// NewVersionRepository creates a reader for path on fsys.
func NewVersionRepository(fsys fs.Filesystem, path string, opts ...Option) *VersionRepository {
	o := buildOptions(opts)
	return &VersionRepository{fs: fsys, path: path, logger: o.logger}
}

// FindAll returns every version in file order. A missing file yields no versions.
func (r *VersionRepository) FindAll(ctx context.Context) ([]domain.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistenceFailed, "version repository")
	}

	doc, err := LoadDocument(r.fs, r.path)
	if err != nil {
		return nil, err
	}

	var versions []domain.Version
	if err := doc.Decode(versionsKey, &versions); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistenceFailed,
			"invalid version collection", map[string]any{"path": r.path})
	}

	r.logger.Debug("versions loaded", "path", r.path, "versions", len(versions))
	return versions, nil
}
