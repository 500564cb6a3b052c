package store

import (
	"context"
	"log/slog"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/fs"
)

const componentsKey = "components"

// ComponentRepository reads the component registry.
type ComponentRepository struct {
	fs     fs.Filesystem
	path   string
	logger *slog.Logger
}

// NewComponentRepository creates a registry reader for path on fsys.
func NewComponentRepository(fsys fs.Filesystem, path string, opts ...Option) *ComponentRepository {
	o := buildOptions(opts)
	return &ComponentRepository{fs: fsys, path: path, logger: o.logger}
}

// FindAll returns every declared component with defaults applied.
// A missing file is an empty registry. Any invalid entry fails the whole read.
func (r *ComponentRepository) FindAll(ctx context.Context) ([]domain.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistenceFailed, "component repository")
	}

	doc, err := LoadDocument(r.fs, r.path)
	if err != nil {
		return nil, err
	}

	var components []domain.Component
	if err := doc.Decode(componentsKey, &components); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"invalid component registry", map[string]any{"path": r.path})
	}

	for i := range components {
		components[i].ApplyDefaults()
		if err := components[i].Validate(); err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
				"invalid component", map[string]any{"path": r.path, "index": i})
		}
	}

	r.logger.Debug("component registry loaded", "path", r.path, "components", len(components))
	return components, nil
}
