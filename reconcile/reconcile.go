// Package reconcile makes sure every promoted version is tagged on the repositories the
// engine governs.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/hosting"
)

const (
	// DefaultGovernedPrefix selects the repositories whose tags are managed.
	DefaultGovernedPrefix = "openshift/"

	// DefaultMessageTemplate formats the annotated tag message from the version name.
	DefaultMessageTemplate = "Version %s - Tagged by CI"
)

// VersionSource lists the promoted versions.
type VersionSource interface {
	FindAll(ctx context.Context) ([]domain.Version, error)
}

// Engine reconciles version tags.
type Engine struct {
	hosting  hosting.Client
	versions VersionSource
	prefix   string
	message  string
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGovernedPrefix sets the "org/" prefix of governed repositories.
func WithGovernedPrefix(prefix string) Option {
	return func(e *Engine) {
		if prefix != "" {
			e.prefix = prefix
		}
	}
}

// WithMessageTemplate sets the tag message template. It receives the version name.
func WithMessageTemplate(template string) Option {
	return func(e *Engine) {
		if template != "" {
			e.message = template
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine.
func New(hostingClient hosting.Client, versions VersionSource, opts ...Option) *Engine {
	e := &Engine{
		hosting:  hostingClient,
		versions: versions,
		prefix:   DefaultGovernedPrefix,
		message:  DefaultMessageTemplate,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run loads the versions and reconciles them.
func (e *Engine) Run(ctx context.Context) error {
	versions, err := e.versions.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeReconciliationFailed, "failed to load versions")
	}
	return e.Reconcile(ctx, versions)
}

// Reconcile tags every governed reference of every version with the version name.
//
// Existing tags are left alone. Within a version every governed reference is attempted;
// if any failed, reconciliation stops after that version and the failures are returned
// as a CodeReconciliationFailed error.
func (e *Engine) Reconcile(ctx context.Context, versions []domain.Version) error {
	for _, version := range versions {
		if version.Name == "" {
			e.logger.Warn("skipping version without name", "references", len(version.Commits))
			continue
		}

		var failures []error
		for _, ref := range version.Commits {
			if err := e.reconcileReference(ctx, version.Name, ref); err != nil {
				e.logger.Error("tag operation failed", "version", version.Name, "repository", ref.Repository, "error", err)
				failures = append(failures, err)
			}
		}

		if len(failures) > 0 {
			return errors.WrapWithContext(errors.Join(failures...), errors.CodeReconciliationFailed,
				"tag reconciliation aborted", map[string]any{"version": version.Name, "failures": len(failures)})
		}
	}
	return nil
}

func (e *Engine) reconcileReference(ctx context.Context, tag string, ref domain.ResolvedReference) error {
	name := hosting.FullName(ref.Repository)
	logger := e.logger.With("repository", name, "tag", tag)

	if !strings.HasPrefix(name, e.prefix) {
		logger.Debug("repository not governed")
		return nil
	}
	if ref.Ref == "" {
		logger.Warn("skipping reference without ref")
		return nil
	}

	errCtx := map[string]any{"repository": name, "tag": tag}

	repo, err := e.hosting.Repository(ctx, name)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeTagOperationFailed, "failed to open repository", errCtx)
	}

	exists, err := repo.TagExists(ctx, tag)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeTagOperationFailed, "failed to check tag", errCtx)
	}
	if exists {
		logger.Info("tag already exists")
		return nil
	}

	tagSHA, err := repo.CreateTag(ctx, tag, fmt.Sprintf(e.message, tag), ref.Ref)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeTagOperationFailed, "failed to create tag object", errCtx)
	}
	if err := repo.CreateTagRef(ctx, tag, tagSHA); err != nil {
		return errors.WrapWithContext(err, errors.CodeTagOperationFailed, "failed to create tag ref", errCtx)
	}

	logger.Info("tag created", "ref", ref.Ref, "tag_sha", tagSHA)
	return nil
}
