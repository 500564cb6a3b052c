// Package resolver turns a component's versioning strategy into a concrete reference.
//
// Release components resolve to the newest non-prerelease release whose tag carries the
// component's prefix. Commit components resolve to the newest commit of the default
// branch for which CI has published a "latest-<sha>" image.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/hosting"
)

const (
	// DefaultCommitLookback is the number of recent commits probed for an image.
	DefaultCommitLookback = 20

	// ImageTagPrefix prefixes the commit SHA in the tag of CI-built images.
	ImageTagPrefix = "latest-"
)

// ImageChecker reports whether an image tag is published.
type ImageChecker interface {
	Exists(ctx context.Context, image, tag string) (bool, error)
}

// Resolver resolves components against a code host and an image registry.
type Resolver struct {
	hosting  hosting.Client
	images   ImageChecker
	lookback int
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCommitLookback sets how many commits are probed for commit components.
func WithCommitLookback(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.lookback = n
		}
	}
}

// WithLogger sets the logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver.
func New(hostingClient hosting.Client, images ImageChecker, opts ...Option) *Resolver {
	r := &Resolver{
		hosting:  hostingClient,
		images:   images,
		lookback: DefaultCommitLookback,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the reference component currently resolves to.
// Every failure is a CodeResolutionFailed error naming the component and repository.
func (r *Resolver) Resolve(ctx context.Context, component domain.Component) (domain.ResolvedReference, error) {
	errCtx := map[string]any{
		"component":  component.Name,
		"repository": component.Repository,
	}

	if err := component.Validate(); err != nil {
		return domain.ResolvedReference{}, errors.WrapWithContext(err, errors.CodeResolutionFailed, "invalid component", errCtx)
	}

	repo, err := r.hosting.Repository(ctx, hosting.FullName(component.Repository))
	if err != nil {
		return domain.ResolvedReference{}, errors.WrapWithContext(err, errors.CodeResolutionFailed, "failed to open repository", errCtx)
	}

	var ref domain.ResolvedReference
	switch component.Strategy {
	case domain.StrategyRelease:
		ref, err = r.resolveRelease(ctx, repo, component)
	case domain.StrategyCommit:
		ref, err = r.resolveCommit(ctx, repo, component)
	default:
		err = errors.Newf(errors.CodeInvalidConfig, "unknown strategy %q", component.Strategy)
	}
	if err != nil {
		return domain.ResolvedReference{}, errors.WrapWithContext(err, errors.CodeResolutionFailed, "failed to resolve component", errCtx)
	}

	r.logger.Info("resolved component",
		"component", component.Name,
		"repository", component.Repository,
		"strategy", component.Strategy.String(),
		"ref", ref.Ref,
	)
	return ref, nil
}

func (r *Resolver) resolveRelease(ctx context.Context, repo hosting.Repository, component domain.Component) (domain.ResolvedReference, error) {
	releases, err := repo.ListReleases(ctx)
	if err != nil {
		return domain.ResolvedReference{}, errors.Wrap(err, errors.CodeNetwork, "failed to list releases")
	}

	for _, release := range releases {
		if release.Prerelease || !strings.HasPrefix(release.TagName, component.TagPrefix) {
			continue
		}
		return domain.ResolvedReference{
			Repository: component.Repository,
			Ref:        release.TagName,
		}, nil
	}

	return domain.ResolvedReference{}, errors.Newf(errors.CodeNotFound,
		"no release with prefix %q among %d releases", component.TagPrefix, len(releases))
}

func (r *Resolver) resolveCommit(ctx context.Context, repo hosting.Repository, component domain.Component) (domain.ResolvedReference, error) {
	commits, err := repo.ListCommits(ctx, r.lookback)
	if err != nil {
		return domain.ResolvedReference{}, errors.Wrap(err, errors.CodeNetwork, "failed to list commits")
	}

	for _, commit := range commits {
		tag := ImageTagPrefix + commit.SHA
		found, err := r.images.Exists(ctx, component.ImagePattern, tag)
		if err != nil {
			return domain.ResolvedReference{}, errors.Wrapf(err, errors.CodeNetwork, "failed to check image %s:%s", component.ImagePattern, tag)
		}

		r.logger.Debug("probed image", "image", component.ImagePattern, "tag", tag, "found", found)
		if !found {
			continue
		}

		return domain.ResolvedReference{
			Repository: component.Repository,
			Ref:        commit.SHA,
			ImageURL:   component.ImagePattern + ":" + tag,
		}, nil
	}

	return domain.ResolvedReference{}, errors.Newf(errors.CodeNotFound,
		"no image %s found for the last %d commits", component.ImagePattern, len(commits))
}
