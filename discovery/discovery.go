// Package discovery resolves every registered component concurrently and records the
// result as a new pending snapshot.
package discovery

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
)

// DefaultWidth bounds the number of components resolved at once.
const DefaultWidth = 8

// ComponentResolver resolves a single component.
type ComponentResolver interface {
	Resolve(ctx context.Context, component domain.Component) (domain.ResolvedReference, error)
}

// ComponentSource lists the registered components.
type ComponentSource interface {
	FindAll(ctx context.Context) ([]domain.Component, error)
}

// SnapshotStore records snapshots.
type SnapshotStore interface {
	FindByID(ctx context.Context, id string) (*domain.Snapshot, error)
	Save(ctx context.Context, s domain.Snapshot) (bool, error)
}

// Service runs discovery.
type Service struct {
	resolver   ComponentResolver
	components ComponentSource
	snapshots  SnapshotStore
	width      int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWidth sets the maximum number of concurrent resolutions.
func WithWidth(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.width = n
		}
	}
}

// WithClock sets the clock used to stamp new snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service.
func New(resolver ComponentResolver, components ComponentSource, snapshots SnapshotStore, opts ...Option) *Service {
	s := &Service{
		resolver:   resolver,
		components: components,
		snapshots:  snapshots,
		width:      DefaultWidth,
		now:        time.Now,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Discover resolves components and returns a new pending snapshot of the results.
//
// Resolutions run concurrently, at most the configured width at a time. The first
// failure aborts discovery: it is returned as a CodeDiscoveryFailed error naming the
// component and every partial result is discarded.
func (s *Service) Discover(ctx context.Context, components []domain.Component) (*domain.Snapshot, error) {
	if len(components) == 0 {
		return nil, errors.New(errors.CodeDiscoveryFailed, "no components registered")
	}

	refs := make([]domain.ResolvedReference, len(components))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.width)

	for i, component := range components {
		g.Go(func() error {
			ref, err := s.resolver.Resolve(gctx, component)
			if err != nil {
				return errors.WrapWithContext(err, errors.CodeDiscoveryFailed, "discovery aborted",
					map[string]any{"component": component.Name})
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("discovery failed", "error", err)
		return nil, err
	}

	snapshot, err := domain.NewSnapshot(refs, s.now().UTC())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDiscoveryFailed, "failed to build snapshot")
	}

	s.logger.Info("discovery completed", "snapshot", snapshot.Metadata.ID, "references", len(refs))
	return snapshot, nil
}

// Run loads the registered components, discovers them and records the snapshot.
// A snapshot whose ID or reference set is already recorded is a CodePersistenceFailed
// error wrapping CodeAlreadyExists.
func (s *Service) Run(ctx context.Context) (*domain.Snapshot, error) {
	components, err := s.components.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDiscoveryFailed, "failed to load components")
	}

	snapshot, err := s.Discover(ctx, components)
	if err != nil {
		return nil, err
	}

	errCtx := map[string]any{"snapshot": snapshot.Metadata.ID}

	existing, err := s.snapshots.FindByID(ctx, snapshot.Metadata.ID)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistenceFailed, "failed to look up snapshot", errCtx)
	}
	if existing != nil {
		return nil, errors.WrapWithContext(
			errors.New(errors.CodeAlreadyExists, "snapshot already recorded"),
			errors.CodePersistenceFailed, "snapshot not saved", errCtx)
	}

	saved, err := s.snapshots.Save(ctx, *snapshot)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistenceFailed, "failed to save snapshot", errCtx)
	}
	if !saved {
		return nil, errors.WrapWithContext(
			errors.New(errors.CodeAlreadyExists, "snapshot with the same references already recorded"),
			errors.CodePersistenceFailed, "snapshot not saved", errCtx)
	}

	s.logger.Info("snapshot saved", "snapshot", snapshot.Metadata.ID)
	return snapshot, nil
}
