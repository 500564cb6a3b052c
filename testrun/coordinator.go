// Package testrun runs the test suite against a pending snapshot and records the outcome.
package testrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
)

// SelectionPolicy chooses which pending snapshot is tested when several are waiting.
type SelectionPolicy int

const (
	// SelectNewest tests the most recently generated pending snapshot.
	SelectNewest SelectionPolicy = iota

	// SelectOldest tests the earliest generated pending snapshot.
	SelectOldest
)

// String returns the flag value of p.
func (p SelectionPolicy) String() string {
	switch p {
	case SelectNewest:
		return "newest"
	case SelectOldest:
		return "oldest"
	default:
		return fmt.Sprintf("SelectionPolicy(%d)", int(p))
	}
}

// ParseSelectionPolicy parses "newest" or "oldest".
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch s {
	case "newest", "":
		return SelectNewest, nil
	case "oldest":
		return SelectOldest, nil
	default:
		return 0, errors.Newf(errors.CodeInvalidInput, "unknown selection policy %q, want newest or oldest", s)
	}
}

// Select picks a snapshot from pending, which is in storage order. Ties on GeneratedAt
// go to the snapshot stored first. It returns nil for an empty list.
func (p SelectionPolicy) Select(pending []domain.Snapshot) *domain.Snapshot {
	var picked *domain.Snapshot
	for i := range pending {
		s := &pending[i]
		if picked == nil {
			picked = s
			continue
		}
		switch p {
		case SelectOldest:
			if s.Metadata.GeneratedAt.Before(picked.Metadata.GeneratedAt) {
				picked = s
			}
		default:
			if s.Metadata.GeneratedAt.After(picked.Metadata.GeneratedAt) {
				picked = s
			}
		}
	}
	return picked
}

// SnapshotStore is the part of the snapshot repository the coordinator uses.
type SnapshotStore interface {
	FindByStatus(ctx context.Context, status domain.SnapshotStatus) ([]domain.Snapshot, error)
	Update(ctx context.Context, s domain.Snapshot) error
}

// Coordinator tests one pending snapshot per run.
type Coordinator struct {
	snapshots SnapshotStore
	runner    Runner
	env       EnvTable
	policy    SelectionPolicy
	playbook  string
	inventory string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSelectionPolicy sets how the pending snapshot is chosen.
func WithSelectionPolicy(p SelectionPolicy) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithEnvTable replaces DefaultEnvTable.
func WithEnvTable(t EnvTable) Option {
	return func(c *Coordinator) {
		c.env = t
	}
}

// WithPlaybook sets the playbook and inventory paths.
func WithPlaybook(playbook, inventory string) Option {
	return func(c *Coordinator) {
		if playbook != "" {
			c.playbook = playbook
		}
		if inventory != "" {
			c.inventory = inventory
		}
	}
}

// WithClock sets the clock used for the test time.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator.
func New(snapshots SnapshotStore, runner Runner, opts ...Option) *Coordinator {
	c := &Coordinator{
		snapshots: snapshots,
		runner:    runner,
		env:       DefaultEnvTable(),
		policy:    SelectNewest,
		playbook:  DefaultPlaybook,
		inventory: DefaultInventory,
		now:       time.Now,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RunPendingTest tests a pending snapshot and records the outcome.
//
// Without a pending snapshot it does nothing. Otherwise the snapshot is transitioned to
// successful or failed, with a runner error counting as failed, and stored exactly once.
// Only storage failures are returned.
func (c *Coordinator) RunPendingTest(ctx context.Context) error {
	pending, err := c.snapshots.FindByStatus(ctx, domain.StatusPending)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistenceFailed, "failed to load pending snapshots")
	}

	snapshot := c.policy.Select(pending)
	if snapshot == nil {
		c.logger.Info("no pending snapshot found")
		return nil
	}

	logger := c.logger.With("snapshot", snapshot.Metadata.ID)
	logger.Info("testing snapshot", "policy", c.policy.String(), "pending", len(pending))

	export := c.env.Export(*snapshot)
	for _, skip := range export.Skipped {
		logger.Warn("reference not exported",
			"repository", skip.Reference.Repository,
			"ref", skip.Reference.Ref,
			"reason", skip.Reason,
		)
	}
	for _, name := range export.Names() {
		logger.Info("exported variable", "name", name, "value", export.Vars[name])
	}

	status := domain.StatusFailed
	passed, err := c.runner.Run(ctx, c.playbook, c.inventory, export.Vars)
	switch {
	case err != nil:
		logger.Error("test run could not complete", "error", err)
	case passed:
		status = domain.StatusSuccessful
	default:
		logger.Error("test run failed")
	}

	metadata, err := snapshot.Metadata.Transition(status, c.now().UTC())
	if err != nil {
		return errors.Wrap(err, errors.CodePersistenceFailed, "invalid snapshot transition")
	}

	updated := domain.Snapshot{Metadata: metadata, Commits: snapshot.Commits}
	if err := c.snapshots.Update(ctx, updated); err != nil {
		return errors.Wrap(err, errors.CodePersistenceFailed, "failed to record test outcome")
	}

	logger.Info("test outcome recorded", "status", status.String())
	return nil
}
