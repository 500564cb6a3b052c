package domain

import (
	"fmt"
	"time"

	"github.com/openshift-assisted/versions-management/errors"
)

// DefaultTagPrefix is applied to release components that do not declare a prefix.
const DefaultTagPrefix = "v"

// Component is an entry of the component registry.
// It is configuration and never persisted by the engine.
type Component struct {
	// Name identifies the component in logs and errors.
	Name string `yaml:"name" json:"name"`

	// Repository is the URL of the component's source repository.
	Repository string `yaml:"repository" json:"repository"`

	// Strategy selects how the current version is resolved.
	Strategy Strategy `yaml:"versioning_selection_mechanism" json:"strategy"`

	// TagPrefix is the release tag prefix. Used when Strategy is StrategyRelease.
	TagPrefix string `yaml:"tag_prefix,omitempty" json:"tag_prefix,omitempty"`

	// ImagePattern is the image repository (without tag) published for each commit.
	// Used when Strategy is StrategyCommit.
	ImagePattern string `yaml:"image_pattern,omitempty" json:"image_pattern,omitempty"`
}

// ApplyDefaults fills optional fields that have a documented default.
func (c *Component) ApplyDefaults() {
	if c.Strategy == StrategyRelease && c.TagPrefix == "" {
		c.TagPrefix = DefaultTagPrefix
	}
}

// Validate checks the component invariants: a known strategy and the parameter that
// strategy requires.
func (c Component) Validate() error {
	ctx := map[string]any{"component": c.Name}

	if c.Name == "" {
		return errors.WrapWithContext(nil, errors.CodeInvalidConfig, "component name is required", ctx)
	}
	if c.Repository == "" {
		return errors.WrapWithContext(nil, errors.CodeInvalidConfig, "component repository is required", ctx)
	}

	switch c.Strategy {
	case StrategyRelease:
		if c.TagPrefix == "" {
			return errors.WrapWithContext(nil, errors.CodeInvalidConfig,
				"release strategy requires a tag prefix", ctx)
		}
	case StrategyCommit:
		if c.ImagePattern == "" {
			return errors.WrapWithContext(nil, errors.CodeInvalidConfig,
				"commit strategy requires an image pattern", ctx)
		}
	default:
		return errors.WrapWithContext(nil, errors.CodeInvalidConfig,
			fmt.Sprintf("unsupported versioning strategy %q, expected one of %v", c.Strategy, Strategies), ctx)
	}

	return nil
}

// ResolvedReference is the concrete outcome of applying a component's strategy:
// a tag or commit, optionally paired with the image published for it.
type ResolvedReference struct {
	// Repository is the source repository URL.
	Repository string `yaml:"repository" json:"repository"`

	// Ref is the tag name or commit hash. Never empty.
	Ref string `yaml:"ref" json:"ref"`

	// ImageURL is the full image reference (image:tag). Only set for commit resolution.
	ImageURL string `yaml:"image_url,omitempty" json:"image_url,omitempty"`
}

// String renders the reference in its canonical repository:ref:image form.
func (r ResolvedReference) String() string {
	return r.Repository + ":" + r.Ref + ":" + r.ImageURL
}

// SnapshotMetadata carries a snapshot's identity and lifecycle state.
type SnapshotMetadata struct {
	// ID is the content-derived identifier, see Fingerprint.
	ID string `yaml:"id" json:"id"`

	// GeneratedAt is when discovery produced the snapshot.
	GeneratedAt time.Time `yaml:"generated_at" json:"generated_at"`

	// Status is the test lifecycle state.
	Status SnapshotStatus `yaml:"status" json:"status"`

	// TestedAt is set when the snapshot leaves StatusPending. Nil while pending.
	TestedAt *time.Time `yaml:"tested_at,omitempty" json:"tested_at,omitempty"`
}

// Validate checks that TestedAt is absent exactly when the snapshot is pending.
func (m SnapshotMetadata) Validate() error {
	ctx := map[string]any{"snapshot": m.ID}

	if m.ID == "" {
		return errors.WrapWithContext(nil, errors.CodeInvalidInput, "snapshot id is required", ctx)
	}
	if !m.Status.Valid() {
		return errors.WrapWithContext(nil, errors.CodeInvalidInput,
			fmt.Sprintf("unknown snapshot status %q", m.Status), ctx)
	}
	if m.Status == StatusPending && m.TestedAt != nil {
		return errors.WrapWithContext(nil, errors.CodeInvalidInput, "pending snapshot cannot have tested_at", ctx)
	}
	if m.Status.IsTerminal() && m.TestedAt == nil {
		return errors.WrapWithContext(nil, errors.CodeInvalidInput, "tested snapshot requires tested_at", ctx)
	}
	return nil
}

// Transition returns the metadata moved from StatusPending to the terminal status,
// stamped with at. Any other transition is rejected.
func (m SnapshotMetadata) Transition(status SnapshotStatus, at time.Time) (SnapshotMetadata, error) {
	if m.Status != StatusPending {
		return m, errors.WrapWithContext(nil, errors.CodeConflict,
			fmt.Sprintf("snapshot already %s", m.Status), map[string]any{"snapshot": m.ID})
	}
	if !status.IsTerminal() {
		return m, errors.WrapWithContext(nil, errors.CodeInvalidInput,
			fmt.Sprintf("cannot transition to %q", status), map[string]any{"snapshot": m.ID})
	}

	tested := at
	m.Status = status
	m.TestedAt = &tested
	return m, nil
}

// Snapshot is an identified bundle of resolved references.
// The reference list is fixed at creation; only Metadata changes afterwards.
type Snapshot struct {
	Metadata SnapshotMetadata    `yaml:"metadata" json:"metadata"`
	Commits  []ResolvedReference `yaml:"commits" json:"commits"`
}

// NewSnapshot creates a pending snapshot for refs whose ID is the fingerprint of refs.
// The references keep the given order. An empty reference list is rejected.
func NewSnapshot(refs []ResolvedReference, generatedAt time.Time) (*Snapshot, error) {
	if len(refs) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "snapshot requires at least one resolved reference")
	}
	for _, ref := range refs {
		if ref.Ref == "" {
			return nil, errors.WrapWithContext(nil, errors.CodeInvalidInput,
				"resolved reference has an empty ref", map[string]any{"repository": ref.Repository})
		}
	}

	commits := make([]ResolvedReference, len(refs))
	copy(commits, refs)

	return &Snapshot{
		Metadata: SnapshotMetadata{
			ID:          Fingerprint(commits),
			GeneratedAt: generatedAt,
			Status:      StatusPending,
		},
		Commits: commits,
	}, nil
}

// Validate checks the metadata invariants and that the snapshot is non-empty.
func (s Snapshot) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return err
	}
	if len(s.Commits) == 0 {
		return errors.WrapWithContext(nil, errors.CodeInvalidInput,
			"snapshot has no resolved references", map[string]any{"snapshot": s.Metadata.ID})
	}
	return nil
}

// Version is a named release promoted from a successful snapshot.
// The engine only reads versions.
type Version struct {
	// Name is the human release identifier, used as the tag name.
	Name string `yaml:"name" json:"name"`

	// Commits is the reference list copied from the promoted snapshot.
	Commits []ResolvedReference `yaml:"commits" json:"commits"`
}
