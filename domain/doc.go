// Package domain provides the canonical type definitions shared by every stage of
// versions-management: the component registry entries, the references a component
// resolves to, snapshots of those references and the named versions promoted from them.
//
// # Domain Model
//
//   - Component: a tracked repository plus the Strategy used to pick its current version
//   - ResolvedReference: the tag or commit (optionally paired with an image) a component resolved to
//   - Snapshot: an identified, ordered bundle of resolved references with SnapshotMetadata
//   - Version: a named, promoted set of resolved references
//
// # Identity
//
// A snapshot's ID is derived from its references by Fingerprint. The fingerprint is
// order independent, so two discovery runs that resolve the same set of references produce
// the same ID regardless of completion order or timestamps:
//
//	snap, err := domain.NewSnapshot(refs, time.Now())
//	// snap.Metadata.ID == domain.Fingerprint(refs)
//
// The fingerprint identifies content. It is not an integrity check and must not be used as one.
//
// # Lifecycle
//
// Snapshots start as StatusPending and move exactly once to StatusSuccessful or
// StatusFailed through SnapshotMetadata.Transition, which also stamps TestedAt.
//
// # Serialization
//
// Struct tags match the layout of components.yaml, release-candidates.yaml and
// versions.yaml, so files already checked into a repository load unchanged.
package domain
