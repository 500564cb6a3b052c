package store

import (
	"context"
	"log/slog"
	"slices"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/fs"
)

const snapshotsKey = "snapshots"

var snapshotIdentity = KeyPath("metadata", "id")

// SnapshotRepository is the ordered, newest-first collection of snapshots persisted in
// a single YAML document. It is the only writer of that document.
//
// Every operation reads the whole document and every mutation writes it back. The
// repository assumes a single process works on the file at a time.
type SnapshotRepository struct {
	fs     fs.Filesystem
	path   string
	logger *slog.Logger
}

// NewSnapshotRepository creates a repository backed by path on fsys.
func NewSnapshotRepository(fsys fs.Filesystem, path string, opts ...Option) *SnapshotRepository {
	o := buildOptions(opts)
	return &SnapshotRepository{
		fs:     fsys,
		path:   path,
		logger: o.logger,
	}
}

// FindAll returns every snapshot in storage order. A missing file is an empty collection.
func (r *SnapshotRepository) FindAll(ctx context.Context) ([]domain.Snapshot, error) {
	_, snapshots, err := r.load(ctx)
	return snapshots, err
}

// FindByStatus returns the snapshots with the given status, in storage order.
func (r *SnapshotRepository) FindByStatus(ctx context.Context, status domain.SnapshotStatus) ([]domain.Snapshot, error) {
	snapshots, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var matched []domain.Snapshot
	for _, s := range snapshots {
		if s.Metadata.Status == status {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// FindByID returns the snapshot with id, or nil when there is none.
func (r *SnapshotRepository) FindByID(ctx context.Context, id string) (*domain.Snapshot, error) {
	snapshots, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	i := indexByID(snapshots, id)
	if i < 0 {
		return nil, nil
	}
	return &snapshots[i], nil
}

// Save inserts or overwrites s.
//
// A snapshot with the same ID is overwritten in place and Save returns true. Otherwise,
// if another snapshot already holds the same reference set, nothing is written and Save
// returns false. Otherwise s is prepended and the collection is persisted.
func (r *SnapshotRepository) Save(ctx context.Context, s domain.Snapshot) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, errors.Wrap(err, errors.CodePersistenceFailed, "refusing to save invalid snapshot")
	}

	doc, snapshots, err := r.load(ctx)
	if err != nil {
		return false, err
	}

	logger := r.logger.With("snapshot", s.Metadata.ID)

	if i := indexByID(snapshots, s.Metadata.ID); i >= 0 {
		snapshots[i] = s
		if err := r.write(doc, snapshots); err != nil {
			return false, err
		}
		logger.Info("snapshot updated", "status", s.Metadata.Status)
		return true, nil
	}

	for _, existing := range snapshots {
		if domain.SameReferences(existing.Commits, s.Commits) {
			logger.Warn("snapshot with the same references already recorded", "existing", existing.Metadata.ID)
			return false, nil
		}
	}

	snapshots = slices.Insert(snapshots, 0, s)
	if err := r.write(doc, snapshots); err != nil {
		return false, err
	}
	logger.Info("snapshot recorded", "status", s.Metadata.Status, "references", len(s.Commits))
	return true, nil
}

// Update rewrites the status and test time of the stored snapshot with s's ID.
// The stored reference list is kept as is.
func (r *SnapshotRepository) Update(ctx context.Context, s domain.Snapshot) error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, errors.CodePersistenceFailed, "refusing to store invalid snapshot metadata")
	}

	doc, snapshots, err := r.load(ctx)
	if err != nil {
		return err
	}

	i := indexByID(snapshots, s.Metadata.ID)
	if i < 0 {
		return errors.WrapWithContext(nil, errors.CodeNotFound, "snapshot not found",
			map[string]any{"snapshot": s.Metadata.ID, "path": r.path})
	}

	snapshots[i].Metadata.Status = s.Metadata.Status
	snapshots[i].Metadata.TestedAt = s.Metadata.TestedAt

	if err := r.write(doc, snapshots); err != nil {
		return err
	}
	r.logger.Info("snapshot transitioned", "snapshot", s.Metadata.ID, "status", s.Metadata.Status)
	return nil
}

func (r *SnapshotRepository) load(ctx context.Context) (*Document, []domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodePersistenceFailed, "snapshot repository")
	}

	doc, err := LoadDocument(r.fs, r.path)
	if err != nil {
		return nil, nil, err
	}

	var snapshots []domain.Snapshot
	if err := doc.Decode(snapshotsKey, &snapshots); err != nil {
		return nil, nil, errors.WrapWithContext(err, errors.CodePersistenceFailed,
			"invalid snapshot collection", map[string]any{"path": r.path})
	}
	return doc, snapshots, nil
}

func (r *SnapshotRepository) write(doc *Document, snapshots []domain.Snapshot) error {
	if err := doc.Encode(snapshotsKey, snapshots, snapshotIdentity); err != nil {
		return errors.WrapWithContext(err, errors.CodePersistenceFailed,
			"failed to encode snapshots", map[string]any{"path": r.path})
	}
	return doc.Save(r.fs, r.path)
}

func indexByID(snapshots []domain.Snapshot, id string) int {
	return slices.IndexFunc(snapshots, func(s domain.Snapshot) bool {
		return s.Metadata.ID == id
	})
}
