package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/fs/billy"
)

const candidatesFile = "release-candidates.yaml"

var generatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func refsA() []domain.ResolvedReference {
	return []domain.ResolvedReference{
		{Repository: "https://github.com/kubernetes-sigs/cluster-api", Ref: "v1.9.5"},
		{
			Repository: "https://github.com/openshift/assisted-service",
			Ref:        "abc123",
			ImageURL:   "quay.io/edge-infrastructure/assisted-service:latest-abc123",
		},
	}
}

func refsB() []domain.ResolvedReference {
	return []domain.ResolvedReference{
		{Repository: "https://github.com/kubernetes-sigs/cluster-api", Ref: "v1.9.6"},
	}
}

func newSnapshot(t *testing.T, refs []domain.ResolvedReference) domain.Snapshot {
	t.Helper()
	s, err := domain.NewSnapshot(refs, generatedAt)
	require.NoError(t, err)
	return *s
}

func TestSnapshotRepository_MissingFile(t *testing.T) {
	repo := NewSnapshotRepository(billy.NewInMemoryFS(), candidatesFile)

	all, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all)

	s, err := repo.FindByID(t.Context(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSnapshotRepository_SavePrependsNewest(t *testing.T) {
	fs := billy.NewInMemoryFS()
	repo := NewSnapshotRepository(fs, candidatesFile)

	first := newSnapshot(t, refsA())
	second := newSnapshot(t, refsB())

	ok, err := repo.Save(t.Context(), first)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Save(t.Context(), second)
	require.NoError(t, err)
	require.True(t, ok)

	all, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.Metadata.ID, all[0].Metadata.ID)
	assert.Equal(t, first.Metadata.ID, all[1].Metadata.ID)
	assert.Equal(t, first.Commits, all[1].Commits)
	assert.True(t, all[1].Metadata.GeneratedAt.Equal(generatedAt))
}

func TestSnapshotRepository_DedupLaw(t *testing.T) {
	fs := billy.NewInMemoryFS()
	repo := NewSnapshotRepository(fs, candidatesFile)

	original := newSnapshot(t, refsA())
	ok, err := repo.Save(t.Context(), original)
	require.NoError(t, err)
	require.True(t, ok)

	before, err := fs.ReadFile(candidatesFile)
	require.NoError(t, err)

	reordered := refsA()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	legacy := newSnapshot(t, reordered)
	legacy.Metadata.ID = "legacy-id"
	legacy.Metadata.GeneratedAt = generatedAt.Add(time.Hour)

	ok, err = repo.Save(t.Context(), legacy)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := fs.ReadFile(candidatesFile)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "rejected insert must not write")

	all, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, original.Metadata.ID, all[0].Metadata.ID)
}

func TestSnapshotRepository_UpdateLaw(t *testing.T) {
	repo := NewSnapshotRepository(billy.NewInMemoryFS(), candidatesFile)

	older := newSnapshot(t, refsA())
	newer := newSnapshot(t, refsB())
	for _, s := range []domain.Snapshot{older, newer} {
		ok, err := repo.Save(t.Context(), s)
		require.NoError(t, err)
		require.True(t, ok)
	}

	testedAt := generatedAt.Add(2 * time.Hour)
	meta, err := older.Metadata.Transition(domain.StatusSuccessful, testedAt)
	require.NoError(t, err)
	older.Metadata = meta

	ok, err := repo.Save(t.Context(), older)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 2, "overwrite must not append")
	assert.Equal(t, newer.Metadata.ID, all[0].Metadata.ID)
	assert.Equal(t, older.Metadata.ID, all[1].Metadata.ID)
	assert.Equal(t, domain.StatusSuccessful, all[1].Metadata.Status)
}

func TestSnapshotRepository_OverwriteClearsTestedAt(t *testing.T) {
	fs := billy.NewInMemoryFS()
	repo := NewSnapshotRepository(fs, candidatesFile)

	pending := newSnapshot(t, refsA())
	ok, err := repo.Save(t.Context(), pending)
	require.NoError(t, err)
	require.True(t, ok)

	meta, err := pending.Metadata.Transition(domain.StatusFailed, generatedAt.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Update(t.Context(), domain.Snapshot{Metadata: meta}))

	ok, err = repo.Save(t.Context(), pending)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.FindByID(t.Context(), pending.Metadata.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusPending, got.Metadata.Status)
	assert.Nil(t, got.Metadata.TestedAt)
	assert.NoError(t, got.Metadata.Validate())

	out, err := fs.ReadFile(candidatesFile)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "tested_at")
}

func TestSnapshotRepository_Update(t *testing.T) {
	repo := NewSnapshotRepository(billy.NewInMemoryFS(), candidatesFile)

	s := newSnapshot(t, refsA())
	_, err := repo.Save(t.Context(), s)
	require.NoError(t, err)

	testedAt := generatedAt.Add(time.Hour)
	meta, err := s.Metadata.Transition(domain.StatusFailed, testedAt)
	require.NoError(t, err)

	// The reference list passed to Update is ignored.
	require.NoError(t, repo.Update(t.Context(), domain.Snapshot{Metadata: meta, Commits: refsB()}))

	stored, err := repo.FindByID(t.Context(), s.Metadata.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.StatusFailed, stored.Metadata.Status)
	require.NotNil(t, stored.Metadata.TestedAt)
	assert.True(t, stored.Metadata.TestedAt.Equal(testedAt))
	assert.Equal(t, refsA(), stored.Commits)

	pending, err := repo.FindByStatus(t.Context(), domain.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSnapshotRepository_UpdateNotFound(t *testing.T) {
	repo := NewSnapshotRepository(billy.NewInMemoryFS(), candidatesFile)

	at := generatedAt
	err := repo.Update(t.Context(), domain.Snapshot{
		Metadata: domain.SnapshotMetadata{ID: "missing", Status: domain.StatusFailed, TestedAt: &at},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestSnapshotRepository_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "snapshots: [unclosed\n"},
		{name: "top level list", content: "- a\n- b\n"},
		{name: "snapshots not a list", content: "snapshots: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := billy.NewInMemoryFS()
			require.NoError(t, fs.WriteFile(candidatesFile, []byte(tt.content), 0o644))

			_, err := NewSnapshotRepository(fs, candidatesFile).FindAll(t.Context())
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodePersistenceFailed))
		})
	}
}

func TestSnapshotRepository_PreservesComments(t *testing.T) {
	fs := billy.NewInMemoryFS()
	content := `# Managed by the discovery workflow.
snapshots:
  # latest candidate
  - metadata:
      id: abc
      generated_at: 2025-03-01T12:00:00Z
      status: pending # awaiting test
      owner: ci
    commits:
      - repository: https://github.com/openshift/assisted-service
        ref: v2.40.1
`
	require.NoError(t, fs.WriteFile(candidatesFile, []byte(content), 0o644))
	repo := NewSnapshotRepository(fs, candidatesFile)

	stored, err := repo.FindByID(t.Context(), "abc")
	require.NoError(t, err)
	require.NotNil(t, stored)

	meta, err := stored.Metadata.Transition(domain.StatusSuccessful, generatedAt.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Update(t.Context(), domain.Snapshot{Metadata: meta}))

	out, err := fs.ReadFile(candidatesFile)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "# Managed by the discovery workflow.")
	assert.Contains(t, text, "# latest candidate")
	assert.Contains(t, text, "status: successful # awaiting test")
	assert.Contains(t, text, "owner: ci")
	assert.Contains(t, text, "tested_at: 2025-03-01T13:00:00Z")
}
