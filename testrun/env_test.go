package testrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/versions-management/domain"
)

func TestEnvTable_Export(t *testing.T) {
	snapshot := domain.Snapshot{Commits: []domain.ResolvedReference{
		{Repository: "https://github.com/kubernetes-sigs/cluster-api", Ref: "v1.9.5"},
		{Repository: "https://github.com/openshift/assisted-service", Ref: "a1", ImageURL: "quay.io/edge-infrastructure/assisted-service:latest-a1"},
		{Repository: "https://github.com/openshift/unknown", Ref: "x1", ImageURL: "quay.io/edge-infrastructure/unknown:latest-x1"},
		{Repository: "https://github.com/other/lib", Ref: "v0.1.0"},
	}}

	export := DefaultEnvTable().Export(snapshot)

	assert.Equal(t, map[string]string{
		"CAPI_VERSION":           "v1.9.5",
		"ASSISTED_SERVICE_IMAGE": "quay.io/edge-infrastructure/assisted-service:latest-a1",
	}, export.Vars)
	assert.Equal(t, []string{"ASSISTED_SERVICE_IMAGE", "CAPI_VERSION"}, export.Names())

	require.Len(t, export.Skipped, 2)
	assert.Equal(t, "x1", export.Skipped[0].Reference.Ref)
	assert.Equal(t, "v0.1.0", export.Skipped[1].Reference.Ref)
}

func TestEnvTable_RepositoryBindingWins(t *testing.T) {
	table := EnvTable{
		Repositories: map[string]string{"org/app": "APP_VERSION"},
		Images:       map[string]string{"quay.io/org/app": "APP_IMAGE"},
	}

	export := table.Export(domain.Snapshot{Commits: []domain.ResolvedReference{
		{Repository: "git@github.com:org/app.git", Ref: "abc", ImageURL: "quay.io/org/app:latest-abc"},
	}})

	assert.Equal(t, map[string]string{"APP_VERSION": "abc"}, export.Vars)
	assert.Empty(t, export.Skipped)
}

func TestImageName(t *testing.T) {
	tests := map[string]string{
		"quay.io/org/app:latest-abc":     "quay.io/org/app",
		"quay.io/org/app":                "quay.io/org/app",
		"localhost:5000/org/app:v1":      "localhost:5000/org/app",
		"localhost:5000/org/app":         "localhost:5000/org/app",
		"quay.io/org/app@sha256:abcdef0": "quay.io/org/app",
	}

	for in, want := range tests {
		assert.Equal(t, want, ImageName(in), in)
	}
}
