package reconcile

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/fs/billy"
	"github.com/openshift-assisted/versions-management/hosting/hostingtest"
	"github.com/openshift-assisted/versions-management/store"
)

func version(name string, refs ...domain.ResolvedReference) domain.Version {
	return domain.Version{Name: name, Commits: refs}
}

var (
	serviceRef = domain.ResolvedReference{
		Repository: "https://github.com/openshift/assisted-service",
		Ref:        "abc123",
		ImageURL:   "quay.io/edge-infrastructure/assisted-service:latest-abc123",
	}
	agentRef = domain.ResolvedReference{
		Repository: "https://github.com/openshift/assisted-installer-agent",
		Ref:        "def456",
	}
	capiRef = domain.ResolvedReference{
		Repository: "https://github.com/kubernetes-sigs/cluster-api",
		Ref:        "v1.9.5",
	}
)

func TestReconcile_Mixed(t *testing.T) {
	client := hostingtest.NewFakeClient()
	service := client.Add("openshift/assisted-service")
	agent := client.Add("openshift/assisted-installer-agent")
	agent.Tags["v0.1.0"] = "existing"
	capi := client.Add("kubernetes-sigs/cluster-api")

	err := New(client, nil).Reconcile(t.Context(), []domain.Version{version("v0.1.0", serviceRef, agentRef, capiRef)})
	require.NoError(t, err)

	creates := service.CallsTo("CreateTag")
	require.Len(t, creates, 1)
	assert.Equal(t, []string{"v0.1.0", "Version v0.1.0 - Tagged by CI", "abc123"}, creates[0].Args)
	refs := service.CallsTo("CreateTagRef")
	require.Len(t, refs, 1)
	assert.Equal(t, []string{"v0.1.0", "tagobj-v0.1.0"}, refs[0].Args)
	assert.Equal(t, "tagobj-v0.1.0", service.Tags["v0.1.0"])

	assert.Len(t, agent.CallsTo("TagExists"), 1)
	assert.Empty(t, agent.CallsTo("CreateTag"))
	assert.Empty(t, agent.CallsTo("CreateTagRef"))

	assert.Empty(t, capi.Calls, "ungoverned repositories are never touched")
}

func TestReconcile_Idempotent(t *testing.T) {
	client := hostingtest.NewFakeClient()
	service := client.Add("openshift/assisted-service")
	engine := New(client, nil)
	versions := []domain.Version{version("v0.1.0", serviceRef)}

	require.NoError(t, engine.Reconcile(t.Context(), versions))
	require.NoError(t, engine.Reconcile(t.Context(), versions))

	assert.Len(t, service.CallsTo("CreateTag"), 1)
	assert.Len(t, service.CallsTo("CreateTagRef"), 1)
	assert.Len(t, service.CallsTo("TagExists"), 2)
}

func TestReconcile_FailureStopsLaterVersions(t *testing.T) {
	client := hostingtest.NewFakeClient()
	service := client.Add("openshift/assisted-service")
	service.CreateTagErr = stderrors.New("permission denied")
	agent := client.Add("openshift/assisted-installer-agent")

	err := New(client, nil).Reconcile(t.Context(), []domain.Version{
		version("v0.1.0", serviceRef, agentRef),
		version("v0.2.0", agentRef),
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeReconciliationFailed))
	assert.True(t, errors.HasCode(err, errors.CodeTagOperationFailed))
	assert.ErrorIs(t, err, service.CreateTagErr)
	assert.Equal(t, "v0.1.0", errors.GetContext(err)["version"])

	// The rest of the failing version is still attempted.
	assert.Contains(t, agent.Tags, "v0.1.0")
	assert.NotContains(t, agent.Tags, "v0.2.0")
}

func TestReconcile_TagExistsErrorIsFailure(t *testing.T) {
	client := hostingtest.NewFakeClient()
	service := client.Add("openshift/assisted-service")
	service.TagExistsErr = stderrors.New("502 bad gateway")

	err := New(client, nil).Reconcile(t.Context(), []domain.Version{version("v0.1.0", serviceRef)})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeTagOperationFailed))
	assert.Empty(t, service.CallsTo("CreateTag"))
}

func TestReconcile_Skips(t *testing.T) {
	client := hostingtest.NewFakeClient()
	service := client.Add("openshift/assisted-service")

	empty := serviceRef
	empty.Ref = ""

	err := New(client, nil).Reconcile(t.Context(), []domain.Version{
		version("", serviceRef),
		version("v0.1.0", empty),
	})
	require.NoError(t, err)
	assert.Empty(t, service.Calls)
}

func TestReconcile_GovernedPrefix(t *testing.T) {
	client := hostingtest.NewFakeClient()
	service := client.Add("openshift/assisted-service")
	capi := client.Add("kubernetes-sigs/cluster-api")

	err := New(client, nil, WithGovernedPrefix("kubernetes-sigs/"), WithMessageTemplate("Release %s")).
		Reconcile(t.Context(), []domain.Version{version("v1", serviceRef, capiRef)})
	require.NoError(t, err)

	assert.Empty(t, service.Calls)
	creates := capi.CallsTo("CreateTag")
	require.Len(t, creates, 1)
	assert.Equal(t, "Release v1", creates[0].Args[1])
}

func TestEngine_Run(t *testing.T) {
	fs := billy.NewInMemoryFS()
	require.NoError(t, fs.WriteFile("versions.yaml", []byte(`versions:
  - name: v0.1.0
    commits:
      - repository: https://github.com/openshift/assisted-service
        ref: abc123
`), 0o644))

	client := hostingtest.NewFakeClient()
	service := client.Add("openshift/assisted-service")

	require.NoError(t, New(client, store.NewVersionRepository(fs, "versions.yaml")).Run(t.Context()))
	assert.Equal(t, "tagobj-v0.1.0", service.Tags["v0.1.0"])
}
