package testrun

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/versions-management/errors"
)

// fakePlaybook writes an executable standing in for ansible-playbook. It records its
// arguments and CAPI_VERSION and exits with the code stored in the EXIT_WITH variable.
func fakePlaybook(t *testing.T) (binary, record string) {
	t.Helper()

	dir := t.TempDir()
	record = filepath.Join(dir, "record")
	binary = filepath.Join(dir, "ansible-playbook")

	script := "#!/bin/sh\necho \"$* CAPI_VERSION=$CAPI_VERSION\" > " + record + "\nexit ${EXIT_WITH:-0}\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, record
}

func TestAnsibleRunner_Success(t *testing.T) {
	binary, record := fakePlaybook(t)
	runner := NewAnsibleRunner(WithAnsibleBinary(binary))

	passed, err := runner.Run(t.Context(), DefaultPlaybook, DefaultInventory, map[string]string{"CAPI_VERSION": "v1.9.5"})
	require.NoError(t, err)
	assert.True(t, passed)

	got, err := os.ReadFile(record)
	require.NoError(t, err)
	assert.Equal(t, "test/ansible/run_test.yaml -i test/ansible/inventory.yaml CAPI_VERSION=v1.9.5\n", string(got))

	_, ok := os.LookupEnv("CAPI_VERSION")
	assert.False(t, ok, "runner must not change the process environment")
}

func TestAnsibleRunner_NonZeroExit(t *testing.T) {
	binary, _ := fakePlaybook(t)
	runner := NewAnsibleRunner(WithAnsibleBinary(binary))

	passed, err := runner.Run(t.Context(), DefaultPlaybook, DefaultInventory, map[string]string{"EXIT_WITH": "2"})
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestAnsibleRunner_CannotStart(t *testing.T) {
	runner := NewAnsibleRunner(WithAnsibleBinary(filepath.Join(t.TempDir(), "missing")))

	passed, err := runner.Run(t.Context(), DefaultPlaybook, DefaultInventory, nil)
	require.Error(t, err)
	assert.False(t, passed)
	assert.True(t, errors.HasCode(err, errors.CodeExecutionFailed))
}
