package executor_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/executor"
)

func TestBasicExecution(t *testing.T) {
	result, err := executor.New("echo", "hello", "world").Execute(t.Context())
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "hello world")
	assert.Equal(t, 0, result.ExitCode)
}

func TestCombinedOutput(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo stdout && echo stderr >&2")
	result, err := cmd.Execute(t.Context(), executor.WithCapture(false, false, true))
	require.NoError(t, err)

	assert.Contains(t, result.Combined, "stdout")
	assert.Contains(t, result.Combined, "stderr")
	assert.Empty(t, result.Stdout)
}

func TestEnvIsScopedToChild(t *testing.T) {
	t.Setenv("VERSIONS_PARENT", "parent")

	cmd := executor.New("sh", "-c", `echo "$CAPI_VERSION/$VERSIONS_PARENT"`)
	result, err := cmd.Execute(t.Context(), executor.WithEnv(map[string]string{"CAPI_VERSION": "v1.9.5"}))
	require.NoError(t, err)
	assert.Equal(t, "v1.9.5/parent\n", result.Stdout)

	result, err = cmd.Execute(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "/parent\n", result.Stdout, "env from a previous call must not leak")
}

func TestNonZeroExit(t *testing.T) {
	result, err := executor.New("sh", "-c", "echo boom >&2; exit 3").Execute(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeExecutionFailed))

	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "boom\n", result.Stderr)

	code, exited := executor.ExitCode(err)
	assert.True(t, exited)
	assert.Equal(t, 3, code)
}

func TestStartFailure(t *testing.T) {
	result, err := executor.New("versions-no-such-binary").Execute(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeExecutionFailed))
	assert.Equal(t, -1, result.ExitCode)

	_, exited := executor.ExitCode(err)
	assert.False(t, exited)
}

func TestCustomWriters(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := executor.New("sh", "-c", "echo out; echo err >&2")

	_, err := cmd.Execute(t.Context(),
		executor.WithStdoutWriter(&stdout),
		executor.WithStderrWriter(&stderr),
	)
	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestWorkingDir(t *testing.T) {
	dir := t.TempDir()

	result, err := executor.New("pwd").Execute(t.Context(), executor.WithWorkingDir(dir))
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
}
