package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForgeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "message only",
			err:      New(CodeNotFound, "snapshot not found"),
			expected: "snapshot not found",
		},
		{
			name: "with sorted context and cause",
			err: WrapWithContext(
				stderrors.New("boom"),
				CodeTagOperationFailed,
				"failed to create tag",
				map[string]any{"tag": "v1", "repository": "openshift/a"},
			),
			expected: "failed to create tag [repository=openshift/a tag=v1]: boom",
		},
		{
			name:     "formatted",
			err:      Newf(CodeInvalidInput, "bad %s", "value"),
			expected: "bad value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
	assert.NoError(t, Wrapf(nil, CodeInternal, "nothing %d", 1))
}

func TestCodes_ThroughChain(t *testing.T) {
	root := stderrors.New("registry down")
	resolution := Wrap(root, CodeResolutionFailed, "failed to resolve component")
	discovery := WrapWithContext(resolution, CodeDiscoveryFailed, "discovery aborted",
		map[string]any{"component": "assisted-service"})
	wrapped := fmt.Errorf("workflow: %w", discovery)

	assert.Equal(t, CodeDiscoveryFailed, GetCode(wrapped))
	assert.True(t, HasCode(wrapped, CodeDiscoveryFailed))
	assert.True(t, HasCode(wrapped, CodeResolutionFailed))
	assert.False(t, HasCode(wrapped, CodeTagOperationFailed))
	assert.True(t, Is(wrapped, root))
	assert.Equal(t, "assisted-service", GetContext(wrapped)["component"])

	var fe *ForgeError
	require.True(t, As(wrapped, &fe))
	assert.Equal(t, CodeDiscoveryFailed, fe.Code)
}

func TestGetCode_Unknown(t *testing.T) {
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Nil(t, GetContext(stderrors.New("plain")))
}
