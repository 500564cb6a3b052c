// Package errors provides the structured error handling used across versions-management.
// It extends Go's standard error handling with stable error codes, context preservation
// and wrapping that keeps errors.Is/errors.As working through every layer.
package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural serialization in logs.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates a resource state conflict that prevents the operation.
	CodeConflict ErrorCode = "CONFLICT"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeUnauthorized indicates the request lacks valid authentication credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Execution errors.

	// CodeExecutionFailed indicates an external command could not be executed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// Engine errors.

	// CodeResolutionFailed indicates a single component could not be resolved to a
	// qualifying release or commit/image pair.
	CodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"

	// CodeDiscoveryFailed indicates a discovery run was aborted. It wraps the first
	// component resolution failure.
	CodeDiscoveryFailed ErrorCode = "DISCOVERY_FAILED"

	// CodePersistenceFailed indicates the snapshot or version store could not be read
	// or written, or rejected a write.
	CodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"

	// CodeTagOperationFailed indicates a tag existence check or tag creation failed
	// for a specific repository and tag.
	CodeTagOperationFailed ErrorCode = "TAG_OPERATION_FAILED"

	// CodeReconciliationFailed indicates a tag reconciliation pass was aborted.
	CodeReconciliationFailed ErrorCode = "RECONCILIATION_FAILED"

	// System errors.

	// CodeInternal indicates an internal system error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// String returns the string representation of the ErrorCode.
func (c ErrorCode) String() string {
	return string(c)
}
