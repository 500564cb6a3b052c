package domain

// Strategy is the rule used to decide the current qualifying version of a component.
// The set of strategies is closed; every consumer switches over it exhaustively.
type Strategy string

const (
	// StrategyRelease selects the newest non-prerelease release whose tag carries the
	// component's tag prefix.
	StrategyRelease Strategy = "release"

	// StrategyCommit selects the newest commit for which an image tagged
	// latest-<sha> has been published under the component's image pattern.
	StrategyCommit Strategy = "commit"
)

// Strategies lists every known strategy.
var Strategies = []Strategy{StrategyRelease, StrategyCommit}

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyRelease, StrategyCommit:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Strategy.
func (s Strategy) String() string {
	return string(s)
}

// SnapshotStatus represents where a snapshot is in its test lifecycle.
type SnapshotStatus string

const (
	// StatusPending indicates the snapshot has been discovered but not tested yet.
	StatusPending SnapshotStatus = "pending"

	// StatusSuccessful indicates the test run for the snapshot passed.
	StatusSuccessful SnapshotStatus = "successful"

	// StatusFailed indicates the test run for the snapshot failed or could not be run.
	StatusFailed SnapshotStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s SnapshotStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccessful, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is an outcome of a test run.
func (s SnapshotStatus) IsTerminal() bool {
	return s == StatusSuccessful || s == StatusFailed
}

// String returns the string representation of the SnapshotStatus.
func (s SnapshotStatus) String() string {
	return string(s)
}
