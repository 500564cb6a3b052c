package testrun

import (
	"context"
	"log/slog"

	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/executor"
)

const (
	// DefaultPlaybook is the playbook run against a pending snapshot.
	DefaultPlaybook = "test/ansible/run_test.yaml"

	// DefaultInventory is the inventory passed to the playbook.
	DefaultInventory = "test/ansible/inventory.yaml"

	// DefaultAnsibleBinary is the ansible-playbook executable looked up on PATH.
	DefaultAnsibleBinary = "ansible-playbook"
)

// Runner runs the test suite with env added to its environment.
// It returns false when the suite ran and failed, and an error when it could not run.
type Runner interface {
	Run(ctx context.Context, playbook, inventory string, env map[string]string) (bool, error)
}

// AnsibleRunner runs an ansible playbook, streaming its output to the console.
type AnsibleRunner struct {
	binary string
	logger *slog.Logger
}

// AnsibleOption configures an AnsibleRunner.
type AnsibleOption func(*AnsibleRunner)

// WithAnsibleBinary overrides the ansible-playbook executable.
func WithAnsibleBinary(path string) AnsibleOption {
	return func(r *AnsibleRunner) {
		r.binary = path
	}
}

// WithRunnerLogger sets the logger for the runner.
func WithRunnerLogger(logger *slog.Logger) AnsibleOption {
	return func(r *AnsibleRunner) {
		r.logger = logger
	}
}

// NewAnsibleRunner creates an AnsibleRunner.
func NewAnsibleRunner(opts ...AnsibleOption) *AnsibleRunner {
	r := &AnsibleRunner{
		binary: DefaultAnsibleBinary,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes "ansible-playbook <playbook> -i <inventory>".
func (r *AnsibleRunner) Run(ctx context.Context, playbook, inventory string, env map[string]string) (bool, error) {
	cmd := executor.New(r.binary, playbook, "-i", inventory)

	result, err := cmd.Execute(ctx,
		executor.ConsoleOnly(),
		executor.WithEnv(env),
		executor.WithLogger(r.logger),
	)
	if err == nil {
		return true, nil
	}

	if code, exited := executor.ExitCode(err); exited {
		r.logger.Error("ansible playbook failed", "playbook", playbook, "exit_code", code)
		return false, nil
	}

	return false, errors.WrapWithContext(err, errors.CodeExecutionFailed, "failed to run ansible playbook",
		map[string]any{"playbook": playbook, "exit_code": result.ExitCode})
}
