// Package executor runs external commands with captured or console-redirected output
// and an explicit, per-invocation environment.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"

	"github.com/openshift-assisted/versions-management/errors"
)

// Result holds the output and exit status of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string

	// ExitCode is the process exit code, or -1 when the process could not be started
	// or was killed by a signal.
	ExitCode int
}

// Executor runs a prepared command.
type Executor interface {
	Execute(ctx context.Context, opts ...Option) (*Result, error)
}

// CommandExecutor runs one program with fixed arguments.
type CommandExecutor struct {
	program string
	args    []string
	options *Options
}

// Options configures command execution.
type Options struct {
	CaptureStdout     bool
	CaptureStderr     bool
	CaptureCombined   bool
	RedirectToConsole bool

	WorkingDir string

	// Env is added to the environment of the child process only.
	Env map[string]string

	StdoutWriter io.Writer
	StderrWriter io.Writer

	Logger *slog.Logger
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns the default execution options: stdout and stderr are captured.
func DefaultOptions() *Options {
	return &Options{
		CaptureStdout: true,
		CaptureStderr: true,
		Env:           make(map[string]string),
		Logger:        slog.Default(),
	}
}

// New creates a CommandExecutor for program and args.
func New(program string, args ...string) *CommandExecutor {
	return &CommandExecutor{
		program: program,
		args:    args,
		options: DefaultOptions(),
	}
}

// String renders the command line.
func (c *CommandExecutor) String() string {
	return fmt.Sprint(append([]string{c.program}, c.args...))
}

// Execute runs the command.
//
// A command that starts and exits non-zero returns the Result and a CodeExecutionFailed
// error for which ExitCode reports the code. A command that cannot be started returns a
// CodeExecutionFailed error and a Result with ExitCode -1.
func (c *CommandExecutor) Execute(ctx context.Context, opts ...Option) (*Result, error) {
	options := c.mergeOptions(opts...)

	cmd := exec.CommandContext(ctx, c.program, c.args...)
	c.setupCommand(cmd, options)
	stdoutBuf, stderrBuf, combinedBuf := setupOutputCapture(cmd, options)

	options.Logger.Debug("executing command",
		"program", c.program,
		"args", c.args,
		"env", slices.Sorted(maps.Keys(options.Env)),
	)

	err := cmd.Run()
	result := createResult(stdoutBuf, stderrBuf, combinedBuf, err)

	if err != nil {
		errCtx := map[string]any{"program": c.program, "exit_code": result.ExitCode}
		return result, errors.WrapWithContext(err, errors.CodeExecutionFailed, "command execution failed", errCtx)
	}
	return result, nil
}

// ExitCode returns the exit code carried by an error returned from Execute, and false
// when the process never ran to completion.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	return exitErr.ExitCode(), exitErr.Exited()
}

func (c *CommandExecutor) setupCommand(cmd *exec.Cmd, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for _, k := range slices.Sorted(maps.Keys(options.Env)) {
			cmd.Env = append(cmd.Env, k+"="+options.Env[k])
		}
	}
}

func setupOutputCapture(cmd *exec.Cmd, options *Options) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	var stdoutBuf, stderrBuf, combinedBuf bytes.Buffer

	var stdoutWriters []io.Writer
	switch {
	case options.CaptureCombined:
		stdoutWriters = append(stdoutWriters, &combinedBuf)
	case options.CaptureStdout:
		stdoutWriters = append(stdoutWriters, &stdoutBuf)
	}
	if options.RedirectToConsole {
		stdoutWriters = append(stdoutWriters, os.Stdout)
	}
	if options.StdoutWriter != nil {
		stdoutWriters = append(stdoutWriters, options.StdoutWriter)
	}
	if len(stdoutWriters) > 0 {
		cmd.Stdout = io.MultiWriter(stdoutWriters...)
	}

	var stderrWriters []io.Writer
	switch {
	case options.CaptureCombined:
		stderrWriters = append(stderrWriters, &combinedBuf)
	case options.CaptureStderr:
		stderrWriters = append(stderrWriters, &stderrBuf)
	}
	if options.RedirectToConsole {
		stderrWriters = append(stderrWriters, os.Stderr)
	}
	if options.StderrWriter != nil {
		stderrWriters = append(stderrWriters, options.StderrWriter)
	}
	if len(stderrWriters) > 0 {
		cmd.Stderr = io.MultiWriter(stderrWriters...)
	}

	return &stdoutBuf, &stderrBuf, &combinedBuf
}

func createResult(stdoutBuf, stderrBuf, combinedBuf *bytes.Buffer, err error) *Result {
	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Combined: combinedBuf.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	return result
}

func (c *CommandExecutor) mergeOptions(opts ...Option) *Options {
	merged := *c.options
	merged.Env = maps.Clone(c.options.Env)

	for _, opt := range opts {
		opt(&merged)
	}

	if merged.Logger == nil {
		merged.Logger = slog.Default()
	}
	return &merged
}

// WithCapture configures output capture.
func WithCapture(stdout, stderr, combined bool) Option {
	return func(o *Options) {
		o.CaptureStdout = stdout
		o.CaptureStderr = stderr
		o.CaptureCombined = combined
	}
}

// WithConsoleRedirect enables or disables streaming output to the console.
func WithConsoleRedirect(redirect bool) Option {
	return func(o *Options) {
		o.RedirectToConsole = redirect
	}
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables for the child process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		maps.Copy(o.Env, env)
	}
}

// WithStdoutWriter adds a writer receiving stdout.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter adds a writer receiving stderr.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// ConsoleOnly streams output to the console without capturing it.
func ConsoleOnly() Option {
	return func(o *Options) {
		o.CaptureStdout = false
		o.CaptureStderr = false
		o.RedirectToConsole = true
	}
}
