package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/internal/envconf"
)

const flagHosting = "hosting"

// cli carries state shared by the commands of one invocation.
type cli struct {
	env *environment

	// configure, when set, adjusts the environment after it is built.
	configure func(*environment)
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "versions [sub-command]",
		Short: "Discover, test and tag component versions of the assisted installer stack",
		Long: `versions tracks the newest qualifying version of every registered component,
records them as content-addressed release candidate snapshots, runs the test
suite against pending snapshots and tags promoted versions on the governed
repositories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := baseLogger(cmd)
			if err != nil {
				return fmt.Errorf("could not create logger: %w", err)
			}
			slog.SetDefault(logger)

			cfg, err := loadConfig()
			if err != nil {
				return errors.Wrap(err, errors.CodeInvalidConfig, "could not load configuration")
			}

			c.env = newEnvironment(cfg, logger)
			if c.configure != nil {
				c.configure(c.env)
			}
			return nil
		},
		DisableAutoGenTag: true,
	}

	registerLoggingFlags(root)
	enumVar(root.PersistentFlags(), flagHosting, envconf.String("HOSTING_BACKEND", "github"),
		[]string{"github", "git"}, "code hosting backend (github, git)")

	root.AddCommand(
		newDiscoverCommand(c),
		newTestCommand(c),
		newReconcileCommand(c),
		newSnapshotsCommand(c),
	)

	return root
}

// execute runs the command line args and logs a returned error.
func execute(ctx context.Context, c *cli, args []string) error {
	root := newRootCommand(c)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		logger := slog.Default()
		if c.env != nil {
			logger = c.env.logger
		}
		logger.Error("command failed", "error", err, "code", errors.GetCode(err).String())
	}
	return err
}
