package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openshift-assisted/versions-management/discovery"
	"github.com/openshift-assisted/versions-management/internal/envconf"
	"github.com/openshift-assisted/versions-management/reconcile"
	"github.com/openshift-assisted/versions-management/resolver"
	"github.com/openshift-assisted/versions-management/store"
	"github.com/openshift-assisted/versions-management/testrun"
)

const (
	flagSelect         = "select"
	flagPlaybook       = "playbook"
	flagInventory      = "inventory"
	flagGovernedPrefix = "governed-prefix"
)

func newDiscoverCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Resolve every registered component and record a pending snapshot",
		Example: `  # Discover against GitHub with a token
  GITHUB_TOKEN=... versions discover

  # Discover using plain git remotes
  versions discover --hosting git`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env := c.env

			fsys, err := env.newFilesystem(ctx)
			if err != nil {
				return err
			}

			backend, err := enumGet(cmd.Flags(), flagHosting)
			if err != nil {
				return err
			}
			hostClient, err := env.newHosting(ctx, backend)
			if err != nil {
				return err
			}

			res := resolver.New(hostClient, env.newImages(),
				resolver.WithCommitLookback(env.cfg.CommitLookback),
				resolver.WithLogger(env.logger),
			)
			svc := discovery.New(res,
				store.NewComponentRepository(fsys, env.cfg.ComponentsFile, store.WithLogger(env.logger)),
				store.NewSnapshotRepository(fsys, env.cfg.SnapshotsFile, store.WithLogger(env.logger)),
				discovery.WithWidth(env.cfg.Width),
				discovery.WithLogger(env.logger),
			)

			snapshot, err := svc.Run(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), snapshot.Metadata.ID)
			return err
		},
		DisableAutoGenTag: true,
	}
}

func newTestCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "test",
		Aliases: []string{"await-test"},
		Short:   "Run the test playbook against a pending snapshot and record the outcome",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env := c.env

			selection, err := enumGet(cmd.Flags(), flagSelect)
			if err != nil {
				return err
			}
			policy, err := testrun.ParseSelectionPolicy(selection)
			if err != nil {
				return err
			}

			playbook, _ := cmd.Flags().GetString(flagPlaybook)
			inventory, _ := cmd.Flags().GetString(flagInventory)
			if playbook == "" {
				playbook = env.cfg.Playbook
			}
			if inventory == "" {
				inventory = env.cfg.Inventory
			}

			fsys, err := env.newFilesystem(ctx)
			if err != nil {
				return err
			}

			coordinator := testrun.New(
				store.NewSnapshotRepository(fsys, env.cfg.SnapshotsFile, store.WithLogger(env.logger)),
				env.newRunner(),
				testrun.WithSelectionPolicy(policy),
				testrun.WithPlaybook(playbook, inventory),
				testrun.WithLogger(env.logger),
			)
			return coordinator.RunPendingTest(ctx)
		},
		DisableAutoGenTag: true,
	}

	enumVar(cmd.Flags(), flagSelect, envconf.String("TEST_SELECTION", "newest"),
		[]string{"newest", "oldest"}, "which pending snapshot to test when several are waiting (newest, oldest)")
	cmd.Flags().String(flagPlaybook, "", "playbook to run (default $ANSIBLE_PLAYBOOK or "+testrun.DefaultPlaybook+")")
	cmd.Flags().String(flagInventory, "", "inventory to use (default $ANSIBLE_INVENTORY or "+testrun.DefaultInventory+")")

	return cmd
}

func newReconcileCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile-tags",
		Short: "Tag every promoted version on the governed repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env := c.env

			prefix, _ := cmd.Flags().GetString(flagGovernedPrefix)
			if prefix == "" {
				prefix = env.cfg.GovernedPrefix
			}

			fsys, err := env.newFilesystem(ctx)
			if err != nil {
				return err
			}

			backend, err := enumGet(cmd.Flags(), flagHosting)
			if err != nil {
				return err
			}
			hostClient, err := env.newHosting(ctx, backend)
			if err != nil {
				return err
			}

			engine := reconcile.New(hostClient,
				store.NewVersionRepository(fsys, env.cfg.VersionsFile, store.WithLogger(env.logger)),
				reconcile.WithGovernedPrefix(prefix),
				reconcile.WithLogger(env.logger),
			)
			return engine.Run(ctx)
		},
		DisableAutoGenTag: true,
	}

	cmd.Flags().String(flagGovernedPrefix, "", "org prefix of governed repositories (default $GOVERNED_PREFIX or "+reconcile.DefaultGovernedPrefix+")")

	return cmd
}
