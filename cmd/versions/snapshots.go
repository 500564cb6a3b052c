package main

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/openshift-assisted/versions-management/domain"
	"github.com/openshift-assisted/versions-management/store"
)

const (
	flagStatus = "status"
	flagWide   = "wide"

	shortIDLength = 12
)

func newSnapshotsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect the recorded release candidate snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Example: `  # Show the pending snapshots with their references
  versions snapshots list --status pending --wide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env := c.env

			status, err := enumGet(cmd.Flags(), flagStatus)
			if err != nil {
				return err
			}
			wide, _ := cmd.Flags().GetBool(flagWide)

			fsys, err := env.newFilesystem(ctx)
			if err != nil {
				return err
			}

			repo := store.NewSnapshotRepository(fsys, env.cfg.SnapshotsFile, store.WithLogger(env.logger))

			var snapshots []domain.Snapshot
			if status == "all" {
				snapshots, err = repo.FindAll(ctx)
			} else {
				snapshots, err = repo.FindByStatus(ctx, domain.SnapshotStatus(status))
			}
			if err != nil {
				return err
			}

			renderSnapshots(cmd.OutOrStdout(), snapshots, wide)
			return nil
		},
		DisableAutoGenTag: true,
	}

	enumVar(list.Flags(), flagStatus, "all",
		[]string{"all", string(domain.StatusPending), string(domain.StatusSuccessful), string(domain.StatusFailed)},
		"only list snapshots with this status (all, pending, successful, failed)")
	list.Flags().Bool(flagWide, false, "list every resolved reference")

	cmd.AddCommand(list)
	return cmd
}

func renderSnapshots(w io.Writer, snapshots []domain.Snapshot, wide bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	if wide {
		t.AppendHeader(table.Row{"ID", "Status", "Generated", "Tested", "Repository", "Ref", "Image"})
		for _, s := range snapshots {
			for _, ref := range s.Commits {
				t.AppendRow(append(snapshotColumns(s), ref.Repository, ref.Ref, ref.ImageURL))
			}
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, AutoMerge: true},
			{Number: 2, AutoMerge: true},
			{Number: 3, AutoMerge: true},
			{Number: 4, AutoMerge: true},
		})
	} else {
		t.AppendHeader(table.Row{"ID", "Status", "Generated", "Tested", "References"})
		for _, s := range snapshots {
			t.AppendRow(append(snapshotColumns(s), len(s.Commits)))
		}
	}

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

func snapshotColumns(s domain.Snapshot) table.Row {
	id := s.Metadata.ID
	if len(id) > shortIDLength {
		id = id[:shortIDLength]
	}

	tested := "-"
	if s.Metadata.TestedAt != nil {
		tested = s.Metadata.TestedAt.UTC().Format(time.RFC3339)
	}

	return table.Row{id, s.Metadata.Status.String(), s.Metadata.GeneratedAt.UTC().Format(time.RFC3339), tested}
}
