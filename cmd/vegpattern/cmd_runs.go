package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"vegpattern/internal/export"
	"vegpattern/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			runs, err := s.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), runs)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tCREATED\tSIZE\tRAINFALL\tSTATE\tSTEPS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%.3f\t%s\t%d/%d\n",
					r.ID, r.Label, r.CreatedAt.Local().Format(time.DateTime),
					r.Width, r.Height, r.Rainfall, r.State, r.StepsDone, r.Steps)
			}
			return tw.Flush()
		},
	}
	cmd.PersistentFlags().String("db", "", "SQLite archive path (defaults to output.database)")
	cmd.AddCommand(newRunsExportCmd())
	return cmd
}

func newRunsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write an archived snapshot as CSV, heatmap or mask files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			step, _ := cmd.Flags().GetInt("step")
			snap, err := s.LoadSnapshot(cmd.Context(), args[0], step)
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("out")
			heatmap, _ := cmd.Flags().GetBool("heatmap")
			mask, _ := cmd.Flags().GetBool("mask")
			cutoff, _ := cmd.Flags().GetFloat64("cutoff")
			paths, err := export.WriteSnapshot(dir, snap, export.Options{CSV: true, Heatmap: heatmap, Mask: mask, Cutoff: cutoff})
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
	cmd.Flags().Int("step", -1, "Snapshot step (-1 = latest)")
	cmd.Flags().StringP("out", "o", "out", "Export directory")
	cmd.Flags().Bool("heatmap", false, "Also write PNG heatmaps")
	cmd.Flags().Bool("mask", false, "Also write thresholded PNG masks")
	cmd.Flags().Float64("cutoff", 1, "Mask threshold")
	return cmd
}

func openArchive(cmd *cobra.Command) (*store.Store, error) {
	f, err := loadFile(cmd)
	if err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = f.Output.Database
	}
	if path == "" {
		return nil, fmt.Errorf("no archive configured: pass --db or set output.database")
	}
	return store.Open(path, newLogger(f, cmd.ErrOrStderr()))
}
