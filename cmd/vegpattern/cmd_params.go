package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vegpattern/internal/sims/rietkerk"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show the effective parameters, or write them as a run file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFile(cmd)
			if err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("write"); path != "" {
				if err := f.Save(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}
			cfg, err := f.Config()
			if err != nil {
				return err
			}
			snap := rietkerk.ParameterSnapshot(cfg)
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), snap)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, g := range snap.Groups {
				title := g.Name
				if g.Summary != "" {
					title += " (" + g.Summary + ")"
				}
				fmt.Fprintf(tw, "%s\n", title)
				for _, p := range g.Params {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Key, p.Value, p.Label)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("write", "", "Write the effective run file to this path")
	return cmd
}
