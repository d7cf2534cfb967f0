package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vegpattern/internal/config"
	"vegpattern/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vegpattern",
		Short: "Dryland vegetation pattern generator",
		Long: `vegpattern simulates plant biomass, surface water and soil water on a
2-D grid and exports the resulting spot, gap, labyrinth and band patterns.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML run file (defaults apply when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newParamsCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput(cmd) {
				writeJSON(cmd.OutOrStdout(), map[string]string{"version": version})
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vegpattern version %s\n", version)
		},
	}
}

// loadFile reads the run file named by --config and applies --log-level.
func loadFile(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	f, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		f.Logging.Level = lvl
	}
	return f, nil
}

func newLogger(f *config.File, w io.Writer) *slog.Logger {
	return logging.NewLogger(f.Logging.Level, w)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
