package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gridsight/energycast/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline stage runs",
	Long: `Shows the run ledger: every stage execution with its status, row
counts, drop reasons, and artifact path, newest first.

Example:
  energycast runs --limit 50`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to show")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limit, _ := cmd.Flags().GetInt("limit")

	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTAGE\tSTATUS\tIN\tOUT\tDROPS\tARTIFACT")
	for _, r := range runs {
		reasons := make([]string, 0, len(r.Drops))
		for reason := range r.Drops {
			if r.Drops[reason] > 0 {
				reasons = append(reasons, reason)
			}
		}
		sort.Strings(reasons)

		drops := ""
		for _, reason := range reasons {
			if drops != "" {
				drops += " "
			}
			drops += fmt.Sprintf("%s=%d", reason, r.Drops[reason])
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Stage, r.Status, r.RowsIn, r.RowsOut, drops, r.Artifact,
		)
	}
	return w.Flush()
}
