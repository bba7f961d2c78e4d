package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/config"
	"github.com/gridsight/energycast/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "energycast",
	Short: "Daily electricity consumption forecasting pipeline",
	Long: "Merges raw electricity, weather, and building-metadata files, builds a " +
		"leakage-free daily feature table, trains a random-forest regressor, and " +
		"applies it to new feature rows. Each stage reads and writes file artifacts " +
		"so stages can be re-run independently.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// stageResult is what a tracked stage reports to the run ledger.
type stageResult struct {
	rowsIn   int
	rowsOut  int
	drops    map[string]int
	artifact string
}

// trackStage records a stage execution in the run ledger: started before fn
// runs, then succeeded with its counts or failed with its error.
func trackStage(ctx context.Context, stage string, fn func(ctx context.Context) (stageResult, error)) error {
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.StartRun(ctx, stage)
	if err != nil {
		return err
	}

	res, err := fn(ctx)
	if err != nil {
		_ = st.FailRun(ctx, run, err)
		return err
	}
	return st.FinishRun(ctx, run, res.rowsIn, res.rowsOut, res.drops, res.artifact)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
