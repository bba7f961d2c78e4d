package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/artifact"
	"github.com/gridsight/energycast/internal/features"
	"github.com/gridsight/energycast/internal/model"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Build the daily modeling table and predictor list",
	Long: `Aggregates the merged hourly table to one row per building-day, derives
calendar and lag features, removes target outliers, and writes the feature
table plus the ordered predictor list.

Policies (fixed, applied uniformly):
  - lags shift each building's own sorted daily series by 1 and 7 positions;
    rows without a full lag_7 window are dropped, not zero-imputed
  - outlier bounds are Q1/Q3 +/- 1.5*IQR of the overall consumption
    distribution, applied after lag computation so a dropped day still
    feeds its neighbors' lags
  - any weather value still missing after aggregation is imputed to zero

Example:
  energycast features --input merged.csv --output features.csv \
      --predictors predictors.txt`,
	RunE: runFeatures,
}

func init() {
	f := featuresCmd.Flags()
	f.String("input", "", "merged hourly table (csv)")
	f.String("output", "features.csv", "output path for the daily feature table")
	f.String("predictors", "predictors.txt", "output path for the ordered predictor list")
	_ = featuresCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	predictorsPath, _ := cmd.Flags().GetString("predictors")

	log := zap.L().With(zap.String("command", "features"))

	return trackStage(ctx, "features", func(ctx context.Context) (stageResult, error) {
		hourly, err := artifact.ReadCSV[model.HourlyRecord](inputPath)
		if err != nil {
			return stageResult{}, err
		}

		rows, report, err := features.Build(hourly, cfg.Features)
		if err != nil {
			return stageResult{}, err
		}

		if err := artifact.WriteCSV(outputPath, rows); err != nil {
			return stageResult{}, err
		}
		if err := artifact.WriteLines(predictorsPath, features.Predictors()); err != nil {
			return stageResult{}, err
		}

		log.Info("wrote feature table",
			zap.String("output", outputPath),
			zap.String("predictors", predictorsPath),
			zap.Int("rows", len(rows)),
		)
		return stageResult{
			rowsIn:   report.DailyRows,
			rowsOut:  len(rows),
			drops:    report.Drops(),
			artifact: outputPath,
		}, nil
	})
}
