package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/artifact"
	"github.com/gridsight/energycast/internal/model"
	"github.com/gridsight/energycast/internal/trainer"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the random-forest regressor and evaluate it",
	Long: `Splits the feature table into train and held-out test partitions
(seed-reproducible), cross-validates RMSE on the training partition, refits
on the full training partition, and writes the model bundle, a metrics
report, and the ranked feature importances.

Out-of-range parameters (folds < 2, test size outside (0,1), trees < 1)
fail before any fitting starts.

Examples:
  energycast train --input features.csv --predictors predictors.txt \
      --model model.bin

  # More trees, different split
  energycast train --input features.csv --predictors predictors.txt \
      --model model.bin --trees 300 --test-size 0.2`,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.String("input", "", "daily feature table (csv)")
	f.String("predictors", "predictors.txt", "ordered predictor list")
	f.String("model", "model.bin", "output path for the model bundle")
	f.String("metrics", "metrics.txt", "output path for the metrics report")
	f.String("importance", "feature_importance.csv", "output path for ranked feature importances")
	f.Int("trees", 0, "number of trees (default from config: 100)")
	f.Int("folds", 0, "cross-validation folds (default from config: 5)")
	f.Float64("test-size", 0, "held-out test proportion (default from config: 0.3)")
	f.Int64("seed", 0, "random seed (default from config: 42)")
	_ = trainCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	predictorsPath, _ := cmd.Flags().GetString("predictors")
	modelPath, _ := cmd.Flags().GetString("model")
	metricsPath, _ := cmd.Flags().GetString("metrics")
	importancePath, _ := cmd.Flags().GetString("importance")

	tcfg := cfg.Train
	if v, _ := cmd.Flags().GetInt("trees"); v != 0 {
		tcfg.Trees = v
	}
	if v, _ := cmd.Flags().GetInt("folds"); v != 0 {
		tcfg.Folds = v
	}
	if v, _ := cmd.Flags().GetFloat64("test-size"); v != 0 {
		tcfg.TestSize = v
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		tcfg.Seed = v
	}
	if err := tcfg.Validate(); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "train"))

	return trackStage(ctx, "train", func(ctx context.Context) (stageResult, error) {
		records, err := artifact.ReadCSV[model.FeatureRecord](inputPath)
		if err != nil {
			return stageResult{}, err
		}
		predictors, err := artifact.ReadLines(predictorsPath)
		if err != nil {
			return stageResult{}, err
		}

		f, result, err := trainer.Train(ctx, records, predictors, tcfg)
		if err != nil {
			return stageResult{}, err
		}

		if err := f.Save(modelPath); err != nil {
			return stageResult{}, err
		}
		if err := trainer.WriteMetrics(metricsPath, result.Metrics); err != nil {
			return stageResult{}, err
		}
		if err := trainer.WriteImportance(importancePath, result.Importance); err != nil {
			return stageResult{}, err
		}

		log.Info("wrote model bundle",
			zap.String("model", modelPath),
			zap.String("metrics", metricsPath),
			zap.String("importance", importancePath),
		)
		return stageResult{
			rowsIn:   len(records),
			rowsOut:  result.TrainRows + result.TestRows,
			artifact: modelPath,
		}, nil
	})
}
