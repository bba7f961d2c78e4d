package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridsight/energycast/internal/predictor"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Apply a trained model to new feature rows",
	Long: `Loads a model bundle and predicts consumption for each input row,
writing the input columns back out with predicted_electricity_usage
appended, in input row order.

The input must contain every predictor column recorded with the model
(column order does not matter); a missing predictor column is a schema
error, never a silent prediction from incomplete input.

Example:
  energycast predict --model model.bin --input features.csv \
      --output predictions.csv`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.String("model", "", "trained model bundle")
	f.String("input", "", "feature rows to predict (csv)")
	f.String("output", "predictions.csv", "output path for predictions")
	_ = predictCmd.MarkFlagRequired("model")
	_ = predictCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	modelPath, _ := cmd.Flags().GetString("model")
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")

	return trackStage(ctx, "predict", func(ctx context.Context) (stageResult, error) {
		rows, err := predictor.Run(modelPath, inputPath, outputPath)
		if err != nil {
			return stageResult{}, err
		}
		return stageResult{
			rowsIn:   rows,
			rowsOut:  rows,
			artifact: outputPath,
		}, nil
	})
}
