package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/artifact"
	"github.com/gridsight/energycast/internal/merge"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge raw electricity, weather, and metadata files into the hourly table",
	Long: `Unpivots the wide electricity file (one column per building, hourly rows)
to long format, joins building metadata on building_id and weather on
(site_id, timestamp), and writes one hourly CSV with no duplicate
(building_id, timestamp) keys. Unmatched rows are dropped and counted;
an unparseable timestamp fails the merge outright.

Examples:
  # Merge the three raw files
  energycast merge --metadata metadata.csv --weather weather.csv \
      --electricity electricity.csv --output merged.csv

  # Metadata and weather may also be Excel workbooks
  energycast merge --metadata metadata.xlsx --weather weather.xlsx \
      --electricity electricity.csv --output merged.csv`,
	RunE: runMerge,
}

func init() {
	f := mergeCmd.Flags()
	f.String("metadata", "", "building metadata file (csv or xlsx)")
	f.String("weather", "", "weather observations file (csv or xlsx)")
	f.String("electricity", "", "wide electricity usage file (csv)")
	f.String("output", "merged.csv", "output path for the hourly merged table")
	_ = mergeCmd.MarkFlagRequired("metadata")
	_ = mergeCmd.MarkFlagRequired("weather")
	_ = mergeCmd.MarkFlagRequired("electricity")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metadataPath, _ := cmd.Flags().GetString("metadata")
	weatherPath, _ := cmd.Flags().GetString("weather")
	electricityPath, _ := cmd.Flags().GetString("electricity")
	outputPath, _ := cmd.Flags().GetString("output")

	log := zap.L().With(zap.String("command", "merge"))

	return trackStage(ctx, "merge", func(ctx context.Context) (stageResult, error) {
		records, report, err := merge.Run(metadataPath, weatherPath, electricityPath)
		if err != nil {
			return stageResult{}, err
		}
		if err := artifact.WriteCSV(outputPath, records); err != nil {
			return stageResult{}, err
		}

		log.Info("wrote merged table",
			zap.String("output", outputPath),
			zap.Int("rows", len(records)),
			zap.Int("missing_metadata", report.MissingMetadata),
			zap.Int("missing_weather", report.MissingWeather),
		)
		return stageResult{
			rowsIn:   len(records) + report.MissingMetadata + report.MissingWeather,
			rowsOut:  len(records),
			drops:    report.Drops(),
			artifact: outputPath,
		}, nil
	})
}
