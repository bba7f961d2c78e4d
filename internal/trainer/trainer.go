package trainer

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/artifact"
	"github.com/gridsight/energycast/internal/config"
	"github.com/gridsight/energycast/internal/forest"
	"github.com/gridsight/energycast/internal/model"
)

// Importance is one row of the feature-importance artifact.
type Importance struct {
	Feature string  `csv:"Feature"`
	Score   float64 `csv:"Importance"`
}

// Result bundles everything a training run reports.
type Result struct {
	Metrics    Metrics
	Importance []Importance // ranked descending
	TrainRows  int
	TestRows   int
}

// Train fits the forecasting model on the feature table.
//
// The held-out test partition is carved off first (seed-reproducible), the
// k-fold CV runs on the training partition only as a robustness check, and
// the final model is refit on the full training partition before test-set
// evaluation. CV never selects the model.
func Train(ctx context.Context, records []model.FeatureRecord, predictors []string, cfg config.TrainConfig) (*forest.Forest, *Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(predictors) == 0 {
		return nil, nil, eris.New("trainer: empty predictor list")
	}
	if len(records) == 0 {
		return nil, nil, eris.New("trainer: empty feature table")
	}

	log := zap.L().With(zap.String("stage", "train"))

	x := make([][]float64, len(records))
	y := make([]float64, len(records))
	targetSeen := false
	for i := range records {
		row, err := records[i].Vector(predictors)
		if err != nil {
			return nil, nil, eris.Wrap(err, "trainer: feature table does not satisfy predictor list")
		}
		x[i] = row
		y[i] = records[i].Usage
		if !math.IsNaN(y[i]) {
			targetSeen = true
		}
	}
	if !targetSeen {
		return nil, nil, eris.Errorf("trainer: target column %s is entirely null", model.TargetColumn)
	}

	trainIdx, testIdx, err := trainTestSplit(len(records), cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	if len(trainIdx) < cfg.Folds {
		return nil, nil, eris.Errorf("trainer: %d training rows cannot support %d folds", len(trainIdx), cfg.Folds)
	}
	log.Info("split feature table",
		zap.Int("train_rows", len(trainIdx)),
		zap.Int("test_rows", len(testIdx)),
	)

	fcfg := forest.Config{Trees: cfg.Trees, Seed: cfg.Seed, MinLeaf: cfg.MinLeaf}

	foldRMSE, err := crossValidate(ctx, x, y, predictors, trainIdx, cfg.Folds, fcfg)
	if err != nil {
		return nil, nil, err
	}

	f, err := forest.Fit(ctx, gather(x, trainIdx), gatherY(y, trainIdx), predictors, fcfg)
	if err != nil {
		return nil, nil, err
	}

	testX, testY := gather(x, testIdx), gatherY(y, testIdx)
	predicted := f.PredictAll(testX)

	result := &Result{
		Metrics: Metrics{
			RMSE:     rmse(predicted, testY),
			MAE:      mae(predicted, testY),
			R2:       r2(predicted, testY),
			FoldRMSE: foldRMSE,
		},
		Importance: rankImportance(predictors, f.Importances()),
		TrainRows:  len(trainIdx),
		TestRows:   len(testIdx),
	}
	result.Metrics.CVMean, result.Metrics.CVStd = summarize(foldRMSE)

	log.Info("trained model",
		zap.Int("trees", cfg.Trees),
		zap.Float64("rmse", result.Metrics.RMSE),
		zap.Float64("mae", result.Metrics.MAE),
		zap.Float64("r2", result.Metrics.R2),
		zap.Float64("cv_mean_rmse", result.Metrics.CVMean),
		zap.Float64("cv_std_rmse", result.Metrics.CVStd),
	)
	return f, result, nil
}

// crossValidate fits one forest per fold on the remaining training rows and
// scores RMSE on the held-out fold.
func crossValidate(ctx context.Context, x [][]float64, y []float64, predictors []string, trainIdx []int, folds int, fcfg forest.Config) ([]float64, error) {
	foldRMSE := make([]float64, 0, folds)
	for i, fold := range kFold(trainIdx, folds) {
		rest := make([]int, 0, len(trainIdx)-len(fold))
		inFold := make(map[int]bool, len(fold))
		for _, r := range fold {
			inFold[r] = true
		}
		for _, r := range trainIdx {
			if !inFold[r] {
				rest = append(rest, r)
			}
		}

		f, err := forest.Fit(ctx, gather(x, rest), gatherY(y, rest), predictors, fcfg)
		if err != nil {
			return nil, eris.Wrapf(err, "trainer: cross-validation fold %d", i)
		}
		foldRMSE = append(foldRMSE, rmse(f.PredictAll(gather(x, fold)), gatherY(y, fold)))
	}
	return foldRMSE, nil
}

func gather(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = x[r]
	}
	return out
}

func gatherY(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}

// rankImportance pairs predictor names with scores, descending. Ties break
// on predictor-list order so the artifact is deterministic.
func rankImportance(predictors []string, scores []float64) []Importance {
	out := make([]Importance, len(predictors))
	for i, name := range predictors {
		out[i] = Importance{Feature: name, Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// WriteMetrics writes the plain-text metrics report.
func WriteMetrics(path string, m Metrics) error {
	return artifact.WriteFile(path, func(w io.Writer) error {
		_, err := fmt.Fprintf(w,
			"=== Model Performance Metrics ===\n"+
				"Root Mean Squared Error: %.4f\n"+
				"R^2 Score: %.4f\n"+
				"Mean Absolute Error: %.4f\n"+
				"\n=== Cross-Validation Results ===\n"+
				"Mean RMSE: %.4f\n"+
				"Standard Deviation of RMSE: %.4f\n",
			m.RMSE, m.R2, m.MAE, m.CVMean, m.CVStd,
		)
		return eris.Wrapf(err, "trainer: write metrics %s", path)
	})
}

// WriteImportance writes the ranked feature-importance artifact.
func WriteImportance(path string, imps []Importance) error {
	return artifact.WriteCSV(path, imps)
}
