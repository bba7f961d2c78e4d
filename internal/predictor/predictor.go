// Package predictor applies a persisted model to new feature rows,
// enforcing the predictor contract recorded at training time.
package predictor

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/energycast/internal/artifact"
	"github.com/gridsight/energycast/internal/forest"
)

// PredictedColumn is appended to the input columns in the output file.
const PredictedColumn = "predicted_electricity_usage"

// columnMap resolves each recorded predictor to its position in the input
// header. Column order in the input is irrelevant; a missing predictor is a
// schema-mismatch error naming every absent column.
func columnMap(header, predictors []string) ([]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	cols := make([]int, len(predictors))
	var missing []string
	for i, name := range predictors {
		c, ok := idx[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[i] = c
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("predictor: input is missing predictor column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// apply produces one prediction per row, in input order. An empty or
// unparseable predictor cell is an error — incomplete input never yields a
// numeric prediction.
func apply(f *forest.Forest, cols []int, rows [][]string) ([]float64, error) {
	out := make([]float64, len(rows))
	vec := make([]float64, len(cols))
	for i, row := range rows {
		for j, c := range cols {
			if c >= len(row) {
				return nil, eris.Errorf("predictor: row %d is short: no value for %s", i+1, f.Predictors[j])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, eris.Errorf("predictor: row %d: invalid %s value %q", i+1, f.Predictors[j], row[c])
			}
			vec[j] = v
		}
		out[i] = f.Predict(vec)
	}
	return out, nil
}

// Run loads the model, validates the input schema, and writes the input
// rows back out with the prediction column appended. The loaded model is
// never refit or mutated. Returns the number of rows predicted.
func Run(modelPath, inputPath, outputPath string) (int, error) {
	f, err := forest.Load(modelPath)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return 0, eris.Wrapf(err, "predictor: open %s", inputPath)
	}
	defer in.Close() //nolint:errcheck

	reader := csv.NewReader(in)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, eris.Wrapf(err, "predictor: read %s", inputPath)
	}
	if len(records) == 0 {
		return 0, eris.Errorf("predictor: %s is empty", inputPath)
	}
	header, rows := records[0], records[1:]

	cols, err := columnMap(header, f.Predictors)
	if err != nil {
		return 0, err
	}
	predictions, err := apply(f, cols, rows)
	if err != nil {
		return 0, err
	}

	err = artifact.WriteFile(outputPath, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(append(append([]string{}, header...), PredictedColumn)); err != nil {
			return eris.Wrapf(err, "predictor: write header of %s", outputPath)
		}
		for i, row := range rows {
			rec := append(append([]string{}, row...), strconv.FormatFloat(predictions[i], 'f', -1, 64))
			if err := cw.Write(rec); err != nil {
				return eris.Wrapf(err, "predictor: write row %d of %s", i+1, outputPath)
			}
		}
		cw.Flush()
		return eris.Wrapf(cw.Error(), "predictor: write %s", outputPath)
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("wrote predictions",
		zap.String("output", outputPath),
		zap.Int("rows", len(rows)),
	)
	return len(rows), nil
}
