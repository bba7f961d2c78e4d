package forest

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/gridsight/energycast/internal/artifact"
)

// Save persists the fitted forest, including its predictor contract, as a
// gob binary artifact (atomic write).
func (f *Forest) Save(path string) error {
	return artifact.WriteFile(path, func(w io.Writer) error {
		if err := gob.NewEncoder(w).Encode(f); err != nil {
			return eris.Wrapf(err, "forest: encode model to %s", path)
		}
		return nil
	})
}

// Load reads a forest persisted by Save.
func Load(path string) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "forest: open model %s", path)
	}
	defer file.Close() //nolint:errcheck

	var f Forest
	if err := gob.NewDecoder(file).Decode(&f); err != nil {
		return nil, eris.Wrapf(err, "forest: decode model %s", path)
	}
	if len(f.Trees) == 0 || len(f.Predictors) == 0 {
		return nil, eris.Errorf("forest: model %s is empty", path)
	}
	return &f, nil
}
