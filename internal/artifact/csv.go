package artifact

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// WriteCSV atomically writes rows as a struct-tagged CSV artifact.
func WriteCSV[T any](path string, rows []T) error {
	return WriteFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		enc := csvutil.NewEncoder(cw)
		for i := range rows {
			if err := enc.Encode(rows[i]); err != nil {
				return eris.Wrapf(err, "artifact: encode row %d of %s", i, path)
			}
		}
		cw.Flush()
		return eris.Wrapf(cw.Error(), "artifact: write %s", path)
	})
}

// ReadCSV reads a struct-tagged CSV artifact. A header missing any column
// the struct declares is a schema error raised before any row is decoded.
func ReadCSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: read header of %s", path)
	}
	dec.DisallowMissingColumns = true

	var rows []T
	for {
		var row T
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "artifact: decode %s", path)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
