package forest

import (
	"context"
	"math/rand"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Config controls how a forest is grown.
type Config struct {
	Trees    int   // number of trees in the ensemble
	Seed     int64 // base seed; tree i uses Seed+i so the parallel fit is deterministic
	MinLeaf  int   // minimum samples per leaf
	MaxDepth int   // 0 = unlimited
}

// Forest is a fitted ensemble. It is immutable after Fit: prediction never
// mutates it, and the same seed always reproduces the same trees.
type Forest struct {
	Config     Config
	Trees      []Tree
	Predictors []string    // ordered predictor names the forest was fit on
	Importance [][]float64 // per-tree summed SSE decrease per predictor
}

// Fit grows cfg.Trees trees on bootstrap samples of (x, y). Trees are fit
// in parallel; each tree owns its RNG so results do not depend on
// scheduling. x rows must align with the predictors slice.
func Fit(ctx context.Context, x [][]float64, y []float64, predictors []string, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, eris.New("forest: no training rows")
	}
	if len(x) != len(y) {
		return nil, eris.Errorf("forest: %d feature rows vs %d targets", len(x), len(y))
	}
	if cfg.Trees < 1 {
		return nil, eris.Errorf("forest: tree count must be >= 1, got %d", cfg.Trees)
	}
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}
	for i, row := range x {
		if len(row) != len(predictors) {
			return nil, eris.Errorf("forest: row %d has %d features, want %d", i, len(row), len(predictors))
		}
	}

	f := &Forest{
		Config:     cfg,
		Trees:      make([]Tree, cfg.Trees),
		Predictors: append([]string(nil), predictors...),
		Importance: make([][]float64, cfg.Trees),
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Trees; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))

			n := len(x)
			sample := make([]int, n)
			for j := range sample {
				sample[j] = rng.Intn(n)
			}

			b := &treeBuilder{
				x:          x,
				y:          y,
				minLeaf:    cfg.MinLeaf,
				maxDepth:   cfg.MaxDepth,
				importance: make([]float64, len(predictors)),
			}
			b.grow(sample, 0)

			f.Trees[i] = Tree{Nodes: b.nodes}
			f.Importance[i] = b.importance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "forest: fit")
	}
	return f, nil
}

// Predict averages the trees for a single feature vector.
func (f *Forest) Predict(x []float64) float64 {
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// PredictAll predicts every row.
func (f *Forest) PredictAll(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = f.Predict(row)
	}
	return out
}

// Importances returns per-predictor importance scores: each tree's SSE
// decrease is normalized to sum to one, then averaged across trees and
// renormalized. Scores sum to 1 unless no tree ever split.
func (f *Forest) Importances() []float64 {
	p := len(f.Predictors)
	avg := make([]float64, p)
	for _, imp := range f.Importance {
		total := 0.0
		for _, v := range imp {
			total += v
		}
		if total == 0 {
			continue
		}
		for j, v := range imp {
			avg[j] += v / total
		}
	}

	total := 0.0
	for _, v := range avg {
		total += v
	}
	if total > 0 {
		for j := range avg {
			avg[j] /= total
		}
	}
	return avg
}
