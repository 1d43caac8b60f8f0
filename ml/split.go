package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	customerrors "fieldops-forecast/errors"

	"golang.org/x/sync/errgroup"
)

// DefaultTestFraction is the share of rows held out for evaluation.
const DefaultTestFraction = 0.2

// TrainTestSplit shuffles the row indexes 0..n-1 with seed and holds out
// ceil(testFraction*n) of them. Both parts are non-empty.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction %g: %w", testFraction, customerrors.ErrInvalidParameter)
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n-nTest < 1 || nTest < 1 {
		return nil, nil, fmt.Errorf("cannot split %d rows: %w", n, customerrors.ErrNoTrainingRows)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Fold is one train/validation partition of a cross-validation.
type Fold struct {
	Train []int
	Valid []int
}

// KFold cuts 0..n-1 into k contiguous validation folds without shuffling.
// The first n%k folds get one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 || n < k {
		return nil, fmt.Errorf("%d folds over %d rows: %w", k, n, customerrors.ErrInvalidParameter)
	}
	folds := make([]Fold, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		fold := Fold{}
		for i := 0; i < n; i++ {
			if i >= start && i < start+size {
				fold.Valid = append(fold.Valid, i)
			} else {
				fold.Train = append(fold.Train, i)
			}
		}
		folds = append(folds, fold)
		start += size
	}
	return folds, nil
}

// Grid lists the values tried for each tuned parameter.
type Grid struct {
	NEstimators  []int
	LearningRate []float64
	MaxDepth     []int
	Subsample    []float64
}

// TravelGrid is the search space of the travel time model.
var TravelGrid = Grid{
	NEstimators:  []int{100, 300},
	LearningRate: []float64{0.01, 0.1},
	MaxDepth:     []int{3, 6},
	Subsample:    []float64{0.8, 1.0},
}

// Candidates expands the grid over base. An empty axis keeps the base value.
// The last axis varies fastest.
func (g Grid) Candidates(base Params) []Params {
	nEst := g.NEstimators
	if len(nEst) == 0 {
		nEst = []int{base.NEstimators}
	}
	lr := g.LearningRate
	if len(lr) == 0 {
		lr = []float64{base.LearningRate}
	}
	depth := g.MaxDepth
	if len(depth) == 0 {
		depth = []int{base.MaxDepth}
	}
	sub := g.Subsample
	if len(sub) == 0 {
		sub = []float64{base.Subsample}
	}

	var out []Params
	for _, lrv := range lr {
		for _, d := range depth {
			for _, n := range nEst {
				for _, s := range sub {
					p := base
					p.NEstimators, p.LearningRate, p.MaxDepth, p.Subsample = n, lrv, d, s
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// SearchResult is the outcome of a grid search.
type SearchResult struct {
	Candidates []Params
	// Scores holds the mean validation R2 of each candidate.
	Scores    []float64
	BestIndex int
	Best      *Pipeline
}

// BestParams returns the winning candidate.
func (r *SearchResult) BestParams() Params {
	return r.Candidates[r.BestIndex]
}

// BestScore returns the winning mean validation R2.
func (r *SearchResult) BestScore() float64 {
	return r.Scores[r.BestIndex]
}

// GridSearch scores every grid candidate by mean R2 over k contiguous folds
// of (f, y), then refits the best one on all of f. build returns a fresh
// unfitted pipeline for a candidate. Candidate-fold fits run on up to workers
// goroutines (0 means one per CPU), each on its own copy of the rows. Ties go
// to the earlier candidate.
func GridSearch(ctx context.Context, build func(Params) *Pipeline, f *Frame, y []float64,
	grid Grid, base Params, k, workers int) (*SearchResult, error) {
	if len(y) != f.Len() {
		return nil, fmt.Errorf("%d targets for %d rows: %w", len(y), f.Len(), customerrors.ErrLengthMismatch)
	}
	folds, err := KFold(f.Len(), k)
	if err != nil {
		return nil, err
	}
	candidates := grid.Candidates(base)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	scores := make([][]float64, len(candidates))
	for c := range scores {
		scores[c] = make([]float64, len(folds))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := range candidates {
		for fi := range folds {
			c, fi := c, fi
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				fold := folds[fi]
				p := build(candidates[c])
				if err := p.Fit(f.Take(fold.Train), takeFloats(y, fold.Train)); err != nil {
					return fmt.Errorf("candidate %s fold %d: %w", candidates[c], fi, err)
				}
				pred, err := p.Predict(f.Take(fold.Valid))
				if err != nil {
					return fmt.Errorf("candidate %s fold %d: %w", candidates[c], fi, err)
				}
				scores[c][fi] = R2(takeFloats(y, fold.Valid), pred)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SearchResult{Candidates: candidates, Scores: make([]float64, len(candidates))}
	for c := range candidates {
		result.Scores[c] = mean(scores[c])
		if result.Scores[c] > result.Scores[result.BestIndex] {
			result.BestIndex = c
		}
	}

	result.Best = build(result.BestParams())
	if err := result.Best.Fit(f, y); err != nil {
		return nil, err
	}
	return result, nil
}

func takeFloats(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}
