package ml_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/ml"
	"fieldops-forecast/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepFrame has y = 10 when x < 50 and 30 otherwise, plus a noise column.
// Rows are scattered over x so contiguous folds see both levels.
func stepFrame(n int) (*ml.Frame, []float64) {
	f := ml.NewFrame("train", n)
	x := make([]float64, n)
	noise := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64((i * 37) % 100)
		noise[i] = float64((i * 7) % 13)
		if x[i] < 50 {
			y[i] = 10
		} else {
			y[i] = 30
		}
	}
	_ = f.SetNumeric("x", x)
	_ = f.SetNumeric("noise", noise)
	return f, y
}

func TestFrame(t *testing.T) {
	f := ml.NewFrame("t", 3)
	require.NoError(t, f.SetNumeric("a", []float64{1, math.NaN(), 3}))
	require.NoError(t, f.SetCategorical("b", []string{"x", "y", "z"}))

	err := f.SetNumeric("c", []float64{1})
	assert.True(t, errors.Is(err, customerrors.ErrLengthMismatch))

	_, err = f.Select([]string{"a", "missing"})
	assert.True(t, errors.Is(err, customerrors.ErrMissingColumn))

	rows, err := f.CompleteRows([]string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, rows)

	sub := f.Take([]int{2, 0})
	cat, _ := sub.Categorical("b")
	assert.Equal(t, []string{"z", "x"}, cat)

	filled, err := f.FillNaN([]string{"a"}, 0)
	require.NoError(t, err)
	a, _ := filled.Numeric("a")
	assert.Equal(t, []float64{1, 0, 3}, a)
	orig, _ := f.Numeric("a")
	assert.True(t, math.IsNaN(orig[1]))

	f.Drop("a")
	assert.Equal(t, []string{"b"}, f.Names())
}

func TestPreprocessing(t *testing.T) {
	X := [][]float64{{1, math.NaN()}, {3, 4}, {5, math.NaN()}}

	var imp ml.MeanImputer
	imp.Fit(X)
	assert.Equal(t, []float64{3, 4}, imp.Means)
	filled := imp.Transform(X)
	assert.Equal(t, 4.0, filled[0][1])
	assert.True(t, math.IsNaN(X[0][1]), "input is not modified")

	var sc ml.StandardScaler
	sc.Fit(filled)
	assert.InDelta(t, 3.0, sc.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(8.0/3.0), sc.Scale[0], 1e-12)
	assert.Equal(t, 1.0, sc.Scale[1], "constant column keeps unit scale")
	out := sc.Transform(filled)
	assert.InDelta(t, 0.0, out[1][0], 1e-12)
}

func TestOneHotEncoder(t *testing.T) {
	train := ml.NewFrame("train", 3)
	_ = train.SetCategorical("city", []string{"B", "A", "C"})
	_ = train.SetNumeric("month", []float64{1, 2, 3})

	var enc ml.OneHotEncoder
	require.NoError(t, enc.Fit(train, []string{"city", "month"}))
	assert.Equal(t, []string{"month", "city_B", "city_C"}, enc.Output)

	future := ml.NewFrame("future", 2)
	_ = future.SetCategorical("city", []string{"C", "Z"})
	_ = future.SetNumeric("month", []float64{13, 14})

	X, err := enc.Transform(future, []string{"city", "month"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{13, 0, 1}, {14, 0, 0}}, X)
}

func TestReindex(t *testing.T) {
	X := ml.Reindex([]string{"b", "extra"}, [][]float64{{1, 2}, {9, 9}}, []string{"a", "b"}, 2)
	assert.Equal(t, [][]float64{{0, 1}, {0, 2}}, X)
}

func TestGradientBoostingRegressor(t *testing.T) {
	f, y := stepFrame(200)
	X, err := f.Matrix([]string{"x", "noise"})
	require.NoError(t, err)

	m := ml.NewGradientBoostingRegressor(ml.DefaultParams())
	require.NoError(t, m.Fit(X, y))
	pred, err := m.Predict(X)
	require.NoError(t, err)

	assert.Less(t, ml.RMSE(y, pred), 0.5)
	assert.Greater(t, ml.R2(y, pred), 0.99)
}

func TestGradientBoostingRegressor_Errors(t *testing.T) {
	m := ml.NewGradientBoostingRegressor(ml.DefaultParams())
	_, err := m.Predict([][]float64{{1}})
	assert.True(t, errors.Is(err, customerrors.ErrModelNotFitted))

	err = m.Fit(nil, nil)
	assert.True(t, errors.Is(err, customerrors.ErrNoTrainingRows))

	p := ml.DefaultParams()
	p.Subsample = 0
	err = ml.NewGradientBoostingRegressor(p).Fit([][]float64{{1}}, []float64{1})
	assert.True(t, errors.Is(err, customerrors.ErrInvalidParameter))
}

func TestGradientBoostingClassifier(t *testing.T) {
	n := 120
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		v := float64(i)
		if i%10 == 0 {
			v = math.NaN()
		}
		X[i] = []float64{v}
		if i >= n/2 {
			y[i] = 1
		}
	}

	m := ml.NewGradientBoostingClassifier(ml.DefaultParams())
	require.NoError(t, m.Fit(X, y))

	pred, err := m.Predict(X)
	require.NoError(t, err)
	report := ml.Classify(y, pred)
	assert.Greater(t, report.Accuracy, 0.9)

	proba, err := m.PredictProba([][]float64{{5}, {115}})
	require.NoError(t, err)
	assert.Less(t, proba[0], 0.5)
	assert.Greater(t, proba[1], 0.5)
}

func TestScores(t *testing.T) {
	assert.Equal(t, 0.0, ml.RMSE([]float64{1, 2}, []float64{1, 2}))
	assert.InDelta(t, 1.0, ml.RMSE([]float64{0, 0}, []float64{1, -1}), 1e-12)
	assert.Equal(t, 1.0, ml.R2([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, ml.R2([]float64{2, 2}, []float64{1, 3}))
	assert.InDelta(t, 0.8, ml.R2([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 5}), 1e-12)
	assert.InDelta(t, 0.5, ml.RMSE([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 5}), 1e-12)

	r := ml.Classify([]float64{1, 1, 0, 0}, []float64{1, 0, 0, 0})
	assert.InDelta(t, 2.0/3.0, r.Classes[0].Precision, 1e-12)
	assert.Equal(t, 1.0, r.Classes[0].Recall)
	assert.Equal(t, 1.0, r.Classes[1].Precision)
	assert.Equal(t, 0.5, r.Classes[1].Recall)
	assert.InDelta(t, (0.8+2.0/3.0)/2, r.Macro.F1, 1e-12)
	assert.Equal(t, 0.75, r.Accuracy)
	assert.Equal(t, 4, r.Macro.Support)

	empty := ml.Classify([]float64{0, 0}, []float64{0, 0})
	assert.Equal(t, 0.0, empty.Classes[1].Precision)
}

func TestTrainTestSplit(t *testing.T) {
	train, test, err := ml.TrainTestSplit(11, ml.DefaultTestFraction, 42)
	require.NoError(t, err)
	assert.Len(t, test, 3)
	assert.Len(t, train, 8)

	again, _, _ := ml.TrainTestSplit(11, ml.DefaultTestFraction, 42)
	assert.Equal(t, train, again, "same seed, same split")

	seen := map[int]bool{}
	for _, i := range append(train, test...) {
		seen[i] = true
	}
	assert.Len(t, seen, 11)

	_, _, err = ml.TrainTestSplit(1, ml.DefaultTestFraction, 42)
	assert.True(t, errors.Is(err, customerrors.ErrNoTrainingRows))
}

func TestKFold(t *testing.T) {
	folds, err := ml.KFold(10, 3)
	require.NoError(t, err)
	require.Len(t, folds, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, folds[0].Valid)
	assert.Equal(t, []int{4, 5, 6}, folds[1].Valid)
	assert.Equal(t, []int{7, 8, 9}, folds[2].Valid)
	assert.Len(t, folds[1].Train, 7)

	_, err = ml.KFold(2, 3)
	assert.True(t, errors.Is(err, customerrors.ErrInvalidParameter))
}

func TestGridCandidates(t *testing.T) {
	c := ml.TravelGrid.Candidates(ml.DefaultParams())
	assert.Len(t, c, 16)
	assert.Equal(t, 0.01, c[0].LearningRate)
	assert.Equal(t, 0.8, c[0].Subsample)
	assert.Equal(t, 1.0, c[1].Subsample)
	for _, p := range c {
		assert.Equal(t, int64(42), p.Seed)
	}

	single := ml.Grid{MaxDepth: []int{2}}.Candidates(ml.DefaultParams())
	require.Len(t, single, 1)
	assert.Equal(t, 100, single[0].NEstimators)
}

func TestGridSearch(t *testing.T) {
	f, y := stepFrame(90)
	build := func(p ml.Params) *ml.Pipeline {
		return &ml.Pipeline{
			Features:  []string{"x", "noise"},
			Imputer:   &ml.MeanImputer{},
			Scaler:    &ml.StandardScaler{},
			Regressor: ml.NewGradientBoostingRegressor(p),
		}
	}
	grid := ml.Grid{NEstimators: []int{1, 50}, LearningRate: []float64{0.1}}

	result, err := ml.GridSearch(context.Background(), build, f, y, grid, ml.DefaultParams(), 3, 2)
	require.NoError(t, err)
	require.Len(t, result.Scores, 2)
	assert.Equal(t, 1, result.BestIndex)
	assert.Equal(t, 50, result.BestParams().NEstimators)
	assert.Equal(t, result.Scores[1], result.BestScore())

	pred, err := result.Best.Predict(f)
	require.NoError(t, err)
	assert.Greater(t, ml.R2(y, pred), 0.9)
}

func TestGridSearch_Cancelled(t *testing.T) {
	f, y := stepFrame(30)
	build := func(p ml.Params) *ml.Pipeline {
		return &ml.Pipeline{Features: []string{"x"}, Regressor: ml.NewGradientBoostingRegressor(p)}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ml.GridSearch(ctx, build, f, y, ml.TravelGrid, ml.DefaultParams(), 3, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline(t *testing.T) {
	tests := map[string]struct {
		pipeline *ml.Pipeline
		wantErr  error
	}{
		"imputer and scaler": {
			pipeline: &ml.Pipeline{
				Features:  []string{"x"},
				Imputer:   &ml.MeanImputer{},
				Scaler:    &ml.StandardScaler{},
				Regressor: ml.NewGradientBoostingRegressor(ml.DefaultParams()),
			},
		},
		"missing feature": {
			pipeline: &ml.Pipeline{
				Features:  []string{"x", "absent"},
				Regressor: ml.NewGradientBoostingRegressor(ml.DefaultParams()),
			},
			wantErr: customerrors.ErrMissingColumn,
		},
		"no estimator": {
			pipeline: &ml.Pipeline{Features: []string{"x"}},
			wantErr:  customerrors.ErrInvalidParameter,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f, y := stepFrame(100)
			err := tt.pipeline.Fit(f, y)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			pred, err := tt.pipeline.Predict(f)
			require.NoError(t, err)
			assert.Len(t, pred, 100)
		})
	}
}

func TestArtifact_RoundTrip(t *testing.T) {
	f, y := stepFrame(100)
	_ = f.SetCategorical("city", func() []string {
		out := make([]string, 100)
		for i := range out {
			out[i] = []string{"A", "B", "C"}[i%3]
		}
		return out
	}())

	p := &ml.Pipeline{
		Features:  []string{"city", "x", "noise"},
		Encoder:   &ml.OneHotEncoder{},
		Imputer:   &ml.MeanImputer{},
		Scaler:    &ml.StandardScaler{},
		Regressor: ml.NewGradientBoostingRegressor(ml.DefaultParams()),
	}
	require.NoError(t, p.Fit(f, y))
	want, err := p.Predict(f)
	require.NoError(t, err)

	eval := &models.Evaluation{Target: "y", Kind: models.KindRegression, RMSE: 0.1, R2: 0.9}
	path := filepath.Join(t.TempDir(), "model.json")
	art := ml.NewArtifact("y", "run-1", p, eval, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, art.Save(path))

	loaded, err := ml.LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.Meta.RunID)
	assert.Equal(t, ml.FeatureHash([]string{"city", "x", "noise"}), loaded.Meta.FeatureHash)
	require.NoError(t, loaded.Check([]string{"city", "x", "noise"}))

	got, err := loaded.Predict(f)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}

	err = loaded.Check([]string{"x", "city", "noise"})
	assert.True(t, errors.Is(err, customerrors.ErrFeatureDrift))

	loaded.Pipeline.Features = []string{"x", "city", "noise"}
	_, err = loaded.Predict(f)
	assert.True(t, errors.Is(err, customerrors.ErrFeatureDrift), "pipeline features no longer match the metadata")
}

func TestArtifact_ClassifierRoundTrip(t *testing.T) {
	f, y := stepFrame(100)
	for i := range y {
		if y[i] == 30 {
			y[i] = 1
		} else {
			y[i] = 0
		}
	}
	p := &ml.Pipeline{Features: []string{"x"}, Classifier: ml.NewGradientBoostingClassifier(ml.DefaultParams())}
	require.NoError(t, p.Fit(f, y))
	want, _ := p.Predict(f)

	path := filepath.Join(t.TempDir(), "clf.json")
	require.NoError(t, ml.NewArtifact("y", "run-2", p, nil, time.Now()).Save(path))
	loaded, err := ml.LoadArtifact(path)
	require.NoError(t, err)
	got, err := loaded.Predict(f)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadArtifact_Missing(t *testing.T) {
	_, err := ml.LoadArtifact(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, errors.Is(err, customerrors.ErrMissingInput))
}
