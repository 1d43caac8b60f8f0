package ml

import (
	"fmt"
	"math"
	"math/rand"

	customerrors "fieldops-forecast/errors"

	"gonum.org/v1/gonum/stat"
)

// Params configure a gradient boosting model.
type Params struct {
	NEstimators    int     `json:"n_estimators"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	Subsample      float64 `json:"subsample"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	Seed           int64   `json:"seed"`
}

// DefaultParams returns 100 depth-3 trees with shrinkage 0.1, no row
// subsampling and seed 42.
func DefaultParams() Params {
	return Params{
		NEstimators:    100,
		LearningRate:   0.1,
		MaxDepth:       3,
		Subsample:      1.0,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// Validate rejects parameters boosting cannot run with.
func (p Params) Validate() error {
	switch {
	case p.NEstimators < 1:
		return fmt.Errorf("n_estimators %d: %w", p.NEstimators, customerrors.ErrInvalidParameter)
	case p.LearningRate <= 0:
		return fmt.Errorf("learning_rate %g: %w", p.LearningRate, customerrors.ErrInvalidParameter)
	case p.MaxDepth < 1:
		return fmt.Errorf("max_depth %d: %w", p.MaxDepth, customerrors.ErrInvalidParameter)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("subsample %g: %w", p.Subsample, customerrors.ErrInvalidParameter)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("n_estimators=%d learning_rate=%g max_depth=%d subsample=%g",
		p.NEstimators, p.LearningRate, p.MaxDepth, p.Subsample)
}

// sampler draws the rows each boosting stage is fitted on.
type sampler struct {
	rng  *rand.Rand
	n    int
	size int
	all  []int
}

func newSampler(n int, p Params) *sampler {
	size := int(p.Subsample * float64(n))
	if size < 1 {
		size = 1
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return &sampler{rng: rand.New(rand.NewSource(p.Seed)), n: n, size: size, all: all}
}

// next returns the full row set, or a fresh subsample without replacement.
func (s *sampler) next() []int {
	if s.size >= s.n {
		return s.all
	}
	return s.rng.Perm(s.n)[:s.size]
}

func checkTrainingSet(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return customerrors.ErrNoTrainingRows
	}
	if len(X) != len(y) {
		return fmt.Errorf("%d feature rows, %d targets: %w", len(X), len(y), customerrors.ErrLengthMismatch)
	}
	return nil
}

// GradientBoostingRegressor fits an additive model of regression trees to
// the squared loss, starting from the target mean.
type GradientBoostingRegressor struct {
	Params Params  `json:"params"`
	Init   float64 `json:"init"`
	Trees  []*Tree `json:"trees"`
}

// NewGradientBoostingRegressor returns an unfitted regressor.
func NewGradientBoostingRegressor(p Params) *GradientBoostingRegressor {
	return &GradientBoostingRegressor{Params: p}
}

// Fit trains the model on X and y, replacing any previous fit.
func (m *GradientBoostingRegressor) Fit(X [][]float64, y []float64) error {
	if err := m.Params.Validate(); err != nil {
		return err
	}
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	m.Init = mean(y)
	m.Trees = make([]*Tree, 0, m.Params.NEstimators)

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.Init
	}
	residual := make([]float64, len(y))
	s := newSampler(len(y), m.Params)

	for t := 0; t < m.Params.NEstimators; t++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := fitTree(X, residual, s.next(), m.Params.MaxDepth, m.Params.MinSamplesLeaf)
		for i := range tree.Nodes {
			tree.Nodes[i].Value *= m.Params.LearningRate
		}
		for i, x := range X {
			pred[i] += tree.Predict(x)
		}
		m.Trees = append(m.Trees, tree)
	}
	return nil
}

// Predict returns one value per row of X.
func (m *GradientBoostingRegressor) Predict(X [][]float64) ([]float64, error) {
	if m.Trees == nil {
		return nil, customerrors.ErrModelNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		v := m.Init
		for _, t := range m.Trees {
			v += t.Predict(x)
		}
		out[i] = v
	}
	return out, nil
}

// GradientBoostingClassifier is a binary classifier boosting trees on the
// log-loss. Labels are 0 and 1.
type GradientBoostingClassifier struct {
	Params Params  `json:"params"`
	Init   float64 `json:"init"`
	Trees  []*Tree `json:"trees"`
}

// NewGradientBoostingClassifier returns an unfitted classifier.
func NewGradientBoostingClassifier(p Params) *GradientBoostingClassifier {
	return &GradientBoostingClassifier{Params: p}
}

const probabilityEpsilon = 1e-6

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Fit trains the classifier. Any label other than 1 counts as class 0.
func (m *GradientBoostingClassifier) Fit(X [][]float64, y []float64) error {
	if err := m.Params.Validate(); err != nil {
		return err
	}
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	labels := make([]float64, len(y))
	for i, v := range y {
		if v == 1 {
			labels[i] = 1
		}
	}
	p := math.Min(math.Max(mean(labels), probabilityEpsilon), 1-probabilityEpsilon)
	m.Init = math.Log(p / (1 - p))
	m.Trees = make([]*Tree, 0, m.Params.NEstimators)

	raw := make([]float64, len(y))
	for i := range raw {
		raw[i] = m.Init
	}
	residual := make([]float64, len(y))
	s := newSampler(len(y), m.Params)

	for t := 0; t < m.Params.NEstimators; t++ {
		for i := range labels {
			residual[i] = labels[i] - sigmoid(raw[i])
		}
		rows := s.next()
		tree := fitTree(X, residual, rows, m.Params.MaxDepth, m.Params.MinSamplesLeaf)

		// One Newton step per leaf: sum(residual) / sum(p(1-p)).
		num := make([]float64, len(tree.Nodes))
		den := make([]float64, len(tree.Nodes))
		for _, i := range rows {
			leaf := tree.leaf(X[i])
			prob := sigmoid(raw[i])
			num[leaf] += residual[i]
			den[leaf] += prob * (1 - prob)
		}
		for i := range tree.Nodes {
			if !tree.Nodes[i].Leaf {
				continue
			}
			v := 0.0
			if den[i] > 1e-150 {
				v = num[i] / den[i]
			}
			tree.Nodes[i].Value = v * m.Params.LearningRate
		}

		for i, x := range X {
			raw[i] += tree.Predict(x)
		}
		m.Trees = append(m.Trees, tree)
	}
	return nil
}

// PredictProba returns the probability of class 1 for each row.
func (m *GradientBoostingClassifier) PredictProba(X [][]float64) ([]float64, error) {
	if m.Trees == nil {
		return nil, customerrors.ErrModelNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		z := m.Init
		for _, t := range m.Trees {
			z += t.Predict(x)
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

// Predict returns 1 where the class-1 probability exceeds 0.5, else 0.
func (m *GradientBoostingClassifier) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i, p := range proba {
		if p > 0.5 {
			proba[i] = 1
		} else {
			proba[i] = 0
		}
	}
	return proba, nil
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return stat.Mean(v, nil)
}
