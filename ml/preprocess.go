package ml

import (
	"math"
	"sort"

	customerrors "fieldops-forecast/errors"

	"gonum.org/v1/gonum/stat"
)

// MeanImputer replaces NaN with the column mean seen at fit time.
type MeanImputer struct {
	Means []float64 `json:"means"`
}

// Fit learns one mean per column, ignoring NaN. An all-NaN column imputes 0.
func (m *MeanImputer) Fit(X [][]float64) {
	m.Means = nanMeans(X)
}

// Transform returns a copy of X with NaN replaced.
func (m *MeanImputer) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				v = m.Means[j]
			}
			r[j] = v
		}
		out[i] = r
	}
	return out
}

// StandardScaler centers each column and divides by its population
// standard deviation. Constant columns keep a scale of 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit learns the column statistics, ignoring NaN.
func (s *StandardScaler) Fit(X [][]float64) {
	s.Mean, s.Scale = nil, nil
	if len(X) == 0 {
		return
	}
	s.Mean = make([]float64, len(X[0]))
	s.Scale = make([]float64, len(X[0]))
	for j := range s.Mean {
		values := observed(X, j)
		if len(values) == 0 {
			s.Scale[j] = 1
			continue
		}
		m, sd := stat.PopMeanStdDev(values, nil)
		if sd < 1e-12 {
			sd = 1
		}
		s.Mean[j], s.Scale[j] = m, sd
	}
}

// Transform returns a standardized copy of X. NaN stays NaN.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = r
	}
	return out
}

func nanMeans(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	means := make([]float64, len(X[0]))
	for j := range means {
		if values := observed(X, j); len(values) > 0 {
			means[j] = stat.Mean(values, nil)
		}
	}
	return means
}

// observed returns the non-NaN values of column j.
func observed(X [][]float64, j int) []float64 {
	values := make([]float64, 0, len(X))
	for _, row := range X {
		if !math.IsNaN(row[j]) {
			values = append(values, row[j])
		}
	}
	return values
}

// OneHotEncoder expands categorical columns into 0/1 indicator columns named
// "<column>_<value>". Categories are sorted and the first one of each column
// is dropped. Numeric columns pass through first, in feature order.
type OneHotEncoder struct {
	Categories map[string][]string `json:"categories"`
	Output     []string            `json:"output"`
}

// Fit learns the categories of every categorical column among features.
func (e *OneHotEncoder) Fit(f *Frame, features []string) error {
	e.Categories = make(map[string][]string)
	var numeric, dummies []string
	for _, name := range features {
		c, err := f.Column(name)
		if err != nil {
			return err
		}
		if c.Kind == Numeric {
			numeric = append(numeric, name)
			continue
		}
		cats := distinct(c.Cat)
		e.Categories[name] = cats
		for _, v := range cats[min(1, len(cats)):] {
			dummies = append(dummies, dummyName(name, v))
		}
	}
	e.Output = append(append([]string{}, numeric...), dummies...)
	return nil
}

// Transform encodes f with every category it holds, including values never
// seen at fit time, and then reindexes onto the fitted output columns.
func (e *OneHotEncoder) Transform(f *Frame, features []string) ([][]float64, error) {
	if e.Output == nil {
		return nil, customerrors.ErrModelNotFitted
	}
	var names []string
	var cols [][]float64
	for _, name := range features {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if c.Kind == Numeric {
			names = append(names, name)
			cols = append(cols, c.Num)
			continue
		}
		for _, v := range distinct(c.Cat) {
			ind := make([]float64, f.Len())
			for i, got := range c.Cat {
				if got == v {
					ind[i] = 1
				}
			}
			names = append(names, dummyName(name, v))
			cols = append(cols, ind)
		}
	}
	return Reindex(names, cols, e.Output, f.Len()), nil
}

// Reindex lays the named columns out as rows over the target column list.
// Target columns absent from names are filled with 0; extra columns are
// dropped.
func Reindex(names []string, cols [][]float64, target []string, rows int) [][]float64 {
	at := make(map[string]int, len(names))
	for i, n := range names {
		at[n] = i
	}
	X := make([][]float64, rows)
	for i := range X {
		row := make([]float64, len(target))
		for j, n := range target {
			if k, ok := at[n]; ok {
				row[j] = cols[k][i]
			}
		}
		X[i] = row
	}
	return X
}

func dummyName(column, value string) string {
	return column + "_" + value
}

func distinct(values []string) []string {
	seen := make(map[string]struct{})
	for _, v := range values {
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
