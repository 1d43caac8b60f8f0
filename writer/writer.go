// Package writer applies the trained models to the final dataset and
// writes the tabular outputs the dashboard reads.
package writer

import (
	"fmt"
	"math"
	"sort"

	"fieldops-forecast/ml"
	"fieldops-forecast/models"

	"gonum.org/v1/gonum/stat"
)

// MissingValue stands for "no prediction" in integer output columns.
const MissingValue = -1

// Predictor fills one output column.
type Predictor interface {
	OutputColumn() string
	Predict(f *ml.Frame) ([]float64, error)
}

// Enrich returns a copy of f with one column per predictor, the median
// service duration rollups by team and by city, and the integer columns
// coerced. The model-only CLUSTER code is not carried over.
func Enrich(f *ml.Frame, predictors []Predictor) (*ml.Frame, error) {
	out := f.Clone()
	out.Name = "ML_dataframe_OPER"
	for _, p := range predictors {
		pred, err := p.Predict(f)
		if err != nil {
			return nil, fmt.Errorf("predicting %s: %w", p.OutputColumn(), err)
		}
		if err := out.SetNumeric(p.OutputColumn(), pred); err != nil {
			return nil, err
		}
	}

	for _, r := range []struct{ group, column string }{
		{models.ColPrefix, models.ColPrefixDurationPred},
		{models.ColMunicipality, models.ColCityDurationPred},
	} {
		medians, err := GroupMedian(out, r.group, models.ColServiceDurationPred)
		if err != nil {
			return nil, err
		}
		if err := out.SetNumeric(r.column, medians); err != nil {
			return nil, err
		}
	}

	if err := CoerceIntegers(out, models.IntegerOutputColumns); err != nil {
		return nil, err
	}
	out.Drop(models.ColCluster)
	return out, nil
}

// GroupMedian returns, for every row, the median of value over the rows
// sharing its group label. NaN values are ignored.
func GroupMedian(f *ml.Frame, group, value string) ([]float64, error) {
	labels, err := f.Categorical(group)
	if err != nil {
		return nil, err
	}
	values, err := f.Numeric(value)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]float64)
	for i, l := range labels {
		if !math.IsNaN(values[i]) {
			groups[l] = append(groups[l], values[i])
		}
	}
	medians := make(map[string]float64, len(groups))
	for l, v := range groups {
		medians[l] = median(v)
	}

	out := make([]float64, len(labels))
	for i, l := range labels {
		m, ok := medians[l]
		if !ok {
			m = math.NaN()
		}
		out[i] = m
	}
	return out, nil
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, s, nil)
	}
	return stat.Mean(s[n/2-1:n/2+1], nil)
}

// CoerceIntegers rounds the named numeric columns half to even,
// replaces NaN with MissingValue and flags them as integers.
func CoerceIntegers(f *ml.Frame, columns []string) error {
	for _, name := range columns {
		c, err := f.Column(name)
		if err != nil {
			return err
		}
		if c.Kind != ml.Numeric {
			return fmt.Errorf("coercing %q: not a numeric column", name)
		}
		out := make([]float64, len(c.Num))
		for i, v := range c.Num {
			if math.IsNaN(v) {
				out[i] = MissingValue
				continue
			}
			out[i] = math.RoundToEven(v)
		}
		if err := f.SetInteger(name, out); err != nil {
			return err
		}
	}
	return nil
}
