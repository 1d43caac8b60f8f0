package ml

import (
	"fmt"

	customerrors "fieldops-forecast/errors"
)

// Pipeline chains optional preprocessing steps in front of one estimator.
// Steps run in the order Encoder, Imputer, Scaler. A nil step is skipped;
// exactly one of Regressor and Classifier is set.
type Pipeline struct {
	Features   []string                    `json:"features"`
	Encoder    *OneHotEncoder              `json:"encoder,omitempty"`
	Imputer    *MeanImputer                `json:"imputer,omitempty"`
	Scaler     *StandardScaler             `json:"scaler,omitempty"`
	Regressor  *GradientBoostingRegressor  `json:"regressor,omitempty"`
	Classifier *GradientBoostingClassifier `json:"classifier,omitempty"`
}

// Fit learns every step on the Features columns of f and the target y.
func (p *Pipeline) Fit(f *Frame, y []float64) error {
	if (p.Regressor == nil) == (p.Classifier == nil) {
		return fmt.Errorf("pipeline needs exactly one estimator: %w", customerrors.ErrInvalidParameter)
	}
	if len(y) != f.Len() {
		return fmt.Errorf("%d targets for %d rows: %w", len(y), f.Len(), customerrors.ErrLengthMismatch)
	}

	var X [][]float64
	var err error
	if p.Encoder != nil {
		if err = p.Encoder.Fit(f, p.Features); err != nil {
			return err
		}
		X, err = p.Encoder.Transform(f, p.Features)
	} else {
		X, err = f.Matrix(p.Features)
	}
	if err != nil {
		return err
	}

	if p.Imputer != nil {
		p.Imputer.Fit(X)
		X = p.Imputer.Transform(X)
	}
	if p.Scaler != nil {
		p.Scaler.Fit(X)
		X = p.Scaler.Transform(X)
	}

	if p.Regressor != nil {
		return p.Regressor.Fit(X, y)
	}
	return p.Classifier.Fit(X, y)
}

// Predict runs f through the fitted steps. A missing feature column is a
// SchemaError.
func (p *Pipeline) Predict(f *Frame) ([]float64, error) {
	X, err := p.design(f)
	if err != nil {
		return nil, err
	}
	switch {
	case p.Regressor != nil:
		return p.Regressor.Predict(X)
	case p.Classifier != nil:
		return p.Classifier.Predict(X)
	default:
		return nil, customerrors.ErrModelNotFitted
	}
}

// InputColumns returns the columns the estimator sees, after encoding.
func (p *Pipeline) InputColumns() []string {
	if p.Encoder != nil {
		return append([]string(nil), p.Encoder.Output...)
	}
	return append([]string(nil), p.Features...)
}

func (p *Pipeline) design(f *Frame) ([][]float64, error) {
	var X [][]float64
	var err error
	if p.Encoder != nil {
		X, err = p.Encoder.Transform(f, p.Features)
	} else {
		X, err = f.Matrix(p.Features)
	}
	if err != nil {
		return nil, err
	}
	if p.Imputer != nil {
		if p.Imputer.Means == nil {
			return nil, customerrors.ErrModelNotFitted
		}
		X = p.Imputer.Transform(X)
	}
	if p.Scaler != nil {
		if p.Scaler.Mean == nil {
			return nil, customerrors.ErrModelNotFitted
		}
		X = p.Scaler.Transform(X)
	}
	return X, nil
}
