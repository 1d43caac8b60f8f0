// Package ml is a small supervised-learning toolkit: a columnar frame,
// preprocessing steps, gradient-boosted decision trees, data splitting and
// grid search, evaluation metrics, and artifact persistence.
package ml

import (
	"fmt"
	"math"

	customerrors "fieldops-forecast/errors"
)

// Kind tells whether a column holds numbers or category labels.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// Column is one named column of a Frame. Missing numeric values are NaN.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Cat  []string
	// Integer marks numeric columns written without decimals.
	Integer bool
}

func (c *Column) len() int {
	if c.Kind == Categorical {
		return len(c.Cat)
	}
	return len(c.Num)
}

func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Integer: c.Integer}
	if c.Kind == Categorical {
		out.Cat = make([]string, len(idx))
		for i, j := range idx {
			out.Cat[i] = c.Cat[j]
		}
		return out
	}
	out.Num = make([]float64, len(idx))
	for i, j := range idx {
		out.Num[i] = c.Num[j]
	}
	return out
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Integer: c.Integer}
	out.Num = append([]float64(nil), c.Num...)
	out.Cat = append([]string(nil), c.Cat...)
	return out
}

// Frame is an ordered set of equally long columns.
type Frame struct {
	Name  string
	rows  int
	order []string
	cols  map[string]*Column
}

// NewFrame returns an empty frame with the given row count.
func NewFrame(name string, rows int) *Frame {
	return &Frame{Name: name, rows: rows, cols: make(map[string]*Column)}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	return append([]string(nil), f.order...)
}

// Has reports whether the frame has a column called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the named column or a SchemaError.
func (f *Frame) Column(name string) (*Column, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, &customerrors.SchemaError{Table: f.Name, Column: name}
	}
	return c, nil
}

// Set adds c or replaces the column with the same name, keeping its position.
func (f *Frame) Set(c *Column) error {
	if c.len() != f.rows {
		return fmt.Errorf("column %q has %d rows, frame %s has %d: %w",
			c.Name, c.len(), f.Name, f.rows, customerrors.ErrLengthMismatch)
	}
	if _, exists := f.cols[c.Name]; !exists {
		f.order = append(f.order, c.Name)
	}
	f.cols[c.Name] = c
	return nil
}

// SetNumeric adds or replaces a numeric column.
func (f *Frame) SetNumeric(name string, values []float64) error {
	return f.Set(&Column{Name: name, Kind: Numeric, Num: values})
}

// SetInteger adds or replaces a numeric column flagged as integer.
func (f *Frame) SetInteger(name string, values []float64) error {
	return f.Set(&Column{Name: name, Kind: Numeric, Num: values, Integer: true})
}

// SetCategorical adds or replaces a label column.
func (f *Frame) SetCategorical(name string, values []string) error {
	return f.Set(&Column{Name: name, Kind: Categorical, Cat: values})
}

// Drop removes the named columns if present.
func (f *Frame) Drop(names ...string) {
	for _, n := range names {
		if _, ok := f.cols[n]; !ok {
			continue
		}
		delete(f.cols, n)
		for i, o := range f.order {
			if o == n {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("column %q of %s is not numeric: %w", name, f.Name, customerrors.ErrInvalidParameter)
	}
	return c.Num, nil
}

// Categorical returns the values of a label column.
func (f *Frame) Categorical(name string) ([]string, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Categorical {
		return nil, fmt.Errorf("column %q of %s is not categorical: %w", name, f.Name, customerrors.ErrInvalidParameter)
	}
	return c.Cat, nil
}

// Select returns a frame sharing the named columns, in the given order.
// A missing column is a SchemaError.
func (f *Frame) Select(names []string) (*Frame, error) {
	out := NewFrame(f.Name, f.rows)
	for _, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		out.order = append(out.order, n)
		out.cols[n] = c
	}
	return out, nil
}

// Take returns a copy holding only the rows at idx, in that order.
func (f *Frame) Take(idx []int) *Frame {
	out := NewFrame(f.Name, len(idx))
	for _, n := range f.order {
		out.order = append(out.order, n)
		out.cols[n] = f.cols[n].take(idx)
	}
	return out
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.Name, f.rows)
	for _, n := range f.order {
		out.order = append(out.order, n)
		out.cols[n] = f.cols[n].clone()
	}
	return out
}

// Filter returns the rows for which keep reports true.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	idx := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}

// Matrix returns the named numeric columns as row-major feature vectors.
func (f *Frame) Matrix(names []string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, n := range names {
		v, err := f.Numeric(n)
		if err != nil {
			return nil, err
		}
		cols[j] = v
	}
	X := make([][]float64, f.rows)
	for i := range X {
		row := make([]float64, len(names))
		for j := range cols {
			row[j] = cols[j][i]
		}
		X[i] = row
	}
	return X, nil
}

// CompleteRows returns the indexes of rows without NaN in the named columns.
func (f *Frame) CompleteRows(names []string) ([]int, error) {
	cols := make([][]float64, 0, len(names))
	for _, n := range names {
		v, err := f.Numeric(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, v)
	}
	idx := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		complete := true
		for _, c := range cols {
			if math.IsNaN(c[i]) {
				complete = false
				break
			}
		}
		if complete {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

// FillNaN returns a copy in which NaN in the named numeric columns is
// replaced by v.
func (f *Frame) FillNaN(names []string, v float64) (*Frame, error) {
	out := f.Clone()
	for _, n := range names {
		vals, err := out.Numeric(n)
		if err != nil {
			return nil, err
		}
		for i, x := range vals {
			if math.IsNaN(x) {
				vals[i] = v
			}
		}
	}
	return out, nil
}
