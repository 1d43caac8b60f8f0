// Package balance undersamples training rows to equal effectiveness classes.
package balance

import (
	"math/rand"
	"sort"
	"strconv"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/ml"
)

// Undersample returns the row indexes of a class-balanced subset of rows.
// label holds 0/1 per row; rows with other labels are not part of either
// class. Each class is sampled without replacement down to the size of the
// smaller one, with a generator seeded by seed. When a class is empty the
// rows are returned unchanged with ok false.
func Undersample(rows []int, label []float64, seed int64) (kept []int, count0, count1 int, ok bool) {
	var class0, class1 []int
	for _, r := range rows {
		switch label[r] {
		case 0:
			class0 = append(class0, r)
		case 1:
			class1 = append(class1, r)
		}
	}
	count0, count1 = len(class0), len(class1)
	if count0 == 0 || count1 == 0 {
		return append([]int(nil), rows...), count0, count1, false
	}

	n := min(count0, count1)
	kept = append(sample(class0, n, seed), sample(class1, n, seed)...)
	sort.Ints(kept)
	return kept, count0, count1, true
}

func sample(class []int, n int, seed int64) []int {
	if n == len(class) {
		return append([]int(nil), class...)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(class))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = class[perm[i]]
	}
	return out
}

// BySegment balances f separately within each value of segmentCol, using
// labelCol as the class. Segments are visited in ascending order. A segment
// missing a class is kept whole and reported.
func BySegment(f *ml.Frame, segmentCol, labelCol string, seed int64, names map[float64]string) (*ml.Frame, []*customerrors.UnbalanceableSegmentWarning, error) {
	segment, err := f.Numeric(segmentCol)
	if err != nil {
		return nil, nil, err
	}
	label, err := f.Numeric(labelCol)
	if err != nil {
		return nil, nil, err
	}

	groups := make(map[float64][]int)
	var keys []float64
	for i, s := range segment {
		if _, seen := groups[s]; !seen {
			keys = append(keys, s)
		}
		groups[s] = append(groups[s], i)
	}
	sort.Float64s(keys)

	var idx []int
	var warnings []*customerrors.UnbalanceableSegmentWarning
	for _, k := range keys {
		kept, c0, c1, ok := Undersample(groups[k], label, seed)
		if !ok {
			name, found := names[k]
			if !found {
				name = strconv.FormatFloat(k, 'f', -1, 64)
			}
			warnings = append(warnings, &customerrors.UnbalanceableSegmentWarning{Segment: name, Class0: c0, Class1: c1})
		}
		idx = append(idx, kept...)
	}
	return f.Take(idx), warnings, nil
}
