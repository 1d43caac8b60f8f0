package balance_test

import (
	"testing"

	"fieldops-forecast/balance"
	"fieldops-forecast/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentFrame(segment, label []float64) *ml.Frame {
	f := ml.NewFrame("train", len(segment))
	_ = f.SetInteger("ID STATUS", segment)
	_ = f.SetInteger("ID EFETIVIDADE", label)
	return f
}

func count(values []float64, want float64) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}

func TestUndersample(t *testing.T) {
	label := []float64{1, 1, 1, 1, 1, 0, 0, 1}
	rows := []int{0, 1, 2, 3, 4, 5, 6, 7}

	kept, c0, c1, ok := balance.Undersample(rows, label, 42)
	require.True(t, ok)
	assert.Equal(t, 2, c0)
	assert.Equal(t, 6, c1)
	assert.Len(t, kept, 4)
	assert.Contains(t, kept, 5)
	assert.Contains(t, kept, 6)

	again, _, _, _ := balance.Undersample(rows, label, 42)
	assert.Equal(t, kept, again, "seeded sampling is reproducible")

	seen := map[int]bool{}
	for _, k := range kept {
		assert.False(t, seen[k], "sampled without replacement")
		seen[k] = true
	}
}

func TestUndersample_MissingClass(t *testing.T) {
	label := []float64{1, 1, 1}
	kept, c0, c1, ok := balance.Undersample([]int{0, 1, 2}, label, 42)
	assert.False(t, ok)
	assert.Equal(t, []int{0, 1, 2}, kept)
	assert.Equal(t, 0, c0)
	assert.Equal(t, 3, c1)
}

func TestBySegment(t *testing.T) {
	tests := map[string]struct {
		segment      []float64
		label        []float64
		wantRows     int
		wantWarnings []string
	}{
		"both segments balanceable": {
			segment:  []float64{1001, 1001, 1001, 1002, 1002, 1002, 1002},
			label:    []float64{0, 1, 1, 0, 0, 0, 1},
			wantRows: 4,
		},
		"emergency missing class 0": {
			segment:      []float64{1001, 1001, 1002, 1002},
			label:        []float64{0, 1, 1, 1},
			wantRows:     4,
			wantWarnings: []string{"EMERGENCIAL"},
		},
		"unnamed segment": {
			segment:      []float64{7, 7},
			label:        []float64{0, 0},
			wantRows:     2,
			wantWarnings: []string{"7"},
		},
	}

	names := map[float64]string{1001: "COMERCIAL", 1002: "EMERGENCIAL"}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := segmentFrame(tt.segment, tt.label)
			out, warnings, err := balance.BySegment(f, "ID STATUS", "ID EFETIVIDADE", 42, names)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, out.Len())

			var got []string
			for _, w := range warnings {
				got = append(got, w.Segment)
			}
			assert.Equal(t, tt.wantWarnings, got)
		})
	}
}

func TestBySegment_ClassesEqual(t *testing.T) {
	segment := make([]float64, 50)
	label := make([]float64, 50)
	for i := range segment {
		segment[i] = 1001
		if i%2 == 0 {
			segment[i] = 1002
		}
		if i%5 == 0 {
			label[i] = 1
		}
	}

	out, warnings, err := balance.BySegment(segmentFrame(segment, label), "ID STATUS", "ID EFETIVIDADE", 42, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	seg, _ := out.Numeric("ID STATUS")
	lab, _ := out.Numeric("ID EFETIVIDADE")
	for _, s := range []float64{1001, 1002} {
		var l []float64
		for i := range seg {
			if seg[i] == s {
				l = append(l, lab[i])
			}
		}
		assert.Equal(t, count(l, 0), count(l, 1), "segment %v", s)
	}
}

func TestBySegment_MissingColumn(t *testing.T) {
	f := ml.NewFrame("train", 0)
	_, _, err := balance.BySegment(f, "ID STATUS", "ID EFETIVIDADE", 42, nil)
	assert.Error(t, err)
}
