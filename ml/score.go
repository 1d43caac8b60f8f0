package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	return floats.Distance(yTrue, yPred, 2) / math.Sqrt(float64(len(yTrue)))
}

// R2 is the coefficient of determination. A constant target scores 1 when
// predicted exactly and 0 otherwise.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	if floats.Min(yTrue) == floats.Max(yTrue) {
		if floats.Equal(yTrue, yPred) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

// ClassScores are the precision, recall and F1 of one class.
type ClassScores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport holds per-class and macro averaged scores of a
// binary classifier.
type ClassificationReport struct {
	Classes  [2]ClassScores `json:"classes"`
	Macro    ClassScores    `json:"macro"`
	Accuracy float64        `json:"accuracy"`
}

// Classify scores 0/1 predictions. Undefined ratios count as 0.
func Classify(yTrue, yPred []float64) ClassificationReport {
	var report ClassificationReport
	var tp, fp, fn [2]int
	correct := 0
	for i := range yTrue {
		t, p := label(yTrue[i]), label(yPred[i])
		report.Classes[t].Support++
		if t == p {
			tp[t]++
			correct++
		} else {
			fp[p]++
			fn[t]++
		}
	}

	for c := 0; c < 2; c++ {
		s := &report.Classes[c]
		s.Precision = ratio(tp[c], tp[c]+fp[c])
		s.Recall = ratio(tp[c], tp[c]+fn[c])
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		report.Macro.Precision += s.Precision / 2
		report.Macro.Recall += s.Recall / 2
		report.Macro.F1 += s.F1 / 2
		report.Macro.Support += s.Support
	}
	report.Accuracy = ratio(correct, len(yTrue))
	return report
}

func label(v float64) int {
	if v == 1 {
		return 1
	}
	return 0
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
