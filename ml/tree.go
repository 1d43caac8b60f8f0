package ml

import (
	"math"
	"sort"
)

// Node is one node of a fitted regression tree. Leaves carry Value; internal
// nodes send x[Feature] <= Threshold to Left and everything else, NaN
// included, to Right.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a binary CART regression tree stored as a flat node slice with the
// root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// leaf returns the index of the leaf x falls into.
func (t *Tree) leaf(x []float64) int {
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return i
}

// Predict returns the leaf value for x.
func (t *Tree) Predict(x []float64) float64 {
	return t.Nodes[t.leaf(x)].Value
}

type treeBuilder struct {
	X              [][]float64
	target         []float64
	maxDepth       int
	minSamplesLeaf int
	nodes          []Node
}

// fitTree grows a least-squares tree on target over the rows in idx.
func fitTree(X [][]float64, target []float64, idx []int, maxDepth, minSamplesLeaf int) *Tree {
	if minSamplesLeaf < 1 {
		minSamplesLeaf = 1
	}
	b := &treeBuilder{X: X, target: target, maxDepth: maxDepth, minSamplesLeaf: minSamplesLeaf}
	b.grow(append([]int(nil), idx...), 0)
	return &Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	at := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Value: b.mean(idx)})

	if depth >= b.maxDepth || len(idx) < 2*b.minSamplesLeaf {
		return at
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return at
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[at] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return at
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += b.target[i]
	}
	return sum / float64(len(idx))
}

// sortKey orders NaN after every number so that missing values always
// fall to the right of a split.
func sortKey(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

// bestSplit finds the split with the largest reduction in squared error.
// Candidate thresholds lie halfway between distinct consecutive values.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	total := 0.0
	for _, i := range idx {
		total += b.target[i]
	}

	bestGain := 1e-12
	bestFeature, bestThreshold, found := 0, 0.0, false
	order := make([]int, n)

	for f := 0; f < len(b.X[idx[0]]); f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool {
			return sortKey(b.X[order[a]][f]) < sortKey(b.X[order[c]][f])
		})

		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			leftSum += b.target[order[k]]
			lo := sortKey(b.X[order[k]][f])
			hi := sortKey(b.X[order[k+1]][f])
			if lo == hi || math.IsInf(lo, 1) {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < b.minSamplesLeaf || nr < b.minSamplesLeaf {
				continue
			}
			rightSum := total - leftSum
			// SSE reduction up to a constant: sum_l^2/n_l + sum_r^2/n_r - total^2/n.
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - total*total/float64(n)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if math.IsInf(hi, 1) || bestThreshold >= hi {
					bestThreshold = lo
				}
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
