// Package forest implements a random-forest regressor: bootstrap-sampled
// CART trees split on variance reduction, averaged at prediction time.
package forest

import (
	"sort"
)

// Node is one node of a regression tree. Leaf nodes have Feature == -1.
// Fields are exported for gob encoding.
type Node struct {
	Feature   int     // predictor index, -1 for leaf
	Threshold float64 // go left when x[Feature] <= Threshold
	Left      int     // child node index
	Right     int     // child node index
	Value     float64 // mean target at this node (prediction for leaves)
}

// Tree is a fitted regression tree stored as a flat node arena.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for a single feature vector.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Feature >= 0 {
		if x[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return t.Nodes[i].Value
}

// treeBuilder grows one tree on a bootstrap sample.
type treeBuilder struct {
	x          [][]float64
	y          []float64
	minLeaf    int
	maxDepth   int // 0 = unlimited
	nodes      []Node
	importance []float64 // summed SSE decrease per feature
}

// grow builds the subtree for the sample indices in idx and returns its
// node index. idx is reordered in place while partitioning.
func (b *treeBuilder) grow(idx []int, depth int) int {
	value := b.meanY(idx)

	if len(idx) < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) || b.pure(idx) {
		return b.leaf(value)
	}

	feature, threshold, gain, ok := b.bestSplit(idx)
	if !ok {
		return b.leaf(value)
	}
	b.importance[feature] += gain

	mid := partition(b.x, idx, feature, threshold)

	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold, Value: value})
	b.nodes[self].Left = b.grow(idx[:mid], depth+1)
	b.nodes[self].Right = b.grow(idx[mid:], depth+1)
	return self
}

func (b *treeBuilder) leaf(value float64) int {
	b.nodes = append(b.nodes, Node{Feature: -1, Value: value})
	return len(b.nodes) - 1
}

func (b *treeBuilder) meanY(idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans every feature for the split that most reduces the sum of
// squared errors. For each feature the candidates are sorted once and
// evaluated with running sums.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)

	sorted := make([]int, n)
	bestSSE := parentSSE
	feature = -1

	for f := range b.x[0] {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			yi := b.y[sorted[pos]]
			leftSum += yi
			leftSq += yi * yi

			nl := pos + 1
			if nl < b.minLeaf || n-nl < b.minLeaf {
				continue
			}
			cur, next := b.x[sorted[pos]][f], b.x[sorted[pos+1]][f]
			if cur == next {
				continue // can't split between equal values
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(n-nl))
			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = cur + (next-cur)/2
			}
		}
	}

	if feature < 0 || parentSSE-bestSSE <= 0 {
		return 0, 0, 0, false
	}
	return feature, threshold, parentSSE - bestSSE, true
}

// partition reorders idx so rows with x[feature] <= threshold come first,
// returning the boundary.
func partition(x [][]float64, idx []int, feature int, threshold float64) int {
	mid := 0
	for i, row := range idx {
		if x[row][feature] <= threshold {
			idx[i], idx[mid] = idx[mid], idx[i]
			mid++
		}
	}
	return mid
}
