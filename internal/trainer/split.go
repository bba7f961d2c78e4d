package trainer

import (
	"math"
	"math/rand"

	"github.com/rotisserie/eris"
)

// trainTestSplit shuffles row indices with the given seed and carves off a
// test partition of ceil(n*testSize) rows. The same seed always produces
// the same split.
func trainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, eris.Errorf("trainer: cannot split %d rows with test size %g", n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// kFold partitions the training indices into k contiguous folds; the first
// n%k folds take the extra row. No shuffle: the indices are already in
// seed-shuffled order from trainTestSplit.
func kFold(idx []int, k int) [][]int {
	n := len(idx)
	folds := make([][]int, 0, k)
	base, extra := n/k, n%k
	at := 0
	for f := 0; f < k; f++ {
		size := base
		if f < extra {
			size++
		}
		folds = append(folds, idx[at:at+size])
		at += size
	}
	return folds
}
