package preprocessing

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// Partition is one side of a train/test split: a feature matrix, its
// labels, and the source row indices in the full dataset.
type Partition struct {
	X       *mat.Dense
	Y       []int
	Indices []int
}

// Len returns the number of rows in the partition.
func (p *Partition) Len() int { return len(p.Y) }

// StratifiedSplitter splits a dataset into train and test partitions while
// preserving the class-label proportions in each side. Sampling is
// per-class with a seeded shuffle so a run is reproducible.
type StratifiedSplitter struct {
	TrainRatio float64
	Seed       int64
}

// NewStratifiedSplitter creates a splitter with the given train ratio
// (e.g. 0.7 for a 70/30 split) and seed.
func NewStratifiedSplitter(trainRatio float64, seed int64) *StratifiedSplitter {
	return &StratifiedSplitter{TrainRatio: trainRatio, Seed: seed}
}

// Split partitions X and y. The two partitions are disjoint and exhaustive,
// and the positive-label proportion of each side differs from the full
// dataset by at most one row per class.
func (s *StratifiedSplitter) Split(X mat.Matrix, y []int) (train, test *Partition, err error) {
	n, _ := X.Dims()
	if n == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "StratifiedSplitter.Split")
	}
	if n != len(y) {
		return nil, nil, errors.NewDimensionError("StratifiedSplitter.Split", n, len(y), 0)
	}
	if s.TrainRatio <= 0 || s.TrainRatio >= 1 {
		return nil, nil, errors.NewValueError("StratifiedSplitter.Split",
			"train ratio must be in (0, 1)")
	}

	classIndices := make(map[int][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}
	classes := make([]int, 0, len(classIndices))
	for label := range classIndices {
		classes = append(classes, label)
	}
	sort.Ints(classes) // stable iteration so the seed fully determines the split

	rng := rand.New(rand.NewSource(s.Seed))
	var trainIdx, testIdx []int
	for _, label := range classes {
		indices := append([]int(nil), classIndices[label]...)
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		trainCount := int(float64(len(indices))*s.TrainRatio + 0.5)
		if trainCount == 0 {
			trainCount = 1
		}
		if trainCount == len(indices) && len(indices) > 1 {
			trainCount--
		}

		trainIdx = append(trainIdx, indices[:trainCount]...)
		testIdx = append(testIdx, indices[trainCount:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	return takeRows(X, y, trainIdx), takeRows(X, y, testIdx), nil
}

func takeRows(X mat.Matrix, y []int, indices []int) *Partition {
	_, p := X.Dims()
	out := &Partition{
		X:       mat.NewDense(len(indices), p, nil),
		Y:       make([]int, len(indices)),
		Indices: append([]int(nil), indices...),
	}
	for i, idx := range indices {
		for j := 0; j < p; j++ {
			out.X.Set(i, j, X.At(idx, j))
		}
		out.Y[i] = y[idx]
	}
	return out
}
