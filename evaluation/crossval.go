package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/classifier"
	"github.com/iman-ch/heart-failure-risk-prediction/core/parallel"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// CVFold is one train/validation split of the training partition.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold generates k stratified folds, optionally repeated.
// Each repeat reshuffles with a seed derived from the base seed, so the
// whole resampling plan is reproducible.
type StratifiedKFold struct {
	NSplits int
	Repeats int
	Seed    int64
}

// NewStratifiedKFold creates a splitter; fewer than 2 splits falls back to
// 10 (the resampling scheme of the analysis), fewer than 1 repeat to 1.
func NewStratifiedKFold(nSplits, repeats int, seed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 10
	}
	if repeats < 1 {
		repeats = 1
	}
	return &StratifiedKFold{NSplits: nSplits, Repeats: repeats, Seed: seed}
}

// Split produces NSplits*Repeats folds over n=len(y) rows, each fold's
// validation side carrying a near-proportional share of every class.
func (skf *StratifiedKFold) Split(y []int) []CVFold {
	n := len(y)
	var folds []CVFold

	for r := 0; r < skf.Repeats; r++ {
		rng := rand.New(rand.NewSource(skf.Seed + int64(r)))

		classIndices := make(map[int][]int)
		for i, label := range y {
			classIndices[label] = append(classIndices[label], i)
		}
		classes := make([]int, 0, len(classIndices))
		for label := range classIndices {
			classes = append(classes, label)
		}
		sort.Ints(classes)

		repeat := make([]CVFold, skf.NSplits)
		for _, label := range classes {
			indices := append([]int(nil), classIndices[label]...)
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})

			foldSize := len(indices) / skf.NSplits
			remainder := len(indices) % skf.NSplits
			cur := 0
			for f := 0; f < skf.NSplits; f++ {
				take := foldSize
				if f < remainder {
					take++
				}
				repeat[f].TestIndices = append(repeat[f].TestIndices, indices[cur:cur+take]...)
				cur += take
			}
		}

		for f := range repeat {
			testSet := make(map[int]bool, len(repeat[f].TestIndices))
			for _, idx := range repeat[f].TestIndices {
				testSet[idx] = true
			}
			for i := 0; i < n; i++ {
				if !testSet[i] {
					repeat[f].TrainIndices = append(repeat[f].TrainIndices, i)
				}
			}
			sort.Ints(repeat[f].TestIndices)
		}
		folds = append(folds, repeat...)
	}
	return folds
}

// Scorer evaluates held-out probabilities against truth; higher is better.
type Scorer func(yTrue []int, proba []float64) (float64, error)

// CVResult holds per-fold scores and the held-out predictions each fold
// produced, for model-to-model resampling comparisons.
type CVResult struct {
	FoldScores      []float64
	FoldPredictions [][]float64
	FoldTestIndices [][]int
}

// MeanScore returns the mean fold score.
func (cv *CVResult) MeanScore() float64 {
	if len(cv.FoldScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range cv.FoldScores {
		sum += s
	}
	return sum / float64(len(cv.FoldScores))
}

// StdScore returns the sample standard deviation of the fold scores.
func (cv *CVResult) StdScore() float64 {
	if len(cv.FoldScores) <= 1 {
		return 0
	}
	mean := cv.MeanScore()
	sumSq := 0.0
	for _, s := range cv.FoldScores {
		diff := s - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.FoldScores)-1))
}

// CrossValidate fits a clone of clf on each fold's training side and
// scores its probabilities on the validation side. Folds run in parallel;
// every result lands in its fold's slot, so aggregation never depends on
// completion order.
//
// A fold whose training side lost a class aborts the whole call with an
// error naming the fold; the caller decides whether to skip the
// hyperparameter combination (grid search) or fail the run.
func CrossValidate(clf classifier.Classifier, X mat.Matrix, y []int, folds []CVFold, scorer Scorer) (*CVResult, error) {
	n, p := X.Dims()
	if n != len(y) {
		return nil, errors.NewDimensionError("CrossValidate", n, len(y), 0)
	}
	if len(folds) == 0 {
		return nil, errors.NewValueError("CrossValidate", "no folds")
	}

	result := &CVResult{
		FoldScores:      make([]float64, len(folds)),
		FoldPredictions: make([][]float64, len(folds)),
		FoldTestIndices: make([][]int, len(folds)),
	}
	foldErrs := make([]error, len(folds))

	parallel.Parallelize(len(folds), func(start, end int) {
		for f := start; f < end; f++ {
			fold := folds[f]
			trainX, trainY := subset(X, y, fold.TrainIndices, p)
			testX, testY := subset(X, y, fold.TestIndices, p)

			if singleClassLabels(trainY) {
				foldErrs[f] = errors.NewModelError("CrossValidate",
					fmt.Sprintf("fold %d training side has a single class", f),
					errors.ErrSingleClass)
				continue
			}

			m := clf.Clone()
			if err := m.Fit(trainX, trainY); err != nil {
				foldErrs[f] = errors.Wrapf(err, "fold %d fit", f)
				continue
			}
			proba, err := m.PredictProba(testX)
			if err != nil {
				foldErrs[f] = errors.Wrapf(err, "fold %d predict", f)
				continue
			}
			score, err := scorer(testY, proba)
			if err != nil {
				foldErrs[f] = errors.Wrapf(err, "fold %d score", f)
				continue
			}

			result.FoldScores[f] = score
			result.FoldPredictions[f] = proba
			result.FoldTestIndices[f] = fold.TestIndices
		}
	})

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func subset(X mat.Matrix, y []int, indices []int, p int) (*mat.Dense, []int) {
	outX := mat.NewDense(len(indices), p, nil)
	outY := make([]int, len(indices))
	for i, idx := range indices {
		for j := 0; j < p; j++ {
			outX.Set(i, j, X.At(idx, j))
		}
		outY[i] = y[idx]
	}
	return outX, outY
}

func singleClassLabels(y []int) bool {
	if len(y) == 0 {
		return true
	}
	first := y[0]
	for _, label := range y[1:] {
		if label != first {
			return false
		}
	}
	return true
}
