package classifier

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/core/parallel"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// RandomForest is a bootstrap ensemble of fully grown CART trees with
// per-split feature subsampling (mtry). The positive-class probability is
// the share of trees voting positive.
//
// Each tree derives its seed from the forest seed and its index, so a fit
// is reproducible regardless of how the tree loop is scheduled.
type RandomForest struct {
	model.BaseEstimator

	nTrees int
	mtry   int
	seed   int64

	trees_       []*DecisionTree
	importances_ []float64
	nFeatures_   int
}

// ForestOption is a functional option for RandomForest.
type ForestOption func(*RandomForest)

// WithForestTrees sets the ensemble size.
func WithForestTrees(n int) ForestOption {
	return func(f *RandomForest) { f.nTrees = n }
}

// WithForestMtry sets the number of features sampled per split.
func WithForestMtry(mtry int) ForestOption {
	return func(f *RandomForest) { f.mtry = mtry }
}

// WithForestSeed seeds bootstrap sampling and the per-tree seeds.
func WithForestSeed(seed int64) ForestOption {
	return func(f *RandomForest) { f.seed = seed }
}

// NewRandomForest creates a forest of 500 trees, matching the randomForest
// default of the reference analysis. Mtry defaults to 3 (≈√12 features).
func NewRandomForest(opts ...ForestOption) *RandomForest {
	f := &RandomForest{
		nTrees: 500,
		mtry:   3,
		seed:   1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit trains the ensemble. Trees are fitted in parallel; all randomness is
// drawn from per-tree generators seeded ahead of the fan-out, and results
// land in index-addressed slots, so aggregation is order-independent.
func (f *RandomForest) Fit(X mat.Matrix, y []int) error {
	n, p, err := validateFit("RandomForest.Fit", X, y)
	if err != nil {
		return err
	}
	if f.nTrees < 1 {
		return errors.NewValueError("RandomForest.Fit", "nTrees must be >= 1")
	}
	if f.mtry < 1 || f.mtry > p {
		return errors.NewValueError("RandomForest.Fit",
			fmt.Sprintf("mtry=%d out of range [1,%d]", f.mtry, p))
	}
	f.nFeatures_ = p

	f.trees_ = make([]*DecisionTree, f.nTrees)
	treeErrs := make([]error, f.nTrees)

	parallel.Parallelize(f.nTrees, func(start, end int) {
		for t := start; t < end; t++ {
			treeSeed := f.seed + int64(t)*7919
			rng := rand.New(rand.NewSource(treeSeed))

			// Bootstrap sample of n rows with replacement.
			bootX := mat.NewDense(n, p, nil)
			bootY := make([]int, n)
			for i := 0; i < n; i++ {
				src := rng.Intn(n)
				for j := 0; j < p; j++ {
					bootX.Set(i, j, X.At(src, j))
				}
				bootY[i] = y[src]
			}

			// A bootstrap draw can lose a class on tiny inputs; resample a
			// few times before giving up.
			if singleClass(bootY) {
				ok := false
				for retry := 0; retry < 10; retry++ {
					for i := 0; i < n; i++ {
						src := rng.Intn(n)
						for j := 0; j < p; j++ {
							bootX.Set(i, j, X.At(src, j))
						}
						bootY[i] = y[src]
					}
					if !singleClass(bootY) {
						ok = true
						break
					}
				}
				if !ok {
					treeErrs[t] = errors.NewModelError("RandomForest.Fit",
						fmt.Sprintf("tree %d: bootstrap sample kept a single class", t),
						errors.ErrSingleClass)
					continue
				}
			}

			tree := NewDecisionTree(
				WithTreeCP(0),
				WithTreeMinSplit(2),
				WithTreeMtry(f.mtry),
				WithTreeSeed(treeSeed),
			)
			if err := tree.Fit(bootX, bootY); err != nil {
				treeErrs[t] = errors.Wrapf(err, "tree %d", t)
				continue
			}
			f.trees_[t] = tree
		}
	})

	for _, err := range treeErrs {
		if err != nil {
			return err
		}
	}

	f.importances_ = make([]float64, p)
	for _, tree := range f.trees_ {
		for j, imp := range tree.importances_ {
			f.importances_[j] += imp / float64(f.nTrees)
		}
	}

	f.SetFitted()
	return nil
}

func singleClass(y []int) bool {
	first := y[0]
	for _, label := range y[1:] {
		if label != first {
			return false
		}
	}
	return true
}

// PredictProba returns the share of trees voting for the positive class.
func (f *RandomForest) PredictProba(X mat.Matrix) ([]float64, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForest", "PredictProba")
	}
	rows, err := validatePredict("RandomForest.PredictProba", X, f.nFeatures_)
	if err != nil {
		return nil, err
	}

	votes := make([]float64, rows)
	for _, tree := range f.trees_ {
		labels, err := tree.Predict(X)
		if err != nil {
			return nil, err
		}
		for i, label := range labels {
			votes[i] += float64(label)
		}
	}
	for i := range votes {
		votes[i] /= float64(f.nTrees)
	}
	return votes, nil
}

// Predict returns hard labels by majority vote.
func (f *RandomForest) Predict(X mat.Matrix) ([]int, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (f *RandomForest) Clone() Classifier {
	return NewRandomForest(
		WithForestTrees(f.nTrees),
		WithForestMtry(f.mtry),
		WithForestSeed(f.seed),
	)
}

// Name identifies the family and its mtry.
func (f *RandomForest) Name() string { return fmt.Sprintf("rf(mtry=%d)", f.mtry) }

// Params exposes the hyperparameters.
func (f *RandomForest) Params() map[string]interface{} {
	return map[string]interface{}{"n_trees": f.nTrees, "mtry": f.mtry}
}

// Importances returns the mean per-tree decrease in gini impurity per
// feature, for the variable-importance ranking in the report.
func (f *RandomForest) Importances() []float64 {
	return append([]float64(nil), f.importances_...)
}

var _ Classifier = (*RandomForest)(nil)
