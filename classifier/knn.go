package classifier

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/core/parallel"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// KNN is a k-nearest-neighbors classifier over squared Euclidean distance.
// The positive-class probability of a query is the share of positive
// labels among its k nearest training rows.
type KNN struct {
	model.BaseEstimator

	k int

	// Fitted state: the training data itself (lazy learner).
	x_         *mat.Dense
	y_         []int
	nFeatures_ int
}

// KNNOption is a functional option for KNN.
type KNNOption func(*KNN)

// WithKNNNeighbors sets k. The grid uses odd k in 3..21 so votes cannot tie.
func WithKNNNeighbors(k int) KNNOption {
	return func(m *KNN) { m.k = k }
}

// NewKNN creates a KNN classifier with k=5.
func NewKNN(opts ...KNNOption) *KNN {
	m := &KNN{k: 5}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fit stores the training data.
func (m *KNN) Fit(X mat.Matrix, y []int) error {
	n, p, err := validateFit("KNN.Fit", X, y)
	if err != nil {
		return err
	}
	if m.k < 1 {
		return errors.NewValueError("KNN.Fit", "k must be >= 1")
	}
	if m.k > n {
		return errors.NewValueError("KNN.Fit",
			fmt.Sprintf("k=%d exceeds the %d training rows", m.k, n))
	}

	m.nFeatures_ = p
	m.x_ = mat.DenseCopyOf(X)
	m.y_ = append([]int(nil), y...)
	m.SetFitted()
	return nil
}

// PredictProba returns the positive-neighbor share per query row.
func (m *KNN) PredictProba(X mat.Matrix) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("KNN", "PredictProba")
	}
	rows, err := validatePredict("KNN.PredictProba", X, m.nFeatures_)
	if err != nil {
		return nil, err
	}

	nTrain, _ := m.x_.Dims()
	proba := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 16, func(start, end int) {
		type neighbor struct {
			dist  float64
			label int
		}
		neighbors := make([]neighbor, nTrain)
		for i := start; i < end; i++ {
			for t := 0; t < nTrain; t++ {
				d := 0.0
				for j := 0; j < m.nFeatures_; j++ {
					diff := X.At(i, j) - m.x_.At(t, j)
					d += diff * diff
				}
				neighbors[t] = neighbor{dist: d, label: m.y_[t]}
			}
			sort.Slice(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })

			positives := 0
			for _, nb := range neighbors[:m.k] {
				positives += nb.label
			}
			proba[i] = float64(positives) / float64(m.k)
		}
	})
	return proba, nil
}

// Predict returns hard labels by majority vote.
func (m *KNN) Predict(X mat.Matrix) ([]int, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (m *KNN) Clone() Classifier {
	return NewKNN(WithKNNNeighbors(m.k))
}

// Name identifies the family and k.
func (m *KNN) Name() string { return fmt.Sprintf("knn(k=%d)", m.k) }

// Params exposes the hyperparameters.
func (m *KNN) Params() map[string]interface{} {
	return map[string]interface{}{"k": m.k}
}

var _ Classifier = (*KNN)(nil)
