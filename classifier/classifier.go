// Package classifier implements the seven binary classifier families the
// analysis compares: linear and quadratic discriminant analysis, logistic
// regression, k-nearest-neighbors, an RBF-kernel SVM, a CART decision tree,
// and a random forest. Every family satisfies the same capability
// interface so the trainer and evaluator never special-case a model.
//
// Labels are 0/1 with 1 ("Died") as the positive class throughout.
package classifier

import (
	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// Classifier is the uniform capability interface for all model families.
type Classifier interface {
	// Fit trains the model. It fails with ErrSingleClass when y contains
	// only one class, as happens on a degenerate cross-validation fold.
	Fit(X mat.Matrix, y []int) error

	// Predict returns hard 0/1 labels for every row of X.
	Predict(X mat.Matrix) ([]int, error)

	// PredictProba returns P(y=1) for every row of X.
	PredictProba(X mat.Matrix) ([]float64, error)

	// Clone returns a fresh unfitted copy carrying the same
	// hyperparameters, for cross-validation refits.
	Clone() Classifier

	// Name identifies the family and its hyperparameters, e.g. "knn(k=7)".
	Name() string

	// Params exposes the hyperparameters for reporting.
	Params() map[string]interface{}
}

// validateFit checks shape and label sanity shared by all Fit methods.
func validateFit(op string, X mat.Matrix, y []int) (n, p int, err error) {
	n, p = X.Dims()
	if n == 0 || p == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if n != len(y) {
		return 0, 0, errors.NewDimensionError(op, n, len(y), 0)
	}
	var seen0, seen1 bool
	for _, label := range y {
		switch label {
		case 0:
			seen0 = true
		case 1:
			seen1 = true
		default:
			return 0, 0, errors.NewValidationError(op, "labels must be 0 or 1", label)
		}
	}
	if !seen0 || !seen1 {
		return 0, 0, errors.NewModelError(op, "degenerate training labels", errors.ErrSingleClass)
	}
	return n, p, nil
}

// validatePredict checks an input against the fitted feature width.
func validatePredict(op string, X mat.Matrix, nFeatures int) (rows int, err error) {
	r, c := X.Dims()
	if c != nFeatures {
		return 0, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return r, nil
}

// labelsFromProba thresholds probabilities at 0.5, the decision threshold
// implied by each model's native probability output.
func labelsFromProba(proba []float64) []int {
	labels := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			labels[i] = 1
		}
	}
	return labels
}
