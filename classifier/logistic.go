package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// LogisticRegression is a binary logistic regression classifier fitted by
// full-batch gradient descent with a decaying learning rate.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	penalty string  // "l2" or "none"
	c       float64 // inverse regularization strength
	maxIter int
	tol     float64

	// Fitted parameters
	coef_      []float64
	intercept_ float64
	nIter_     int
	nFeatures_ int
}

// LogisticOption is a functional option for LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithLogisticPenalty sets the regularization type ("l2" or "none").
func WithLogisticPenalty(penalty string) LogisticOption {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithLogisticC sets the inverse regularization strength.
func WithLogisticC(c float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithLogisticMaxIter sets the iteration budget.
func WithLogisticMaxIter(maxIter int) LogisticOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithLogisticTol sets the gradient-norm stopping tolerance.
func WithLogisticTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// NewLogisticRegression creates a LogisticRegression with the reference
// defaults: no penalty (the R glm fit is unregularized), 1000 iterations,
// tolerance 1e-6.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		penalty: "none",
		c:       1.0,
		maxIter: 1000,
		tol:     1e-6,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit trains the model by gradient descent on the log-loss.
func (lr *LogisticRegression) Fit(X mat.Matrix, y []int) error {
	n, p, err := validateFit("LogisticRegression.Fit", X, y)
	if err != nil {
		return err
	}

	lr.nFeatures_ = p
	lr.coef_ = make([]float64, p)
	lr.intercept_ = 0

	baseLearningRate := 1.0
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		gradW := make([]float64, p)
		gradB := 0.0
		for i := 0; i < n; i++ {
			z := lr.intercept_
			for j := 0; j < p; j++ {
				z += X.At(i, j) * lr.coef_[j]
			}
			residual := sigmoid(z) - float64(y[i])
			gradB += residual
			for j := 0; j < p; j++ {
				gradW[j] += residual * X.At(i, j)
			}
		}
		for j := range gradW {
			gradW[j] /= float64(n)
		}
		gradB /= float64(n)

		if lr.penalty == "l2" {
			lambda := 1.0 / lr.c
			for j := range lr.coef_ {
				gradW[j] += lambda * lr.coef_[j] / float64(n)
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.01*float64(iter))
		for j := range lr.coef_ {
			lr.coef_[j] -= learningRate * gradW[j]
		}
		lr.intercept_ -= learningRate * gradB
		lr.nIter_ = iter + 1

		maxGrad := math.Abs(gradB)
		for _, g := range gradW {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_, ""))
	}

	lr.SetFitted()
	return nil
}

// PredictProba returns the fitted sigmoid probability of the positive class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) ([]float64, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	rows, err := validatePredict("LogisticRegression.PredictProba", X, lr.nFeatures_)
	if err != nil {
		return nil, err
	}

	proba := make([]float64, rows)
	for i := 0; i < rows; i++ {
		z := lr.intercept_
		for j := 0; j < lr.nFeatures_; j++ {
			z += X.At(i, j) * lr.coef_[j]
		}
		proba[i] = sigmoid(z)
	}
	return proba, nil
}

// Predict returns hard labels at the 0.5 threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) ([]int, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (lr *LogisticRegression) Clone() Classifier {
	return NewLogisticRegression(
		WithLogisticPenalty(lr.penalty),
		WithLogisticC(lr.c),
		WithLogisticMaxIter(lr.maxIter),
		WithLogisticTol(lr.tol),
	)
}

// Name identifies the family.
func (lr *LogisticRegression) Name() string { return "logistic" }

// Params exposes the hyperparameters.
func (lr *LogisticRegression) Params() map[string]interface{} {
	return map[string]interface{}{
		"penalty":  lr.penalty,
		"C":        lr.c,
		"max_iter": lr.maxIter,
		"tol":      lr.tol,
	}
}

// Coef returns the fitted coefficients (for the report's odds-ratio table).
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef_...)
}

// Intercept returns the fitted intercept.
func (lr *LogisticRegression) Intercept() float64 { return lr.intercept_ }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	// Numerically stable branch for large negative z.
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

var _ Classifier = (*LogisticRegression)(nil)
