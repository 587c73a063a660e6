package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// gaussianClass holds the fitted per-class Gaussian: mean, log prior, and a
// Cholesky factor of the covariance (pooled for LDA, per-class for QDA).
type gaussianClass struct {
	mean     *mat.VecDense
	logPrior float64
	chol     *mat.Cholesky
	logDet   float64
}

// logLikelihood returns log π_k − ½ log|Σ| − ½ (x−μ)ᵀ Σ⁻¹ (x−μ).
// For LDA the log-determinant term is shared and cancels in the posterior,
// but including it is harmless.
func (g *gaussianClass) logLikelihood(x *mat.VecDense) float64 {
	p := x.Len()
	diff := mat.NewVecDense(p, nil)
	diff.SubVec(x, g.mean)

	solved := mat.NewVecDense(p, nil)
	if err := g.chol.SolveVecTo(solved, diff); err != nil {
		return math.Inf(-1)
	}
	quad := mat.Dot(diff, solved)
	return g.logPrior - 0.5*g.logDet - 0.5*quad
}

// scatterMatrix accumulates sum (x−μ)(x−μ)ᵀ over the rows in idx.
func scatterMatrix(X mat.Matrix, idx []int, mean *mat.VecDense, p int) *mat.SymDense {
	s := mat.NewSymDense(p, nil)
	for _, i := range idx {
		for a := 0; a < p; a++ {
			da := X.At(i, a) - mean.AtVec(a)
			for b := a; b < p; b++ {
				db := X.At(i, b) - mean.AtVec(b)
				s.SetSym(a, b, s.At(a, b)+da*db)
			}
		}
	}
	return s
}

func classMean(X mat.Matrix, idx []int, p int) *mat.VecDense {
	mean := mat.NewVecDense(p, nil)
	for _, i := range idx {
		for j := 0; j < p; j++ {
			mean.SetVec(j, mean.AtVec(j)+X.At(i, j))
		}
	}
	mean.ScaleVec(1/float64(len(idx)), mean)
	return mean
}

// factorize regularizes the diagonal slightly and Cholesky-factorizes.
func factorize(s *mat.SymDense, reg float64) (*mat.Cholesky, float64, error) {
	p := s.SymmetricDim()
	if reg > 0 {
		for j := 0; j < p; j++ {
			s.SetSym(j, j, s.At(j, j)+reg)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return nil, 0, errors.Wrap(errors.ErrSingularMatrix, "discriminant covariance")
	}
	return &chol, chol.LogDet(), nil
}

// splitByClass returns the row indices of each class.
func splitByClass(y []int) (idx0, idx1 []int) {
	for i, label := range y {
		if label == 1 {
			idx1 = append(idx1, i)
		} else {
			idx0 = append(idx0, i)
		}
	}
	return idx0, idx1
}

// posterior converts two class log-likelihoods into P(y=1).
func posterior(ll0, ll1 float64) float64 {
	m := math.Max(ll0, ll1)
	e0 := math.Exp(ll0 - m)
	e1 := math.Exp(ll1 - m)
	return e1 / (e0 + e1)
}

// ===========================================================================
//
//	Linear Discriminant Analysis
//
// ===========================================================================

// LinearDiscriminant is Gaussian discriminant analysis with a covariance
// matrix pooled across both classes.
type LinearDiscriminant struct {
	model.BaseEstimator

	reg float64 // diagonal regularization added before factorization

	classes_   [2]gaussianClass
	nFeatures_ int
}

// DiscriminantOption configures LinearDiscriminant or QuadraticDiscriminant.
type DiscriminantOption func(setter interface{ setReg(float64) })

// WithDiscriminantReg sets the diagonal regularization term.
func WithDiscriminantReg(reg float64) DiscriminantOption {
	return func(s interface{ setReg(float64) }) { s.setReg(reg) }
}

func (lda *LinearDiscriminant) setReg(reg float64) { lda.reg = reg }

// NewLinearDiscriminant creates an LDA classifier.
func NewLinearDiscriminant(opts ...DiscriminantOption) *LinearDiscriminant {
	lda := &LinearDiscriminant{reg: 1e-9}
	for _, opt := range opts {
		opt(lda)
	}
	return lda
}

// Fit estimates class means, priors, and the pooled covariance.
func (lda *LinearDiscriminant) Fit(X mat.Matrix, y []int) error {
	n, p, err := validateFit("LinearDiscriminant.Fit", X, y)
	if err != nil {
		return err
	}
	lda.nFeatures_ = p

	idx0, idx1 := splitByClass(y)
	means := [2]*mat.VecDense{classMean(X, idx0, p), classMean(X, idx1, p)}

	pooled := scatterMatrix(X, idx0, means[0], p)
	s1 := scatterMatrix(X, idx1, means[1], p)
	for a := 0; a < p; a++ {
		for b := a; b < p; b++ {
			pooled.SetSym(a, b, (pooled.At(a, b)+s1.At(a, b))/float64(n-2))
		}
	}

	chol, logDet, err := factorize(pooled, lda.reg)
	if err != nil {
		return errors.NewModelError("LinearDiscriminant.Fit", "pooled covariance", err)
	}

	counts := [2]int{len(idx0), len(idx1)}
	for k := 0; k < 2; k++ {
		lda.classes_[k] = gaussianClass{
			mean:     means[k],
			logPrior: math.Log(float64(counts[k]) / float64(n)),
			chol:     chol,
			logDet:   logDet,
		}
	}

	lda.SetFitted()
	return nil
}

// PredictProba returns the Gaussian posterior of the positive class.
func (lda *LinearDiscriminant) PredictProba(X mat.Matrix) ([]float64, error) {
	if !lda.IsFitted() {
		return nil, errors.NewNotFittedError("LinearDiscriminant", "PredictProba")
	}
	rows, err := validatePredict("LinearDiscriminant.PredictProba", X, lda.nFeatures_)
	if err != nil {
		return nil, err
	}

	proba := make([]float64, rows)
	x := mat.NewVecDense(lda.nFeatures_, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < lda.nFeatures_; j++ {
			x.SetVec(j, X.At(i, j))
		}
		proba[i] = posterior(lda.classes_[0].logLikelihood(x), lda.classes_[1].logLikelihood(x))
	}
	return proba, nil
}

// Predict returns hard labels at the 0.5 posterior threshold.
func (lda *LinearDiscriminant) Predict(X mat.Matrix) ([]int, error) {
	proba, err := lda.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (lda *LinearDiscriminant) Clone() Classifier {
	return NewLinearDiscriminant(WithDiscriminantReg(lda.reg))
}

// Name identifies the family.
func (lda *LinearDiscriminant) Name() string { return "lda" }

// Params exposes the hyperparameters.
func (lda *LinearDiscriminant) Params() map[string]interface{} {
	return map[string]interface{}{"reg": lda.reg}
}

var _ Classifier = (*LinearDiscriminant)(nil)

// ===========================================================================
//
//	Quadratic Discriminant Analysis
//
// ===========================================================================

// QuadraticDiscriminant is Gaussian discriminant analysis with a separate
// covariance matrix per class.
type QuadraticDiscriminant struct {
	model.BaseEstimator

	reg float64

	classes_   [2]gaussianClass
	nFeatures_ int
}

func (qda *QuadraticDiscriminant) setReg(reg float64) { qda.reg = reg }

// NewQuadraticDiscriminant creates a QDA classifier.
func NewQuadraticDiscriminant(opts ...DiscriminantOption) *QuadraticDiscriminant {
	qda := &QuadraticDiscriminant{reg: 1e-9}
	for _, opt := range opts {
		opt(qda)
	}
	return qda
}

// Fit estimates per-class means, priors, and covariances. A class needs at
// least nFeatures+1 members for its covariance to be full rank.
func (qda *QuadraticDiscriminant) Fit(X mat.Matrix, y []int) error {
	n, p, err := validateFit("QuadraticDiscriminant.Fit", X, y)
	if err != nil {
		return err
	}
	qda.nFeatures_ = p

	idx0, idx1 := splitByClass(y)
	for k, idx := range [][]int{idx0, idx1} {
		if len(idx) < 2 {
			return errors.NewModelError("QuadraticDiscriminant.Fit",
				fmt.Sprintf("class %d has %d members, cannot estimate covariance", k, len(idx)), nil)
		}
		mean := classMean(X, idx, p)
		cov := scatterMatrix(X, idx, mean, p)
		for a := 0; a < p; a++ {
			for b := a; b < p; b++ {
				cov.SetSym(a, b, cov.At(a, b)/float64(len(idx)-1))
			}
		}
		chol, logDet, err := factorize(cov, qda.reg)
		if err != nil {
			return errors.NewModelError("QuadraticDiscriminant.Fit",
				fmt.Sprintf("class %d covariance", k), err)
		}
		qda.classes_[k] = gaussianClass{
			mean:     mean,
			logPrior: math.Log(float64(len(idx)) / float64(n)),
			chol:     chol,
			logDet:   logDet,
		}
	}

	qda.SetFitted()
	return nil
}

// PredictProba returns the Gaussian posterior of the positive class.
func (qda *QuadraticDiscriminant) PredictProba(X mat.Matrix) ([]float64, error) {
	if !qda.IsFitted() {
		return nil, errors.NewNotFittedError("QuadraticDiscriminant", "PredictProba")
	}
	rows, err := validatePredict("QuadraticDiscriminant.PredictProba", X, qda.nFeatures_)
	if err != nil {
		return nil, err
	}

	proba := make([]float64, rows)
	x := mat.NewVecDense(qda.nFeatures_, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < qda.nFeatures_; j++ {
			x.SetVec(j, X.At(i, j))
		}
		proba[i] = posterior(qda.classes_[0].logLikelihood(x), qda.classes_[1].logLikelihood(x))
	}
	return proba, nil
}

// Predict returns hard labels at the 0.5 posterior threshold.
func (qda *QuadraticDiscriminant) Predict(X mat.Matrix) ([]int, error) {
	proba, err := qda.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba), nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (qda *QuadraticDiscriminant) Clone() Classifier {
	return NewQuadraticDiscriminant(WithDiscriminantReg(qda.reg))
}

// Name identifies the family.
func (qda *QuadraticDiscriminant) Name() string { return "qda" }

// Params exposes the hyperparameters.
func (qda *QuadraticDiscriminant) Params() map[string]interface{} {
	return map[string]interface{}{"reg": qda.reg}
}

var _ Classifier = (*QuadraticDiscriminant)(nil)
