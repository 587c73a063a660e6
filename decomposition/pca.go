// Package decomposition implements the principal-component analysis of the
// standardized continuous feature matrix. It is independent of the
// label-aware split: components describe the cohort, not the outcome.
package decomposition

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// PCA computes principal components by singular-value decomposition of the
// input (already standardized; Fit does not re-center or re-scale beyond
// the mean subtraction inherent to the decomposition). Components are
// ordered by descending explained variance.
type PCA struct {
	model.BaseEstimator

	components_ *mat.Dense // p × k loadings, one component per column
	variances_  []float64
	nFeatures_  int
}

// NewPCA creates a PCA transformer.
func NewPCA() *PCA {
	return &PCA{}
}

// Fit decomposes X.
func (p *PCA) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PCA.Fit", "empty data", errors.ErrEmptyData)
	}
	if r < 2 {
		return errors.NewModelError("PCA.Fit", "need at least 2 rows", nil)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return errors.NewModelError("PCA.Fit", "decomposition failed", errors.ErrSingularMatrix)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	p.components_ = &vecs
	p.variances_ = pc.VarsTo(nil)
	p.nFeatures_ = c

	p.SetFitted()
	return nil
}

// Transform projects X onto the fitted components, returning the
// per-patient component scores.
func (p *PCA) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Transform")
	}
	r, c := X.Dims()
	if c != p.nFeatures_ {
		return nil, errors.NewDimensionError("PCA.Transform", p.nFeatures_, c, 1)
	}

	_, k := p.components_.Dims()
	scores := mat.NewDense(r, k, nil)
	scores.Mul(X, p.components_)
	return scores, nil
}

// FitTransform fits on X and returns its scores.
func (p *PCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// Loadings returns the per-variable loading of each component (variables
// in rows, components in columns).
func (p *PCA) Loadings() *mat.Dense {
	if !p.IsFitted() {
		return nil
	}
	return mat.DenseCopyOf(p.components_)
}

// ExplainedVariance returns the component variances, descending.
func (p *PCA) ExplainedVariance() []float64 {
	return append([]float64(nil), p.variances_...)
}

// ExplainedVarianceRatio returns each component's share of total variance.
func (p *PCA) ExplainedVarianceRatio() []float64 {
	total := 0.0
	for _, v := range p.variances_ {
		total += v
	}
	out := make([]float64, len(p.variances_))
	if total == 0 {
		return out
	}
	for i, v := range p.variances_ {
		out[i] = v / total
	}
	return out
}
