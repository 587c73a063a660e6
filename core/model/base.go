// Package model holds the shared estimator plumbing: every fitted thing
// in the pipeline (scalers, classifiers, PCA, k-means) embeds
// BaseEstimator and refuses to predict or transform before Fit.
package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted is the zero state of a fresh estimator.
	NotFitted EstimatorState = iota
	// Fitted marks an estimator whose Fit completed successfully.
	Fitted
)

// BaseEstimator carries the fitted/unfitted state common to every
// estimator. Embedding it gives a type IsFitted/SetFitted/Reset for free;
// the embedding type remains responsible for checking IsFitted at the top
// of its inference methods.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether Fit has completed.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted. Call it as the last step of a
// successful Fit, never before the learned parameters are in place.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
