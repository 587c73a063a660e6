// Package preprocessing implements the feature standardization and the
// stratified train/test partitioning that feed the model trainer.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/core/model"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// StandardScaler re-scales selected columns to zero mean and unit sample
// standard deviation (ddof=1, matching R's scale()). Columns outside the
// selection (the binary indicators) pass through untouched.
//
// Scaling statistics come from the data given to Fit only. Fitting on the
// training partition and transforming both partitions keeps test rows out
// of the scaling parameters.
type StandardScaler struct {
	model.BaseEstimator

	// Mean holds the fitted mean per scaled column.
	Mean []float64

	// Scale holds the fitted sample standard deviation per scaled column.
	Scale []float64

	// NFeatures is the total column count seen at Fit time.
	NFeatures int

	columns []int // scaled column indices; nil means all columns
}

// ScalerOption configures a StandardScaler.
type ScalerOption func(*StandardScaler)

// WithColumns restricts scaling to the given column indices.
func WithColumns(columns []int) ScalerOption {
	return func(s *StandardScaler) {
		s.columns = append([]int(nil), columns...)
	}
}

// NewStandardScaler creates a new StandardScaler.
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(preprocessing.WithColumns(cont))
//	if err := scaler.Fit(XTrain); err != nil { ... }
//	XTrainStd, err := scaler.Transform(XTrain)
//	XTestStd, err := scaler.Transform(XTest) // train statistics only
func NewStandardScaler(opts ...ScalerOption) *StandardScaler {
	s := &StandardScaler{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// scaledColumns resolves the column selection against the fitted width.
func (s *StandardScaler) scaledColumns() []int {
	if s.columns != nil {
		return s.columns
	}
	all := make([]int, s.NFeatures)
	for j := range all {
		all[j] = j
	}
	return all
}

// Fit computes per-column mean and sample standard deviation from X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if r < 2 {
		return errors.NewModelError("StandardScaler.Fit", "need at least 2 rows for a sample standard deviation", nil)
	}
	for _, j := range s.columns {
		if j < 0 || j >= c {
			return errors.NewValueError("StandardScaler.Fit",
				fmt.Sprintf("column index %d out of range [0,%d)", j, c))
		}
	}

	s.NFeatures = c
	cols := s.scaledColumns()
	s.Mean = make([]float64, len(cols))
	s.Scale = make([]float64, len(cols))

	for k, j := range cols {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		s.Mean[k] = sum / float64(r)

		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - s.Mean[k]
			sumSquares += diff * diff
		}
		s.Scale[k] = math.Sqrt(sumSquares / float64(r-1))

		// Constant columns would divide by zero; clamp to 1.
		if math.Abs(s.Scale[k]) < 1e-8 {
			s.Scale[k] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes the selected columns of X using the fitted
// statistics and copies the remaining columns through unchanged.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j))
		}
	}
	for k, j := range s.scaledColumns() {
		for i := 0; i < r; i++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[k])/s.Scale[k])
		}
	}
	return result, nil
}

// FitTransform fits on X and transforms the same data.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j))
		}
	}
	for k, j := range s.scaledColumns() {
		for i := 0; i < r; i++ {
			result.Set(i, j, X.At(i, j)*s.Scale[k]+s.Mean[k])
		}
	}
	return result, nil
}

// String returns the scaler's string representation.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return "StandardScaler(unfitted)"
	}
	return fmt.Sprintf("StandardScaler(n_features=%d, n_scaled=%d)", s.NFeatures, len(s.Mean))
}
