package evaluation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// ROCPoint is one point on the ROC curve, recorded at a decision threshold.
type ROCPoint struct {
	FPR       float64
	TPR       float64
	Threshold float64
}

// PRPoint is one point on the precision-recall curve.
type PRPoint struct {
	Recall    float64
	Precision float64
	Threshold float64
}

// rankOrder returns row indices sorted by predicted probability descending.
func rankOrder(proba []float64) []int {
	order := make([]int, len(proba))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return proba[order[a]] > proba[order[b]] })
	return order
}

func validateRanking(op string, yTrue []int, proba []float64) (pos, neg int, err error) {
	if len(yTrue) == 0 {
		return 0, 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	if len(yTrue) != len(proba) {
		return 0, 0, errors.NewDimensionError(op, len(yTrue), len(proba), 0)
	}
	for i, label := range yTrue {
		if label != 0 && label != 1 {
			return 0, 0, errors.NewValidationError(op, "labels must be 0 or 1", label)
		}
		if math.IsNaN(proba[i]) {
			return 0, 0, errors.NewValueError(op, "NaN probability")
		}
		pos += label
	}
	return pos, len(yTrue) - pos, nil
}

// ROCCurve sweeps the decision threshold through every distinct predicted
// probability, descending, and records (FPR, TPR) at each step. The curve
// always starts at (0,0) and ends at (1,1).
func ROCCurve(yTrue []int, proba []float64) ([]ROCPoint, error) {
	pos, neg, err := validateRanking("ROCCurve", yTrue, proba)
	if err != nil {
		return nil, err
	}
	if pos == 0 || neg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_curve", "only one class present"))
	}

	order := rankOrder(proba)
	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: math.Inf(1)}}

	tp, fp := 0, 0
	for k, idx := range order {
		if yTrue[idx] == 1 {
			tp++
		} else {
			fp++
		}
		// Close the point only once all rows at this probability are in.
		if k+1 < len(order) && proba[order[k+1]] == proba[idx] {
			continue
		}
		points = append(points, ROCPoint{
			FPR:       rate(fp, neg),
			TPR:       rate(tp, pos),
			Threshold: proba[idx],
		})
	}
	return points, nil
}

// ROCAUC integrates the ROC curve with the trapezoidal rule. A single-class
// input yields the uninformative 0.5.
func ROCAUC(yTrue []int, proba []float64) (float64, error) {
	pos, neg, err := validateRanking("ROCAUC", yTrue, proba)
	if err != nil {
		return 0, err
	}
	if pos == 0 || neg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present"))
		return 0.5, nil
	}

	points, err := ROCCurve(yTrue, proba)
	if err != nil {
		return 0, err
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, pt := range points {
		xs[i] = pt.FPR
		ys[i] = pt.TPR
	}
	return integrate.Trapezoidal(xs, ys), nil
}

// PRCurve sweeps the same descending thresholds and records
// (recall, precision). An anchor at recall 0 with the first threshold's
// precision closes the left end of the curve.
func PRCurve(yTrue []int, proba []float64) ([]PRPoint, error) {
	pos, _, err := validateRanking("PRCurve", yTrue, proba)
	if err != nil {
		return nil, err
	}
	if pos == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("pr_curve", "no positive labels"))
		return nil, nil
	}

	order := rankOrder(proba)
	var points []PRPoint

	tp, fp := 0, 0
	for k, idx := range order {
		if yTrue[idx] == 1 {
			tp++
		} else {
			fp++
		}
		if k+1 < len(order) && proba[order[k+1]] == proba[idx] {
			continue
		}
		points = append(points, PRPoint{
			Recall:    rate(tp, pos),
			Precision: float64(tp) / float64(tp+fp),
			Threshold: proba[idx],
		})
	}

	anchor := PRPoint{Recall: 0, Precision: points[0].Precision, Threshold: math.Inf(1)}
	return append([]PRPoint{anchor}, points...), nil
}

// PRAUC integrates the precision-recall curve with the trapezoidal rule
// over recall. It is NaN when no positive labels exist.
func PRAUC(yTrue []int, proba []float64) (float64, error) {
	points, err := PRCurve(yTrue, proba)
	if err != nil {
		return 0, err
	}
	if points == nil {
		return math.NaN(), nil
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, pt := range points {
		xs[i] = pt.Recall
		ys[i] = pt.Precision
	}
	return integrate.Trapezoidal(xs, ys), nil
}

func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
