// Package evaluation implements the model-comparison machinery: stratified
// k-fold cross-validation, ROC-AUC grid search, and the uniform metric set
// computed for every classifier family on the held-out test partition.
package evaluation

import (
	"math"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// ConfusionMatrix is the 2x2 predicted-vs-actual table with "Died" (label
// 1) as the positive class.
type ConfusionMatrix struct {
	TP int // predicted 1, actual 1
	FP int // predicted 1, actual 0
	FN int // predicted 0, actual 1
	TN int // predicted 0, actual 0
}

// NewConfusionMatrix tabulates predictions against truth.
func NewConfusionMatrix(yTrue, yPred []int) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	if len(yTrue) == 0 {
		return cm, errors.Wrap(errors.ErrEmptyData, "NewConfusionMatrix")
	}
	if len(yTrue) != len(yPred) {
		return cm, errors.NewDimensionError("NewConfusionMatrix", len(yTrue), len(yPred), 0)
	}
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] > 1 || yPred[i] < 0 || yPred[i] > 1 {
			return cm, errors.NewValueError("NewConfusionMatrix", "labels must be 0 or 1")
		}
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			cm.TP++
		case yPred[i] == 1 && yTrue[i] == 0:
			cm.FP++
		case yPred[i] == 0 && yTrue[i] == 1:
			cm.FN++
		default:
			cm.TN++
		}
	}
	return cm, nil
}

// Total returns the number of tabulated rows.
func (cm ConfusionMatrix) Total() int { return cm.TP + cm.FP + cm.FN + cm.TN }

// Accuracy returns (TP+TN)/total.
func (cm ConfusionMatrix) Accuracy() float64 {
	return float64(cm.TP+cm.TN) / float64(cm.Total())
}

// Precision returns TP/(TP+FP), NaN when nothing was predicted positive.
func (cm ConfusionMatrix) Precision() float64 {
	if cm.TP+cm.FP == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no positive predictions"))
		return math.NaN()
	}
	return float64(cm.TP) / float64(cm.TP+cm.FP)
}

// Recall returns TP/(TP+FN), NaN when no positives exist.
func (cm ConfusionMatrix) Recall() float64 {
	if cm.TP+cm.FN == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no positive labels"))
		return math.NaN()
	}
	return float64(cm.TP) / float64(cm.TP+cm.FN)
}

// F1 returns the harmonic mean of precision and recall. It is NaN, never
// zero and never a crash, when precision+recall is zero or either input is
// undefined.
func (cm ConfusionMatrix) F1() float64 {
	precision := cm.Precision()
	recall := cm.Recall()
	if math.IsNaN(precision) || math.IsNaN(recall) {
		return math.NaN()
	}
	if precision+recall == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision+recall == 0"))
		return math.NaN()
	}
	return 2 * precision * recall / (precision + recall)
}
