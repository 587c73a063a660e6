package evaluation

import (
	"math"
	"testing"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

func TestNewConfusionMatrix_Counts(t *testing.T) {
	yTrue := []int{1, 1, 0, 0, 1, 0}
	yPred := []int{1, 0, 0, 1, 1, 0}

	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("NewConfusionMatrix failed: %v", err)
	}
	if cm.TP != 2 || cm.FN != 1 || cm.FP != 1 || cm.TN != 2 {
		t.Errorf("got TP=%d FP=%d FN=%d TN=%d, want 2/1/1/2", cm.TP, cm.FP, cm.FN, cm.TN)
	}
	if cm.Total() != 6 {
		t.Errorf("Total = %d, want 6", cm.Total())
	}
}

func TestConfusionMatrix_DerivedMetrics(t *testing.T) {
	cm := ConfusionMatrix{TP: 40, FP: 5, FN: 10, TN: 45}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"accuracy", cm.Accuracy(), 0.85},
		{"precision", cm.Precision(), 40.0 / 45.0},
		{"recall", cm.Recall(), 0.8},
		{"f1", cm.F1(), 2 * (40.0 / 45.0) * 0.8 / ((40.0 / 45.0) + 0.8)},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestConfusionMatrix_UndefinedMetrics(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(nil)

	// No predicted positives, no actual positives: precision, recall
	// and F1 are all undefined.
	cm := ConfusionMatrix{TP: 0, FP: 0, FN: 0, TN: 10}

	if !math.IsNaN(cm.Precision()) {
		t.Error("precision should be NaN with no predicted positives")
	}
	if !math.IsNaN(cm.Recall()) {
		t.Error("recall should be NaN with no actual positives")
	}
	if !math.IsNaN(cm.F1()) {
		t.Error("F1 should be NaN when precision and recall vanish")
	}
	if len(warned) == 0 {
		t.Error("expected undefined-metric warnings")
	}
	for _, w := range warned {
		var umw *errors.UndefinedMetricWarning
		if !errors.As(w, &umw) {
			t.Errorf("warning %v is not an UndefinedMetricWarning", w)
		}
	}
}

func TestNewConfusionMatrix_Validation(t *testing.T) {
	if _, err := NewConfusionMatrix([]int{1, 0}, []int{1}); err == nil {
		t.Error("expected an error on length mismatch")
	}
	if _, err := NewConfusionMatrix(nil, nil); err == nil {
		t.Error("expected an error on empty input")
	}
	if _, err := NewConfusionMatrix([]int{2}, []int{1}); err == nil {
		t.Error("expected an error on a non-binary label")
	}
}
