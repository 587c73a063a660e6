package evaluation

import (
	"math"
	"testing"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

func TestROCAUC_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []int
		proba []float64
		want  float64
	}{
		{
			name:  "perfect ranking",
			yTrue: []int{0, 0, 1, 1},
			proba: []float64{0.1, 0.2, 0.8, 0.9},
			want:  1.0,
		},
		{
			name:  "inverted ranking",
			yTrue: []int{1, 1, 0, 0},
			proba: []float64{0.1, 0.2, 0.8, 0.9},
			want:  0.0,
		},
		{
			name:  "constant probabilities",
			yTrue: []int{0, 1, 0, 1},
			proba: []float64{0.5, 0.5, 0.5, 0.5},
			want:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ROCAUC(tt.yTrue, tt.proba)
			if err != nil {
				t.Fatalf("ROCAUC failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ROCAUC = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestROCAUC_SingleClass(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(nil)

	got, err := ROCAUC([]int{1, 1, 1}, []float64{0.2, 0.5, 0.9})
	if err != nil {
		t.Fatalf("ROCAUC failed: %v", err)
	}
	if got != 0.5 {
		t.Errorf("ROCAUC = %v, want the uninformative 0.5", got)
	}
	if len(warned) == 0 {
		t.Error("expected an undefined-metric warning")
	}
}

func TestROCCurve_Endpoints(t *testing.T) {
	yTrue := []int{0, 1, 0, 1, 1}
	proba := []float64{0.1, 0.9, 0.4, 0.6, 0.7}

	points, err := ROCCurve(yTrue, proba)
	if err != nil {
		t.Fatalf("ROCCurve failed: %v", err)
	}

	first, last := points[0], points[len(points)-1]
	if first.FPR != 0 || first.TPR != 0 {
		t.Errorf("first point = (%v,%v), want (0,0)", first.FPR, first.TPR)
	}
	if last.FPR != 1 || last.TPR != 1 {
		t.Errorf("last point = (%v,%v), want (1,1)", last.FPR, last.TPR)
	}

	// FPR and TPR are non-decreasing along the sweep.
	for i := 1; i < len(points); i++ {
		if points[i].FPR < points[i-1].FPR || points[i].TPR < points[i-1].TPR {
			t.Fatalf("curve not monotone at %d: %+v -> %+v", i, points[i-1], points[i])
		}
	}
}

func TestROCCurve_TiedProbabilities(t *testing.T) {
	// Three rows share one probability; the sweep must emit a single
	// point for the group, not one per row.
	yTrue := []int{1, 0, 1, 0}
	proba := []float64{0.7, 0.7, 0.7, 0.2}

	points, err := ROCCurve(yTrue, proba)
	if err != nil {
		t.Fatalf("ROCCurve failed: %v", err)
	}
	// (0,0) start, the tied group, the final point.
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3: %+v", len(points), points)
	}
	if points[1].TPR != 1 || math.Abs(points[1].FPR-0.5) > 1e-12 {
		t.Errorf("tied group point = %+v, want TPR=1 FPR=0.5", points[1])
	}
}

func TestPRAUC_PerfectRanking(t *testing.T) {
	got, err := PRAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	if err != nil {
		t.Fatalf("PRAUC failed: %v", err)
	}
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("PRAUC = %v, want 1.0", got)
	}
}

func TestPRAUC_NoPositives(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(nil)

	got, err := PRAUC([]int{0, 0, 0}, []float64{0.1, 0.5, 0.9})
	if err != nil {
		t.Fatalf("PRAUC failed: %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("PRAUC = %v, want NaN", got)
	}
	if len(warned) == 0 {
		t.Error("expected an undefined-metric warning")
	}
}

func TestPRCurve_Anchor(t *testing.T) {
	points, err := PRCurve([]int{0, 1, 1}, []float64{0.2, 0.6, 0.9})
	if err != nil {
		t.Fatalf("PRCurve failed: %v", err)
	}
	if points[0].Recall != 0 {
		t.Errorf("anchor recall = %v, want 0", points[0].Recall)
	}
	if points[0].Precision != points[1].Precision {
		t.Errorf("anchor precision = %v, want the first sweep precision %v",
			points[0].Precision, points[1].Precision)
	}
}

func TestRankingValidation(t *testing.T) {
	if _, err := ROCAUC([]int{0, 1}, []float64{0.5}); err == nil {
		t.Error("expected an error on length mismatch")
	}
	if _, err := ROCAUC([]int{0, 2}, []float64{0.5, 0.5}); err == nil {
		t.Error("expected an error on a non-binary label")
	}
	if _, err := ROCAUC([]int{0, 1}, []float64{0.5, math.NaN()}); err == nil {
		t.Error("expected an error on a NaN probability")
	}
	if _, err := ROCAUC(nil, nil); err == nil {
		t.Error("expected an error on empty input")
	}
}
