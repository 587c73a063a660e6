package report

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/iman-ch/heart-failure-risk-prediction/evaluation"
)

func plotReports() []*evaluation.MetricReport {
	return []*evaluation.MetricReport{
		{
			Family: "lda", ROCAUC: 0.8, PRAUC: 0.7,
			ROC: []evaluation.ROCPoint{{FPR: 0, TPR: 0}, {FPR: 0.2, TPR: 0.8}, {FPR: 1, TPR: 1}},
			PR:  []evaluation.PRPoint{{Recall: 0, Precision: 1}, {Recall: 1, Precision: 0.5}},
		},
		{
			Family: "rf", ROCAUC: 0.9, PRAUC: 0.85,
			ROC: []evaluation.ROCPoint{{FPR: 0, TPR: 0}, {FPR: 0.1, TPR: 0.9}, {FPR: 1, TPR: 1}},
			PR:  []evaluation.PRPoint{{Recall: 0, Precision: 1}, {Recall: 1, Precision: 0.6}},
		},
	}
}

func assertFileWritten(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("plot file %s is empty", path)
	}
}

func TestROCOverlay_WritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roc.png")
	if err := ROCOverlay(plotReports(), path); err != nil {
		t.Fatalf("ROCOverlay failed: %v", err)
	}
	assertFileWritten(t, path)
}

func TestPROverlay_WritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pr.png")
	if err := PROverlay(plotReports(), path); err != nil {
		t.Fatalf("PROverlay failed: %v", err)
	}
	assertFileWritten(t, path)
}

func TestScreePlot_WritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scree.png")
	if err := ScreePlot([]float64{0.5, 0.3, 0.2}, path); err != nil {
		t.Fatalf("ScreePlot failed: %v", err)
	}
	assertFileWritten(t, path)
}

func TestClusterScatter_WritesPNG(t *testing.T) {
	scores := mat.NewDense(4, 2, []float64{
		-1, -1,
		-1.2, -0.8,
		2, 2,
		2.1, 1.9,
	})
	labels := []int{0, 0, 1, 1}

	path := filepath.Join(t.TempDir(), "clusters.png")
	if err := ClusterScatter(scores, labels, path); err != nil {
		t.Fatalf("ClusterScatter failed: %v", err)
	}
	assertFileWritten(t, path)
}

func TestClusterScatter_Validation(t *testing.T) {
	one := mat.NewDense(2, 1, []float64{1, 2})
	if err := ClusterScatter(one, []int{0, 1}, "unused.png"); err == nil {
		t.Error("expected an error with a single component")
	}

	two := mat.NewDense(2, 2, nil)
	if err := ClusterScatter(two, []int{0}, "unused.png"); err == nil {
		t.Error("expected an error on label length mismatch")
	}
}
