package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/iman-ch/heart-failure-risk-prediction/cluster"
	"github.com/iman-ch/heart-failure-risk-prediction/evaluation"
)

func fakeRun() ([]*evaluation.TrainedModel, []*evaluation.MetricReport) {
	models := []*evaluation.TrainedModel{
		{Family: "lda", GridPoint: "lda", CVMeanAUC: 0.82, CV: &evaluation.CVResult{FoldScores: []float64{0.8, 0.84}}},
		{Family: "rf", GridPoint: "rf(mtry=3)", CVMeanAUC: 0.9, CV: &evaluation.CVResult{FoldScores: []float64{0.88, 0.92}}},
	}
	reports := []*evaluation.MetricReport{
		{
			Family: "lda", Accuracy: 0.8, Precision: 0.75, Recall: 0.7, F1: 0.72,
			ROCAUC: 0.85, PRAUC: 0.7,
			Confusion: evaluation.ConfusionMatrix{TP: 20, FP: 5, FN: 8, TN: 57},
		},
		{
			Family: "rf", Accuracy: 0.88, Precision: 0.8, Recall: math.NaN(), F1: math.NaN(),
			ROCAUC: 0.91, PRAUC: 0.8,
			Confusion: evaluation.ConfusionMatrix{TP: 24, FP: 4, FN: 4, TN: 58},
		},
	}
	return models, reports
}

func TestWriteComparisonTable(t *testing.T) {
	models, reports := fakeRun()

	var buf bytes.Buffer
	if err := WriteComparisonTable(&buf, models, reports); err != nil {
		t.Fatalf("WriteComparisonTable failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"lda", "rf(mtry=3)", "roc_auc", "0.8500", "0.9100", "NaN"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "best test ROC-AUC: rf") {
		t.Errorf("table missing best-family line:\n%s", out)
	}
}

func TestWriteComparisonTable_LengthMismatch(t *testing.T) {
	models, reports := fakeRun()
	var buf bytes.Buffer
	if err := WriteComparisonTable(&buf, models[:1], reports); err == nil {
		t.Error("expected an error on model/report mismatch")
	}
}

func TestWriteConfusionMatrices(t *testing.T) {
	_, reports := fakeRun()

	var buf bytes.Buffer
	WriteConfusionMatrices(&buf, reports)
	out := buf.String()

	if !strings.Contains(out, "predicted=1") || !strings.Contains(out, "actual=0") {
		t.Errorf("matrix headers missing:\n%s", out)
	}
	if !strings.Contains(out, "20") || !strings.Contains(out, "57") {
		t.Errorf("matrix counts missing:\n%s", out)
	}
}

func TestWriteImportances_SortsDescending(t *testing.T) {
	var buf bytes.Buffer
	err := WriteImportances(&buf, []string{"age", "time", "serum_creatinine"}, []float64{0.1, 0.5, 0.3})
	if err != nil {
		t.Fatalf("WriteImportances failed: %v", err)
	}
	out := buf.String()

	timeAt := strings.Index(out, "time")
	serumAt := strings.Index(out, "serum_creatinine")
	ageAt := strings.Index(out, "age")
	if !(timeAt < serumAt && serumAt < ageAt) {
		t.Errorf("importances not sorted descending:\n%s", out)
	}
}

func TestWriteCrossTab(t *testing.T) {
	ct, err := cluster.NewCrossTab([]int{0, 0, 1, 1}, []int{1, 1, 0, 0})
	if err != nil {
		t.Fatalf("NewCrossTab failed: %v", err)
	}

	var buf bytes.Buffer
	WriteCrossTab(&buf, ct)
	out := buf.String()

	if !strings.Contains(out, "cluster 0") || !strings.Contains(out, "death=1") {
		t.Errorf("cross-tab headers missing:\n%s", out)
	}
	if !strings.Contains(out, "purity 1.0000") {
		t.Errorf("purity missing:\n%s", out)
	}
}

func TestWriteVarianceTable(t *testing.T) {
	var buf bytes.Buffer
	WriteVarianceTable(&buf, []float64{0.6, 0.3, 0.1})
	out := buf.String()

	if !strings.Contains(out, "PC1") || !strings.Contains(out, "cumulative 1.0000") {
		t.Errorf("variance table incomplete:\n%s", out)
	}
}
