package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/iman-ch/heart-failure-risk-prediction/cluster"
	"github.com/iman-ch/heart-failure-risk-prediction/evaluation"
	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// WriteComparisonTable renders the family-by-family comparison as plain
// text: test-partition metrics alongside the cross-validated selection
// score of each family's winning hyperparameters.
func WriteComparisonTable(w io.Writer, models []*evaluation.TrainedModel, reports []*evaluation.MetricReport) error {
	if len(models) != len(reports) {
		return errors.NewDimensionError("WriteComparisonTable", len(models), len(reports), 0)
	}

	fmt.Fprintf(w, "%-10s  %-22s  %8s  %9s  %8s  %8s  %8s  %8s  %14s\n",
		"family", "selected", "accuracy", "precision", "recall", "f1", "roc_auc", "pr_auc", "cv_auc")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, rep := range reports {
		tm := models[i]
		fmt.Fprintf(w, "%-10s  %-22s  %8.4f  %9.4f  %8.4f  %8s  %8.4f  %8.4f  %6.4f ± %.4f\n",
			rep.Family, tm.GridPoint,
			rep.Accuracy, rep.Precision, rep.Recall, formatF1(rep.F1),
			rep.ROCAUC, rep.PRAUC,
			tm.CVMeanAUC, tm.CV.StdScore(),
		)
	}

	if best := bestReport(reports); best != nil {
		fmt.Fprintf(w, "\nbest test ROC-AUC: %s (%.4f)\n", best.Family, best.ROCAUC)
	}
	return nil
}

// WriteConfusionMatrices renders each family's 2x2 confusion matrix with
// the positive class (death event) first.
func WriteConfusionMatrices(w io.Writer, reports []*evaluation.MetricReport) {
	for _, rep := range reports {
		cm := rep.Confusion
		fmt.Fprintf(w, "%s\n", rep.Family)
		fmt.Fprintf(w, "              predicted=1  predicted=0\n")
		fmt.Fprintf(w, "  actual=1    %11d  %11d\n", cm.TP, cm.FN)
		fmt.Fprintf(w, "  actual=0    %11d  %11d\n\n", cm.FP, cm.TN)
	}
}

// WriteImportances renders feature importances descending, one name and
// score per line.
func WriteImportances(w io.Writer, names []string, importances []float64) error {
	if len(names) != len(importances) {
		return errors.NewDimensionError("WriteImportances", len(names), len(importances), 0)
	}

	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return importances[order[a]] > importances[order[b]]
	})

	fmt.Fprintln(w, "random forest feature importances")
	for _, idx := range order {
		fmt.Fprintf(w, "  %-26s  %.4f\n", names[idx], importances[idx])
	}
	return nil
}

// WriteCrossTab renders the cluster/outcome contingency table.
func WriteCrossTab(w io.Writer, ct *cluster.CrossTab) {
	fmt.Fprintf(w, "k-means clusters vs death event (purity %.4f)\n", ct.Purity())
	fmt.Fprintf(w, "%-10s", "")
	for _, v := range ct.Values {
		fmt.Fprintf(w, "  death=%d", v)
	}
	fmt.Fprintln(w)
	for c, row := range ct.Counts {
		fmt.Fprintf(w, "cluster %-2d", c)
		for _, n := range row {
			fmt.Fprintf(w, "  %7d", n)
		}
		fmt.Fprintln(w)
	}
}

// WriteVarianceTable renders per-component explained variance.
func WriteVarianceTable(w io.Writer, ratios []float64) {
	fmt.Fprintln(w, "PCA explained variance ratio")
	cum := 0.0
	for i, r := range ratios {
		cum += r
		fmt.Fprintf(w, "  PC%-3d  %.4f  (cumulative %.4f)\n", i+1, r, cum)
	}
}

// SaveText writes a rendered section to a file under the output dir.
func SaveText(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	if err := render(f); err != nil {
		return err
	}
	return errors.Wrapf(f.Sync(), "flushing %s", path)
}

func formatF1(f1 float64) string {
	if math.IsNaN(f1) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", f1)
}

func bestReport(reports []*evaluation.MetricReport) *evaluation.MetricReport {
	var best *evaluation.MetricReport
	for _, rep := range reports {
		if best == nil || rep.ROCAUC > best.ROCAUC {
			best = rep
		}
	}
	return best
}
